package effects

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestRunProcessCapturesOutput(t *testing.T) {
	result := RunProcess(context.Background(), ProcessRequest{
		Argv: []string{"echo", "hello"}, CaptureStdout: true,
	})
	if result.Status != StatusOK {
		t.Fatalf("expected OK, got %v (%v)", result.Status, result.Err)
	}
	if result.StdoutText != "hello\n" {
		t.Fatalf("got %q", result.StdoutText)
	}
}

func TestRunProcessExitNonzero(t *testing.T) {
	result := RunProcess(context.Background(), ProcessRequest{Argv: []string{"false"}})
	if result.Status != StatusExitNonzero {
		t.Fatalf("expected EXIT_NONZERO, got %v", result.Status)
	}
}

func TestRunProcessInvalidInput(t *testing.T) {
	result := RunProcess(context.Background(), ProcessRequest{})
	if result.Status != StatusInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got %v", result.Status)
	}
}

func TestBuildCompileArgvGNU(t *testing.T) {
	argv := buildCompileArgv(CompileRequest{
		Driver: "cc", Source: "probe.c", OutputPath: "probe",
		CompileDefinitions: []string{"FOO=1"}, LinkLibraries: []string{"m"},
	})
	want := []string{"cc", "-DFOO=1", "probe.c", "-o", "probe", "-lm"}
	if len(argv) != len(want) {
		t.Fatalf("got %v want %v", argv, want)
	}
	for i := range want {
		if argv[i] != want[i] {
			t.Fatalf("got %v want %v", argv, want)
		}
	}
}

func TestBuildCompileArgvMSVC(t *testing.T) {
	argv := buildCompileArgv(CompileRequest{Driver: "cl.exe", Source: "probe.c", OutputPath: "probe.exe"})
	if argv[0] != "cl.exe" || argv[len(argv)-1] != "/Fe:probe.exe" {
		t.Fatalf("got %v", argv)
	}
}

func TestFSWriteAndReadBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "out.txt")
	r := RunFS(context.Background(), FSRequest{Op: FSWriteFileBytes, Path: path, Bytes: []byte("hi")})
	if r.Status != StatusOK {
		t.Fatalf("write failed: %v", r.Err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "hi" {
		t.Fatalf("read back failed: %v %q", err, data)
	}
}

func TestFSGetFileType(t *testing.T) {
	dir := t.TempDir()
	r := RunFS(context.Background(), FSRequest{Op: FSGetFileType, Path: dir})
	if r.Kind != "directory" {
		t.Fatalf("expected directory, got %q", r.Kind)
	}
	r = RunFS(context.Background(), FSRequest{Op: FSGetFileType, Path: filepath.Join(dir, "missing")})
	if r.Kind != "none" {
		t.Fatalf("expected none, got %q", r.Kind)
	}
}

func TestFSDownloadFileURL(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	os.WriteFile(src, []byte("payload"), 0o644)
	dst := filepath.Join(dir, "dst.txt")
	r := RunFS(context.Background(), FSRequest{Op: FSDownloadToPath, URL: "file://" + src, Path: dst})
	if r.Status != StatusOK {
		t.Fatalf("download failed: %v", r.Err)
	}
	data, _ := os.ReadFile(dst)
	if string(data) != "payload" {
		t.Fatalf("got %q", data)
	}
}
