package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Qfresquin/cmk2nob/internal/ast"
	"github.com/Qfresquin/cmk2nob/internal/evaluator"
	"github.com/Qfresquin/cmk2nob/internal/events"
	"github.com/Qfresquin/cmk2nob/internal/model"
)

func newCtxAt(dir string) *evaluator.Context {
	rec := events.NewRecorder()
	return evaluator.NewContext(model.New(), rec, dir, dir)
}

func TestFileWriteAndRead(t *testing.T) {
	dir := t.TempDir()
	c := newCtxAt(dir)
	node := ast.Node{Name: "file", Args: []ast.Arg{arg("WRITE"), arg("out.txt"), arg("hello")}}
	if err := fileCommand(c, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	readNode := ast.Node{Name: "file", Args: []ast.Arg{arg("READ"), arg("out.txt"), arg("OUT")}}
	if err := fileCommand(c, readNode); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := c.Variable("OUT"); v != "hello" {
		t.Fatalf("got %q", v)
	}
}

func TestFileHashMatchesKnownSHA256(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := newCtxAt(dir)
	node := ast.Node{Name: "file", Args: []ast.Arg{arg("HASH"), arg("SHA256"), arg("data.txt"), arg("OUT")}}
	if err := fileCommand(c, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if v, _ := c.Variable("OUT"); v != want {
		t.Fatalf("got %q want %q", v, want)
	}
}

func TestConfigureFileExpandsAtVariables(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "in.h.in"), []byte("#define VERSION \"@PROJECT_VERSION@\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := newCtxAt(dir)
	c.Set("PROJECT_VERSION", "1.2.3", false)
	node := ast.Node{Name: "configure_file", Args: []ast.Arg{arg("in.h.in"), arg("out.h")}}
	if err := configureFile(c, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "out.h"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "#define VERSION \"1.2.3\"\n" {
		t.Fatalf("got %q", string(got))
	}
}
