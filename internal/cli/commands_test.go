package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Qfresquin/cmk2nob/internal/ast"
)

func writeASTFixture(t *testing.T, listsFile string, file ast.File) {
	t.Helper()
	data, err := json.Marshal(file)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(listsFile+astSuffix, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func simpleNode(name string, args ...string) ast.Node {
	var a []ast.Arg
	for _, v := range args {
		a = append(a, ast.Arg{Text: v})
	}
	return ast.Node{Name: name, Args: a}
}

func TestJSONFileLoaderReadsSidecar(t *testing.T) {
	dir := t.TempDir()
	listsFile := filepath.Join(dir, "CMakeLists.txt")
	writeASTFixture(t, listsFile, ast.File{Path: listsFile, Nodes: []ast.Node{simpleNode("project", "demo")}})

	file, err := jsonFileLoader(listsFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(file.Nodes) != 1 || file.Nodes[0].Name != "project" {
		t.Fatalf("got %#v", file.Nodes)
	}
}

func TestRunEvaluateWritesEventStream(t *testing.T) {
	dir := t.TempDir()
	listsFile := filepath.Join(dir, "CMakeLists.txt")
	writeASTFixture(t, listsFile, ast.File{Path: listsFile, Nodes: []ast.Node{
		simpleNode("project", "demo"),
		simpleNode("add_executable", "app", "main.c"),
	}})

	projectRoot = dir
	out := filepath.Join(dir, "events.ndjson")
	if err := runEvaluate(listsFile, out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("expected event output file: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected non-empty event stream")
	}
}

func TestRunValidateDetectsCycle(t *testing.T) {
	dir := t.TempDir()
	listsFile := filepath.Join(dir, "CMakeLists.txt")
	writeASTFixture(t, listsFile, ast.File{Path: listsFile, Nodes: []ast.Node{
		simpleNode("project", "demo"),
		simpleNode("add_library", "a", "STATIC", "a.c"),
		simpleNode("add_library", "b", "STATIC", "b.c"),
		simpleNode("add_dependencies", "a", "b"),
		simpleNode("add_dependencies", "b", "a"),
	}})

	projectRoot = dir
	if err := runValidate(listsFile); err == nil {
		t.Fatalf("expected cycle detection to fail validation")
	}
}
