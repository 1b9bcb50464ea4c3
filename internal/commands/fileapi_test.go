package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Qfresquin/cmk2nob/internal/ast"
)

func TestCMakeFileAPIWritesQueryStamps(t *testing.T) {
	dir := t.TempDir()
	c := newCtxAt(dir)
	node := ast.Node{Name: "cmake_file_api", Args: []ast.Arg{
		arg("QUERY"), arg("CODEMODEL-V2"), arg("CACHE-V2"),
	}}
	if err := cmakeFileAPI(c, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	queryDir := filepath.Join(dir, ".cmake", "api", "v1", "query")
	for _, name := range []string{"codemodel-v2", "cache-v2"} {
		if _, err := os.Stat(filepath.Join(queryDir, name)); err != nil {
			t.Fatalf("expected stamp file %s: %v", name, err)
		}
	}
}

func TestCMakeFileAPIClientScopesQueryDir(t *testing.T) {
	dir := t.TempDir()
	c := newCtxAt(dir)
	node := ast.Node{Name: "cmake_file_api", Args: []ast.Arg{
		arg("QUERY"), arg("CLIENT"), arg("myide"), arg("CODEMODEL-V2"),
	}}
	if err := cmakeFileAPI(c, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stamp := filepath.Join(dir, ".cmake", "api", "v1", "query", "client-myide", "codemodel-v2")
	if _, err := os.Stat(stamp); err != nil {
		t.Fatalf("expected client-scoped stamp: %v", err)
	}
}

func TestCMakeInstrumentationSetsVariablesAndWritesQuery(t *testing.T) {
	dir := t.TempDir()
	c := newCtxAt(dir)
	node := ast.Node{Name: "cmake_instrumentation", Args: []ast.Arg{
		arg("API_VERSION"), arg("1"),
		arg("HOOKS"), arg("post-build"),
		arg("QUERIES"), arg("targetInfo"), arg("dynamicSystemInformation"),
	}}
	if err := cmakeInstrumentation(c, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := c.Variable("CMAKE_INSTRUMENTATION_API_VERSION"); v != "1" {
		t.Fatalf("got api version %q", v)
	}
	if v, _ := c.Variable("CMAKE_INSTRUMENTATION_HOOKS"); v != "post-build" {
		t.Fatalf("got hooks %q", v)
	}
	if v, _ := c.Variable("CMAKE_INSTRUMENTATION_QUERIES"); v != "targetInfo;dynamicSystemInformation" {
		t.Fatalf("got queries %q", v)
	}
	entries, err := os.ReadDir(filepath.Join(dir, ".cmake", "instrumentation"))
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one query file, got %v err=%v", entries, err)
	}
}

func TestCMakeInstrumentationQuerySequenceIncrements(t *testing.T) {
	dir := t.TempDir()
	c := newCtxAt(dir)
	cmakeInstrumentation(c, ast.Node{Name: "cmake_instrumentation", Args: []ast.Arg{arg("API_VERSION"), arg("1")}})
	cmakeInstrumentation(c, ast.Node{Name: "cmake_instrumentation", Args: []ast.Arg{arg("API_VERSION"), arg("1")}})
	entries, err := os.ReadDir(filepath.Join(dir, ".cmake", "instrumentation"))
	if err != nil || len(entries) != 2 {
		t.Fatalf("expected two query files, got %v err=%v", entries, err)
	}
}
