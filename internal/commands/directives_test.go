package commands

import (
	"testing"

	"github.com/Qfresquin/cmk2nob/internal/ast"
	"github.com/Qfresquin/cmk2nob/internal/model"
)

func TestAddCompileDefinitionsAppliesToExistingTargets(t *testing.T) {
	c, _ := newCtx()
	if _, err := c.Model.AddTarget("app", model.KindExecutable); err != nil {
		t.Fatal(err)
	}
	if err := addCompileDefinitions(c, ast.Node{Name: "add_compile_definitions", Args: []ast.Arg{arg("FOO=1")}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	target, _ := c.Model.Target("app")
	if len(target.CompileDefinitions) != 1 || target.CompileDefinitions[0].Value != "FOO=1" {
		t.Fatalf("got %#v", target.CompileDefinitions)
	}
}

func TestIncludeDirectoriesStripsModeKeywords(t *testing.T) {
	c, _ := newCtx()
	if _, err := c.Model.AddTarget("app", model.KindExecutable); err != nil {
		t.Fatal(err)
	}
	node := ast.Node{Name: "include_directories", Args: []ast.Arg{arg("SYSTEM"), arg("/usr/local/include")}}
	if err := includeDirectories(c, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	target, _ := c.Model.Target("app")
	if len(target.IncludeDirectories) != 1 || target.IncludeDirectories[0].Value != "/usr/local/include" {
		t.Fatalf("got %#v", target.IncludeDirectories)
	}
}

func TestSetPropertyAndGetPropertyTargetRoundtrip(t *testing.T) {
	c, _ := newCtx()
	if _, err := c.Model.AddTarget("app", model.KindExecutable); err != nil {
		t.Fatal(err)
	}
	setNode := ast.Node{Name: "set_property", Args: []ast.Arg{
		arg("TARGET"), arg("app"), arg("PROPERTY"), arg("OUTPUT_NAME"), arg("renamed"),
	}}
	if err := setProperty(c, setNode); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	getNode := ast.Node{Name: "get_property", Args: []ast.Arg{
		arg("OUT"), arg("TARGET"), arg("app"), arg("PROPERTY"), arg("OUTPUT_NAME"),
	}}
	if err := getProperty(c, getNode); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := c.Variable("OUT"); v != "renamed" {
		t.Fatalf("got %q", v)
	}
}

func TestSetPropertyAppendConcatenates(t *testing.T) {
	c, _ := newCtx()
	if _, err := c.Model.AddTarget("app", model.KindExecutable); err != nil {
		t.Fatal(err)
	}
	setProperty(c, ast.Node{Name: "set_property", Args: []ast.Arg{
		arg("TARGET"), arg("app"), arg("PROPERTY"), arg("TAGS"), arg("a"),
	}})
	setProperty(c, ast.Node{Name: "set_property", Args: []ast.Arg{
		arg("TARGET"), arg("app"), arg("APPEND"), arg("PROPERTY"), arg("TAGS"), arg("b"),
	}})
	target, _ := c.Model.Target("app")
	if target.Properties["TAGS"] != "a;b" {
		t.Fatalf("got %q", target.Properties["TAGS"])
	}
}
