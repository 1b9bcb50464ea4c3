package commands

import (
	"testing"

	"github.com/Qfresquin/cmk2nob/internal/ast"
)

func TestAddTestNameForm(t *testing.T) {
	c, _ := newCtx()
	node := ast.Node{Name: "add_test", Args: []ast.Arg{
		arg("NAME"), arg("unit"), arg("COMMAND"), arg("runner"), arg("--fast"),
	}}
	if err := addTest(c, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Model.Tests) != 1 || c.Model.Tests[0].Name != "unit" {
		t.Fatalf("got %#v", c.Model.Tests)
	}
	if len(c.Model.Tests[0].Command) != 2 {
		t.Fatalf("got command %v", c.Model.Tests[0].Command)
	}
}

func TestAddTestLegacyForm(t *testing.T) {
	c, _ := newCtx()
	node := ast.Node{Name: "add_test", Args: []ast.Arg{arg("mytest"), arg("runner"), arg("arg1")}}
	if err := addTest(c, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Model.Tests[0].Name != "mytest" || c.Model.Tests[0].Command[0] != "runner" {
		t.Fatalf("got %#v", c.Model.Tests[0])
	}
}

func TestSetAndGetTestProperty(t *testing.T) {
	c, _ := newCtx()
	addTest(c, ast.Node{Name: "add_test", Args: []ast.Arg{arg("t"), arg("runner")}})
	setTestsProperties(c, ast.Node{Name: "set_tests_properties", Args: []ast.Arg{
		arg("t"), arg("PROPERTIES"), arg("TIMEOUT"), arg("30"),
	}})
	getTestProperty(c, ast.Node{Name: "get_test_property", Args: []ast.Arg{arg("t"), arg("TIMEOUT"), arg("OUT")}})
	if v, _ := c.Variable("OUT"); v != "30" {
		t.Fatalf("got %q", v)
	}
}

func TestInstallTargetsRecordsRule(t *testing.T) {
	c, _ := newCtx()
	node := ast.Node{Name: "install", Args: []ast.Arg{
		arg("TARGETS"), arg("app"), arg("DESTINATION"), arg("bin"),
	}}
	if err := install(c, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Model.InstallRules) != 1 || c.Model.InstallRules[0].Targets[0] != "app" {
		t.Fatalf("got %#v", c.Model.InstallRules)
	}
	if c.Model.InstallRules[0].Destination != "bin" {
		t.Fatalf("got destination %q", c.Model.InstallRules[0].Destination)
	}
}

func TestCPackAddComponentDedup(t *testing.T) {
	c, _ := newCtx()
	cpackAddComponent(c, ast.Node{Name: "cpack_add_component", Args: []ast.Arg{arg("core"), arg("GROUP"), arg("runtime")}})
	cpackAddComponent(c, ast.Node{Name: "cpack_add_component", Args: []ast.Arg{arg("core"), arg("GROUP"), arg("dev")}})
	if len(c.Model.CPackComponents) != 1 || c.Model.CPackComponents[0].Group != "dev" {
		t.Fatalf("got %#v", c.Model.CPackComponents)
	}
}
