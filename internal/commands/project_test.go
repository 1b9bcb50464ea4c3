package commands

import (
	"testing"

	"github.com/Qfresquin/cmk2nob/internal/ast"
	"github.com/Qfresquin/cmk2nob/internal/evaluator"
	"github.com/Qfresquin/cmk2nob/internal/events"
	"github.com/Qfresquin/cmk2nob/internal/model"
)

func newCtx() (*evaluator.Context, *events.Recorder) {
	rec := events.NewRecorder()
	return evaluator.NewContext(model.New(), rec, "/src", "/build"), rec
}

func arg(s string) ast.Arg { return ast.Arg{Text: s} }

func TestProjectSetsMetaAndVariables(t *testing.T) {
	c, _ := newCtx()
	node := ast.Node{Name: "project", Args: []ast.Arg{
		arg("demo"), arg("VERSION"), arg("1.2.3"), arg("DESCRIPTION"), arg("a demo"),
		arg("LANGUAGES"), arg("CXX"),
	}}
	if err := project(c, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Model.Project.Name != "demo" || c.Model.Project.Version != "1.2.3" {
		t.Fatalf("got %#v", c.Model.Project)
	}
	if len(c.Model.Project.Languages) != 1 || c.Model.Project.Languages[0] != "CXX" {
		t.Fatalf("got languages %v", c.Model.Project.Languages)
	}
	if v, _ := c.Variable("PROJECT_NAME"); v != "demo" {
		t.Fatalf("got PROJECT_NAME=%q", v)
	}
}

func TestProjectDefaultLanguages(t *testing.T) {
	c, _ := newCtx()
	if err := project(c, ast.Node{Name: "project", Args: []ast.Arg{arg("demo")}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"C", "CXX"}
	got := c.Model.Project.Languages
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v", got)
	}
}

func TestCMakeMinimumRequiredSplitsRange(t *testing.T) {
	c, _ := newCtx()
	node := ast.Node{Name: "cmake_minimum_required", Args: []ast.Arg{arg("VERSION"), arg("3.10...3.28")}}
	if err := cmakeMinimumRequired(c, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := c.Variable("CMAKE_MINIMUM_REQUIRED_VERSION"); v != "3.10" {
		t.Fatalf("got %q", v)
	}
}

func TestCMakePolicyPushSetGet(t *testing.T) {
	c, _ := newCtx()
	if err := cmakePolicy(c, ast.Node{Name: "cmake_policy", Args: []ast.Arg{arg("PUSH")}}); err != nil {
		t.Fatal(err)
	}
	if err := cmakePolicy(c, ast.Node{Name: "cmake_policy", Args: []ast.Arg{arg("SET"), arg("CMP0017"), arg("NEW")}}); err != nil {
		t.Fatal(err)
	}
	if err := cmakePolicy(c, ast.Node{Name: "cmake_policy", Args: []ast.Arg{arg("GET"), arg("CMP0017"), arg("OUT")}}); err != nil {
		t.Fatal(err)
	}
	if v, _ := c.Variable("OUT"); v != "NEW" {
		t.Fatalf("got %q", v)
	}
	if err := cmakePolicy(c, ast.Node{Name: "cmake_policy", Args: []ast.Arg{arg("POP")}}); err != nil {
		t.Fatal(err)
	}
	if c.Policy("CMP0017") != "UNSET" {
		t.Fatalf("expected policy reverted after POP, got %q", c.Policy("CMP0017"))
	}
}

func TestGetCMakePropertyTargets(t *testing.T) {
	c, _ := newCtx()
	if _, err := c.Model.AddTarget("app", model.KindExecutable); err != nil {
		t.Fatal(err)
	}
	node := ast.Node{Name: "get_cmake_property", Args: []ast.Arg{arg("OUT"), arg("TARGETS")}}
	if err := getCMakeProperty(c, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := c.Variable("OUT"); v != "app" {
		t.Fatalf("got %q", v)
	}
}
