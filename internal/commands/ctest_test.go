package commands

import (
	"testing"

	"github.com/Qfresquin/cmk2nob/internal/ast"
)

func TestCTestStartSetsDashboardVariables(t *testing.T) {
	c, _ := newCtx()
	if err := ctestStart(c, ast.Node{Name: "ctest_start", Args: []ast.Arg{arg("Nightly"), arg("MyTrack")}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := c.Variable("CTEST_DASHBOARD_MODEL"); v != "Nightly" {
		t.Fatalf("got %q", v)
	}
	if v, _ := c.Variable("CTEST_DASHBOARD_TRACK"); v != "MyTrack" {
		t.Fatalf("got %q", v)
	}
}

func TestCTestTestReportsRunCount(t *testing.T) {
	c, _ := newCtx()
	addTest(c, ast.Node{Name: "add_test", Args: []ast.Arg{arg("a"), arg("runner")}})
	addTest(c, ast.Node{Name: "add_test", Args: []ast.Arg{arg("b"), arg("runner")}})
	if err := ctestTest(c, ast.Node{Name: "ctest_test"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := c.Variable("CTEST_TESTS_RUN"); v != "2" {
		t.Fatalf("got %q", v)
	}
}

func TestCTestBuildSetsReturnValue(t *testing.T) {
	c, _ := newCtx()
	node := ast.Node{Name: "ctest_build", Args: []ast.Arg{arg("RETURN_VALUE"), arg("RV")}}
	if err := ctestBuild(c, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := c.Variable("RV"); v != "0" {
		t.Fatalf("got %q", v)
	}
}
