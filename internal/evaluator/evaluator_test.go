package evaluator

import (
	"testing"

	"github.com/Qfresquin/cmk2nob/internal/ast"
	"github.com/Qfresquin/cmk2nob/internal/events"
	"github.com/Qfresquin/cmk2nob/internal/model"
)

func newTestContext() (*Context, *events.Recorder) {
	rec := events.NewRecorder()
	ctx := NewContext(model.New(), rec, "/src", "/build")
	return ctx, rec
}

func TestInterpolateSimple(t *testing.T) {
	ctx, _ := newTestContext()
	ctx.Set("FOO", "bar", false)
	got := ctx.Interpolate("value=${FOO}")
	if got != "value=bar" {
		t.Fatalf("got %q", got)
	}
}

func TestInterpolateNested(t *testing.T) {
	ctx, _ := newTestContext()
	ctx.Set("NAME", "FOO", false)
	ctx.Set("FOO", "resolved", false)
	got := ctx.Interpolate("${${NAME}}")
	if got != "resolved" {
		t.Fatalf("got %q", got)
	}
}

func TestInterpolateUnresolvedIsEmpty(t *testing.T) {
	ctx, _ := newTestContext()
	got := ctx.Interpolate("[${MISSING}]")
	if got != "[]" {
		t.Fatalf("got %q", got)
	}
}

func TestInterpolateEscapes(t *testing.T) {
	ctx, _ := newTestContext()
	got := ctx.Interpolate(`a\nb\$c`)
	if got != "a\nb$c" {
		t.Fatalf("got %q", got)
	}
}

func TestEnvShadowing(t *testing.T) {
	ctx, _ := newTestContext()
	ctx.SetEnv("MY_VAR", "shadowed")
	got := ctx.Interpolate("$ENV{MY_VAR}")
	if got != "shadowed" {
		t.Fatalf("got %q", got)
	}
}

func TestParentScopeWrite(t *testing.T) {
	ctx, _ := newTestContext()
	ctx.Set("X", "outer", false)
	ctx.PushScope()
	ctx.Set("X", "inner-not-visible-outside", false)
	ctx.Set("X", "written-to-parent", true)
	ctx.PopScope()
	v, _ := ctx.Variable("X")
	if v != "written-to-parent" {
		t.Fatalf("got %q", v)
	}
}

func TestDispatchUnknownCommandWarns(t *testing.T) {
	ctx, rec := newTestContext()
	err := ctx.Dispatch(ast.Node{Name: "totally_unknown_command"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.Diagnostics) != 1 || rec.Diagnostics[0].Severity != events.SeverityWarning {
		t.Fatalf("expected one warning diagnostic, got %#v", rec.Diagnostics)
	}
}

func TestIfElseifElse(t *testing.T) {
	ctx, _ := newTestContext()
	var ran string
	ctx.Handlers["mark_a"] = func(c *Context, n ast.Node) error { ran = "a"; return nil }
	ctx.Handlers["mark_b"] = func(c *Context, n ast.Node) error { ran = "b"; return nil }
	ctx.Handlers["mark_c"] = func(c *Context, n ast.Node) error { ran = "c"; return nil }

	ifNode := ast.Node{
		Name: "if",
		Args: []ast.Arg{{Text: "0"}},
		Body: []ast.Node{
			{Name: "mark_a"},
			{Name: "elseif", Args: []ast.Arg{{Text: "1"}}},
			{Name: "mark_b"},
			{Name: "else"},
			{Name: "mark_c"},
		},
	}
	if err := EvalIf(ctx, ifNode); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ran != "b" {
		t.Fatalf("expected elseif branch b to run, got %q", ran)
	}
}

func TestForeachRange(t *testing.T) {
	ctx, _ := newTestContext()
	var seen []string
	ctx.Handlers["collect"] = func(c *Context, n ast.Node) error {
		v, _ := c.Variable("I")
		seen = append(seen, v)
		return nil
	}
	node := ast.Node{
		Name: "foreach",
		Args: []ast.Arg{{Text: "I"}, {Text: "RANGE"}, {Text: "3"}},
		Body: []ast.Node{{Name: "collect"}},
	}
	if err := EvalForeach(ctx, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"0", "1", "2", "3"}
	if len(seen) != len(want) {
		t.Fatalf("got %v want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("got %v want %v", seen, want)
		}
	}
}

func TestForeachBreak(t *testing.T) {
	ctx, _ := newTestContext()
	var count int
	ctx.Handlers["bump"] = func(c *Context, n ast.Node) error { count++; return nil }
	ctx.Handlers["stop"] = func(c *Context, n ast.Node) error { return EvalBreak(c, n) }
	node := ast.Node{
		Name: "foreach",
		Args: []ast.Arg{{Text: "I"}, {Text: "IN"}, {Text: "ITEMS"}, {Text: "a"}, {Text: "b"}, {Text: "c"}},
		Body: []ast.Node{{Name: "bump"}, {Name: "stop"}},
	}
	if err := EvalForeach(ctx, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected break after first iteration, got count=%d", count)
	}
}

func TestFunctionCallScopingAndReturn(t *testing.T) {
	ctx, _ := newTestContext()
	ctx.Set("RESULT", "untouched", false)

	ctx.Handlers["function"] = EvalFunctionDef
	ctx.Handlers["set_result"] = func(c *Context, n ast.Node) error {
		args := c.EvalNodeArgs(n)
		c.Set("RESULT", args[0], true)
		return EvalReturn(c, n)
	}

	defNode := ast.Node{
		Name: "function",
		Args: []ast.Arg{{Text: "myfunc"}, {Text: "ARG1"}},
		Body: []ast.Node{
			{Name: "set_result", Args: []ast.Arg{{Text: "${ARG1}"}}},
		},
	}
	if err := ctx.Dispatch(defNode); err != nil {
		t.Fatalf("unexpected error defining function: %v", err)
	}

	callNode := ast.Node{Name: "myfunc", Args: []ast.Arg{{Text: "called"}}}
	if err := ctx.Dispatch(callNode); err != nil {
		t.Fatalf("unexpected error calling function: %v", err)
	}

	v, _ := ctx.Variable("RESULT")
	if v != "called" {
		t.Fatalf("expected PARENT_SCOPE write to reach caller, got %q", v)
	}
	if ctx.ReturnRequested {
		t.Fatal("expected ReturnRequested cleared after function call returns")
	}
}

func TestIncludeGuardSkipsSecondVisit(t *testing.T) {
	ctx, _ := newTestContext()
	ctx.CurrentListFile = "/src/Module.cmake"
	node := ast.Node{Name: "include_guard"}
	if ctx.EvalIncludeGuard(node) {
		t.Fatal("first visit should not be guarded")
	}
	if !ctx.EvalIncludeGuard(node) {
		t.Fatal("second visit should be guarded")
	}
}

func TestIncludeUnresolvedEmitsNoDirPush(t *testing.T) {
	ctx, rec := newTestContext()
	ctx.CurrentListDir = "/src"
	loader := func(path string) (*ast.File, error) {
		return &ast.File{Path: path, Nodes: nil}, nil
	}
	// resolveModule consults the real filesystem; point at a path that is
	// guaranteed not to exist and assert the NOTFOUND path is taken
	// (no DIR_PUSH, one diagnostic) rather than exercising a real file read.
	node := ast.Node{Name: "include", Args: []ast.Arg{{Text: "/src/Found.cmake"}}}
	if err := ctx.EvalInclude(node, loader); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, e := range rec.Events {
		if e.Kind == events.KindDirPush {
			t.Fatal("expected no DIR_PUSH for an unresolved include")
		}
	}
	if len(rec.Diagnostics) != 1 {
		t.Fatalf("expected one diagnostic for unresolved include, got %#v", rec.Diagnostics)
	}
}
