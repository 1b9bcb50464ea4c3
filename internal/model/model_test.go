package model

import "testing"

func TestAddTargetConflict(t *testing.T) {
	m := New()
	if _, err := m.AddTarget("app", KindExecutable); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.AddTarget("app", KindStaticLib); err == nil {
		t.Fatal("expected conflict error redeclaring app as STATIC_LIB")
	}
	if _, err := m.AddTarget("app", KindAlias); err != nil {
		t.Fatalf("ALIAS should never conflict: %v", err)
	}
}

func TestAddSourceDedup(t *testing.T) {
	m := New()
	tgt, _ := m.AddTarget("app", KindExecutable)
	tgt.AddSource("main.c")
	tgt.AddSource("main.c")
	if len(tgt.Sources) != 1 {
		t.Fatalf("expected 1 source after dedup, got %d", len(tgt.Sources))
	}
}

func TestValidateDependenciesMissingTarget(t *testing.T) {
	m := New()
	tgt, _ := m.AddTarget("app", KindExecutable)
	tgt.AddDependency("nope")
	if err := m.ValidateDependencies(); err == nil {
		t.Fatal("expected error for missing dependency")
	}
}

func TestValidateDependenciesCycle(t *testing.T) {
	m := New()
	a, _ := m.AddTarget("a", KindStaticLib)
	b, _ := m.AddTarget("b", KindStaticLib)
	a.AddDependency("b")
	b.AddDependency("a")
	if err := m.ValidateDependencies(); err == nil {
		t.Fatal("expected cycle error")
	}
	if sorted := m.TopologicalSort(); sorted != nil {
		t.Fatalf("expected nil topological sort on cycle, got %v", sorted)
	}
}

func TestTopologicalSortOrder(t *testing.T) {
	m := New()
	app, _ := m.AddTarget("app", KindExecutable)
	m.AddTarget("lib", KindStaticLib)
	app.AddDependency("lib")
	sorted := m.TopologicalSort()
	if len(sorted) != 2 || sorted[0].Name != "lib" || sorted[1].Name != "app" {
		t.Fatalf("expected [lib app], got %v", names(sorted))
	}
}

func names(ts []*Target) []string {
	var out []string
	for _, t := range ts {
		out = append(out, t.Name)
	}
	return out
}

func TestSetPropertySmartFeedsConditionalList(t *testing.T) {
	m := New()
	tgt, _ := m.AddTarget("app", KindExecutable)
	tgt.SetPropertySmart("COMPILE_DEFINITIONS", "DEBUG=1", "", VisibilityPrivate)
	if len(tgt.CompileDefinitions) != 1 || tgt.CompileDefinitions[0].Value != "DEBUG=1" {
		t.Fatalf("expected smart property to feed conditional list, got %#v", tgt.CompileDefinitions)
	}
	if v, _ := tgt.GetPropertyComputed("COMPILE_DEFINITIONS"); v != "DEBUG=1" {
		t.Fatalf("expected flat property bag updated too, got %q", v)
	}
}

func TestGetPropertyComputedSyntheticKeys(t *testing.T) {
	m := New()
	tgt, _ := m.AddTarget("app", KindExecutable)
	if v, ok := tgt.GetPropertyComputed("NAME"); !ok || v != "app" {
		t.Fatalf("expected synthetic NAME, got %q ok=%v", v, ok)
	}
	if v, ok := tgt.GetPropertyComputed("TYPE"); !ok || v != "EXECUTABLE" {
		t.Fatalf("expected synthetic TYPE, got %q ok=%v", v, ok)
	}
}

func TestCPackDedup(t *testing.T) {
	m := New()
	m.EnsureComponent("core", "", "Core Files")
	m.EnsureComponent("core", "group1", "Core Files Updated")
	if len(m.CPackComponents) != 1 {
		t.Fatalf("expected dedup by name, got %d entries", len(m.CPackComponents))
	}
	if m.CPackComponents[0].Group != "group1" {
		t.Fatalf("expected latest fields to win, got %#v", m.CPackComponents[0])
	}
}

func TestAddTestDuplicateRejected(t *testing.T) {
	m := New()
	if err := m.AddTest(TestCase{Name: "unit"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.AddTest(TestCase{Name: "unit"}); err == nil {
		t.Fatal("expected duplicate test name to be rejected")
	}
}
