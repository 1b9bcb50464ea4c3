package arena

import "testing"

func TestInternDedup(t *testing.T) {
	a := New()
	x := a.Intern("core")
	y := a.Intern("core")
	if x != y {
		t.Fatalf("expected interned strings to be equal, got %q and %q", x, y)
	}
}

func TestOOMSticky(t *testing.T) {
	a := New()
	if a.OOM() {
		t.Fatal("fresh arena should not report OOM")
	}
	a.SetOOM()
	if !a.OOM() {
		t.Fatal("SetOOM should be sticky")
	}
	a.Reset()
	if !a.OOM() {
		t.Fatal("Reset must not clear the OOM flag")
	}
}

func TestDynArrayAppendPreservesOrder(t *testing.T) {
	var d DynArray[string]
	d.Reserve(2)
	d.Append("a")
	d.Append("b")
	d.Append("c")
	items := d.Items()
	if len(items) != 3 || items[0] != "a" || items[1] != "b" || items[2] != "c" {
		t.Fatalf("unexpected items: %v", items)
	}
}
