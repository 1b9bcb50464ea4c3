package commands

import (
	"testing"

	"github.com/Qfresquin/cmk2nob/internal/ast"
)

func TestSetHandlerBasicListJoin(t *testing.T) {
	c, _ := newCtx()
	if err := setHandler(c, ast.Node{Name: "set", Args: []ast.Arg{arg("FOO"), arg("a"), arg("b")}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := c.Variable("FOO"); v != "a;b" {
		t.Fatalf("got %q", v)
	}
}

func TestSetHandlerCacheNonForceKeepsFirstValue(t *testing.T) {
	c, _ := newCtx()
	node := ast.Node{Name: "set", Args: []ast.Arg{arg("OPT"), arg("on"), arg("CACHE"), arg("BOOL"), arg("toggle")}}
	if err := setHandler(c, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	node2 := ast.Node{Name: "set", Args: []ast.Arg{arg("OPT"), arg("off"), arg("CACHE"), arg("BOOL"), arg("toggle")}}
	if err := setHandler(c, node2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Model.HasCacheEntry("OPT") {
		t.Fatal("expected cache entry")
	}
	if c.Model.CacheVariables["OPT"].Value != "on" {
		t.Fatalf("expected first write to win without FORCE, got %q", c.Model.CacheVariables["OPT"].Value)
	}
}

func TestSetHandlerCacheForceOverwrites(t *testing.T) {
	c, _ := newCtx()
	setHandler(c, ast.Node{Name: "set", Args: []ast.Arg{arg("OPT"), arg("on"), arg("CACHE"), arg("BOOL"), arg("t")}})
	setHandler(c, ast.Node{Name: "set", Args: []ast.Arg{arg("OPT"), arg("off"), arg("CACHE"), arg("BOOL"), arg("t"), arg("FORCE")}})
	if c.Model.CacheVariables["OPT"].Value != "off" {
		t.Fatalf("expected FORCE to overwrite, got %q", c.Model.CacheVariables["OPT"].Value)
	}
}

func TestUnsetHandlerRemovesVariable(t *testing.T) {
	c, _ := newCtx()
	c.Set("FOO", "bar", false)
	if err := unsetHandler(c, ast.Node{Name: "unset", Args: []ast.Arg{arg("FOO")}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.Variable("FOO"); ok {
		t.Fatal("expected FOO to be unset")
	}
}

func TestUnsetHandlerCache(t *testing.T) {
	c, _ := newCtx()
	c.Model.SetCacheEntry("FOO", "bar", "STRING", "", false)
	if err := unsetHandler(c, ast.Node{Name: "unset", Args: []ast.Arg{arg("FOO"), arg("CACHE")}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Model.HasCacheEntry("FOO") {
		t.Fatal("expected cache entry removed")
	}
}
