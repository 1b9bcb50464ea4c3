package genex

import "testing"

func TestConfigLiteral(t *testing.T) {
	ctx := Context{Config: "Debug"}
	r := Eval(ctx, "$<CONFIG>")
	if r.Status != StatusOK || r.Value != "Debug" {
		t.Fatalf("got %#v", r)
	}
}

func TestNestedIfBoolConfig(t *testing.T) {
	ctx := Context{Config: "Debug"}
	r := Eval(ctx, "$<IF:$<BOOL:$<CONFIG:Debug>>,CFG_DEBUG,CFG_OTHER>")
	if r.Status != StatusOK {
		t.Fatalf("unexpected status: %#v", r)
	}
	if r.Value != "CFG_DEBUG" {
		t.Fatalf("got %q want CFG_DEBUG", r.Value)
	}
}

func TestNestedIfBoolConfigOtherBranch(t *testing.T) {
	ctx := Context{Config: "Release"}
	r := Eval(ctx, "$<IF:$<BOOL:$<CONFIG:Debug>>,CFG_DEBUG,CFG_OTHER>")
	if r.Status != StatusOK || r.Value != "CFG_OTHER" {
		t.Fatalf("got %#v", r)
	}
}

func TestConditionShorthand(t *testing.T) {
	ctx := Context{Config: "Debug"}
	r := Eval(ctx, "$<$<CONFIG:Debug>:ONLY_IN_DEBUG>")
	if r.Status != StatusOK || r.Value != "ONLY_IN_DEBUG" {
		t.Fatalf("got %#v", r)
	}
	ctx.Config = "Release"
	r = Eval(ctx, "$<$<CONFIG:Debug>:ONLY_IN_DEBUG>")
	if r.Status != StatusOK || r.Value != "" {
		t.Fatalf("expected empty string in non-matching config, got %#v", r)
	}
}

func TestTargetFileCallback(t *testing.T) {
	ctx := Context{
		Callbacks: Callbacks{
			ReadTargetFile: func(target string) (string, bool) {
				if target == "mylib" {
					return "/build/lib/libmylib.a", true
				}
				return "", false
			},
		},
	}
	r := Eval(ctx, "$<TARGET_FILE:mylib>")
	if r.Status != StatusOK || r.Value != "/build/lib/libmylib.a" {
		t.Fatalf("got %#v", r)
	}
	r = Eval(ctx, "$<TARGET_FILE_NAME:mylib>")
	if r.Status != StatusOK || r.Value != "libmylib.a" {
		t.Fatalf("got %#v", r)
	}
	r = Eval(ctx, "$<TARGET_FILE_DIR:mylib>")
	if r.Status != StatusOK || r.Value != "/build/lib" {
		t.Fatalf("got %#v", r)
	}
}

func TestTargetPropertyCycleGuard(t *testing.T) {
	ctx := Context{
		CurrentTargetName: "app",
		Callbacks: Callbacks{
			ReadTargetProperty: func(target, property string) (string, bool) {
				if target == "app" && property == "FOO" {
					return "$<TARGET_PROPERTY:app,FOO>", true
				}
				return "", false
			},
		},
	}
	r := Eval(ctx, "$<TARGET_PROPERTY:FOO>")
	if r.Status != StatusCycleGuardHit {
		t.Fatalf("expected cycle guard, got %#v", r)
	}
}

func TestTargetPropertyIndirection(t *testing.T) {
	ctx := Context{
		Callbacks: Callbacks{
			ReadTargetProperty: func(target, property string) (string, bool) {
				if target == "mylib" && property == "TYPE" {
					return "STATIC_LIBRARY", true
				}
				return "", false
			},
		},
	}
	r := Eval(ctx, "$<TARGET_PROPERTY:mylib,TYPE>")
	if r.Status != StatusOK || r.Value != "STATIC_LIBRARY" {
		t.Fatalf("got %#v", r)
	}
}

func TestUnclosedExpression(t *testing.T) {
	r := Eval(Context{}, "$<CONFIG")
	if r.Status != StatusError {
		t.Fatalf("expected error, got %#v", r)
	}
}

func TestPlainTextPassthrough(t *testing.T) {
	r := Eval(Context{Config: "Debug"}, "prefix-$<CONFIG>-suffix")
	if r.Status != StatusOK || r.Value != "prefix-Debug-suffix" {
		t.Fatalf("got %#v", r)
	}
}

func TestLinkOnlyAndBuildInterface(t *testing.T) {
	ctx := Context{BuildInterfaceActive: true, LinkOnlyActive: false}
	r := Eval(ctx, "$<BUILD_INTERFACE:include/priv>")
	if r.Status != StatusOK || r.Value != "include/priv" {
		t.Fatalf("got %#v", r)
	}
	r = Eval(ctx, "$<LINK_ONLY:somelib>")
	if r.Status != StatusOK || r.Value != "" {
		t.Fatalf("expected empty when LINK_ONLY inactive, got %#v", r)
	}
}
