package commands

import (
	"testing"

	"github.com/Qfresquin/cmk2nob/internal/ast"
	"github.com/Qfresquin/cmk2nob/internal/model"
)

func TestAddExecutableDeclaresAndAddsSources(t *testing.T) {
	c, rec := newCtx()
	node := ast.Node{Name: "add_executable", Args: []ast.Arg{arg("app"), arg("main.c"), arg("util.c")}}
	if err := addExecutable(c, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	target, ok := c.Model.Target("app")
	if !ok || target.Kind != model.KindExecutable {
		t.Fatalf("got %#v", target)
	}
	if len(target.Sources) != 2 {
		t.Fatalf("got sources %v", target.Sources)
	}
	if len(rec.Events) != 3 {
		t.Fatalf("expected 1 declare + 2 add-source events, got %d", len(rec.Events))
	}
}

func TestAddLibraryAliasSetsAliasOf(t *testing.T) {
	c, _ := newCtx()
	if _, err := c.Model.AddTarget("core", model.KindStaticLib); err != nil {
		t.Fatal(err)
	}
	node := ast.Node{Name: "add_library", Args: []ast.Arg{arg("core::core"), arg("ALIAS"), arg("core")}}
	if err := addLibrary(c, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	alias, ok := c.Model.Target("core::core")
	if !ok || alias.Kind != model.KindAlias || alias.AliasOf != "core" {
		t.Fatalf("got %#v", alias)
	}
}

func TestAddLibraryKindSwitches(t *testing.T) {
	c, _ := newCtx()
	node := ast.Node{Name: "add_library", Args: []ast.Arg{arg("iface"), arg("INTERFACE")}}
	if err := addLibrary(c, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	target, _ := c.Model.Target("iface")
	if target.Kind != model.KindInterfaceLib {
		t.Fatalf("got kind %v", target.Kind)
	}
}

func TestTargetLinkLibrariesPartitionsByVisibility(t *testing.T) {
	c, _ := newCtx()
	if _, err := c.Model.AddTarget("app", model.KindExecutable); err != nil {
		t.Fatal(err)
	}
	node := ast.Node{Name: "target_link_libraries", Args: []ast.Arg{
		arg("app"), arg("PRIVATE"), arg("pthread"), arg("PUBLIC"), arg("core"),
	}}
	if err := targetLinkLibraries(c, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	target, _ := c.Model.Target("app")
	if len(target.LinkLibraries) != 2 {
		t.Fatalf("got %#v", target.LinkLibraries)
	}
	if target.LinkLibraries[0].Value != "pthread" || target.LinkLibraries[0].Visibility != model.VisibilityPrivate {
		t.Fatalf("got %#v", target.LinkLibraries[0])
	}
	if target.LinkLibraries[1].Value != "core" || target.LinkLibraries[1].Visibility != model.VisibilityPublic {
		t.Fatalf("got %#v", target.LinkLibraries[1])
	}
}

func TestSetTargetPropertiesAppliesToEachListedTarget(t *testing.T) {
	c, _ := newCtx()
	if _, err := c.Model.AddTarget("a", model.KindExecutable); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Model.AddTarget("b", model.KindExecutable); err != nil {
		t.Fatal(err)
	}
	node := ast.Node{Name: "set_target_properties", Args: []ast.Arg{
		arg("a"), arg("b"), arg("PROPERTIES"), arg("OUTPUT_NAME"), arg("renamed"),
	}}
	if err := setTargetProperties(c, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range []string{"a", "b"} {
		target, _ := c.Model.Target(name)
		if v, ok := target.GetPropertyComputed("OUTPUT_NAME"); !ok || v != "renamed" {
			t.Fatalf("target %s got OUTPUT_NAME=%q", name, v)
		}
	}
}

func TestGetTargetPropertySyntheticAndMissing(t *testing.T) {
	c, _ := newCtx()
	if _, err := c.Model.AddTarget("app", model.KindExecutable); err != nil {
		t.Fatal(err)
	}
	node := ast.Node{Name: "get_target_property", Args: []ast.Arg{arg("OUT"), arg("app"), arg("TYPE")}}
	if err := getTargetProperty(c, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := c.Variable("OUT"); v != "EXECUTABLE" {
		t.Fatalf("got %q", v)
	}

	node2 := ast.Node{Name: "get_target_property", Args: []ast.Arg{arg("OUT2"), arg("nope"), arg("TYPE")}}
	if err := getTargetProperty(c, node2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := c.Variable("OUT2"); v != "NOTFOUND" {
		t.Fatalf("got %q", v)
	}
}

func TestAddCustomCommandTargetSignature(t *testing.T) {
	c, rec := newCtx()
	if _, err := c.Model.AddTarget("app", model.KindExecutable); err != nil {
		t.Fatal(err)
	}
	node := ast.Node{Name: "add_custom_command", Args: []ast.Arg{
		arg("TARGET"), arg("app"), arg("POST_BUILD"), arg("COMMAND"), arg("strip"), arg("app"),
	}}
	if err := addCustomCommand(c, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	target, _ := c.Model.Target("app")
	if len(target.PostBuildCommands) != 1 {
		t.Fatalf("got %#v", target.PostBuildCommands)
	}
	found := false
	for _, e := range rec.Events {
		if e.Kind == "CUSTOM_COMMAND_TARGET" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a CUSTOM_COMMAND_TARGET event")
	}
}

func TestAddCustomCommandOutputSignature(t *testing.T) {
	c, rec := newCtx()
	node := ast.Node{Name: "add_custom_command", Args: []ast.Arg{
		arg("OUTPUT"), arg("gen.c"), arg("COMMAND"), arg("codegen"), arg("DEPENDS"), arg("schema.json"),
	}}
	if err := addCustomCommand(c, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, e := range rec.Events {
		if e.Kind == "CUSTOM_COMMAND_OUTPUT" && e.CustomCommandOutput.Outputs[0] == "gen.c" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a CUSTOM_COMMAND_OUTPUT event naming gen.c")
	}
}

func TestAddDependenciesRejectsUnknownTarget(t *testing.T) {
	c, _ := newCtx()
	node := ast.Node{Name: "add_dependencies", Args: []ast.Arg{arg("nope"), arg("also_nope")}}
	if err := addDependencies(c, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// one ERROR diagnostic, no panic
}
