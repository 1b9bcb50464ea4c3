package commands

import (
	"strings"

	"github.com/Qfresquin/cmk2nob/internal/ast"
	"github.com/Qfresquin/cmk2nob/internal/evaluator"
	"github.com/Qfresquin/cmk2nob/internal/events"
	"github.com/Qfresquin/cmk2nob/internal/model"
)

func enableTesting(c *evaluator.Context, node ast.Node) error {
	c.Model.TestingEnabled = true
	c.Sink.Emit(events.Event{Kind: events.KindTestingEnable, Origin: originOf(node), TestingEnable: &events.TestingEnable{}})
	return nil
}

// addTest implements add_test(NAME n COMMAND cmd...) and the legacy
// add_test(<name> <cmd> <arg>...) form.
func addTest(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) == 0 {
		return nil
	}
	var name string
	var command []string
	if strings.EqualFold(args[0], "NAME") && len(args) >= 2 {
		opts := ParseOptions(args[1:], []OptSpec{
			{Name: "NAME", Kind: OptSingle},
			{Name: "COMMAND", Kind: OptMulti},
			{Name: "CONFIGURATIONS", Kind: OptMulti},
			{Name: "WORKING_DIRECTORY", Kind: OptSingle},
		})
		name = args[1]
		command = opts.All("COMMAND")
	} else {
		name = args[0]
		command = args[1:]
	}
	tc := model.TestCase{Name: name, Command: command, Properties: map[string]string{}}
	if err := c.Model.AddTest(tc); err != nil {
		c.Error("commands", "add_test", err.Error(), "SEMANTIC", "INPUT_ERROR", node)
		return nil
	}
	c.Sink.Emit(events.Event{Kind: events.KindTestAdd, Origin: originOf(node), TestAdd: &events.TestAdd{Name: name, Command: command}})
	return nil
}

// setTestsProperties implements set_tests_properties(t1 t2... PROPERTIES k v...).
func setTestsProperties(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	idx := -1
	for i, a := range args {
		if strings.EqualFold(a, "PROPERTIES") {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	names := args[:idx]
	kvs := args[idx+1:]
	for _, name := range names {
		for i := range c.Model.Tests {
			if c.Model.Tests[i].Name != name {
				continue
			}
			for j := 0; j+1 < len(kvs); j += 2 {
				c.Model.Tests[i].Properties[kvs[j]] = kvs[j+1]
			}
		}
	}
	return nil
}

func getTestProperty(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) < 3 {
		return nil
	}
	testName, prop, outVar := args[0], args[1], args[2]
	for _, tc := range c.Model.Tests {
		if tc.Name == testName {
			if v, ok := tc.Properties[prop]; ok {
				c.Set(outVar, v, false)
				return nil
			}
		}
	}
	c.Set(outVar, "NOTFOUND", false)
	return nil
}

// install implements install(TARGETS ...), install(FILES ...),
// install(PROGRAMS ...), and install(DIRECTORY ...).
func install(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) == 0 {
		return nil
	}
	kind := strings.ToUpper(args[0])
	rest := args[1:]
	opts := ParseOptions(rest, []OptSpec{
		{Name: "DESTINATION", Kind: OptSingle},
		{Name: "COMPONENT", Kind: OptSingle},
		{Name: "RUNTIME", Kind: OptFlag},
		{Name: "LIBRARY", Kind: OptFlag},
		{Name: "ARCHIVE", Kind: OptFlag},
		{Name: "OPTIONAL", Kind: OptFlag},
	})

	rule := model.InstallRule{
		Kind:        kind,
		Destination: opts.First("DESTINATION"),
		Component:   opts.First("COMPONENT"),
	}
	switch kind {
	case "TARGETS":
		rule.Targets = opts.Positional
	case "FILES", "PROGRAMS", "DIRECTORY":
		rule.Files = opts.Positional
	default:
		c.Warn("commands", "install", "unsupported install() form: "+kind, "UNSUPPORTED", "ENGINE_LIMITATION", node)
		return nil
	}
	c.Model.InstallRules = append(c.Model.InstallRules, rule)
	c.Sink.Emit(events.Event{Kind: events.KindInstallRule, Origin: originOf(node), InstallRule: &events.InstallRule{
		Kind: rule.Kind, Targets: rule.Targets, Files: rule.Files, Destination: rule.Destination, Component: rule.Component,
	}})
	return nil
}

func cpackAddInstallType(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) == 0 {
		return nil
	}
	name := args[0]
	display := name
	opts := ParseOptions(args[1:], []OptSpec{{Name: "DISPLAY_NAME", Kind: OptSingle}})
	if v := opts.First("DISPLAY_NAME"); v != "" {
		display = v
	}
	c.Model.EnsureInstallType(name, display)
	c.Sink.Emit(events.Event{Kind: events.KindCPackAddInstallType, Origin: originOf(node), CPackAddInstallType: &events.CPackAddInstallType{Name: name, DisplayName: display}})
	return nil
}

func cpackAddComponentGroup(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) == 0 {
		return nil
	}
	name := args[0]
	display := name
	opts := ParseOptions(args[1:], []OptSpec{{Name: "DISPLAY_NAME", Kind: OptSingle}})
	if v := opts.First("DISPLAY_NAME"); v != "" {
		display = v
	}
	c.Model.EnsureComponentGroup(name, display)
	c.Sink.Emit(events.Event{Kind: events.KindCPackAddComponentGroup, Origin: originOf(node), CPackAddComponentGroup: &events.CPackAddComponentGroup{Name: name, DisplayName: display}})
	return nil
}

func cpackAddComponent(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) == 0 {
		return nil
	}
	name := args[0]
	opts := ParseOptions(args[1:], []OptSpec{
		{Name: "GROUP", Kind: OptSingle},
		{Name: "DISPLAY_NAME", Kind: OptSingle},
	})
	display := opts.First("DISPLAY_NAME")
	if display == "" {
		display = name
	}
	c.Model.EnsureComponent(name, opts.First("GROUP"), display)
	c.Sink.Emit(events.Event{Kind: events.KindCPackAddComponent, Origin: originOf(node), CPackAddComponent: &events.CPackAddComponent{Name: name, Group: opts.First("GROUP"), DisplayName: display}})
	return nil
}

// cpackGeneratorSettings implements the family of CPack pseudo-modules
// (CPackArchive, CPackDeb, CPackRPM, CPackNSIS, CPackWIX, CPackDMG,
// CPackBundle, CPackProductBuild, CPackIFW, CPackNuGet, CPackFreeBSD,
// CPackCygwin): each just sets standard CPACK_<GENERATOR>_<KEY> cache
// variables from its keyword arguments, since none of them has a build
// graph effect beyond packaging metadata this evaluator already records.
func cpackGeneratorSettings(generatorPrefix string) evaluator.HandlerFunc {
	return func(c *evaluator.Context, node ast.Node) error {
		args := c.EvalNodeArgs(node)
		for i := 0; i+1 < len(args); i += 2 {
			key := "CPACK_" + generatorPrefix + "_" + strings.ToUpper(args[i])
			c.Model.SetCacheEntry(key, args[i+1], "STRING", "", false)
		}
		return nil
	}
}

func registerTestingPackagingHandlers(h map[string]evaluator.HandlerFunc) {
	h["enable_testing"] = enableTesting
	h["add_test"] = addTest
	h["set_tests_properties"] = setTestsProperties
	h["get_test_property"] = getTestProperty
	h["install"] = install
	h["cpack_add_install_type"] = cpackAddInstallType
	h["cpack_add_component_group"] = cpackAddComponentGroup
	h["cpack_add_component"] = cpackAddComponent

	h["cpack_archive"] = cpackGeneratorSettings("ARCHIVE")
	h["cpack_deb"] = cpackGeneratorSettings("DEBIAN")
	h["cpack_rpm"] = cpackGeneratorSettings("RPM")
	h["cpack_nsis"] = cpackGeneratorSettings("NSIS")
	h["cpack_wix"] = cpackGeneratorSettings("WIX")
	h["cpack_dmg"] = cpackGeneratorSettings("DMG")
	h["cpack_bundle"] = cpackGeneratorSettings("BUNDLE")
	h["cpack_productbuild"] = cpackGeneratorSettings("PRODUCTBUILD")
	h["cpack_ifw"] = cpackGeneratorSettings("IFW")
	h["cpack_nuget"] = cpackGeneratorSettings("NUGET")
	h["cpack_freebsd"] = cpackGeneratorSettings("FREEBSD")
	h["cpack_cygwin"] = cpackGeneratorSettings("CYGWIN")
}
