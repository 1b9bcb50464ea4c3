package commands

import (
	"strings"

	"github.com/Qfresquin/cmk2nob/internal/ast"
	"github.com/Qfresquin/cmk2nob/internal/evaluator"
	"github.com/Qfresquin/cmk2nob/internal/model"
)

// directoryState records the values passed to add_compile_options et al.
// (which have no target argument) per Context. The lists are only recorded:
// targets declared after a directive do not receive its values.
type directoryState struct {
	compileOptions     []string
	compileDefinitions []string
	definitions        []string
	includeDirectories []string
	linkOptions        []string
	linkDirectories    []string
	links              []string
}

var dirStates = map[*evaluator.Context]*directoryState{}

func dirState(c *evaluator.Context) *directoryState {
	if s, ok := dirStates[c]; ok {
		return s
	}
	s := &directoryState{}
	dirStates[c] = s
	return s
}

// applyToAllTargets feeds values into the matching conditional list of every
// target already declared at call time. Targets declared later are not
// updated.
func applyToAllTargets(c *evaluator.Context, values []string, visibility model.Visibility, appendTo func(t *model.Target, e model.ConditionalEntry)) {
	for _, t := range c.Model.Targets() {
		for _, v := range values {
			appendTo(t, model.ConditionalEntry{Visibility: visibility, Value: v})
		}
	}
}

func addCompileOptions(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	dirState(c).compileOptions = append(dirState(c).compileOptions, args...)
	applyToAllTargets(c, args, model.VisibilityPrivate, func(t *model.Target, e model.ConditionalEntry) {
		t.CompileOptions = append(t.CompileOptions, e)
	})
	return nil
}

func addCompileDefinitions(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	dirState(c).compileDefinitions = append(dirState(c).compileDefinitions, args...)
	applyToAllTargets(c, args, model.VisibilityPrivate, func(t *model.Target, e model.ConditionalEntry) {
		t.CompileDefinitions = append(t.CompileDefinitions, e)
	})
	return nil
}

// addDefinitions implements the legacy add_definitions(-DFOO=1 ...) form,
// which stores raw compiler-flag-shaped strings rather than bare macro names.
func addDefinitions(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	dirState(c).definitions = append(dirState(c).definitions, args...)
	applyToAllTargets(c, args, model.VisibilityPrivate, func(t *model.Target, e model.ConditionalEntry) {
		t.CompileOptions = append(t.CompileOptions, e)
	})
	return nil
}

func addLinkOptions(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	dirState(c).linkOptions = append(dirState(c).linkOptions, args...)
	applyToAllTargets(c, args, model.VisibilityPrivate, func(t *model.Target, e model.ConditionalEntry) {
		t.LinkOptions = append(t.LinkOptions, e)
	})
	return nil
}

func includeDirectories(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	var values []string
	for _, v := range args {
		switch strings.ToUpper(v) {
		case "SYSTEM", "AFTER", "BEFORE":
		default:
			values = append(values, v)
		}
	}
	dirState(c).includeDirectories = append(dirState(c).includeDirectories, values...)
	applyToAllTargets(c, values, model.VisibilityPrivate, func(t *model.Target, e model.ConditionalEntry) {
		t.IncludeDirectories = append(t.IncludeDirectories, e)
	})
	return nil
}

func linkDirectories(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	dirState(c).linkDirectories = append(dirState(c).linkDirectories, args...)
	applyToAllTargets(c, args, model.VisibilityPrivate, func(t *model.Target, e model.ConditionalEntry) {
		t.LinkDirectories = append(t.LinkDirectories, e)
	})
	return nil
}

// linkLibraries implements the legacy directory-scoped link_libraries().
func linkLibraries(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	dirState(c).links = append(dirState(c).links, args...)
	applyToAllTargets(c, args, model.VisibilityPrivate, func(t *model.Target, e model.ConditionalEntry) {
		t.LinkLibraries = append(t.LinkLibraries, e)
	})
	return nil
}

// setProperty implements a narrowed set_property(TARGET t PROPERTY k v...)
// / set_property(TARGET t APPEND PROPERTY k v...) surface; DIRECTORY,
// SOURCE, GLOBAL, INSTALL and TEST scopes are stored as plain variables
// named <SCOPE>_PROPERTY_<key> in the current scope, and CACHE writes the
// named cache entries.
func setProperty(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) == 0 {
		return nil
	}
	scope := strings.ToUpper(args[0])
	rest := args[1:]
	opts := ParseOptions(rest, []OptSpec{
		{Name: "TARGET", Kind: OptMulti},
		{Name: "APPEND", Kind: OptFlag},
		{Name: "APPEND_STRING", Kind: OptFlag},
		{Name: "PROPERTY", Kind: OptMulti},
	})
	propArgs := opts.All("PROPERTY")
	if len(propArgs) == 0 {
		return nil
	}
	key := propArgs[0]
	values := propArgs[1:]
	value := strings.Join(values, ";")

	switch scope {
	case "TARGET":
		for _, name := range opts.Positional {
			t, ok := c.Model.Target(name)
			if !ok {
				c.Error("commands", "set_property", "unknown target "+name, "SEMANTIC", "INPUT_ERROR", node)
				continue
			}
			if opts.Has("APPEND") || opts.Has("APPEND_STRING") {
				existing := t.Properties[key]
				if existing != "" {
					value = existing + ";" + value
				}
			}
			t.SetPropertySmart(key, value, "", model.VisibilityPrivate)
		}
	case "CACHE":
		for _, name := range opts.Positional {
			c.Model.SetCacheEntry(name, value, "STRING", "", false)
		}
	case "GLOBAL", "DIRECTORY", "SOURCE", "INSTALL", "TEST":
		c.Set(scope+"_PROPERTY_"+key, value, false)
	}
	return nil
}

// getProperty implements get_property(<var> TARGET t PROPERTY k) and the
// other scopes tracked alongside set_property.
func getProperty(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) < 2 {
		return nil
	}
	outVar := args[0]
	scope := strings.ToUpper(args[1])
	rest := args[2:]
	opts := ParseOptions(rest, []OptSpec{
		{Name: "TARGET", Kind: OptSingle},
		{Name: "PROPERTY", Kind: OptSingle},
		{Name: "SET", Kind: OptFlag},
	})
	switch scope {
	case "TARGET":
		name := opts.First("TARGET")
		if len(opts.Positional) > 0 {
			name = opts.Positional[0]
		}
		t, ok := c.Model.Target(name)
		if !ok {
			c.Set(outVar, "", false)
			return nil
		}
		v, found := t.GetPropertyComputed(opts.First("PROPERTY"))
		if opts.Has("SET") {
			if found {
				c.Set(outVar, "TRUE", false)
			} else {
				c.Set(outVar, "FALSE", false)
			}
			return nil
		}
		c.Set(outVar, v, false)
	default:
		v, _ := c.Variable(scope + "_PROPERTY_" + opts.First("PROPERTY"))
		c.Set(outVar, v, false)
	}
	return nil
}

// propertyPairs splits a PROPERTIES key value key value ... tail into a
// map, tolerating a trailing unmatched key by ignoring it.
func propertyPairs(args []string) map[string]string {
	out := map[string]string{}
	for i := 0; i+1 < len(args); i += 2 {
		out[args[i]] = args[i+1]
	}
	return out
}

// setDirectoryProperties implements set_directory_properties(PROPERTIES
// key value ...), the bulk directory-scope counterpart to
// set_property(DIRECTORY PROPERTY k v).
func setDirectoryProperties(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	idx := indexOfUpper(args, "PROPERTIES")
	if idx < 0 {
		return nil
	}
	for k, v := range propertyPairs(args[idx+1:]) {
		c.Model.DirectoryProperties[k] = v
	}
	return nil
}

// setSourceFilesProperties implements set_source_files_properties(file...
// PROPERTIES key value ...), writing into Model.SourceProperties per file.
func setSourceFilesProperties(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	idx := indexOfUpper(args, "PROPERTIES")
	if idx < 0 {
		return nil
	}
	files := args[:idx]
	pairs := propertyPairs(args[idx+1:])
	for _, f := range files {
		for k, v := range pairs {
			c.Model.SetSourceProperty(f, k, v)
		}
	}
	return nil
}

func indexOfUpper(args []string, target string) int {
	for i, a := range args {
		if strings.EqualFold(a, target) {
			return i
		}
	}
	return -1
}

func registerDirectiveHandlers(h map[string]evaluator.HandlerFunc) {
	h["add_compile_options"] = addCompileOptions
	h["add_compile_definitions"] = addCompileDefinitions
	h["add_definitions"] = addDefinitions
	h["add_link_options"] = addLinkOptions
	h["include_directories"] = includeDirectories
	h["link_directories"] = linkDirectories
	h["link_libraries"] = linkLibraries
	h["set_property"] = setProperty
	h["get_property"] = getProperty
	h["set_directory_properties"] = setDirectoryProperties
	h["set_source_files_properties"] = setSourceFilesProperties
}
