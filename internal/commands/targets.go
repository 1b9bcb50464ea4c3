package commands

import (
	"strings"

	"github.com/Qfresquin/cmk2nob/internal/ast"
	"github.com/Qfresquin/cmk2nob/internal/evaluator"
	"github.com/Qfresquin/cmk2nob/internal/events"
	"github.com/Qfresquin/cmk2nob/internal/model"
)

func declareTarget(c *evaluator.Context, node ast.Node, name string, kind model.Kind) (*model.Target, bool) {
	t, err := c.Model.AddTarget(name, kind)
	if err != nil {
		c.Error("commands", node.Name, err.Error(), "SEMANTIC", "INPUT_ERROR", node)
		return nil, false
	}
	c.Sink.Emit(events.Event{
		Kind:   events.KindTargetDeclare,
		Origin: originOf(node),
		TargetDeclare: &events.TargetDeclare{Name: name, Kind: string(kind)},
	})
	return t, true
}

func originOf(node ast.Node) events.Origin { return events.Origin{File: node.File, Line: node.Line} }

// addExecutable implements add_executable(<name> [WIN32] [MACOSX_BUNDLE]
// [ALIAS tgt] [IMPORTED] src...).
func addExecutable(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) == 0 {
		c.Error("commands", "add_executable", "add_executable() requires a name", "SEMANTIC", "INPUT_ERROR", node)
		return nil
	}
	name := args[0]
	rest := args[1:]
	if len(rest) >= 2 && strings.EqualFold(rest[0], "ALIAS") {
		t, ok := declareTarget(c, node, name, model.KindAlias)
		if ok {
			t.AliasOf = rest[1]
		}
		return nil
	}
	kind := model.KindExecutable
	imported := false
	var sources []string
	for _, a := range rest {
		switch strings.ToUpper(a) {
		case "WIN32":
		case "MACOSX_BUNDLE":
		case "IMPORTED":
			imported = true
		default:
			sources = append(sources, a)
		}
	}
	if imported {
		kind = model.KindImported
	}
	t, ok := declareTarget(c, node, name, kind)
	if !ok {
		return nil
	}
	for _, src := range sources {
		t.AddSource(src)
		c.Sink.Emit(events.Event{Kind: events.KindTargetAddSource, Origin: originOf(node), TargetAddSource: &events.TargetAddSource{Target: name, Source: src}})
	}
	return nil
}

// addLibrary implements add_library(<name> [STATIC|SHARED|MODULE|OBJECT|
// INTERFACE] [IMPORTED] [ALIAS tgt] src...).
func addLibrary(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) == 0 {
		c.Error("commands", "add_library", "add_library() requires a name", "SEMANTIC", "INPUT_ERROR", node)
		return nil
	}
	name := args[0]
	rest := args[1:]
	if len(rest) >= 2 && strings.EqualFold(rest[0], "ALIAS") {
		t, ok := declareTarget(c, node, name, model.KindAlias)
		if ok {
			t.AliasOf = rest[1]
		}
		return nil
	}

	kind := model.KindStaticLib
	imported := false
	var sources []string
	for _, a := range rest {
		switch strings.ToUpper(a) {
		case "STATIC":
			kind = model.KindStaticLib
		case "SHARED":
			kind = model.KindSharedLib
		case "MODULE":
			kind = model.KindModuleLib
		case "OBJECT":
			kind = model.KindObjectLib
		case "INTERFACE":
			kind = model.KindInterfaceLib
		case "IMPORTED":
			imported = true
		default:
			sources = append(sources, a)
		}
	}
	if imported {
		kind = model.KindImported
	}
	t, ok := declareTarget(c, node, name, kind)
	if !ok {
		return nil
	}
	for _, src := range sources {
		t.AddSource(src)
		c.Sink.Emit(events.Event{Kind: events.KindTargetAddSource, Origin: originOf(node), TargetAddSource: &events.TargetAddSource{Target: name, Source: src}})
	}
	return nil
}

// addCustomTarget implements add_custom_target(<name> [COMMAND cmd...] [DEPENDS dep...]).
func addCustomTarget(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) == 0 {
		return nil
	}
	name := args[0]
	opts := ParseOptions(args[1:], []OptSpec{
		{Name: "COMMAND", Kind: OptMulti},
		{Name: "DEPENDS", Kind: OptMulti},
		{Name: "COMMENT", Kind: OptSingle},
	})
	t, ok := declareTarget(c, node, name, model.KindCustom)
	if !ok {
		return nil
	}
	for _, d := range opts.All("DEPENDS") {
		t.AddDependency(d)
	}
	c.Sink.Emit(events.Event{
		Kind: events.KindCustomCommandTarget, Origin: originOf(node),
		CustomCommandTarget: &events.CustomCommandTarget{Target: name, Stage: "POST_BUILD", Args: opts.All("COMMAND")},
	})
	return nil
}

// addCustomCommand implements both the TARGET and OUTPUT signatures.
func addCustomCommand(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	opts := ParseOptions(args, []OptSpec{
		{Name: "TARGET", Kind: OptSingle},
		{Name: "OUTPUT", Kind: OptMulti},
		{Name: "COMMAND", Kind: OptMulti},
		{Name: "DEPENDS", Kind: OptMulti},
		{Name: "BYPRODUCTS", Kind: OptMulti},
		{Name: "MAIN_DEPENDENCY", Kind: OptSingle},
		{Name: "DEPFILE", Kind: OptSingle},
		{Name: "IMPLICIT_DEPENDS", Kind: OptMulti},
		{Name: "WORKING_DIRECTORY", Kind: OptSingle},
		{Name: "COMMENT", Kind: OptSingle},
		{Name: "JOB_POOL", Kind: OptSingle},
		{Name: "PRE_BUILD", Kind: OptFlag},
		{Name: "PRE_LINK", Kind: OptFlag},
		{Name: "POST_BUILD", Kind: OptFlag},
		{Name: "APPEND", Kind: OptFlag},
		{Name: "VERBATIM", Kind: OptFlag},
		{Name: "USES_TERMINAL", Kind: OptFlag},
		{Name: "COMMAND_EXPAND_LISTS", Kind: OptFlag},
		{Name: "DEPENDS_EXPLICIT_ONLY", Kind: OptFlag},
		{Name: "CODEGEN", Kind: OptFlag},
		{Name: "JOB_SERVER_AWARE", Kind: OptFlag},
	})

	cc := model.CustomCommand{
		Command:             opts.All("COMMAND"),
		Depends:             opts.All("DEPENDS"),
		Byproducts:          opts.All("BYPRODUCTS"),
		MainDependency:      opts.First("MAIN_DEPENDENCY"),
		Depfile:             opts.First("DEPFILE"),
		ImplicitDepends:     opts.All("IMPLICIT_DEPENDS"),
		WorkingDirectory:    opts.First("WORKING_DIRECTORY"),
		Comment:             opts.First("COMMENT"),
		JobPool:             opts.First("JOB_POOL"),
		VerbatimArgs:        opts.Has("VERBATIM"),
		UsesTerminal:        opts.Has("USES_TERMINAL"),
		CommandExpandLists:  opts.Has("COMMAND_EXPAND_LISTS"),
		DependsExplicitOnly: opts.Has("DEPENDS_EXPLICIT_ONLY"),
		Codegen:             opts.Has("CODEGEN"),
		JobServerAware:      opts.Has("JOB_SERVER_AWARE"),
	}

	if target := opts.First("TARGET"); target != "" {
		stage := "POST_BUILD"
		switch {
		case opts.Has("PRE_BUILD"):
			stage = "PRE_BUILD"
		case opts.Has("PRE_LINK"):
			stage = "PRE_LINK"
		}
		cc.Stage = stage
		t, found := c.Model.Target(target)
		if !found {
			c.Error("commands", "add_custom_command", "unknown TARGET "+target, "SEMANTIC", "INPUT_ERROR", node)
			return nil
		}
		if stage == "POST_BUILD" {
			t.PostBuildCommands = append(t.PostBuildCommands, cc)
		} else {
			t.PreBuildCommands = append(t.PreBuildCommands, cc)
		}
		c.Sink.Emit(events.Event{
			Kind: events.KindCustomCommandTarget, Origin: originOf(node),
			CustomCommandTarget: &events.CustomCommandTarget{Target: target, Stage: stage, Args: cc.Command},
		})
		return nil
	}

	outputs := opts.All("OUTPUT")
	cc.Outputs = outputs
	c.Sink.Emit(events.Event{
		Kind: events.KindCustomCommandOutput, Origin: originOf(node),
		CustomCommandOutput: &events.CustomCommandOutput{Outputs: outputs, Args: cc.Command, Depends: cc.Depends},
	})
	return nil
}

// addDependencies implements add_dependencies(<target> dep...).
func addDependencies(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) < 2 {
		return nil
	}
	t, ok := c.Model.Target(args[0])
	if !ok {
		c.Error("commands", "add_dependencies", "unknown target "+args[0], "SEMANTIC", "INPUT_ERROR", node)
		return nil
	}
	for _, dep := range args[1:] {
		t.AddDependency(dep)
	}
	return nil
}

func emitPropSet(c *evaluator.Context, node ast.Node, target, key, value string, op events.PropOp, visibility events.Visibility) {
	c.Sink.Emit(events.Event{
		Kind: events.KindTargetPropSet, Origin: originOf(node),
		TargetPropSet: &events.TargetPropSet{Target: target, Property: key, Op: op, Value: value},
	})
	_ = visibility
}

// setTargetProperties implements set_target_properties(t1 t2...
// PROPERTIES key value key value ...).
func setTargetProperties(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	idx := -1
	for i, a := range args {
		if strings.EqualFold(a, "PROPERTIES") {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.Error("commands", "set_target_properties", "missing PROPERTIES keyword", "SEMANTIC", "INPUT_ERROR", node)
		return nil
	}
	targets := args[:idx]
	kvs := args[idx+1:]
	for _, name := range targets {
		t, ok := c.Model.Target(name)
		if !ok {
			c.Error("commands", "set_target_properties", "unknown target "+name, "SEMANTIC", "INPUT_ERROR", node)
			continue
		}
		for i := 0; i+1 < len(kvs); i += 2 {
			t.SetPropertySmart(kvs[i], kvs[i+1], "", model.VisibilityPrivate)
			emitPropSet(c, node, name, kvs[i], kvs[i+1], events.PropOpSet, events.VisibilityPrivate)
		}
	}
	return nil
}

// getTargetProperty implements get_target_property(<var> <target> <property>).
func getTargetProperty(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) < 3 {
		return nil
	}
	outVar, targetName, prop := args[0], args[1], args[2]
	t, ok := c.Model.Target(targetName)
	if !ok {
		c.Set(outVar, "NOTFOUND", false)
		return nil
	}
	v, found := t.GetPropertyComputed(prop)
	if !found {
		v = "NOTFOUND"
	}
	c.Set(outVar, v, false)
	return nil
}

func visibilityOf(s string) events.Visibility {
	switch strings.ToUpper(s) {
	case "INTERFACE":
		return events.VisibilityInterface
	case "PUBLIC":
		return events.VisibilityPublic
	default:
		return events.VisibilityPrivate
	}
}

func modelVisibilityOf(s string) model.Visibility {
	switch strings.ToUpper(s) {
	case "INTERFACE":
		return model.VisibilityInterface
	case "PUBLIC":
		return model.VisibilityPublic
	default:
		return model.VisibilityPrivate
	}
}

// targetSources implements target_sources(<target> [PRIVATE|PUBLIC|INTERFACE] src...).
func targetSources(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) < 2 {
		return nil
	}
	t, ok := c.Model.Target(args[0])
	if !ok {
		c.Error("commands", "target_sources", "unknown target "+args[0], "SEMANTIC", "INPUT_ERROR", node)
		return nil
	}
	for _, src := range visibilityPartitionedValues(args[1:]) {
		t.AddSource(src)
		c.Sink.Emit(events.Event{Kind: events.KindTargetAddSource, Origin: originOf(node), TargetAddSource: &events.TargetAddSource{Target: t.Name, Source: src}})
	}
	return nil
}

// visibilityPartitionedValues strips PRIVATE/PUBLIC/INTERFACE markers and
// returns the flat value list (used where the target visibility itself
// isn't separately tracked per item, e.g. plain source lists).
func visibilityPartitionedValues(args []string) []string {
	var out []string
	for _, a := range args {
		switch strings.ToUpper(a) {
		case "PRIVATE", "PUBLIC", "INTERFACE":
		default:
			out = append(out, a)
		}
	}
	return out
}

// targetListProperty is the shared implementation behind
// target_link_libraries/_options/_directories/_include_directories/
// _compile_definitions/_compile_options: scan args for PRIVATE/PUBLIC/
// INTERFACE markers, partitioning the remaining values under the
// visibility active at that point (default PRIVATE).
func targetListProperty(
	c *evaluator.Context, node ast.Node, commandName string,
	appendTo func(t *model.Target, e model.ConditionalEntry),
	kind events.Kind,
	emit func(target string, visibility events.Visibility, values []string),
) error {
	args := c.EvalNodeArgs(node)
	if len(args) < 2 {
		return nil
	}
	t, ok := c.Model.Target(args[0])
	if !ok {
		c.Error("commands", commandName, "unknown target "+args[0], "SEMANTIC", "INPUT_ERROR", node)
		return nil
	}
	visibility := "PRIVATE"
	var bucket []string
	flush := func() {
		if len(bucket) == 0 {
			return
		}
		for _, v := range bucket {
			appendTo(t, model.ConditionalEntry{Visibility: modelVisibilityOf(visibility), Value: v})
		}
		if emit != nil {
			emit(t.Name, visibilityOf(visibility), bucket)
		}
		bucket = nil
	}
	for _, a := range args[1:] {
		switch strings.ToUpper(a) {
		case "PRIVATE", "PUBLIC", "INTERFACE":
			flush()
			visibility = strings.ToUpper(a)
		default:
			bucket = append(bucket, a)
		}
	}
	flush()
	return nil
}

func targetLinkLibraries(c *evaluator.Context, node ast.Node) error {
	return targetListProperty(c, node, "target_link_libraries",
		func(t *model.Target, e model.ConditionalEntry) { t.LinkLibraries = append(t.LinkLibraries, e) },
		events.KindTargetLinkLibraries,
		func(target string, vis events.Visibility, values []string) {
			c.Sink.Emit(events.Event{
				Kind: events.KindTargetLinkLibraries, Origin: originOf(node),
				TargetLinkLibraries: &events.TargetLinkLibraries{Target: target, Visibility: vis, Libraries: values},
			})
		})
}

func targetLinkOptions(c *evaluator.Context, node ast.Node) error {
	return targetListProperty(c, node, "target_link_options",
		func(t *model.Target, e model.ConditionalEntry) { t.LinkOptions = append(t.LinkOptions, e) }, events.KindTargetPropSet, nil)
}

func targetLinkDirectories(c *evaluator.Context, node ast.Node) error {
	return targetListProperty(c, node, "target_link_directories",
		func(t *model.Target, e model.ConditionalEntry) { t.LinkDirectories = append(t.LinkDirectories, e) }, events.KindTargetPropSet, nil)
}

func targetIncludeDirectories(c *evaluator.Context, node ast.Node) error {
	return targetListProperty(c, node, "target_include_directories",
		func(t *model.Target, e model.ConditionalEntry) { t.IncludeDirectories = append(t.IncludeDirectories, e) }, events.KindTargetPropSet, nil)
}

func targetCompileDefinitions(c *evaluator.Context, node ast.Node) error {
	return targetListProperty(c, node, "target_compile_definitions",
		func(t *model.Target, e model.ConditionalEntry) { t.CompileDefinitions = append(t.CompileDefinitions, e) }, events.KindTargetPropSet, nil)
}

func targetCompileOptions(c *evaluator.Context, node ast.Node) error {
	return targetListProperty(c, node, "target_compile_options",
		func(t *model.Target, e model.ConditionalEntry) { t.CompileOptions = append(t.CompileOptions, e) }, events.KindTargetPropSet, nil)
}

// targetCompileFeatures and targetPrecompileHeaders record into the flat
// property bag; neither changes the codegen consumer's link-line shape.
func targetCompileFeatures(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) < 2 {
		return nil
	}
	t, ok := c.Model.Target(args[0])
	if !ok {
		return nil
	}
	existing := t.Properties["COMPILE_FEATURES"]
	values := visibilityPartitionedValues(args[1:])
	if existing != "" {
		values = append(strings.Split(existing, ";"), values...)
	}
	t.SetProperty("COMPILE_FEATURES", strings.Join(values, ";"))
	return nil
}

func targetPrecompileHeaders(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) < 2 {
		return nil
	}
	t, ok := c.Model.Target(args[0])
	if !ok {
		return nil
	}
	t.SetProperty("PRECOMPILE_HEADERS", strings.Join(visibilityPartitionedValues(args[1:]), ";"))
	return nil
}

func registerTargetHandlers(h map[string]evaluator.HandlerFunc) {
	h["add_executable"] = addExecutable
	h["add_library"] = addLibrary
	h["add_custom_target"] = addCustomTarget
	h["add_custom_command"] = addCustomCommand
	h["add_dependencies"] = addDependencies
	h["set_target_properties"] = setTargetProperties
	h["get_target_property"] = getTargetProperty
	h["target_sources"] = targetSources
	h["target_link_libraries"] = targetLinkLibraries
	h["target_link_options"] = targetLinkOptions
	h["target_link_directories"] = targetLinkDirectories
	h["target_include_directories"] = targetIncludeDirectories
	h["target_compile_definitions"] = targetCompileDefinitions
	h["target_compile_options"] = targetCompileOptions
	h["target_compile_features"] = targetCompileFeatures
	h["target_precompile_headers"] = targetPrecompileHeaders
}
