package commands

import (
	"github.com/Qfresquin/cmk2nob/internal/ast"
	"github.com/Qfresquin/cmk2nob/internal/evaluator"
)

// setHandler implements set(<var> <value...> [PARENT_SCOPE]) and
// set(<var> <value> CACHE <type> <docstring> [FORCE]).
func setHandler(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) == 0 {
		return nil
	}
	name := args[0]
	rest := args[1:]

	cacheIdx := -1
	for i, a := range rest {
		if a == "CACHE" {
			cacheIdx = i
			break
		}
	}
	if cacheIdx >= 0 {
		value := rest[:cacheIdx]
		tail := rest[cacheIdx+1:]
		typ, doc := "STRING", ""
		force := false
		if len(tail) > 0 {
			typ = tail[0]
		}
		if len(tail) > 1 {
			doc = tail[1]
		}
		for _, t := range tail {
			if t == "FORCE" {
				force = true
			}
		}
		joined := ""
		if len(value) > 0 {
			joined = value[0]
		}
		if !c.Model.HasCacheEntry(name) || force {
			c.Model.SetCacheEntry(name, joined, typ, doc, force)
		}
		return nil
	}

	parentScope := false
	var value []string
	for _, a := range rest {
		if a == "PARENT_SCOPE" {
			parentScope = true
			continue
		}
		value = append(value, a)
	}
	joined := ""
	for i, v := range value {
		if i > 0 {
			joined += ";"
		}
		joined += v
	}
	c.Set(name, joined, parentScope)
	return nil
}

// unsetHandler implements unset(<var> [CACHE] [PARENT_SCOPE]). PARENT_SCOPE
// is accepted but not distinguished: the variable is removed from the
// current scope only.
func unsetHandler(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) == 0 {
		return nil
	}
	name := args[0]
	for _, a := range args[1:] {
		if a == "CACHE" {
			c.Model.UnsetCacheEntry(name)
			return nil
		}
	}
	c.Unset(name)
	return nil
}

func registerControlHandlers(h map[string]evaluator.HandlerFunc) {
	h["if"] = evaluator.EvalIf
	h["while"] = evaluator.EvalWhile
	h["foreach"] = evaluator.EvalForeach
	h["function"] = evaluator.EvalFunctionDef
	h["macro"] = evaluator.EvalMacroDef
	h["return"] = evaluator.EvalReturn
	h["break"] = evaluator.EvalBreak
	h["continue"] = evaluator.EvalContinue
	h["set"] = setHandler
	h["unset"] = unsetHandler

	h["include_guard"] = func(c *evaluator.Context, node ast.Node) error {
		c.EvalIncludeGuard(node)
		return nil
	}
}

// RegisterFileHandlers wires include()/add_subdirectory() against a concrete
// FileLoader; split from registerControlHandlers because those two commands
// are the only ones that need driver-supplied file access.
func RegisterFileHandlers(h map[string]evaluator.HandlerFunc, load evaluator.FileLoader) {
	h["include"] = func(c *evaluator.Context, node ast.Node) error {
		return c.EvalInclude(node, load)
	}
	h["add_subdirectory"] = func(c *evaluator.Context, node ast.Node) error {
		return c.EvalAddSubdirectory(node, load)
	}
}
