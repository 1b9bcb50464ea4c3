package commands

import (
	"strings"

	"github.com/Qfresquin/cmk2nob/internal/ast"
	"github.com/Qfresquin/cmk2nob/internal/evaluator"
)

// project implements project(<name> [VERSION v] [DESCRIPTION d] [LANGUAGES l...]).
func project(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) == 0 {
		c.Error("commands", "project", "project() requires a name", "SEMANTIC", "INPUT_ERROR", node)
		return nil
	}
	opts := ParseOptions(args[1:], []OptSpec{
		{Name: "VERSION", Kind: OptSingle},
		{Name: "DESCRIPTION", Kind: OptSingle},
		{Name: "HOMEPAGE_URL", Kind: OptSingle},
		{Name: "LANGUAGES", Kind: OptMulti},
	})

	c.Model.Project.Name = args[0]
	c.Model.Project.Version = opts.First("VERSION")
	c.Model.Project.Description = opts.First("DESCRIPTION")
	langs := opts.All("LANGUAGES")
	if len(langs) == 0 {
		langs = []string{"C", "CXX"}
	}
	c.Model.Project.Languages = langs

	c.Set("PROJECT_NAME", args[0], false)
	c.Set("PROJECT_VERSION", opts.First("VERSION"), false)
	c.Set("PROJECT_DESCRIPTION", opts.First("DESCRIPTION"), false)
	c.Set("PROJECT_SOURCE_DIR", c.CurrentSourceDir, false)
	c.Set("PROJECT_BINARY_DIR", c.CurrentBinaryDir, false)
	return nil
}

// cmakeMinimumRequired implements cmake_minimum_required(VERSION <min>[...<max>] [FATAL_ERROR]).
func cmakeMinimumRequired(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	opts := ParseOptions(args, []OptSpec{
		{Name: "VERSION", Kind: OptSingle},
		{Name: "FATAL_ERROR", Kind: OptFlag},
	})
	versionSpec := opts.First("VERSION")
	minVersion := versionSpec
	if idx := strings.Index(versionSpec, "..."); idx >= 0 {
		minVersion = versionSpec[:idx]
	}
	c.Set("CMAKE_MINIMUM_REQUIRED_VERSION", minVersion, false)
	c.Set("CMAKE_VERSION", "3.30.0", false)
	c.Set("CMAKE_POLICY_VERSION", minVersion, false)
	c.Set("CMAKE_POLICY_VERSION_MINIMUM", minVersion, false)
	return nil
}

// cmakePolicy implements cmake_policy(VERSION v | SET id NEW|OLD | GET id var | PUSH | POP).
func cmakePolicy(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) == 0 {
		return nil
	}
	switch strings.ToUpper(args[0]) {
	case "PUSH":
		c.PushPolicyFrame()
	case "POP":
		c.PopPolicyFrame()
	case "SET":
		if len(args) >= 3 {
			c.SetPolicy(args[1], strings.ToUpper(args[2]))
		}
	case "GET":
		if len(args) >= 3 {
			c.Set(args[2], c.Policy(args[1]), false)
		}
	case "VERSION":
		if len(args) >= 2 {
			c.Set("CMAKE_POLICY_VERSION", args[1], false)
		}
	}
	return nil
}

// getCMakeProperty implements get_cmake_property(<var> <property>).
func getCMakeProperty(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) < 2 {
		return nil
	}
	outVar, prop := args[0], args[1]
	switch strings.ToUpper(prop) {
	case "TARGETS":
		var names []string
		for _, t := range c.Model.Targets() {
			names = append(names, t.Name)
		}
		c.Set(outVar, strings.Join(names, ";"), false)
	case "VARIABLES":
		c.Set(outVar, "", false)
	case "ENABLED_FEATURES", "ENABLED_LANGUAGES":
		c.Set(outVar, strings.Join(c.Model.Project.Languages, ";"), false)
	default:
		c.Set(outVar, "NOTFOUND", false)
	}
	return nil
}

func registerProjectHandlers(h map[string]evaluator.HandlerFunc) {
	h["project"] = project
	h["cmake_minimum_required"] = cmakeMinimumRequired
	h["cmake_policy"] = cmakePolicy
	h["get_cmake_property"] = getCMakeProperty
}
