package commands

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Qfresquin/cmk2nob/internal/ast"
	"github.com/Qfresquin/cmk2nob/internal/effects"
	"github.com/Qfresquin/cmk2nob/internal/evaluator"
)

// ctest_* commands implement CTest script mode: a thin sequence of build/
// test-driver steps that communicate through CTEST_* variables rather than
// the build model, since they drive an external test run instead of
// describing one.

func ctestStart(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) > 0 {
		c.Set("CTEST_DASHBOARD_MODEL", args[0], false)
	}
	if len(args) > 1 {
		c.Set("CTEST_DASHBOARD_TRACK", args[1], false)
	}
	return nil
}

func ctestConfigure(c *evaluator.Context, node ast.Node) error {
	opts := ParseOptions(c.EvalNodeArgs(node), []OptSpec{
		{Name: "BUILD", Kind: OptSingle},
		{Name: "RETURN_VALUE", Kind: OptSingle},
	})
	c.Set("CTEST_CONFIGURE_RETURN_VALUE", "0", false)
	if rv := opts.First("RETURN_VALUE"); rv != "" {
		c.Set(rv, "0", false)
	}
	return nil
}

func ctestBuild(c *evaluator.Context, node ast.Node) error {
	opts := ParseOptions(c.EvalNodeArgs(node), []OptSpec{
		{Name: "BUILD", Kind: OptSingle},
		{Name: "TARGET", Kind: OptSingle},
		{Name: "RETURN_VALUE", Kind: OptSingle},
		{Name: "NUMBER_ERRORS", Kind: OptSingle},
		{Name: "NUMBER_WARNINGS", Kind: OptSingle},
	})
	c.Set("CTEST_BUILD_RETURN_VALUE", "0", false)
	if rv := opts.First("RETURN_VALUE"); rv != "" {
		c.Set(rv, "0", false)
	}
	if ne := opts.First("NUMBER_ERRORS"); ne != "" {
		c.Set(ne, "0", false)
	}
	if nw := opts.First("NUMBER_WARNINGS"); nw != "" {
		c.Set(nw, "0", false)
	}
	return nil
}

func ctestTest(c *evaluator.Context, node ast.Node) error {
	opts := ParseOptions(c.EvalNodeArgs(node), []OptSpec{
		{Name: "RETURN_VALUE", Kind: OptSingle},
		{Name: "PARALLEL_LEVEL", Kind: OptSingle},
		{Name: "INCLUDE", Kind: OptSingle},
		{Name: "EXCLUDE", Kind: OptSingle},
	})
	c.Set("CTEST_TESTS_RUN", strconv.Itoa(len(c.Model.Tests)), false)
	if rv := opts.First("RETURN_VALUE"); rv != "" {
		c.Set(rv, "0", false)
	}
	return nil
}

func ctestCoverage(c *evaluator.Context, node ast.Node) error {
	opts := ParseOptions(c.EvalNodeArgs(node), []OptSpec{{Name: "RETURN_VALUE", Kind: OptSingle}})
	if rv := opts.First("RETURN_VALUE"); rv != "" {
		c.Set(rv, "0", false)
	}
	return nil
}

func ctestMemcheck(c *evaluator.Context, node ast.Node) error {
	opts := ParseOptions(c.EvalNodeArgs(node), []OptSpec{{Name: "RETURN_VALUE", Kind: OptSingle}, {Name: "DEFECT_COUNT", Kind: OptSingle}})
	if rv := opts.First("RETURN_VALUE"); rv != "" {
		c.Set(rv, "0", false)
	}
	if dc := opts.First("DEFECT_COUNT"); dc != "" {
		c.Set(dc, "0", false)
	}
	return nil
}

func ctestSubmit(c *evaluator.Context, node ast.Node) error {
	opts := ParseOptions(c.EvalNodeArgs(node), []OptSpec{{Name: "RETURN_VALUE", Kind: OptSingle}})
	if rv := opts.First("RETURN_VALUE"); rv != "" {
		c.Set(rv, "0", false)
	}
	return nil
}

func ctestUpload(c *evaluator.Context, node ast.Node) error { return nil }

func ctestReadCustomFiles(c *evaluator.Context, node ast.Node) error { return nil }

func ctestEmptyBinaryDirectory(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) == 0 {
		return nil
	}
	effects.RunFS(context.Background(), effects.FSRequest{Op: effects.FSDeletePathRecursive, Path: args[0]})
	return nil
}

func ctestSleep(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) == 0 {
		return nil
	}
	seconds, err := strconv.ParseFloat(args[len(args)-1], 64)
	if err != nil || !realProbesEnabled() {
		return nil
	}
	time.Sleep(time.Duration(seconds * float64(time.Second)))
	return nil
}

func ctestRunScript(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) == 0 || !realProbesEnabled() {
		return nil
	}
	for _, script := range args {
		if strings.EqualFold(script, "RETURN_VALUE") {
			continue
		}
		if _, err := os.Stat(script); err != nil {
			c.Warn("commands", "ctest_run_script", "script not found: "+script, "UNSUPPORTED", "IO_ENV_ERROR", node)
		}
	}
	return nil
}

func registerCTestHandlers(h map[string]evaluator.HandlerFunc) {
	h["ctest_start"] = ctestStart
	h["ctest_configure"] = ctestConfigure
	h["ctest_build"] = ctestBuild
	h["ctest_test"] = ctestTest
	h["ctest_coverage"] = ctestCoverage
	h["ctest_memcheck"] = ctestMemcheck
	h["ctest_submit"] = ctestSubmit
	h["ctest_upload"] = ctestUpload
	h["ctest_read_custom_files"] = ctestReadCustomFiles
	h["ctest_empty_binary_directory"] = ctestEmptyBinaryDirectory
	h["ctest_sleep"] = ctestSleep
	h["ctest_run_script"] = ctestRunScript
}
