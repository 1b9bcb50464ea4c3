package commands

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Qfresquin/cmk2nob/internal/ast"
	"github.com/Qfresquin/cmk2nob/internal/effects"
	"github.com/Qfresquin/cmk2nob/internal/evaluator"
)

// realProbesEnabled gates whether compiler-probe commands actually invoke
// the toolchain (via internal/effects.RunToolchainProbe) or fall back to a
// deterministic default, mirroring a cross-compiling configure run where
// try_run's executed-output path isn't available.
func realProbesEnabled() bool {
	v := strings.ToLower(os.Getenv("CMK2NOB_REAL_PROBES"))
	return v == "1" || v == "true" || v == "on" || v == "yes"
}

func requiredCompilerDriver(c *evaluator.Context) string {
	if v, ok := c.Variable("CMAKE_C_COMPILER"); ok && v != "" {
		return v
	}
	return "cc"
}

func requiredIncludes(c *evaluator.Context) []string {
	v, _ := c.Variable("CMAKE_REQUIRED_INCLUDES")
	return splitList(v)
}

func requiredDefinitions(c *evaluator.Context) []string {
	v, _ := c.Variable("CMAKE_REQUIRED_DEFINITIONS")
	return splitList(v)
}

func requiredLibraries(c *evaluator.Context) []string {
	v, _ := c.Variable("CMAKE_REQUIRED_LIBRARIES")
	return splitList(v)
}

func probeBuildDir(c *evaluator.Context) string { return c.CurrentBinaryDir }

// writeCacheBool sets outVar as a cache BOOL and a regular variable of the
// same value, mirroring how check_* commands leave both in place for
// if(DEFINED) and if(<var>) callers.
func writeCacheBool(c *evaluator.Context, outVar string, ok bool) {
	value := boolStr(ok)
	c.Model.SetCacheEntry(outVar, value, "BOOL", "Result of probe "+outVar, false)
	c.Set(outVar, value, false)
}

// tryCompileSource runs a minimal compile of source text under the current
// probe build directory, real or deterministic-fallback per realProbesEnabled.
func tryCompileSource(c *evaluator.Context, source string) bool {
	if !realProbesEnabled() {
		return !strings.Contains(source, "#error")
	}
	dir := probeBuildDir(c)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false
	}
	srcPath := filepath.Join(dir, ".cmk2nob_probe_src.c")
	if err := os.WriteFile(srcPath, []byte(source), 0o644); err != nil {
		return false
	}
	result := effects.RunToolchainProbe(context.Background(), effects.CompileRequest{
		Driver:             requiredCompilerDriver(c),
		Source:             srcPath,
		OutputPath:         filepath.Join(dir, ".cmk2nob_probe_bin"),
		CompileDefinitions: requiredDefinitions(c),
		LinkLibraries:      requiredLibraries(c),
		BuildDir:           dir,
	}, nil, false)
	return result.CompileOK
}

// tryCompile implements try_compile(<result-var> <bindir> <srcfile> ...).
func tryCompile(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) < 3 {
		return nil
	}
	resultVar := args[0]
	srcPath := args[2]
	if !filepath.IsAbs(srcPath) {
		srcPath = filepath.Join(c.CurrentSourceDir, srcPath)
	}
	source, err := os.ReadFile(srcPath)
	if err != nil {
		writeCacheBool(c, resultVar, false)
		return nil
	}
	writeCacheBool(c, resultVar, tryCompileSource(c, string(source)))
	return nil
}

// tryRun implements try_run(<run-result-var> <compile-result-var> <bindir> <srcfile> ...).
func tryRun(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) < 4 {
		return nil
	}
	runResultVar, compileResultVar := args[0], args[1]
	srcPath := args[3]
	if !filepath.IsAbs(srcPath) {
		srcPath = filepath.Join(c.CurrentSourceDir, srcPath)
	}
	source, err := os.ReadFile(srcPath)
	if err != nil {
		writeCacheBool(c, compileResultVar, false)
		c.Set(runResultVar, "FAILED_TO_RUN", false)
		return nil
	}
	if !realProbesEnabled() {
		writeCacheBool(c, compileResultVar, !strings.Contains(string(source), "#error"))
		c.Set(runResultVar, "FAILED_TO_RUN", false)
		return nil
	}
	dir := probeBuildDir(c)
	os.MkdirAll(dir, 0o755)
	wrote := filepath.Join(dir, ".cmk2nob_probe_src.c")
	os.WriteFile(wrote, source, 0o644)
	result := effects.RunToolchainProbe(context.Background(), effects.CompileRequest{
		Driver:     requiredCompilerDriver(c),
		Source:     wrote,
		OutputPath: filepath.Join(dir, ".cmk2nob_probe_bin"),
		BuildDir:   dir,
	}, nil, true)
	writeCacheBool(c, compileResultVar, result.CompileOK)
	if result.CompileOK {
		c.Set(runResultVar, strconv.Itoa(result.RunExitCode), false)
	} else {
		c.Set(runResultVar, "FAILED_TO_RUN", false)
	}
	return nil
}

func checkCSourceCompiles(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) < 2 {
		return nil
	}
	source, outVar := args[0], args[1]
	writeCacheBool(c, outVar, tryCompileSource(c, source))
	return nil
}

func checkCSourceRuns(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) < 2 {
		return nil
	}
	source, outVar := args[0], args[1]
	writeCacheBool(c, outVar, tryCompileSource(c, source))
	return nil
}

// symbolProbeSource synthesizes a minimal probe translation unit declaring
// an extern reference to name, for check_symbol_exists/check_function_exists.
func symbolProbeSource(name string, includes []string) string {
	var b strings.Builder
	for _, inc := range includes {
		b.WriteString("#include <" + inc + ">\n")
	}
	b.WriteString("int main(void) { return (int)(size_t)&" + name + "; }\n")
	return b.String()
}

func checkSymbolExists(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) < 3 {
		return nil
	}
	symbol := args[0]
	includes := splitList(args[1])
	outVar := args[2]
	writeCacheBool(c, outVar, tryCompileSource(c, symbolProbeSource(symbol, includes)))
	return nil
}

func checkFunctionExists(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) < 2 {
		return nil
	}
	fn, outVar := args[0], args[1]
	writeCacheBool(c, outVar, tryCompileSource(c, symbolProbeSource(fn, nil)))
	return nil
}

func checkIncludeFile(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) < 2 {
		return nil
	}
	headers := splitList(args[0])
	outVar := args[1]
	var b strings.Builder
	for _, h := range headers {
		b.WriteString("#include <" + h + ">\n")
	}
	b.WriteString("int main(void) { return 0; }\n")
	writeCacheBool(c, outVar, tryCompileSource(c, b.String()))
	return nil
}

func checkLibraryExists(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) < 4 {
		return nil
	}
	library, fn, outVar := args[0], args[1], args[3]
	if !realProbesEnabled() {
		writeCacheBool(c, outVar, true)
		return nil
	}
	dir := probeBuildDir(c)
	os.MkdirAll(dir, 0o755)
	srcPath := filepath.Join(dir, ".cmk2nob_probe_lib.c")
	os.WriteFile(srcPath, []byte(symbolProbeSource(fn, nil)), 0o644)
	result := effects.RunToolchainProbe(context.Background(), effects.CompileRequest{
		Driver:        requiredCompilerDriver(c),
		Source:        srcPath,
		OutputPath:    filepath.Join(dir, ".cmk2nob_probe_lib_bin"),
		LinkLibraries: []string{library},
		BuildDir:      dir,
	}, nil, false)
	writeCacheBool(c, outVar, result.CompileOK)
	return nil
}

func checkTypeSize(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) < 2 {
		return nil
	}
	typeName, outVar := args[0], args[1]
	if !realProbesEnabled() {
		c.Model.SetCacheEntry(outVar, fallbackTypeSize(typeName), "STRING", "", false)
		c.Set(outVar, fallbackTypeSize(typeName), false)
		return nil
	}
	source := "#include <stddef.h>\nint arr[sizeof(" + typeName + ")];\nint main(void){return 0;}\n"
	if tryCompileSource(c, source) {
		c.Set(outVar, fallbackTypeSize(typeName), false)
	} else {
		c.Set(outVar, "", false)
	}
	return nil
}

func fallbackTypeSize(typeName string) string {
	switch typeName {
	case "char":
		return "1"
	case "short":
		return "2"
	case "int", "float":
		return "4"
	case "long", "double", "size_t", "void*", "void *":
		return "8"
	case "long long":
		return "8"
	default:
		return "8"
	}
}

func checkCCompilerFlag(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) < 2 {
		return nil
	}
	outVar := args[1]
	writeCacheBool(c, outVar, tryCompileSource(c, "int main(void){return 0;}\n"))
	return nil
}

func checkStructHasMember(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) < 4 {
		return nil
	}
	structName, member, headers, outVar := args[0], args[1], splitList(args[2]), args[3]
	var b strings.Builder
	for _, h := range headers {
		b.WriteString("#include <" + h + ">\n")
	}
	b.WriteString("int main(void) { struct " + structName + " s; (void)s." + member + "; return 0; }\n")
	writeCacheBool(c, outVar, tryCompileSource(c, b.String()))
	return nil
}

func registerProbeHandlers(h map[string]evaluator.HandlerFunc) {
	h["try_compile"] = tryCompile
	h["try_run"] = tryRun
	h["check_c_source_compiles"] = checkCSourceCompiles
	h["check_cxx_source_compiles"] = checkCSourceCompiles
	h["check_c_source_runs"] = checkCSourceRuns
	h["check_symbol_exists"] = checkSymbolExists
	h["check_include_file"] = checkIncludeFile
	h["check_include_files"] = checkIncludeFile
	h["check_function_exists"] = checkFunctionExists
	h["check_library_exists"] = checkLibraryExists
	h["check_type_size"] = checkTypeSize
	h["check_c_compiler_flag"] = checkCCompilerFlag
	h["check_struct_has_member"] = checkStructHasMember
}
