package evaluator

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Qfresquin/cmk2nob/internal/ast"
	"github.com/Qfresquin/cmk2nob/internal/events"
)

// FileLoader resolves a file/module name to its parsed contents; supplied
// by the driver so this package stays free of direct filesystem/parser
// coupling.
type FileLoader func(path string) (*ast.File, error)

// resolveModule searches CMAKE_CURRENT_LIST_DIR, then each
// CMAKE_MODULE_PATH entry, then CMAKE_ROOT/Modules, honoring CMP0017 (a
// NEW policy makes built-in modules win over same-named user modules when
// the including file itself lives under Modules/).
func (c *Context) resolveModule(name string, exists func(string) bool) (string, bool) {
	if filepath.IsAbs(name) || strings.ContainsAny(name, "/\\") {
		candidate := name
		if !strings.HasSuffix(candidate, ".cmake") && !exists(candidate) {
			candidate += ".cmake"
		}
		if exists(candidate) {
			return candidate, true
		}
		return "", false
	}

	fileName := name
	if !strings.HasSuffix(fileName, ".cmake") {
		fileName += ".cmake"
	}

	builtin := filepath.Join(c.CMakeRoot, "Modules", fileName)
	includerUnderModules := strings.Contains(filepath.ToSlash(c.CurrentListFile), "/Modules/")
	cmp0017New := c.Policy("CMP0017") == "NEW"

	if includerUnderModules && cmp0017New && exists(builtin) {
		return builtin, true
	}

	local := filepath.Join(c.CurrentListDir, fileName)
	if exists(local) {
		return local, true
	}
	for _, dir := range c.CMakeModulePath {
		candidate := filepath.Join(dir, fileName)
		if exists(candidate) {
			return candidate, true
		}
	}
	if exists(builtin) {
		return builtin, true
	}
	return "", false
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EvalInclude implements include(): resolves the target file/module,
// emits DIR_PUSH/DIR_POP around its evaluation, and optionally pushes a
// policy frame unless NO_POLICY_SCOPE is given.
func (c *Context) EvalInclude(node ast.Node, load FileLoader) error {
	args := c.EvalNodeArgs(node)
	if len(args) == 0 {
		c.Error("evaluator", "include", "include() requires a file or module name", "SEMANTIC", "INPUT_ERROR", node)
		return nil
	}

	var optional, noPolicyScope bool
	var resultVar string
	name := args[0]
	for i := 1; i < len(args); i++ {
		switch strings.ToUpper(args[i]) {
		case "OPTIONAL":
			optional = true
		case "NO_POLICY_SCOPE":
			noPolicyScope = true
		case "RESULT_VARIABLE":
			if i+1 < len(args) {
				resultVar = args[i+1]
				i++
			}
		}
	}

	path, found := c.resolveModule(name, fileExists)
	if !found {
		if resultVar != "" {
			c.Set(resultVar, "NOTFOUND", false)
		}
		if optional {
			return nil
		}
		c.Error("evaluator", "include", "include could not find requested file: "+name, "SEMANTIC", "INPUT_ERROR", node)
		return nil
	}

	file, err := load(path)
	if err != nil {
		c.Error("evaluator", "include", "failed to read "+path+": "+err.Error(), "SEMANTIC", "IO_ENV_ERROR", node)
		return nil
	}

	if resultVar != "" {
		c.Set(resultVar, path, false)
	}

	c.Sink.Emit(events.Event{Kind: events.KindDirPush, Origin: origin(node), DirPush: &events.DirPush{Path: filepath.Dir(path)}})

	if !noPolicyScope {
		c.PushPolicyFrame()
	}
	prevListDir, prevListFile := c.CurrentListDir, c.CurrentListFile
	c.CurrentListDir = filepath.Dir(path)
	c.CurrentListFile = path
	c.FileDepth++

	evalErr := c.EvalBody(file.Nodes)

	c.ReleaseLocksAtFileDepth(c.FileDepth)
	c.FileDepth--
	c.CurrentListDir, c.CurrentListFile = prevListDir, prevListFile
	if !noPolicyScope {
		c.PopPolicyFrame()
	}

	c.Sink.Emit(events.Event{Kind: events.KindDirPop, Origin: origin(node)})
	return evalErr
}

// EvalAddSubdirectory implements add_subdirectory(): resolves src/binary
// paths relative to the current directories, loads src/CMakeLists.txt, and
// sets NOBIFY_SUBDIR_SYSTEM_DEFAULT for the nested evaluation when SYSTEM
// is given, restoring it on exit.
func (c *Context) EvalAddSubdirectory(node ast.Node, load FileLoader) error {
	args := c.EvalNodeArgs(node)
	if len(args) == 0 {
		c.Error("evaluator", "add_subdirectory", "add_subdirectory() requires a source directory", "SEMANTIC", "INPUT_ERROR", node)
		return nil
	}

	var excludeFromAll, system bool
	srcArg := args[0]
	binArg := ""
	for _, a := range args[1:] {
		switch strings.ToUpper(a) {
		case "EXCLUDE_FROM_ALL":
			excludeFromAll = true
		case "SYSTEM":
			system = true
		default:
			if binArg == "" {
				binArg = a
			}
		}
	}
	_ = excludeFromAll // parsed but not recorded; targets get no EXCLUDE_FROM_ALL from it

	srcDir := srcArg
	if !filepath.IsAbs(srcDir) {
		srcDir = filepath.Join(c.CurrentSourceDir, srcDir)
	}
	binDir := binArg
	if binDir == "" {
		binDir = filepath.Join(c.CurrentBinaryDir, filepath.Base(srcDir))
	} else if !filepath.IsAbs(binDir) {
		binDir = filepath.Join(c.CurrentBinaryDir, binDir)
	}

	listsFile := filepath.Join(srcDir, "CMakeLists.txt")
	file, err := load(listsFile)
	if err != nil {
		c.Error("evaluator", "add_subdirectory", "failed to read "+listsFile+": "+err.Error(), "SEMANTIC", "IO_ENV_ERROR", node)
		return nil
	}

	c.Sink.Emit(events.Event{Kind: events.KindDirPush, Origin: origin(node), DirPush: &events.DirPush{Path: srcDir}})

	prevSrc, prevBin, prevListDir, prevListFile := c.CurrentSourceDir, c.CurrentBinaryDir, c.CurrentListDir, c.CurrentListFile
	c.CurrentSourceDir, c.CurrentBinaryDir = srcDir, binDir
	c.CurrentListDir, c.CurrentListFile = srcDir, listsFile
	c.PushScope()

	var prevSystemDefault string
	hadSystemDefault := false
	if system {
		prevSystemDefault, hadSystemDefault = c.Variable("NOBIFY_SUBDIR_SYSTEM_DEFAULT")
		c.Set("NOBIFY_SUBDIR_SYSTEM_DEFAULT", "1", false)
	}

	c.FileDepth++
	evalErr := c.EvalBody(file.Nodes)
	c.ReleaseLocksAtFileDepth(c.FileDepth)
	c.FileDepth--

	if system {
		if hadSystemDefault {
			c.Set("NOBIFY_SUBDIR_SYSTEM_DEFAULT", prevSystemDefault, false)
		} else {
			c.Unset("NOBIFY_SUBDIR_SYSTEM_DEFAULT")
		}
	}

	c.PopScope()
	c.CurrentSourceDir, c.CurrentBinaryDir = prevSrc, prevBin
	c.CurrentListDir, c.CurrentListFile = prevListDir, prevListFile

	c.Sink.Emit(events.Event{Kind: events.KindDirPop, Origin: origin(node)})
	return evalErr
}

// EvalIncludeGuard implements include_guard([DIRECTORY|GLOBAL]): returns
// true (caller should stop evaluating the current file) if already visited.
func (c *Context) EvalIncludeGuard(node ast.Node) bool {
	args := c.EvalNodeArgs(node)
	scope := ""
	if len(args) > 0 {
		scope = args[0]
	}
	key := IncludeGuardKey(scope, c.CurrentListFile, c.CurrentListDir)
	return c.CheckIncludeGuard(key)
}
