package commands

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"

	"github.com/Qfresquin/cmk2nob/internal/ast"
	"github.com/Qfresquin/cmk2nob/internal/effects"
	"github.com/Qfresquin/cmk2nob/internal/evaluator"
)

// runtimeDepsArgs mirrors the original implementation's Runtime_Deps_Args:
// the parsed keyword table for file(GET_RUNTIME_DEPENDENCIES ...).
type runtimeDepsArgs struct {
	resolvedVar      string
	unresolvedVar    string
	conflictsPrefix  string
	executables      []string
	libraries        []string
	modules          []string
	directories      []string
	preInclude       []string
	preExclude       []string
	postIncludeRegex []string
	postExcludeRegex []string
	postIncludeFiles []string
	postExcludeFiles []string
}

// fileGetRuntimeDependencies implements file(GET_RUNTIME_DEPENDENCIES),
// grounded on eval_file_extra.c's handle_file_get_runtime_dependencies and
// runtime_collect_ldd_deps. Windows stays a deterministic no-op per Open
// Question (b); POSIX hosts shell out to ldd and apply the PRE/POST
// include/exclude filters the original implements.
func fileGetRuntimeDependencies(c *evaluator.Context, node ast.Node, rest []string, resolve func(string) string) {
	opts := ParseOptions(rest, []OptSpec{
		{Name: "RESOLVED_DEPENDENCIES_VAR", Kind: OptSingle},
		{Name: "UNRESOLVED_DEPENDENCIES_VAR", Kind: OptSingle},
		{Name: "CONFLICTING_DEPENDENCIES_PREFIX", Kind: OptSingle},
		{Name: "EXECUTABLES", Kind: OptMulti},
		{Name: "LIBRARIES", Kind: OptMulti},
		{Name: "MODULES", Kind: OptMulti},
		{Name: "DIRECTORIES", Kind: OptMulti},
		{Name: "PRE_INCLUDE_REGEXES", Kind: OptMulti},
		{Name: "PRE_EXCLUDE_REGEXES", Kind: OptMulti},
		{Name: "POST_INCLUDE_REGEXES", Kind: OptMulti},
		{Name: "POST_EXCLUDE_REGEXES", Kind: OptMulti},
		{Name: "POST_INCLUDE_FILES", Kind: OptMulti},
		{Name: "POST_EXCLUDE_FILES", Kind: OptMulti},
	})
	rd := runtimeDepsArgs{
		resolvedVar:      opts.First("RESOLVED_DEPENDENCIES_VAR"),
		unresolvedVar:    opts.First("UNRESOLVED_DEPENDENCIES_VAR"),
		conflictsPrefix:  opts.First("CONFLICTING_DEPENDENCIES_PREFIX"),
		executables:      opts.All("EXECUTABLES"),
		libraries:        opts.All("LIBRARIES"),
		modules:          opts.All("MODULES"),
		directories:      opts.All("DIRECTORIES"),
		preInclude:       opts.All("PRE_INCLUDE_REGEXES"),
		preExclude:       opts.All("PRE_EXCLUDE_REGEXES"),
		postIncludeRegex: opts.All("POST_INCLUDE_REGEXES"),
		postExcludeRegex: opts.All("POST_EXCLUDE_REGEXES"),
		postIncludeFiles: opts.All("POST_INCLUDE_FILES"),
		postExcludeFiles: opts.All("POST_EXCLUDE_FILES"),
	}

	if rd.resolvedVar == "" && rd.unresolvedVar == "" {
		c.Error("commands", "file", "GET_RUNTIME_DEPENDENCIES requires RESOLVED_DEPENDENCIES_VAR or UNRESOLVED_DEPENDENCIES_VAR", "SEMANTIC", "INPUT_ERROR", node)
		return
	}

	if runtime.GOOS == "windows" {
		// Linux-first implementation: Windows remains deterministic no-op.
		c.Warn("commands", "file", "GET_RUNTIME_DEPENDENCIES is not supported on Windows hosts", "UNSUPPORTED", "ENGINE_LIMITATION", node)
		if rd.resolvedVar != "" {
			c.Set(rd.resolvedVar, "", false)
		}
		if rd.unresolvedVar != "" {
			c.Set(rd.unresolvedVar, "", false)
		}
		if rd.conflictsPrefix != "" {
			c.Set(rd.conflictsPrefix+"_FILENAMES", "", false)
		}
		return
	}

	var resolvedDirs []string
	for _, d := range rd.directories {
		resolvedDirs = append(resolvedDirs, resolve(d))
	}

	var queue []string
	seen := map[string]bool{}
	enqueue := func(items []string) {
		for _, it := range items {
			p := resolve(it)
			if !seen[p] {
				seen[p] = true
				queue = append(queue, p)
			}
		}
	}
	enqueue(rd.executables)
	enqueue(rd.libraries)
	enqueue(rd.modules)

	processed := map[string]bool{}
	var resolvedList, unresolvedList []string
	resolvedSet := map[string]bool{}
	unresolvedSet := map[string]bool{}

	for qi := 0; qi < len(queue); qi++ {
		collectLddDeps(queue[qi], &rd, resolvedDirs, &queue, processed, &resolvedList, resolvedSet, &unresolvedList, unresolvedSet)
	}

	sort.Strings(resolvedList)
	sort.Strings(unresolvedList)

	if rd.resolvedVar != "" {
		c.Set(rd.resolvedVar, joinList(resolvedList), false)
	}
	if rd.unresolvedVar != "" {
		c.Set(rd.unresolvedVar, joinList(unresolvedList), false)
	}
	if rd.conflictsPrefix != "" {
		reportConflicts(c, rd.conflictsPrefix, resolvedList)
	}
}

// collectLddDeps runs ldd on filePath and applies the PRE_INCLUDE/
// PRE_EXCLUDE name filters and POST_INCLUDE/POST_EXCLUDE resolved-path
// filters, enqueuing newly resolved dependencies for transitive collection.
func collectLddDeps(filePath string, rd *runtimeDepsArgs, resolvedDirs []string, queue *[]string, processed map[string]bool, resolvedList *[]string, resolvedSet map[string]bool, unresolvedList *[]string, unresolvedSet map[string]bool) {
	if processed[filePath] {
		return
	}
	processed[filePath] = true

	res := effects.RunProcess(context.Background(), effects.ProcessRequest{
		Argv: []string{"ldd", filePath}, CaptureStdout: true, CaptureStderr: true,
	})
	if res.Status != effects.StatusOK && res.StdoutText == "" {
		return
	}

	for _, rawLine := range strings.Split(res.StdoutText, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "statically linked") || strings.HasPrefix(line, "not a dynamic executable") {
			continue
		}

		var depName, depPath string
		missing := false
		if idx := strings.Index(line, "=>"); idx >= 0 {
			depName = strings.TrimSpace(line[:idx])
			right := strings.TrimSpace(line[idx+2:])
			if strings.HasPrefix(right, "not found") {
				missing = true
			} else {
				depPath = strings.Fields(right)[0]
			}
		} else if strings.HasPrefix(line, "/") {
			depPath = strings.Fields(line)[0]
			depName = filepath.Base(depPath)
		} else {
			continue
		}

		if !allowPre(rd, depName) {
			continue
		}

		if missing {
			if resolvedFrom := resolveInDirs(depName, resolvedDirs); resolvedFrom != "" {
				depPath = resolvedFrom
				missing = false
			}
		}

		if missing || depPath == "" {
			if depName != "" && !unresolvedSet[depName] {
				unresolvedSet[depName] = true
				*unresolvedList = append(*unresolvedList, depName)
			}
			continue
		}

		if !allowPost(rd, depPath) {
			continue
		}

		if !resolvedSet[depPath] {
			resolvedSet[depPath] = true
			*resolvedList = append(*resolvedList, depPath)
		}
		if !processed[depPath] {
			*queue = append(*queue, depPath)
		}
	}
}

func resolveInDirs(name string, dirs []string) string {
	if name == "" {
		return ""
	}
	for _, d := range dirs {
		candidate := filepath.Join(d, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func matchAny(patterns []string, s string) bool {
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func allowPre(rd *runtimeDepsArgs, depName string) bool {
	if len(rd.preInclude) > 0 && !matchAny(rd.preInclude, depName) {
		return false
	}
	if len(rd.preExclude) > 0 && matchAny(rd.preExclude, depName) {
		return false
	}
	return true
}

func allowPost(rd *runtimeDepsArgs, resolvedPath string) bool {
	includeGate := len(rd.postIncludeRegex) > 0 || len(rd.postIncludeFiles) > 0
	if includeGate {
		matched := contains(rd.postIncludeFiles, resolvedPath)
		if !matched && len(rd.postIncludeRegex) > 0 {
			matched = matchAny(rd.postIncludeRegex, resolvedPath)
		}
		if !matched {
			return false
		}
	}
	if contains(rd.postExcludeFiles, resolvedPath) {
		return false
	}
	if len(rd.postExcludeRegex) > 0 && matchAny(rd.postExcludeRegex, resolvedPath) {
		return false
	}
	return true
}

func contains(items []string, v string) bool {
	for _, it := range items {
		if it == v {
			return true
		}
	}
	return false
}

// reportConflicts implements the CONFLICTING_DEPENDENCIES_PREFIX output:
// one <prefix>_<basename> variable per basename resolved from more than one
// path, plus a <prefix>_FILENAMES list of the conflicting basenames.
func reportConflicts(c *evaluator.Context, prefix string, resolvedList []string) {
	byBase := map[string][]string{}
	for _, p := range resolvedList {
		base := filepath.Base(p)
		byBase[base] = append(byBase[base], p)
	}
	var names []string
	for base, paths := range byBase {
		if len(paths) <= 1 {
			continue
		}
		sort.Strings(paths)
		c.Set(prefix+"_"+base, joinList(paths), false)
		names = append(names, base)
	}
	sort.Strings(names)
	c.Set(prefix+"_FILENAMES", joinList(names), false)
}
