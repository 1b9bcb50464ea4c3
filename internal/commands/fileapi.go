package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Qfresquin/cmk2nob/internal/ast"
	"github.com/Qfresquin/cmk2nob/internal/evaluator"
)

// cmakeFileAPI implements cmake_file_api(QUERY API_VERSION v [CODEMODEL-v2]
// [CACHE-v2] [CMAKEFILES-v1] [TOOLCHAINS-v1] [CLIENT <name>]): it writes the
// zero-byte query-stamp files a real configure run's file-api client reads
// back after generation, under .cmake/api/v1/query/ (or
// .cmake/api/v1/query/client-<name>/ when CLIENT is given).
func cmakeFileAPI(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) == 0 || !strings.EqualFold(args[0], "QUERY") {
		return nil
	}
	rest := args[1:]
	opts := ParseOptions(rest, []OptSpec{
		{Name: "API_VERSION", Kind: OptSingle},
		{Name: "CLIENT", Kind: OptSingle},
	})

	queryDir := filepath.Join(c.CurrentBinaryDir, ".cmake", "api", "v1", "query")
	if client := opts.First("CLIENT"); client != "" {
		queryDir = filepath.Join(c.CurrentBinaryDir, ".cmake", "api", "v1", "query", "client-"+client)
	}
	if err := os.MkdirAll(queryDir, 0o755); err != nil {
		c.Error("commands", "cmake_file_api", "failed to create query directory: "+err.Error(), "SEMANTIC", "IO_ENV_ERROR", node)
		return nil
	}

	for _, a := range rest {
		switch strings.ToUpper(a) {
		case "CODEMODEL-V2", "CACHE-V2", "CMAKEFILES-V1", "TOOLCHAINS-V1":
			stamp := filepath.Join(queryDir, strings.ToLower(a))
			if err := os.WriteFile(stamp, nil, 0o644); err != nil {
				c.Error("commands", "cmake_file_api", "failed to write "+stamp, "SEMANTIC", "IO_ENV_ERROR", node)
			}
		}
	}
	return nil
}

// instrumentationQuery mirrors the JSON shape cmake_instrumentation() writes
// under .cmake/instrumentation/query_<N>.json.
type instrumentationQuery struct {
	Version   int      `json:"version"`
	Hooks     []string `json:"hooks,omitempty"`
	Queries   []string `json:"queries,omitempty"`
	Callbacks []string `json:"callbacks,omitempty"`
}

// cmakeInstrumentation implements cmake_instrumentation(API_VERSION v
// [HOOKS h...] [QUERIES q...] [CALLBACKS c...]): writes one query_N.json
// file and sets the matching CMAKE_INSTRUMENTATION_* variables.
func cmakeInstrumentation(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	opts := ParseOptions(args, []OptSpec{
		{Name: "API_VERSION", Kind: OptSingle},
		{Name: "DATA_VERSION", Kind: OptSingle},
		{Name: "HOOKS", Kind: OptMulti},
		{Name: "QUERIES", Kind: OptMulti},
		{Name: "CALLBACKS", Kind: OptMulti},
	})

	apiVersion := opts.First("API_VERSION")
	if apiVersion == "" {
		apiVersion = "1"
	}
	c.Set("CMAKE_INSTRUMENTATION_API_VERSION", apiVersion, false)
	c.Set("CMAKE_INSTRUMENTATION_DATA_VERSION", opts.First("DATA_VERSION"), false)
	c.Set("CMAKE_INSTRUMENTATION_HOOKS", joinList(opts.All("HOOKS")), false)
	c.Set("CMAKE_INSTRUMENTATION_QUERIES", joinList(opts.All("QUERIES")), false)
	c.Set("CMAKE_INSTRUMENTATION_CALLBACKS", joinList(opts.All("CALLBACKS")), false)

	dir := filepath.Join(c.CurrentBinaryDir, ".cmake", "instrumentation")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.Error("commands", "cmake_instrumentation", "failed to create instrumentation directory: "+err.Error(), "SEMANTIC", "IO_ENV_ERROR", node)
		return nil
	}
	version := 1
	if v, ok := c.Variable("CMK2NOB_INSTRUMENTATION_QUERY_SEQ"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			version = n + 1
		}
	}
	c.Set("CMK2NOB_INSTRUMENTATION_QUERY_SEQ", strconv.Itoa(version), false)

	payload := instrumentationQuery{
		Version:   1,
		Hooks:     opts.All("HOOKS"),
		Queries:   opts.All("QUERIES"),
		Callbacks: opts.All("CALLBACKS"),
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		c.Error("commands", "cmake_instrumentation", "failed to marshal query: "+err.Error(), "SEMANTIC", "IO_ENV_ERROR", node)
		return nil
	}
	path := filepath.Join(dir, "query_"+strconv.Itoa(version)+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		c.Error("commands", "cmake_instrumentation", "failed to write "+path, "SEMANTIC", "IO_ENV_ERROR", node)
	}
	return nil
}

func registerFileAPIHandlers(h map[string]evaluator.HandlerFunc) {
	h["cmake_file_api"] = cmakeFileAPI
	h["cmake_instrumentation"] = cmakeInstrumentation
}
