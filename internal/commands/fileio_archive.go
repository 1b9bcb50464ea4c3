package commands

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/Qfresquin/cmk2nob/internal/ast"
	"github.com/Qfresquin/cmk2nob/internal/effects"
	"github.com/Qfresquin/cmk2nob/internal/evaluator"
)

// fileArchive implements file(ARCHIVE_CREATE)/file(ARCHIVE_EXTRACT) by
// delegating to the host tar/zip/unzip binary through the process effect,
// matching spec's "delegating to host tar/zip/unzip" rather than
// reimplementing archive formats in Go.
func fileArchive(c *evaluator.Context, node ast.Node, sub string, rest []string, resolve func(string) string) {
	opts := ParseOptions(rest, []OptSpec{
		{Name: "OUTPUT", Kind: OptSingle},
		{Name: "PATTERNS", Kind: OptMulti},
		{Name: "DIRECTORY", Kind: OptSingle},
		{Name: "FORMAT", Kind: OptSingle},
		{Name: "COMPRESSION", Kind: OptSingle},
		{Name: "VERBOSE", Kind: OptFlag},
		{Name: "INPUT", Kind: OptSingle},
		{Name: "DESTINATION", Kind: OptSingle},
		{Name: "LIST_ONLY", Kind: OptFlag},
	})

	format := strings.ToLower(opts.First("FORMAT"))
	archiver := "tar"
	if format == "zip" {
		archiver = "zip"
	}

	var argv []string
	workDir := c.CurrentBinaryDir

	switch sub {
	case "ARCHIVE_CREATE":
		out := opts.First("OUTPUT")
		if out == "" {
			c.Error("commands", "file", "ARCHIVE_CREATE requires OUTPUT", "SEMANTIC", "INPUT_ERROR", node)
			return
		}
		if !filepath.IsAbs(out) {
			out = filepath.Join(c.CurrentBinaryDir, out)
		}
		sources := opts.All("PATTERNS")
		if dir := opts.First("DIRECTORY"); dir != "" {
			workDir = resolve(dir)
		}
		if archiver == "zip" {
			argv = append([]string{"zip", "-r", out}, sources...)
		} else {
			argv = append([]string{"tar", tarCreateFlags(format), out}, sources...)
		}
	case "ARCHIVE_EXTRACT":
		in := opts.First("INPUT")
		if in == "" {
			c.Error("commands", "file", "ARCHIVE_EXTRACT requires INPUT", "SEMANTIC", "INPUT_ERROR", node)
			return
		}
		in = resolve(in)
		dest := opts.First("DESTINATION")
		if dest == "" {
			dest = c.CurrentBinaryDir
		} else if !filepath.IsAbs(dest) {
			dest = filepath.Join(c.CurrentBinaryDir, dest)
		}
		if strings.HasSuffix(strings.ToLower(in), ".zip") {
			argv = []string{"unzip", "-o", in, "-d", dest}
		} else {
			argv = []string{"tar", "-xf", in, "-C", dest}
		}
	}

	res := effects.RunProcess(context.Background(), effects.ProcessRequest{Argv: argv, WorkingDir: workDir, CaptureStdout: true, CaptureStderr: true})
	if res.Status != effects.StatusOK || res.ExitCode != 0 {
		c.Error("commands", "file", sub+" failed: "+res.StderrText, "SEMANTIC", "IO_ENV_ERROR", node)
	}
}

func tarCreateFlags(format string) string {
	switch format {
	case "gnutar", "pax", "paxr", "tar":
		return "-cf"
	default:
		return "-czf"
	}
}
