package commands

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Qfresquin/cmk2nob/internal/ast"
	"github.com/Qfresquin/cmk2nob/internal/effects"
	"github.com/Qfresquin/cmk2nob/internal/evaluator"
)

// configureFile implements configure_file(<in> <out> [@ONLY] [ESCAPE_QUOTES]).
// Only @VAR@ references in the input are substituted; ${VAR} references are
// copied unchanged, so @ONLY makes no difference to the output.
func configureFile(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) < 2 {
		c.Error("commands", "configure_file", "configure_file() requires <input> <output>", "SEMANTIC", "INPUT_ERROR", node)
		return nil
	}
	in, out := args[0], args[1]
	if !filepath.IsAbs(in) {
		in = filepath.Join(c.CurrentSourceDir, in)
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(c.CurrentBinaryDir, out)
	}
	escapeQuotes := false
	for _, a := range args[2:] {
		if strings.EqualFold(a, "ESCAPE_QUOTES") {
			escapeQuotes = true
		}
	}

	raw, err := os.ReadFile(in)
	if err != nil {
		c.Error("commands", "configure_file", "failed to read "+in+": "+err.Error(), "SEMANTIC", "IO_ENV_ERROR", node)
		return nil
	}
	rendered := renderAtVariables(c, string(raw), escapeQuotes)
	res := effects.RunFS(context.Background(), effects.FSRequest{Op: effects.FSWriteFileBytes, Path: out, Bytes: []byte(rendered)})
	if res.Status != effects.StatusOK {
		c.Error("commands", "configure_file", "failed to write "+out, "SEMANTIC", "IO_ENV_ERROR", node)
	}
	return nil
}

// renderAtVariables expands @VAR@ references in text. ${VAR} references in
// text are not expanded.
func renderAtVariables(c *evaluator.Context, text string, escapeQuotes bool) string {
	var b strings.Builder
	i := 0
	for i < len(text) {
		if text[i] == '@' {
			if end := strings.IndexByte(text[i+1:], '@'); end >= 0 {
				name := text[i+1 : i+1+end]
				if isPlainVarName(name) {
					v, _ := c.Variable(name)
					if escapeQuotes {
						v = strings.ReplaceAll(v, `"`, `\"`)
					}
					b.WriteString(v)
					i = i + 1 + end + 1
					continue
				}
			}
		}
		b.WriteByte(text[i])
		i++
	}
	return b.String()
}

func isPlainVarName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '_' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

func hashFile(path, algo string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var h hash.Hash
	switch strings.ToUpper(algo) {
	case "MD5":
		h = md5.New()
	case "SHA1":
		h = sha1.New()
	case "SHA224":
		h = sha256.New224()
	case "SHA256":
		h = sha256.New()
	case "SHA384":
		h = sha512.New384()
	case "SHA512":
		h = sha512.New()
	default:
		h = sha256.New()
	}
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// fileCommand implements a practical subset of file()'s many subcommands,
// delegating filesystem work to internal/effects.RunFS.
func fileCommand(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) == 0 {
		return nil
	}
	sub := strings.ToUpper(args[0])
	rest := args[1:]
	ctx := context.Background()

	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(c.CurrentSourceDir, p)
	}

	switch sub {
	case "WRITE":
		if len(rest) >= 1 {
			path := resolve(rest[0])
			content := strings.Join(rest[1:], "")
			res := effects.RunFS(ctx, effects.FSRequest{Op: effects.FSWriteFileBytes, Path: path, Bytes: []byte(content)})
			if res.Status != effects.StatusOK {
				c.Error("commands", "file", "WRITE failed for "+path, "SEMANTIC", "IO_ENV_ERROR", node)
			}
		}
	case "APPEND":
		if len(rest) >= 1 {
			path := resolve(rest[0])
			existing, _ := os.ReadFile(path)
			content := string(existing) + strings.Join(rest[1:], "")
			effects.RunFS(ctx, effects.FSRequest{Op: effects.FSWriteFileBytes, Path: path, Bytes: []byte(content)})
		}
	case "READ":
		if len(rest) >= 2 {
			path := resolve(rest[0])
			outVar := rest[1]
			data, err := os.ReadFile(path)
			if err != nil {
				c.Error("commands", "file", "READ failed for "+path, "SEMANTIC", "IO_ENV_ERROR", node)
				return nil
			}
			c.Set(outVar, string(data), false)
		}
	case "REMOVE":
		for _, p := range rest {
			effects.RunFS(ctx, effects.FSRequest{Op: effects.FSDeleteFile, Path: resolve(p)})
		}
	case "REMOVE_RECURSE":
		for _, p := range rest {
			effects.RunFS(ctx, effects.FSRequest{Op: effects.FSDeletePathRecursive, Path: resolve(p)})
		}
	case "RENAME":
		if len(rest) >= 2 {
			os.Rename(resolve(rest[0]), resolve(rest[1]))
		}
	case "COPY", "COPY_FILE":
		if len(rest) >= 2 {
			src := resolve(rest[0])
			dst := rest[1]
			if !filepath.IsAbs(dst) {
				dst = filepath.Join(c.CurrentBinaryDir, dst)
			}
			op := effects.FSCopyEntryToDestination
			if sub == "COPY_FILE" {
				op = effects.FSCopyFile
			}
			res := effects.RunFS(ctx, effects.FSRequest{Op: op, Path: src, Destination: dst})
			if res.Status != effects.StatusOK {
				c.Error("commands", "file", sub+" failed for "+src, "SEMANTIC", "IO_ENV_ERROR", node)
			}
		}
	case "MAKE_DIRECTORY":
		for _, p := range rest {
			effects.RunFS(ctx, effects.FSRequest{Op: effects.FSMkdir, Path: resolve(p)})
		}
	case "TOUCH", "TOUCH_NOCREATE":
		for _, p := range rest {
			path := resolve(p)
			if sub == "TOUCH_NOCREATE" {
				if _, err := os.Stat(path); err != nil {
					continue
				}
			}
			if _, err := os.Stat(path); err != nil {
				effects.RunFS(ctx, effects.FSRequest{Op: effects.FSWriteFileBytes, Path: path, Bytes: nil})
			} else {
				now := time.Now()
				os.Chtimes(path, now, now)
			}
		}
	case "SIZE":
		if len(rest) >= 2 {
			info, err := os.Stat(resolve(rest[0]))
			if err != nil {
				c.Set(rest[1], "-1", false)
				return nil
			}
			c.Set(rest[1], strconv.FormatInt(info.Size(), 10), false)
		}
	case "GET_RUNTIME_DEPENDENCIES":
		fileGetRuntimeDependencies(c, node, rest, resolve)
	case "READ_SYMLINK":
		if len(rest) >= 2 {
			target, err := os.Readlink(resolve(rest[0]))
			if err != nil {
				c.Error("commands", "file", "READ_SYMLINK failed for "+rest[0]+": "+err.Error(), "SEMANTIC", "IO_ENV_ERROR", node)
				return nil
			}
			c.Set(rest[1], target, false)
		}
	case "CREATE_LINK":
		if len(rest) >= 2 {
			opts := ParseOptions(rest[2:], []OptSpec{
				{Name: "RESULT", Kind: OptSingle},
				{Name: "COPY_ON_ERROR", Kind: OptFlag},
				{Name: "SYMBOLIC", Kind: OptFlag},
			})
			src, dst := resolve(rest[0]), resolve(rest[1])
			var err error
			if opts.Has("SYMBOLIC") {
				err = os.Symlink(src, dst)
			} else {
				err = os.Link(src, dst)
			}
			if err != nil && opts.Has("COPY_ON_ERROR") {
				err = copyFileFallback(src, dst)
			}
			if res := opts.First("RESULT"); res != "" {
				if err != nil {
					c.Set(res, err.Error(), false)
				} else {
					c.Set(res, "0", false)
				}
			}
		}
	case "TIMESTAMP":
		if len(rest) >= 2 {
			opts := ParseOptions(rest[2:], []OptSpec{
				{Name: "UTC", Kind: OptFlag},
			})
			info, err := os.Stat(resolve(rest[0]))
			if err != nil {
				c.Set(rest[1], "", false)
				return nil
			}
			t := info.ModTime()
			if opts.Has("UTC") {
				t = t.UTC()
			}
			format := "%Y-%m-%dT%H:%M:%S"
			if len(opts.Positional) > 0 {
				format = opts.Positional[0]
			}
			c.Set(rest[1], strftime(format, t), false)
		}
	case "CONFIGURE":
		opts := ParseOptions(rest, []OptSpec{
			{Name: "OUTPUT", Kind: OptSingle},
			{Name: "CONTENT", Kind: OptSingle},
			{Name: "ESCAPE_QUOTES", Kind: OptFlag},
			{Name: "@ONLY", Kind: OptFlag},
			{Name: "NEWLINE_STYLE", Kind: OptSingle},
		})
		out := opts.First("OUTPUT")
		if out == "" {
			return nil
		}
		if !filepath.IsAbs(out) {
			out = filepath.Join(c.CurrentBinaryDir, out)
		}
		rendered := renderAtVariables(c, opts.First("CONTENT"), opts.Has("ESCAPE_QUOTES"))
		res := effects.RunFS(ctx, effects.FSRequest{Op: effects.FSWriteFileBytes, Path: out, Bytes: []byte(rendered)})
		if res.Status != effects.StatusOK {
			c.Error("commands", "file", "CONFIGURE failed to write "+out, "SEMANTIC", "IO_ENV_ERROR", node)
		}
	case "GENERATE":
		opts := ParseOptions(rest, []OptSpec{
			{Name: "OUTPUT", Kind: OptSingle},
			{Name: "INPUT", Kind: OptSingle},
			{Name: "CONTENT", Kind: OptSingle},
			{Name: "CONDITION", Kind: OptSingle},
		})
		out := opts.First("OUTPUT")
		if out == "" {
			return nil
		}
		if !filepath.IsAbs(out) {
			out = filepath.Join(c.CurrentBinaryDir, out)
		}
		var content string
		if in := opts.First("INPUT"); in != "" {
			data, err := os.ReadFile(resolve(in))
			if err != nil {
				c.Error("commands", "file", "GENERATE failed to read "+in+": "+err.Error(), "SEMANTIC", "IO_ENV_ERROR", node)
				return nil
			}
			content = string(data)
		} else {
			content = opts.First("CONTENT")
		}
		res := effects.RunFS(ctx, effects.FSRequest{Op: effects.FSWriteFileBytes, Path: out, Bytes: []byte(content)})
		if res.Status != effects.StatusOK {
			c.Error("commands", "file", "GENERATE failed to write "+out, "SEMANTIC", "IO_ENV_ERROR", node)
		}
	case "UPLOAD":
		if len(rest) >= 1 {
			c.Warn("commands", "file", "UPLOAD is not supported by this evaluator (no network sink configured)", "UNSUPPORTED", "ENGINE_LIMITATION", node)
		}
	case "ARCHIVE_CREATE", "ARCHIVE_EXTRACT":
		fileArchive(c, node, sub, rest, resolve)
	case "REAL_PATH":
		if len(rest) >= 2 {
			abs, err := filepath.Abs(resolve(rest[0]))
			if err != nil {
				abs = resolve(rest[0])
			}
			c.Set(rest[1], abs, false)
		}
	case "RELATIVE_PATH":
		if len(rest) >= 3 {
			rel, err := filepath.Rel(rest[0], rest[1])
			if err != nil {
				rel = rest[1]
			}
			c.Set(rest[2], filepath.ToSlash(rel), false)
		}
	case "TO_CMAKE_PATH":
		if len(rest) >= 2 {
			c.Set(rest[1], filepath.ToSlash(rest[0]), false)
		}
	case "TO_NATIVE_PATH":
		if len(rest) >= 2 {
			c.Set(rest[1], filepath.FromSlash(rest[0]), false)
		}
	case "GLOB", "GLOB_RECURSE":
		if len(rest) >= 2 {
			outVar := rest[0]
			var patterns []string
			for _, a := range rest[1:] {
				switch strings.ToUpper(a) {
				case "RELATIVE", "CONFIGURE_DEPENDS":
				default:
					patterns = append(patterns, a)
				}
			}
			var matches []string
			for _, pat := range patterns {
				found, _ := filepath.Glob(resolve(pat))
				matches = append(matches, found...)
			}
			c.Set(outVar, joinList(matches), false)
		}
	case "HASH":
		if len(rest) >= 2 {
			algo := rest[0]
			path := resolve(rest[1])
			sum, err := hashFile(path, algo)
			if err != nil {
				c.Error("commands", "file", "HASH failed for "+path, "SEMANTIC", "IO_ENV_ERROR", node)
				return nil
			}
			if len(rest) >= 3 {
				c.Set(rest[2], sum, false)
			}
		}
	case "DOWNLOAD":
		if len(rest) >= 2 {
			url, path := rest[0], resolve(rest[1])
			res := effects.RunFS(ctx, effects.FSRequest{Op: effects.FSDownloadToPath, Path: path, URL: url})
			if res.Status != effects.StatusOK {
				c.Error("commands", "file", "DOWNLOAD failed for "+url, "SEMANTIC", "IO_ENV_ERROR", node)
			}
		}
	case "LOCK":
		if len(rest) >= 1 {
			guard := evaluator.GuardProcess
			for _, a := range rest[1:] {
				switch strings.ToUpper(a) {
				case "FILE":
					guard = evaluator.GuardFile
				case "FUNCTION":
					guard = evaluator.GuardFunction
				}
			}
			c.AcquireLock(resolve(rest[0]), guard)
		}
	case "UNLOCK":
		if len(rest) >= 1 {
			c.ReleaseLock(resolve(rest[0]))
		}
	case "CHMOD", "CHMOD_RECURSE":
		// no-op: permission bits are not modeled by the build graph this
		// evaluator produces; recorded here only so the command is recognized.
	default:
		c.Warn("commands", "file", "unrecognized file() subcommand "+sub, "UNSUPPORTED", "ENGINE_LIMITATION", node)
	}
	return nil
}

// copyFileFallback is CREATE_LINK's COPY_ON_ERROR path: a plain byte copy
// when the host filesystem refuses a hard or symbolic link.
func copyFileFallback(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

// strftime renders t against a file(TIMESTAMP)-style %-directive format.
// It handles %Y %y %m %d %H %M %S %j %w %B %b %A %a and %%; any other
// directive is copied to the output unchanged.
func strftime(format string, t time.Time) string {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		if format[i] != '%' || i+1 >= len(format) {
			b.WriteByte(format[i])
			continue
		}
		i++
		switch format[i] {
		case 'Y':
			b.WriteString(t.Format("2006"))
		case 'y':
			b.WriteString(t.Format("06"))
		case 'm':
			b.WriteString(t.Format("01"))
		case 'd':
			b.WriteString(t.Format("02"))
		case 'H':
			b.WriteString(t.Format("15"))
		case 'M':
			b.WriteString(t.Format("04"))
		case 'S':
			b.WriteString(t.Format("05"))
		case 'j':
			b.WriteString(strconv.Itoa(t.YearDay()))
		case 'w':
			b.WriteString(strconv.Itoa(int(t.Weekday())))
		case 'B':
			b.WriteString(t.Format("January"))
		case 'b':
			b.WriteString(t.Format("Jan"))
		case 'A':
			b.WriteString(t.Format("Monday"))
		case 'a':
			b.WriteString(t.Format("Mon"))
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(format[i])
		}
	}
	return b.String()
}

func registerFileIOHandlers(h map[string]evaluator.HandlerFunc) {
	h["configure_file"] = configureFile
	h["file"] = fileCommand
}
