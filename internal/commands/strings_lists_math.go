package commands

import (
	"encoding/hex"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Qfresquin/cmk2nob/internal/ast"
	"github.com/Qfresquin/cmk2nob/internal/evaluator"
	"github.com/Qfresquin/cmk2nob/internal/mathexpr"
)

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	return strings.Split(v, ";")
}

func joinList(items []string) string { return strings.Join(items, ";") }

// mathCommand implements math(EXPR <out-var> "<expr>" [OUTPUT_FORMAT HEXADECIMAL|DECIMAL]).
func mathCommand(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) < 3 || !strings.EqualFold(args[0], "EXPR") {
		c.Error("commands", "math", "math() requires EXPR <out-var> <expr>", "SEMANTIC", "INPUT_ERROR", node)
		return nil
	}
	outVar := args[1]
	expr := args[2]
	format := mathexpr.FormatDecimal
	if len(args) >= 5 && strings.EqualFold(args[3], "OUTPUT_FORMAT") && strings.EqualFold(args[4], "HEXADECIMAL") {
		format = mathexpr.FormatHexadecimal
	}
	v, err := mathexpr.Eval(expr)
	if err != nil {
		c.Error("commands", "math", "math(EXPR) failed: "+err.Error(), "SEMANTIC", "INPUT_ERROR", node)
		return nil
	}
	c.Set(outVar, mathexpr.Format(v, format), false)
	return nil
}

// stringCommand implements the string() subcommand family.
func stringCommand(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) == 0 {
		return nil
	}
	sub := strings.ToUpper(args[0])
	rest := args[1:]
	switch sub {
	case "TOLOWER":
		if len(rest) >= 2 {
			c.Set(rest[1], strings.ToLower(rest[0]), false)
		}
	case "TOUPPER":
		if len(rest) >= 2 {
			c.Set(rest[1], strings.ToUpper(rest[0]), false)
		}
	case "LENGTH":
		if len(rest) >= 2 {
			c.Set(rest[1], strconv.Itoa(len(rest[0])), false)
		}
	case "STRIP":
		if len(rest) >= 2 {
			c.Set(rest[1], strings.TrimSpace(rest[0]), false)
		}
	case "APPEND":
		if len(rest) >= 1 {
			outVar := rest[0]
			existing, _ := c.Variable(outVar)
			c.Set(outVar, existing+strings.Join(rest[1:], ""), false)
		}
	case "PREPEND":
		if len(rest) >= 1 {
			outVar := rest[0]
			existing, _ := c.Variable(outVar)
			c.Set(outVar, strings.Join(rest[1:], "")+existing, false)
		}
	case "CONCAT":
		if len(rest) >= 1 {
			c.Set(rest[0], strings.Join(rest[1:], ""), false)
		}
	case "JOIN":
		if len(rest) >= 2 {
			glue := rest[0]
			outVar := rest[len(rest)-1]
			items := rest[1 : len(rest)-1]
			c.Set(outVar, strings.Join(items, glue), false)
		}
	case "SUBSTRING":
		if len(rest) >= 4 {
			s := rest[0]
			begin, _ := strconv.Atoi(rest[1])
			length, _ := strconv.Atoi(rest[2])
			outVar := rest[3]
			if begin < 0 {
				begin = 0
			}
			if begin > len(s) {
				begin = len(s)
			}
			end := len(s)
			if length >= 0 && begin+length < end {
				end = begin + length
			}
			c.Set(outVar, s[begin:end], false)
		}
	case "FIND":
		if len(rest) >= 3 {
			idx := strings.Index(rest[0], rest[1])
			c.Set(rest[2], strconv.Itoa(idx), false)
		}
	case "REPLACE":
		if len(rest) >= 4 {
			outVar := rest[len(rest)-1]
			input := strings.Join(rest[2:len(rest)-1], "")
			c.Set(outVar, strings.ReplaceAll(input, rest[0], rest[1]), false)
		}
	case "COMPARE":
		if len(rest) >= 4 {
			op := strings.ToUpper(rest[0])
			a, b, outVar := rest[1], rest[2], rest[3]
			result := false
			switch op {
			case "EQUAL":
				result = a == b
			case "NOTEQUAL":
				result = a != b
			case "LESS":
				result = a < b
			case "GREATER":
				result = a > b
			case "LESS_EQUAL":
				result = a <= b
			case "GREATER_EQUAL":
				result = a >= b
			}
			c.Set(outVar, boolStr(result), false)
		}
	case "HEX":
		if len(rest) >= 2 {
			c.Set(rest[1], hex.EncodeToString([]byte(rest[0])), false)
		}
	case "ASCII":
		if len(rest) >= 1 {
			outVar := rest[len(rest)-1]
			var sb strings.Builder
			for _, tok := range rest[:len(rest)-1] {
				n, err := strconv.Atoi(tok)
				if err == nil && n >= 0 && n < 256 {
					sb.WriteByte(byte(n))
				}
			}
			c.Set(outVar, sb.String(), false)
		}
	case "REGEX":
		return stringRegex(c, node, rest)
	}
	return nil
}

func boolStr(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func stringRegex(c *evaluator.Context, node ast.Node, rest []string) error {
	if len(rest) == 0 {
		return nil
	}
	mode := strings.ToUpper(rest[0])
	switch mode {
	case "MATCH":
		if len(rest) >= 4 {
			re, err := regexp.Compile(rest[1])
			if err != nil {
				c.Error("commands", "string", "invalid regex: "+err.Error(), "SEMANTIC", "INPUT_ERROR", node)
				return nil
			}
			outVar := rest[2]
			input := strings.Join(rest[3:], "")
			if m := re.FindString(input); m != "" {
				c.Set(outVar, m, false)
			}
		}
	case "MATCHALL":
		if len(rest) >= 4 {
			re, err := regexp.Compile(rest[1])
			if err != nil {
				c.Error("commands", "string", "invalid regex: "+err.Error(), "SEMANTIC", "INPUT_ERROR", node)
				return nil
			}
			outVar := rest[2]
			input := strings.Join(rest[3:], "")
			c.Set(outVar, joinList(re.FindAllString(input, -1)), false)
		}
	case "REPLACE":
		if len(rest) >= 4 {
			re, err := regexp.Compile(rest[1])
			if err != nil {
				c.Error("commands", "string", "invalid regex: "+err.Error(), "SEMANTIC", "INPUT_ERROR", node)
				return nil
			}
			replacement := rest[2]
			outVar := rest[3]
			input := strings.Join(rest[4:], "")
			goReplacement := regexp.MustCompile(`\\([0-9])`).ReplaceAllString(replacement, "$$$1")
			c.Set(outVar, re.ReplaceAllString(input, goReplacement), false)
		}
	}
	return nil
}

// listCommand implements the list() subcommand family.
func listCommand(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) < 2 {
		return nil
	}
	sub := strings.ToUpper(args[0])
	outVar := args[1]
	rest := args[2:]
	current, _ := c.Variable(outVar)
	items := splitList(current)

	switch sub {
	case "LENGTH":
		if len(rest) >= 1 {
			c.Set(rest[0], strconv.Itoa(len(items)), false)
		}
		return nil
	case "GET":
		if len(rest) >= 1 {
			outIdx := rest[:len(rest)-1]
			dest := rest[len(rest)-1]
			var picked []string
			for _, tok := range outIdx {
				i, err := strconv.Atoi(tok)
				if err != nil {
					continue
				}
				if i < 0 {
					i += len(items)
				}
				if i >= 0 && i < len(items) {
					picked = append(picked, items[i])
				}
			}
			c.Set(dest, joinList(picked), false)
		}
		return nil
	case "FIND":
		if len(rest) >= 2 {
			idx := -1
			for i, v := range items {
				if v == rest[0] {
					idx = i
					break
				}
			}
			c.Set(rest[1], strconv.Itoa(idx), false)
		}
		return nil
	case "APPEND":
		items = append(items, rest...)
	case "PREPEND":
		items = append(append([]string{}, rest...), items...)
	case "INSERT":
		if len(rest) >= 1 {
			i, err := strconv.Atoi(rest[0])
			if err == nil {
				if i < 0 {
					i += len(items)
				}
				if i < 0 {
					i = 0
				}
				if i > len(items) {
					i = len(items)
				}
				tail := append([]string{}, items[i:]...)
				items = append(append(items[:i], rest[1:]...), tail...)
			}
		}
	case "REMOVE_ITEM":
		var kept []string
		remove := map[string]bool{}
		for _, v := range rest {
			remove[v] = true
		}
		for _, v := range items {
			if !remove[v] {
				kept = append(kept, v)
			}
		}
		items = kept
	case "REMOVE_AT":
		remove := map[int]bool{}
		for _, tok := range rest {
			i, err := strconv.Atoi(tok)
			if err != nil {
				continue
			}
			if i < 0 {
				i += len(items)
			}
			remove[i] = true
		}
		var kept []string
		for i, v := range items {
			if !remove[i] {
				kept = append(kept, v)
			}
		}
		items = kept
	case "REMOVE_DUPLICATES":
		seen := map[string]bool{}
		var kept []string
		for _, v := range items {
			if !seen[v] {
				seen[v] = true
				kept = append(kept, v)
			}
		}
		items = kept
	case "REVERSE":
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	case "SORT":
		desc := false
		caseInsensitive := false
		for _, a := range rest {
			if strings.EqualFold(a, "DESCENDING") {
				desc = true
			}
			if strings.EqualFold(a, "CASE") {
				caseInsensitive = true
			}
		}
		sort.Slice(items, func(i, j int) bool {
			a, b := items[i], items[j]
			if caseInsensitive {
				a, b = strings.ToLower(a), strings.ToLower(b)
			}
			if desc {
				return a > b
			}
			return a < b
		})
	case "SUBLIST":
		if len(rest) >= 3 {
			start, _ := strconv.Atoi(rest[0])
			count, _ := strconv.Atoi(rest[1])
			dest := rest[2]
			if start < 0 {
				start = 0
			}
			if start > len(items) {
				start = len(items)
			}
			end := len(items)
			if count >= 0 && start+count < end {
				end = start + count
			}
			c.Set(dest, joinList(items[start:end]), false)
			return nil
		}
	case "JOIN":
		if len(rest) >= 2 {
			c.Set(rest[1], strings.Join(items, rest[0]), false)
			return nil
		}
	case "POP_FRONT":
		if len(items) > 0 {
			if len(rest) >= 1 {
				c.Set(rest[0], items[0], false)
			}
			items = items[1:]
		}
	case "POP_BACK":
		if len(items) > 0 {
			if len(rest) >= 1 {
				c.Set(rest[0], items[len(items)-1], false)
			}
			items = items[:len(items)-1]
		}
	case "FILTER":
		if len(rest) >= 2 {
			mode := strings.ToUpper(rest[0])
			re, err := regexp.Compile(rest[1])
			if err != nil {
				c.Error("commands", "list", "invalid regex: "+err.Error(), "SEMANTIC", "INPUT_ERROR", node)
				return nil
			}
			var kept []string
			for _, v := range items {
				matches := re.MatchString(v)
				if mode == "INCLUDE" && matches {
					kept = append(kept, v)
				} else if mode == "EXCLUDE" && !matches {
					kept = append(kept, v)
				}
			}
			items = kept
		}
	default:
		return nil
	}
	c.Set(outVar, joinList(items), false)
	return nil
}

// separateArguments implements separate_arguments(<var> [UNIX_COMMAND|WINDOWS_COMMAND] [...]).
func separateArguments(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) == 0 {
		return nil
	}
	outVar := args[0]
	value, _ := c.Variable(outVar)
	if len(args) >= 2 {
		switch strings.ToUpper(args[1]) {
		case "UNIX_COMMAND", "WINDOWS_COMMAND":
			value = strings.Join(args[2:], " ")
		}
	}
	fields := strings.Fields(value)
	c.Set(outVar, joinList(fields), false)
	return nil
}

// variableWatch implements variable_watch(<var> [<command>]) as a no-op
// registration: the watch is recorded on the model so callers can inspect
// which variables were ever watched, but since this evaluator has no
// command-string execution facility to invoke on a read/write/unset event,
// no user-supplied <command> ever actually runs. A diagnostic records the
// registration so that silence doesn't look like full support.
func variableWatch(c *evaluator.Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) == 0 {
		return nil
	}
	c.Model.WatchVariable(args[0])
	c.Warn("commands", "variable_watch", "variable_watch("+args[0]+") registered but watch callbacks do not execute", "UNSUPPORTED", "ENGINE_LIMITATION", node)
	return nil
}

func registerStringListMathHandlers(h map[string]evaluator.HandlerFunc) {
	h["math"] = mathCommand
	h["string"] = stringCommand
	h["list"] = listCommand
	h["separate_arguments"] = separateArguments
	h["variable_watch"] = variableWatch
}
