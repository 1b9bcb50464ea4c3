// Package genex evaluates CMake generator expressions ($<...>), with
// recursion, cycle detection and host-supplied callbacks for target
// property/file lookups. Grounded on original_source/src_v2/genex/genex.c.
package genex

import (
	"fmt"
	"path"
	"strings"
)

// Status classifies an evaluation outcome.
type Status int

const (
	StatusOK Status = iota
	StatusError
	StatusUnsupported
	StatusCycleGuardHit
)

// Result is the outcome of evaluating one generator-expression fragment.
type Result struct {
	Status  Status
	Value   string
	Message string
}

// Callbacks let the host (build model) answer target-property and
// target-file lookups without genex depending on the model package.
type Callbacks struct {
	ReadTargetProperty   func(target, property string) (string, bool)
	ReadTargetFile        func(target string) (string, bool)
	ReadTargetLinkerFile  func(target string) (string, bool)
}

// Context configures one evaluation: ambient config name, platform id,
// compile language, BUILD_INTERFACE/INSTALL_INTERFACE/LINK_ONLY activity,
// the target $<TARGET_PROPERTY> resolves against implicitly, and bounds.
type Context struct {
	Config              string
	PlatformID           string
	CompileLanguage      string
	BuildInterfaceActive bool
	InstallInterfaceActive bool
	LinkOnlyActive       bool
	CurrentTargetName    string

	MaxDepth                 int
	MaxTargetPropertyDepth   int
	MaxCallbackValueLen      int

	TargetNameCaseInsensitive bool

	Callbacks
}

const defaultMaxCallbackValueLen = 1024 * 1024

type tpStackEntry struct {
	target, property string
}

// Eval evaluates input, which may contain zero or more $<...> expressions,
// and returns the fully substituted string.
func Eval(ctx Context, input string) Result {
	local := ctx
	if local.MaxDepth == 0 {
		local.MaxDepth = 64
	}
	if local.MaxTargetPropertyDepth == 0 {
		local.MaxTargetPropertyDepth = 64
	}
	var stack []tpStackEntry
	return evalInner(&local, input, 0, &stack)
}

func isEscaped(s string, idx int) bool {
	if idx <= 0 || idx > len(s) {
		return false
	}
	bs := 0
	for i := idx - 1; i >= 0 && s[i] == '\\'; i-- {
		bs++
	}
	return bs%2 != 0
}

func isGenexOpenAt(s string, i int) bool {
	if i+1 >= len(s) {
		return false
	}
	if s[i] != '$' || s[i+1] != '<' {
		return false
	}
	return !isEscaped(s, i)
}

func isUnescapedCharAt(s string, i int, ch byte) bool {
	if i >= len(s) || s[i] != ch {
		return false
	}
	return !isEscaped(s, i)
}

func containsGenexUnescaped(s string) bool {
	for i := 0; i+1 < len(s); i++ {
		if isGenexOpenAt(s, i) {
			return true
		}
	}
	return false
}

func cmakeStringIsFalse(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" || v == "0" {
		return true
	}
	switch strings.ToUpper(v) {
	case "FALSE", "OFF", "NO", "N", "IGNORE", "NOTFOUND":
		return true
	}
	return strings.HasSuffix(strings.ToUpper(v), "-NOTFOUND")
}

func listMatchesValueCI(list, needle string) bool {
	for _, item := range strings.Split(list, ";") {
		if strings.EqualFold(strings.TrimSpace(item), needle) {
			return true
		}
	}
	return false
}

// splitTopLevel splits on delimiter, ignoring separators inside nested
// $<...> expressions and honoring backslash-escaping.
func splitTopLevel(input string, delimiter byte) []string {
	var out []string
	start := 0
	depth := 0
	for i := 0; i <= len(input); i++ {
		atEnd := i == len(input)
		if !atEnd {
			if isGenexOpenAt(input, i) {
				depth++
				i++
				continue
			}
			if isUnescapedCharAt(input, i, '>') && depth > 0 {
				depth--
				continue
			}
		}
		if !atEnd && !(isUnescapedCharAt(input, i, delimiter) && depth == 0) {
			continue
		}
		out = append(out, strings.TrimSpace(input[start:i]))
		start = i + 1
	}
	return out
}

func findTopLevelColon(body string) (int, bool) {
	depth := 0
	for i := 0; i < len(body); i++ {
		if isGenexOpenAt(body, i) {
			depth++
			i++
			continue
		}
		if isUnescapedCharAt(body, i, '>') && depth > 0 {
			depth--
			continue
		}
		if isUnescapedCharAt(body, i, ':') && depth == 0 {
			return i, true
		}
	}
	return 0, false
}

func findMatchingGenexEnd(input string, startDollar int) (int, bool) {
	if startDollar+1 >= len(input) || !isGenexOpenAt(input, startDollar) {
		return 0, false
	}
	depth := 1
	for i := startDollar + 2; i < len(input); i++ {
		if isGenexOpenAt(input, i) {
			depth++
			i++
			continue
		}
		if isUnescapedCharAt(input, i, '>') {
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func ok(v string) Result             { return Result{Status: StatusOK, Value: v} }
func errResult(msg string) Result    { return Result{Status: StatusError, Message: msg} }
func cycleResult(msg string) Result  { return Result{Status: StatusCycleGuardHit, Message: msg} }

func tpStackContains(ctx *Context, stack *[]tpStackEntry, target, property string) bool {
	for _, e := range *stack {
		targetEq := e.target == target
		if ctx.TargetNameCaseInsensitive {
			targetEq = strings.EqualFold(e.target, target)
		}
		if targetEq && strings.EqualFold(e.property, property) {
			return true
		}
	}
	return false
}

func evalArgFast(ctx *Context, arg string, depth int, stack *[]tpStackEntry) Result {
	trimmed := strings.TrimSpace(arg)
	if !containsGenexUnescaped(trimmed) {
		return ok(trimmed)
	}
	return evalInner(ctx, trimmed, depth+1, stack)
}

func validateCallbackValue(ctx *Context, raw string, found bool, raw_expr, which string) Result {
	if !found {
		return ok("")
	}
	if len(raw) > maxCallbackValueLen(ctx) {
		return errResult(which)
	}
	return ok(raw)
}

func maxCallbackValueLen(ctx *Context) int {
	if ctx.MaxCallbackValueLen == 0 {
		return defaultMaxCallbackValueLen
	}
	return ctx.MaxCallbackValueLen
}

func evalBody(ctx *Context, body, rawExpr string, depth int, stack *[]tpStackEntry) Result {
	op := body
	argsExpr := ""
	if colon, found := findTopLevelColon(body); found {
		op = body[:colon]
		argsExpr = body[colon+1:]
	}
	op = strings.TrimSpace(op)
	opUpper := strings.ToUpper(op)

	switch opUpper {
	case "CONFIG":
		if argsExpr == "" {
			return ok(ctx.Config)
		}
		for _, arg := range splitTopLevel(argsExpr, ',') {
			r := evalArgFast(ctx, arg, depth, stack)
			if r.Status != StatusOK {
				return r
			}
			if listMatchesValueCI(r.Value, ctx.Config) {
				return ok("1")
			}
		}
		return ok("0")

	case "PLATFORM_ID":
		if argsExpr == "" {
			return ok(ctx.PlatformID)
		}
		for _, arg := range splitTopLevel(argsExpr, ',') {
			r := evalArgFast(ctx, arg, depth, stack)
			if r.Status != StatusOK {
				return r
			}
			if listMatchesValueCI(r.Value, ctx.PlatformID) {
				return ok("1")
			}
		}
		return ok("0")

	case "COMPILE_LANGUAGE":
		lang := strings.TrimSpace(ctx.CompileLanguage)
		if lang == "" || argsExpr == "" {
			return ok("0")
		}
		for _, arg := range splitTopLevel(argsExpr, ',') {
			r := evalArgFast(ctx, arg, depth, stack)
			if r.Status != StatusOK {
				return r
			}
			if listMatchesValueCI(r.Value, lang) {
				return ok("1")
			}
		}
		return ok("0")

	case "BUILD_INTERFACE":
		if !ctx.BuildInterfaceActive {
			return ok("")
		}
		return evalInner(ctx, argsExpr, depth+1, stack)

	case "INSTALL_INTERFACE":
		if !ctx.InstallInterfaceActive {
			return ok("")
		}
		return evalInner(ctx, argsExpr, depth+1, stack)

	case "LINK_ONLY":
		if !ctx.LinkOnlyActive {
			return ok("")
		}
		return evalInner(ctx, argsExpr, depth+1, stack)

	case "TARGET_FILE":
		return evalTargetFile(ctx, argsExpr, rawExpr, depth, stack, "", false)

	case "TARGET_FILE_DIR":
		return evalTargetFile(ctx, argsExpr, rawExpr, depth, stack, "dir", false)

	case "TARGET_FILE_NAME":
		return evalTargetFile(ctx, argsExpr, rawExpr, depth, stack, "name", false)

	case "TARGET_LINKER_FILE":
		return evalTargetFile(ctx, argsExpr, rawExpr, depth, stack, "", true)

	case "TARGET_LINKER_FILE_DIR":
		return evalTargetFile(ctx, argsExpr, rawExpr, depth, stack, "dir", true)

	case "TARGET_LINKER_FILE_NAME":
		return evalTargetFile(ctx, argsExpr, rawExpr, depth, stack, "name", true)

	case "BOOL":
		r := evalInner(ctx, argsExpr, depth+1, stack)
		if r.Status != StatusOK {
			return r
		}
		if cmakeStringIsFalse(r.Value) {
			return ok("0")
		}
		return ok("1")

	case "IF":
		args := splitTopLevel(argsExpr, ',')
		if len(args) != 3 {
			return errResult("IF expects 3 arguments")
		}
		cond := evalInner(ctx, args[0], depth+1, stack)
		if cond.Status != StatusOK {
			return cond
		}
		branch := args[2]
		if !cmakeStringIsFalse(cond.Value) {
			branch = args[1]
		}
		return evalInner(ctx, branch, depth+1, stack)

	case "TARGET_PROPERTY":
		return evalTargetProperty(ctx, argsExpr, rawExpr, depth, stack)
	}

	// $<$<...>> nested passthrough with no args.
	if argsExpr == "" && len(op) >= 3 && op[0] == '$' && op[1] == '<' && op[len(op)-1] == '>' {
		return evalInner(ctx, op, depth+1, stack)
	}

	// $<cond:value> shorthand.
	if argsExpr != "" && (containsGenexUnescaped(op) || op == "0" || op == "1") {
		cond := evalInner(ctx, op, depth+1, stack)
		if cond.Status != StatusOK {
			return cond
		}
		if cmakeStringIsFalse(cond.Value) {
			return ok("")
		}
		return evalInner(ctx, argsExpr, depth+1, stack)
	}

	return Result{Status: StatusUnsupported, Value: rawExpr, Message: "unsupported generator expression operator: " + op}
}

func evalTargetFile(ctx *Context, argsExpr, rawExpr string, depth int, stack *[]tpStackEntry, shape string, linker bool) Result {
	readFn := ctx.ReadTargetFile
	which := "TARGET_FILE"
	if linker {
		which = "TARGET_LINKER_FILE"
		if ctx.ReadTargetLinkerFile != nil {
			readFn = ctx.ReadTargetLinkerFile
		}
	}
	if readFn == nil {
		return errResult(which + " callback is not configured")
	}
	targetEval := evalInner(ctx, argsExpr, depth+1, stack)
	if targetEval.Status != StatusOK {
		return targetEval
	}
	targetName := strings.TrimSpace(targetEval.Value)
	if targetName == "" {
		return ok("")
	}
	raw, found := readFn(targetName)
	valid := validateCallbackValue(ctx, raw, found, rawExpr, which+" callback returned an invalid or too large value")
	if valid.Status != StatusOK {
		return valid
	}
	switch shape {
	case "dir":
		return ok(path.Dir(valid.Value))
	case "name":
		return ok(path.Base(valid.Value))
	default:
		return ok(valid.Value)
	}
}

func evalTargetProperty(ctx *Context, argsExpr, rawExpr string, depth int, stack *[]tpStackEntry) Result {
	args := splitTopLevel(argsExpr, ',')
	if len(args) < 1 || len(args) > 2 {
		return errResult("TARGET_PROPERTY expects property or target,property")
	}
	var targetName, propertyName string
	if len(args) == 1 {
		targetName = strings.TrimSpace(ctx.CurrentTargetName)
		propEval := evalInner(ctx, args[0], depth+1, stack)
		if propEval.Status != StatusOK {
			return propEval
		}
		propertyName = strings.TrimSpace(propEval.Value)
		if targetName == "" {
			return errResult("TARGET_PROPERTY implicit form requires current target context")
		}
	} else {
		targetEval := evalInner(ctx, args[0], depth+1, stack)
		if targetEval.Status != StatusOK {
			return targetEval
		}
		propEval := evalInner(ctx, args[1], depth+1, stack)
		if propEval.Status != StatusOK {
			return propEval
		}
		targetName = strings.TrimSpace(targetEval.Value)
		propertyName = strings.TrimSpace(propEval.Value)
	}
	if targetName == "" || propertyName == "" {
		return ok("")
	}
	if ctx.ReadTargetProperty == nil {
		return errResult("TARGET_PROPERTY callback is not configured")
	}
	if len(*stack) >= ctx.MaxTargetPropertyDepth {
		return cycleResult("TARGET_PROPERTY depth guard reached")
	}
	if tpStackContains(ctx, stack, targetName, propertyName) {
		return cycleResult("TARGET_PROPERTY cycle detected")
	}
	*stack = append(*stack, tpStackEntry{target: targetName, property: propertyName})
	defer func() { *stack = (*stack)[:len(*stack)-1] }()

	raw, found := ctx.ReadTargetProperty(targetName, propertyName)
	valid := validateCallbackValue(ctx, raw, found, rawExpr, "TARGET_PROPERTY callback returned an invalid or too large value")
	if valid.Status != StatusOK {
		return valid
	}
	return evalInner(ctx, valid.Value, depth+1, stack)
}

func evalInner(ctx *Context, input string, depth int, stack *[]tpStackEntry) Result {
	if depth > ctx.MaxDepth {
		return errResult("generator expression max depth exceeded")
	}
	if input == "" || !containsGenexUnescaped(input) {
		return ok(input)
	}

	var sb strings.Builder
	cursor := 0
	for cursor < len(input) {
		open := cursor
		found := false
		for ; open+1 < len(input); open++ {
			if isGenexOpenAt(input, open) {
				found = true
				break
			}
		}
		if !found {
			sb.WriteString(input[cursor:])
			break
		}
		if open > cursor {
			sb.WriteString(input[cursor:open])
		}

		closeIdx, closed := findMatchingGenexEnd(input, open)
		if !closed {
			return errResult("unclosed generator expression")
		}

		body := input[open+2 : closeIdx]
		rawExpr := input[open : closeIdx+1]
		part := evalBody(ctx, body, rawExpr, depth, stack)
		if part.Status != StatusOK {
			return Result{Status: part.Status, Value: input, Message: part.Message}
		}
		sb.WriteString(part.Value)
		cursor = closeIdx + 1
	}

	return ok(sb.String())
}

// DebugString renders a Result for logs/diagnostics.
func (r Result) DebugString() string {
	return fmt.Sprintf("status=%d value=%q message=%q", r.Status, r.Value, r.Message)
}
