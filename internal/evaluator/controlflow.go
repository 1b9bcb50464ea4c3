package evaluator

import (
	"strconv"
	"strings"

	"github.com/Qfresquin/cmk2nob/internal/ast"
	"github.com/Qfresquin/cmk2nob/internal/logiceval"
)

// ifBranch is one if/elseif/else arm: cond is nil for the trailing else.
type ifBranch struct {
	cond []string
	body []ast.Node
}

// splitIfBranches partitions node's body into branches delimited by
// elseif/else pseudo-nodes the parser leaves inline (it does not nest a
// separate sub-body per branch); node's own Args are the first condition.
func splitIfBranches(c *Context, node ast.Node) []ifBranch {
	branches := []ifBranch{{cond: c.EvalNodeArgs(node)}}
	for _, n := range node.Body {
		switch strings.ToLower(n.Name) {
		case "elseif":
			branches = append(branches, ifBranch{cond: c.EvalNodeArgs(n)})
		case "else":
			branches = append(branches, ifBranch{cond: nil})
		default:
			last := len(branches) - 1
			branches[last].body = append(branches[last].body, n)
		}
	}
	return branches
}

// EvalIf implements if/elseif/else/endif: unselected branches are scanned
// for structure only (to find their endif) but their commands never run,
// which splitIfBranches achieves implicitly by not dispatching them.
func EvalIf(c *Context, node ast.Node) error {
	branches := splitIfBranches(c, node)
	for _, b := range branches {
		if b.cond == nil {
			return c.EvalBody(b.body)
		}
		truth, err := logiceval.Eval(b.cond, c)
		if err != nil {
			c.Error("evaluator", "if", err.Error(), "SEMANTIC", "INPUT_ERROR", node)
			continue
		}
		if truth {
			return c.EvalBody(b.body)
		}
	}
	return nil
}

// EvalWhile implements while/endwhile: re-evaluates cond each iteration;
// break/continue are cleared at the loop boundary they terminate.
func EvalWhile(c *Context, node ast.Node) error {
	cond := c.EvalNodeArgs(node)
	for {
		truth, err := logiceval.Eval(cond, c)
		if err != nil {
			c.Error("evaluator", "while", err.Error(), "SEMANTIC", "INPUT_ERROR", node)
			return nil
		}
		if !truth {
			return nil
		}
		if err := c.EvalBody(node.Body); err != nil {
			return err
		}
		if c.ShouldStop && !c.ContinueOnFatalError {
			return nil
		}
		if c.ReturnRequested {
			return nil
		}
		if c.BreakRequested {
			c.BreakRequested = false
			return nil
		}
		c.ContinueRequested = false
		cond = c.EvalNodeArgs(node)
	}
}

// EvalForeach implements foreach's literal-list, IN ITEMS, RANGE, and
// IN LISTS forms; the loop variable is scoped to the loop body.
func EvalForeach(c *Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) == 0 {
		return nil
	}
	loopVar := args[0]
	rest := args[1:]

	items, err := foreachItems(c, rest)
	if err != nil {
		c.Error("evaluator", "foreach", err.Error(), "SEMANTIC", "INPUT_ERROR", node)
		return nil
	}

	for _, item := range items {
		c.PushScope()
		c.Set(loopVar, item, false)
		err := c.EvalBody(node.Body)
		c.PopScope()
		if err != nil {
			return err
		}
		if c.ShouldStop && !c.ContinueOnFatalError {
			return nil
		}
		if c.ReturnRequested {
			return nil
		}
		if c.BreakRequested {
			c.BreakRequested = false
			return nil
		}
		c.ContinueRequested = false
	}
	return nil
}

func foreachItems(c *Context, rest []string) ([]string, error) {
	if len(rest) == 0 {
		return nil, nil
	}
	switch strings.ToUpper(rest[0]) {
	case "IN":
		if len(rest) >= 2 && strings.ToUpper(rest[1]) == "ITEMS" {
			return rest[2:], nil
		}
		if len(rest) >= 2 && strings.ToUpper(rest[1]) == "LISTS" {
			var items []string
			for _, listVar := range rest[2:] {
				v, _ := c.Variable(listVar)
				if v != "" {
					items = append(items, strings.Split(v, ";")...)
				}
			}
			return items, nil
		}
		return nil, nil
	case "RANGE":
		return rangeItems(rest[1:])
	default:
		return rest, nil
	}
}

func rangeItems(args []string) ([]string, error) {
	var start, stop, step int64 = 0, 0, 1
	var err error
	switch len(args) {
	case 1:
		stop, err = strconv.ParseInt(args[0], 10, 64)
	case 2:
		start, err = strconv.ParseInt(args[0], 10, 64)
		if err == nil {
			stop, err = strconv.ParseInt(args[1], 10, 64)
		}
	case 3:
		start, err = strconv.ParseInt(args[0], 10, 64)
		if err == nil {
			stop, err = strconv.ParseInt(args[1], 10, 64)
		}
		if err == nil {
			step, err = strconv.ParseInt(args[2], 10, 64)
		}
	}
	if err != nil {
		return nil, err
	}
	if step == 0 {
		step = 1
	}
	var items []string
	if step > 0 {
		for v := start; v <= stop; v += step {
			items = append(items, strconv.FormatInt(v, 10))
		}
	} else {
		for v := start; v >= stop; v += step {
			items = append(items, strconv.FormatInt(v, 10))
		}
	}
	return items, nil
}

// EvalFunctionDef captures function()'s name, params and body without
// running it; subsequent calls dispatch through c.Functions.
func EvalFunctionDef(c *Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) == 0 {
		return nil
	}
	def := &FunctionDef{Name: strings.ToLower(args[0]), Params: args[1:], Body: node.Body}
	c.Functions[def.Name] = def
	return nil
}

// EvalMacroDef captures macro()'s name, params and body.
func EvalMacroDef(c *Context, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	if len(args) == 0 {
		return nil
	}
	def := &FunctionDef{Name: strings.ToLower(args[0]), Params: args[1:], Body: node.Body, IsMacro: true}
	c.Macros[def.Name] = def
	return nil
}

// EvalReturn implements return(): ends the enclosing function or macro call.
func EvalReturn(c *Context, node ast.Node) error {
	c.ReturnRequested = true
	return nil
}

// EvalBreak implements break(): exits the enclosing loop.
func EvalBreak(c *Context, node ast.Node) error {
	c.BreakRequested = true
	return nil
}

// EvalContinue implements continue(): restarts the enclosing loop.
func EvalContinue(c *Context, node ast.Node) error {
	c.ContinueRequested = true
	return nil
}

func bindCallArgs(scope Scope, params []string, args []string) {
	scope["ARGC"] = strconv.Itoa(len(args))
	scope["ARGV"] = strings.Join(args, ";")
	named := len(params)
	if named > len(args) {
		named = len(args)
	}
	for i := 0; i < named; i++ {
		scope[params[i]] = args[i]
	}
	var extra []string
	if len(args) > len(params) {
		extra = args[len(params):]
	}
	scope["ARGN"] = strings.Join(extra, ";")
	for i, a := range args {
		scope["ARGV"+strconv.Itoa(i)] = a
	}
}

// callFunction pushes a fresh scope, binds ARGC/ARGV/ARGN and named
// parameters, runs the captured body, and pops the scope on return.
func (c *Context) callFunction(def *FunctionDef, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	c.PushScope()
	bindCallArgs(c.scopes[len(c.scopes)-1], def.Params, args)
	c.FunctionDepth++
	err := c.EvalBody(def.Body)
	c.ReleaseLocksAtFunctionDepth(c.FunctionDepth)
	c.FunctionDepth--
	c.ReturnRequested = false
	c.PopScope()
	return err
}

// callMacro expands def's body in the caller's scope: parameter bindings
// are written directly into the current scope, run, then removed, rather
// than pushing a new scope frame.
func (c *Context) callMacro(def *FunctionDef, node ast.Node) error {
	args := c.EvalNodeArgs(node)
	current := c.scopes[len(c.scopes)-1]
	bound := Scope{}
	bindCallArgs(bound, def.Params, args)
	var overwritten = map[string]string{}
	var hadKey = map[string]bool{}
	for k, v := range bound {
		if old, ok := current[k]; ok {
			overwritten[k] = old
			hadKey[k] = true
		}
		current[k] = v
	}
	err := c.EvalBody(def.Body)
	c.ReturnRequested = false
	for k := range bound {
		if hadKey[k] {
			current[k] = overwritten[k]
		} else {
			delete(current, k)
		}
	}
	return err
}
