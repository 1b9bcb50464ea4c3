package evaluator

import (
	"strings"

	"github.com/Qfresquin/cmk2nob/internal/ast"
	"github.com/Qfresquin/cmk2nob/internal/events"
)

// EvalNodeArgs interpolates every raw argument of node and re-splits
// unquoted, unbracketed arguments on whitespace post-expansion.
func (c *Context) EvalNodeArgs(node ast.Node) []string {
	var out []string
	for _, a := range node.Args {
		expanded := c.Interpolate(a.Text)
		if a.Quoted || a.Bracket {
			out = append(out, expanded)
			continue
		}
		for _, field := range strings.Fields(expanded) {
			out = append(out, field)
		}
	}
	return out
}

// origin builds an events.Origin from a node.
func origin(node ast.Node) events.Origin {
	return events.Origin{File: node.File, Line: node.Line}
}

// Dispatch resolves and executes node: built-in handler, then user-defined
// function, then macro; an unknown command emits a WARNING diagnostic.
func (c *Context) Dispatch(node ast.Node) error {
	if c.ShouldStop && !c.ContinueOnFatalError {
		return nil
	}

	name := strings.ToLower(node.Name)

	if h, ok := c.Handlers[name]; ok {
		return h(c, node)
	}
	if fn, ok := c.Functions[name]; ok {
		return c.callFunction(fn, node)
	}
	if mc, ok := c.Macros[name]; ok {
		return c.callMacro(mc, node)
	}

	c.Sink.Report(events.Diagnostic{
		Severity:  events.SeverityWarning,
		Component: "evaluator",
		Command:   node.Name,
		Origin:    origin(node),
		Detail:    "unknown command: " + node.Name,
		Code:      "UNSUPPORTED",
		Class:     "ENGINE_LIMITATION",
	})
	return nil
}

// EvalBody runs nodes in order, stopping early on should_stop, return,
// break, or continue — the caller (loop or function-call site) inspects
// the relevant flag afterward and clears it.
func (c *Context) EvalBody(nodes []ast.Node) error {
	for _, n := range nodes {
		if c.ShouldStop && !c.ContinueOnFatalError {
			return nil
		}
		if c.ReturnRequested || c.BreakRequested || c.ContinueRequested {
			return nil
		}
		if err := c.Dispatch(n); err != nil {
			return err
		}
	}
	return nil
}

// Fatal reports a FATAL diagnostic and sets should_stop, unless the context
// opted into continue_on_fatal_error.
func (c *Context) Fatal(component, command, detail, code, class string, node ast.Node) {
	c.Sink.Report(events.Diagnostic{
		Severity: events.SeverityFatal, Component: component, Command: command,
		Origin: origin(node), Detail: detail, Code: code, Class: class,
	})
	if !c.ContinueOnFatalError {
		c.ShouldStop = true
	}
}

// Error reports an ERROR diagnostic; execution continues with the next
// command per the handler-local-recoverable-error policy.
func (c *Context) Error(component, command, detail, code, class string, node ast.Node) {
	c.Sink.Report(events.Diagnostic{
		Severity: events.SeverityError, Component: component, Command: command,
		Origin: origin(node), Detail: detail, Code: code, Class: class,
	})
}

// Warn reports a WARNING diagnostic.
func (c *Context) Warn(component, command, detail, code, class string, node ast.Node) {
	c.Sink.Report(events.Diagnostic{
		Severity: events.SeverityWarning, Component: component, Command: command,
		Origin: origin(node), Detail: detail, Code: code, Class: class,
	})
}
