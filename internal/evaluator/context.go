// Package evaluator is the script evaluator core: scope/policy stacks,
// command dispatch, argument interpolation, control flow, include/
// add_subdirectory resolution and include guards.
//
// Grounded on spec §4.G and, for its lifecycle/sink shape, on the
// Evaluator_Context description in spec §3; Go's garbage collector plays
// the role the original's event/temp arenas played, so no arena-reset
// bookkeeping is modeled here beyond the file/function depth counters
// locks are tracked against.
package evaluator

import (
	"path/filepath"
	"strings"

	"github.com/Qfresquin/cmk2nob/internal/ast"
	"github.com/Qfresquin/cmk2nob/internal/events"
	"github.com/Qfresquin/cmk2nob/internal/model"
)

// Scope is one variable-scope frame.
type Scope map[string]string

// FunctionDef is a captured function() or macro() body.
type FunctionDef struct {
	Name    string
	Params  []string
	Body    []ast.Node
	IsMacro bool
}

// LockGuard names file(LOCK)'s release scope.
type LockGuard string

const (
	GuardProcess  LockGuard = "PROCESS"
	GuardFile     LockGuard = "FILE"
	GuardFunction LockGuard = "FUNCTION"
)

// FileLock tracks one held file(LOCK), released automatically when its
// owning file or function scope exits (PROCESS-scoped locks live until
// context teardown).
type FileLock struct {
	Path              string
	Guard             LockGuard
	OwnerFileDepth    int
	OwnerFunctionDepth int
}

// HandlerFunc is the signature every built-in command handler implements:
// a pure(-ish) transformer from a command node to model mutations plus
// emitted events/diagnostics, given the live Context.
type HandlerFunc func(ctx *Context, node ast.Node) error

// Context is one evaluation run's complete mutable state.
type Context struct {
	Model *model.Model
	Sink  events.Sink

	scopes      []Scope
	policies    []map[string]string
	env         map[string]string

	FileDepth     int
	FunctionDepth int
	locks         []FileLock

	ShouldStop           bool
	ContinueOnFatalError bool
	ReturnRequested      bool
	BreakRequested       bool
	ContinueRequested    bool

	CurrentSourceDir string
	CurrentBinaryDir string
	CurrentListDir   string
	CurrentListFile  string

	CMakeRoot      string
	CMakeModulePath []string

	includeGuards map[string]bool

	Functions map[string]*FunctionDef
	Macros    map[string]*FunctionDef

	Handlers map[string]HandlerFunc
}

// NewContext creates a fresh evaluation context rooted at sourceDir/binaryDir.
func NewContext(m *model.Model, sink events.Sink, sourceDir, binaryDir string) *Context {
	return &Context{
		Model:            m,
		Sink:             sink,
		scopes:           []Scope{{}},
		policies:         []map[string]string{{}},
		env:              map[string]string{},
		CurrentSourceDir: sourceDir,
		CurrentBinaryDir: binaryDir,
		CurrentListDir:   sourceDir,
		includeGuards:    map[string]bool{},
		Functions:        map[string]*FunctionDef{},
		Macros:           map[string]*FunctionDef{},
		Handlers:         map[string]HandlerFunc{},
	}
}

// PushScope opens a new innermost variable scope.
func (c *Context) PushScope() { c.scopes = append(c.scopes, Scope{}) }

// PopScope discards the innermost variable scope.
func (c *Context) PopScope() {
	if len(c.scopes) > 1 {
		c.scopes = c.scopes[:len(c.scopes)-1]
	}
}

// Set writes name into the current scope, or the enclosing scope when
// parentScope is set (set(... PARENT_SCOPE)).
func (c *Context) Set(name, value string, parentScope bool) {
	idx := len(c.scopes) - 1
	if parentScope {
		if idx == 0 {
			return // no enclosing scope at top level; PARENT_SCOPE is a no-op
		}
		idx--
	}
	c.scopes[idx][name] = value
}

// Unset removes name from the current scope.
func (c *Context) Unset(name string) {
	delete(c.scopes[len(c.scopes)-1], name)
}

// Variable implements logiceval.Resolver: scans scopes innermost-first,
// falling back to the cache-variable map the way CMake exposes cache
// entries as ordinary variables until shadowed by a set().
func (c *Context) Variable(name string) (string, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if v, ok := c.scopes[i][name]; ok {
			return v, true
		}
	}
	if entry, ok := c.Model.CacheVariables[name]; ok {
		return entry.Value, true
	}
	return "", false
}

// CacheVariable implements logiceval.Resolver.
func (c *Context) CacheVariable(name string) (string, bool) {
	entry, ok := c.Model.CacheVariables[name]
	if !ok {
		return "", false
	}
	return entry.Value, true
}

// SetEnv writes to the process-shadow environment map; reads of ENV{name}
// see this value instead of the real process environment.
func (c *Context) SetEnv(name, value string) { c.env[name] = value }

// UnsetEnv removes name from the process-shadow environment map.
func (c *Context) UnsetEnv(name string) { delete(c.env, name) }

// Env returns the process-shadow environment value for name.
func (c *Context) Env(name string) (string, bool) {
	v, ok := c.env[name]
	return v, ok
}

// PushPolicyFrame pushes a copy of the current policy frame (cmake_policy(PUSH)).
func (c *Context) PushPolicyFrame() {
	top := c.policies[len(c.policies)-1]
	next := make(map[string]string, len(top))
	for k, v := range top {
		next[k] = v
	}
	c.policies = append(c.policies, next)
}

// PopPolicyFrame pops the innermost policy frame (cmake_policy(POP)).
func (c *Context) PopPolicyFrame() {
	if len(c.policies) > 1 {
		c.policies = c.policies[:len(c.policies)-1]
	}
}

// SetPolicy sets policyID to state (OLD/NEW/UNSET) in the current frame.
func (c *Context) SetPolicy(policyID, state string) {
	c.policies[len(c.policies)-1][policyID] = state
}

// Policy returns policyID's state in the current frame, defaulting to "UNSET".
func (c *Context) Policy(policyID string) string {
	if v, ok := c.policies[len(c.policies)-1][policyID]; ok {
		return v
	}
	return "UNSET"
}

// AcquireLock records a held file(LOCK).
func (c *Context) AcquireLock(path string, guard LockGuard) {
	c.locks = append(c.locks, FileLock{
		Path: path, Guard: guard,
		OwnerFileDepth: c.FileDepth, OwnerFunctionDepth: c.FunctionDepth,
	})
}

// ReleaseLocksAtFileDepth releases FILE-guarded locks owned at exactly depth,
// called when an include()'d file's evaluation returns.
func (c *Context) ReleaseLocksAtFileDepth(depth int) {
	c.releaseLocksWhere(func(l FileLock) bool { return l.Guard == GuardFile && l.OwnerFileDepth == depth })
}

// ReleaseLocksAtFunctionDepth releases FUNCTION-guarded locks owned at
// exactly depth, called when a function call returns.
func (c *Context) ReleaseLocksAtFunctionDepth(depth int) {
	c.releaseLocksWhere(func(l FileLock) bool { return l.Guard == GuardFunction && l.OwnerFunctionDepth == depth })
}

// ReleaseLock implements file(UNLOCK path), releasing any held lock on path
// regardless of guard scope.
func (c *Context) ReleaseLock(path string) {
	c.releaseLocksWhere(func(l FileLock) bool { return l.Path == path })
}

func (c *Context) releaseLocksWhere(match func(FileLock) bool) {
	kept := c.locks[:0]
	for _, l := range c.locks {
		if !match(l) {
			kept = append(kept, l)
		}
	}
	c.locks = kept
}

// IncludeGuardKey synthesizes the include_guard() visited-key for scope
// (DIRECTORY or GLOBAL); file-scope guards (the default) use the file path
// alone.
func IncludeGuardKey(scope, file, dir string) string {
	switch strings.ToUpper(scope) {
	case "DIRECTORY":
		return "dir:" + filepath.Clean(dir) + ":" + filepath.Clean(file)
	case "GLOBAL":
		return "global:" + filepath.Clean(file)
	default:
		return "file:" + filepath.Clean(file)
	}
}

// CheckIncludeGuard reports whether key was already visited, marking it
// visited as a side effect (matching include_guard()'s early-return-or-mark
// semantics in one call).
func (c *Context) CheckIncludeGuard(key string) bool {
	if c.includeGuards[key] {
		return true
	}
	c.includeGuards[key] = true
	return false
}
