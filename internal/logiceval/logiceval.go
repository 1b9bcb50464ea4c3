// Package logiceval implements the if()-language: truthiness, boolean
// connectives, and the STREQUAL/EQUAL/VERSION_*/MATCHES/DEFINED/path family
// of comparators described in spec §4.C.
package logiceval

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/hashicorp/go-version"
)

// Resolver supplies the evaluator with variable and cache lookups.
// ENV{...} reads and the filesystem predicates (EXISTS/IS_DIRECTORY/...)
// go to the os package directly.
type Resolver interface {
	Variable(name string) (string, bool)
	CacheVariable(name string) (string, bool)
}

// Falsey reports whether s is a CMake-falsey string (case-insensitive).
func Falsey(s string) bool {
	switch strings.ToUpper(s) {
	case "", "0", "FALSE", "OFF", "NO", "N", "IGNORE", "NOTFOUND":
		return true
	}
	return strings.HasSuffix(strings.ToUpper(s), "-NOTFOUND")
}

// Truthy is the negation of Falsey.
func Truthy(s string) bool { return !Falsey(s) }

// Token is one argument in the flattened if()-condition token stream; the
// evaluator (internal/evaluator) is responsible for variable interpolation
// before tokens reach here, except for bare identifiers which this package
// resolves itself via Resolver so DEFINED can distinguish "unset" from
// "set to empty string".
type Token struct {
	Text string
}

// evalState walks a flat token slice with an index cursor, implementing a
// small recursive-descent grammar: OR > AND > NOT > comparators > atom.
type evalState struct {
	tokens []string
	pos    int
	res    Resolver
}

func (e *evalState) peek() string {
	if e.pos >= len(e.tokens) {
		return ""
	}
	return e.tokens[e.pos]
}

func (e *evalState) next() string {
	t := e.peek()
	e.pos++
	return t
}

func upperEq(s, lit string) bool { return strings.EqualFold(s, lit) }

// Eval evaluates a tokenized if()-condition and returns its truthiness.
// Parentheses must already be split into their own tokens by the caller
// (the evaluator's argument tokenizer does this); they are never commands.
func Eval(tokens []string, res Resolver) (bool, error) {
	e := &evalState{tokens: tokens, res: res}
	v, err := e.parseOr()
	if err != nil {
		return false, err
	}
	return v, nil
}

func (e *evalState) parseOr() (bool, error) {
	lhs, err := e.parseAnd()
	if err != nil {
		return false, err
	}
	for upperEq(e.peek(), "OR") {
		e.next()
		rhs, err := e.parseAnd()
		if err != nil {
			return false, err
		}
		lhs = lhs || rhs
	}
	return lhs, nil
}

func (e *evalState) parseAnd() (bool, error) {
	lhs, err := e.parseNot()
	if err != nil {
		return false, err
	}
	for upperEq(e.peek(), "AND") {
		e.next()
		rhs, err := e.parseNot()
		if err != nil {
			return false, err
		}
		lhs = lhs && rhs
	}
	return lhs, nil
}

func (e *evalState) parseNot() (bool, error) {
	if upperEq(e.peek(), "NOT") {
		e.next()
		v, err := e.parseNot()
		if err != nil {
			return false, err
		}
		return !v, nil
	}
	return e.parseComparisonOrAtom()
}

func (e *evalState) parseComparisonOrAtom() (bool, error) {
	if e.peek() == "(" {
		e.next()
		v, err := e.parseOr()
		if err != nil {
			return false, err
		}
		if e.peek() == ")" {
			e.next()
		}
		return v, nil
	}

	// Unary predicates.
	switch strings.ToUpper(e.peek()) {
	case "DEFINED":
		e.next()
		name := e.next()
		return e.evalDefined(name), nil
	case "EXISTS":
		e.next()
		path := e.next()
		_, err := os.Stat(path)
		return err == nil, nil
	case "IS_DIRECTORY":
		e.next()
		path := e.next()
		info, err := os.Stat(path)
		return err == nil && info.IsDir(), nil
	case "IS_SYMLINK":
		e.next()
		path := e.next()
		info, err := os.Lstat(path)
		return err == nil && info.Mode()&os.ModeSymlink != 0, nil
	case "IS_ABSOLUTE":
		e.next()
		path := e.next()
		return strings.HasPrefix(path, "/") || isWindowsAbs(path), nil
	}

	lhs := e.resolveAtom(e.next())

	op := strings.ToUpper(e.peek())
	switch op {
	case "STREQUAL", "STRLESS", "STRLESS_EQUAL", "STRGREATER", "STRGREATER_EQUAL",
		"EQUAL", "LESS", "GREATER", "LESS_EQUAL", "GREATER_EQUAL",
		"VERSION_EQUAL", "VERSION_LESS", "VERSION_LESS_EQUAL", "VERSION_GREATER", "VERSION_GREATER_EQUAL",
		"MATCHES":
		e.next()
		rhs := e.resolveAtom(e.next())
		return compare(op, lhs, rhs)
	}

	return Truthy(lhs), nil
}

func isWindowsAbs(path string) bool {
	if len(path) >= 3 && path[1] == ':' && (path[2] == '/' || path[2] == '\\') {
		return true
	}
	return false
}

// resolveAtom resolves a bare token to its value: if it names a known
// variable, the variable's value; otherwise the literal text itself (CMake
// treats unquoted unknown identifiers as literal strings in if()).
func (e *evalState) resolveAtom(tok string) string {
	if tok == "" {
		return ""
	}
	if strings.HasPrefix(tok, "ENV{") && strings.HasSuffix(tok, "}") {
		return os.Getenv(tok[4 : len(tok)-1])
	}
	if v, ok := e.res.Variable(tok); ok {
		return v
	}
	return tok
}

func (e *evalState) evalDefined(name string) bool {
	if strings.HasPrefix(name, "ENV{") && strings.HasSuffix(name, "}") {
		_, ok := os.LookupEnv(name[4 : len(name)-1])
		return ok
	}
	if strings.HasPrefix(name, "CACHE{") && strings.HasSuffix(name, "}") {
		_, ok := e.res.CacheVariable(name[6 : len(name)-1])
		return ok
	}
	_, ok := e.res.Variable(name)
	return ok
}

func compare(op, lhs, rhs string) (bool, error) {
	switch op {
	case "STREQUAL":
		return lhs == rhs, nil
	case "STRLESS":
		return lhs < rhs, nil
	case "STRLESS_EQUAL":
		return lhs <= rhs, nil
	case "STRGREATER":
		return lhs > rhs, nil
	case "STRGREATER_EQUAL":
		return lhs >= rhs, nil
	case "MATCHES":
		re, err := regexp.Compile(rhs)
		if err != nil {
			return false, err
		}
		return re.MatchString(lhs), nil
	}

	if strings.HasPrefix(op, "VERSION_") {
		return compareVersion(op, lhs, rhs)
	}

	a, aerr := strconv.ParseFloat(lhs, 64)
	b, berr := strconv.ParseFloat(rhs, 64)
	if aerr != nil || berr != nil {
		return false, nil
	}
	switch op {
	case "EQUAL":
		return a == b, nil
	case "LESS":
		return a < b, nil
	case "GREATER":
		return a > b, nil
	case "LESS_EQUAL":
		return a <= b, nil
	case "GREATER_EQUAL":
		return a >= b, nil
	}
	return false, nil
}

// compareVersion parses dot-separated integer-component versions, with
// shorter versions zero-padded (3.27 < 3.28.0), using go-version for the
// component-wise comparison.
func compareVersion(op, lhs, rhs string) (bool, error) {
	a, err := version.NewVersion(normalizeVersion(lhs))
	if err != nil {
		return false, nil
	}
	b, err := version.NewVersion(normalizeVersion(rhs))
	if err != nil {
		return false, nil
	}
	cmp := a.Compare(b)
	switch op {
	case "VERSION_EQUAL":
		return cmp == 0, nil
	case "VERSION_LESS":
		return cmp < 0, nil
	case "VERSION_LESS_EQUAL":
		return cmp <= 0, nil
	case "VERSION_GREATER":
		return cmp > 0, nil
	case "VERSION_GREATER_EQUAL":
		return cmp >= 0, nil
	}
	return false, nil
}

// normalizeVersion maps a blank version string to "0"; any other string is
// returned unchanged.
func normalizeVersion(v string) string {
	if strings.TrimSpace(v) == "" {
		return "0"
	}
	return v
}
