// Package commands implements the ~120 built-in command handlers: project
// and target declaration, control-flow wiring into internal/evaluator,
// string/list/math, file I/O, compiler probes, testing/packaging, CTest
// script mode, and the File API.
package commands

import "strings"

// OptKind classifies how many values follow a recognized option keyword.
type OptKind int

const (
	OptFlag           OptKind = iota // keyword alone; no values consumed
	OptSingle                        // exactly one following value, required
	OptOptionalSingle                // one following value if present and not itself a keyword
	OptMulti                         // all following values up to the next recognized keyword
)

// OptSpec describes one recognized keyword argument.
type OptSpec struct {
	Name string
	Kind OptKind
}

// ParsedOptions is the result of walking a command's argument list against
// a keyword table: positional (non-keyword, pre-first-keyword) arguments
// and, per recognized keyword, its collected values.
type ParsedOptions struct {
	Positional []string
	Values     map[string][]string
}

// Has reports whether name was present at all (including bare flags).
func (p ParsedOptions) Has(name string) bool {
	_, ok := p.Values[strings.ToUpper(name)]
	return ok
}

// First returns the first collected value for name, or "".
func (p ParsedOptions) First(name string) string {
	vs := p.Values[strings.ToUpper(name)]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// All returns every collected value for name.
func (p ParsedOptions) All(name string) []string { return p.Values[strings.ToUpper(name)] }

func findSpec(tok string, specs []OptSpec) (OptSpec, bool) {
	for _, s := range specs {
		if strings.EqualFold(s.Name, tok) {
			return s, true
		}
	}
	return OptSpec{}, false
}

// ParseOptions walks args against specs, grounded on eval_opt_parser.c's
// walk: tokens before the first recognized keyword are positional; each
// recognized keyword then consumes 0/1/1-if-present/many values per its
// Kind, scanning up to (but not past) the next recognized keyword.
func ParseOptions(args []string, specs []OptSpec) ParsedOptions {
	result := ParsedOptions{Values: map[string][]string{}}
	i := 0
	for i < len(args) {
		if _, ok := findSpec(args[i], specs); ok {
			break
		}
		result.Positional = append(result.Positional, args[i])
		i++
	}
	for i < len(args) {
		spec, ok := findSpec(args[i], specs)
		if !ok {
			i++
			continue
		}
		key := strings.ToUpper(spec.Name)
		i++
		switch spec.Kind {
		case OptFlag:
			if _, exists := result.Values[key]; !exists {
				result.Values[key] = []string{}
			}
		case OptSingle:
			if i < len(args) {
				result.Values[key] = append(result.Values[key], args[i])
				i++
			}
		case OptOptionalSingle:
			if _, exists := result.Values[key]; !exists {
				result.Values[key] = []string{}
			}
			if i < len(args) {
				if _, isKeyword := findSpec(args[i], specs); !isKeyword {
					result.Values[key] = append(result.Values[key], args[i])
					i++
				}
			}
		case OptMulti:
			var vals []string
			for i < len(args) {
				if _, isKeyword := findSpec(args[i], specs); isKeyword {
					break
				}
				vals = append(vals, args[i])
				i++
			}
			result.Values[key] = append(result.Values[key], vals...)
		}
	}
	return result
}
