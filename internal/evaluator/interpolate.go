package evaluator

import "strings"

// Interpolate expands ${...} and $ENV{...} references in s, innermost-first,
// with unresolved references expanding to "". Escape sequences \\ \" \n \r
// \t \$ are honored after expansion.
func (c *Context) Interpolate(s string) string {
	for {
		start, nameStart, end, isEnv, ok := findInnermostRef(s)
		if !ok {
			break
		}
		name := s[nameStart:end]
		var value string
		if isEnv {
			value, _ = c.Env(name)
		} else {
			value, _ = c.Variable(name)
		}
		s = s[:start] + value + s[end+1:]
	}
	return unescape(s)
}

// findInnermostRef locates the first (leftmost) closing '}' and the
// matching opening "${" or "$ENV{" that produced it. Because variable
// names never themselves contain unescaped braces, the first '}' always
// closes the most recently opened reference, which is the innermost one.
func findInnermostRef(s string) (start, nameStart, end int, isEnv bool, ok bool) {
	type frame struct {
		start, nameStart int
		isEnv            bool
	}
	var stack []frame
	for i := 0; i < len(s); i++ {
		switch {
		case strings.HasPrefix(s[i:], "$ENV{"):
			stack = append(stack, frame{start: i, nameStart: i + 5, isEnv: true})
			i += 4
		case strings.HasPrefix(s[i:], "${"):
			stack = append(stack, frame{start: i, nameStart: i + 2, isEnv: false})
			i++
		case s[i] == '}' && len(stack) > 0:
			top := stack[len(stack)-1]
			return top.start, top.nameStart, i, top.isEnv, true
		}
	}
	return 0, 0, 0, false, false
}

func unescape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			case '"':
				b.WriteByte('"')
				i++
				continue
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case 'r':
				b.WriteByte('\r')
				i++
				continue
			case 't':
				b.WriteByte('\t')
				i++
				continue
			case '$':
				b.WriteByte('$')
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

