package fluentdb

import (
	"fmt"
	"strings"
)

// bindArgs turns the bound parameters of a query into the final SQL text and
// the ordered driver arguments. Positional parameters pass through unchanged;
// named parameters are rewritten by rewriteNamed.
func bindArgs(d Dialect, q string, p params) (string, []any, error) {
	if p.named != nil {
		return rewriteNamed(d, q, p.named)
	}
	if max := d.MaxParams(); max > 0 && len(p.positional) > max {
		return "", nil, fmt.Errorf("%w: requested=%d, limit=%d", ErrTooManyParams, len(p.positional), max)
	}
	if len(p.positional) == 0 {
		return q, nil, nil
	}
	args := make([]any, len(p.positional))
	for i, v := range p.positional {
		args[i] = v.arg()
	}
	return q, args, nil
}

// lookupNamed resolves a placeholder name against the bound keys. Both the
// bare and the colon-prefixed spelling match; the prefixed key wins when both
// are present.
func lookupNamed(named map[string]Value, name string) (Value, bool) {
	if v, ok := named[":"+name]; ok {
		return v, true
	}
	v, ok := named[name]
	return v, ok
}

// rewriteNamed walks q, replaces every :name outside string literals, quoted
// identifiers and comments with the dialect placeholder, and collects the
// matching values in order of appearance. "::" casts are left alone.
func rewriteNamed(d Dialect, q string, named map[string]Value) (string, []any, error) {
	est := strings.Count(q, ":") - strings.Count(q, "::")
	if est < 0 {
		est = 0
	}
	args := make([]any, 0, est)

	var buf strings.Builder
	buf.Grow(len(q))

	const (
		sText = iota
		sSQ   // '...'
		sDQ   // "..."
		sBT   // `...`
		sBR   // [...] (SQLite)
		sLC   // -- or # (MySQL) line comment
		sBC   // /* ... */
	)
	state := sText
	max := d.MaxParams()

	for i := 0; i < len(q); {
		c := q[i]

		switch state {
		case sText:
			switch {
			case c == '-' && i+1 < len(q) && q[i+1] == '-':
				state = sLC
				buf.WriteString("--")
				i += 2
				continue
			case c == '#' && d == MySQL:
				state = sLC
			case c == '/' && i+1 < len(q) && q[i+1] == '*':
				state = sBC
				buf.WriteString("/*")
				i += 2
				continue
			case c == '\'':
				state = sSQ
			case c == '"':
				state = sDQ
			case c == '`':
				state = sBT
			case c == '[' && d == SQLite:
				state = sBR
			case c == ':' && i+1 < len(q) && q[i+1] != ':' && !(i > 0 && q[i-1] == ':') && isAlphaUnderscore(q[i+1]):
				k := i + 2
				for k < len(q) && isAlphaNumUnderscore(q[k]) {
					k++
				}
				name := q[i+1 : k]
				if len(name) > maxNameLen {
					return "", nil, fmt.Errorf("%w: %q (%d > %d)", ErrParamNameTooLong, name, len(name), maxNameLen)
				}
				v, ok := lookupNamed(named, name)
				if !ok {
					return "", nil, fmt.Errorf("%w: %s", ErrParamMissing, name)
				}
				if max > 0 && len(args)+1 > max {
					return "", nil, fmt.Errorf("%w: requested=%d, limit=%d", ErrTooManyParams, len(args)+1, max)
				}
				buf.WriteString(d.Placeholder(len(args) + 1))
				args = append(args, v.arg())
				i = k
				continue
			}
			buf.WriteByte(c)
			i++

		case sSQ, sDQ:
			quote := byte('\'')
			if state == sDQ {
				quote = '"'
			}
			if c == '\\' && d == MySQL {
				buf.WriteByte(c)
				i++
				if i < len(q) {
					buf.WriteByte(q[i])
					i++
				}
				continue
			}
			buf.WriteByte(c)
			i++
			if c == quote {
				if i < len(q) && q[i] == quote {
					buf.WriteByte(q[i])
					i++
				} else {
					state = sText
				}
			}

		case sBT:
			buf.WriteByte(c)
			i++
			if c == '`' {
				if i < len(q) && q[i] == '`' {
					buf.WriteByte(q[i])
					i++
				} else {
					state = sText
				}
			}

		case sBR:
			buf.WriteByte(c)
			i++
			if c == ']' {
				state = sText
			}

		case sLC:
			buf.WriteByte(c)
			i++
			if c == '\n' || c == '\r' {
				state = sText
			}

		case sBC:
			buf.WriteByte(c)
			i++
			if c == '*' && i < len(q) && q[i] == '/' {
				buf.WriteByte('/')
				i++
				state = sText
			}
		}
	}

	return buf.String(), args, nil
}

// maxNameLen bounds placeholder names, e.g. ":this_is_a_name".
const maxNameLen = 64

// isAlphaUnderscore reports whether b is [A-Za-z_] .
func isAlphaUnderscore(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '_'
}

// isAlphaNumUnderscore reports whether b is [A-Za-z0-9_] .
func isAlphaNumUnderscore(b byte) bool {
	return isAlphaUnderscore(b) || (b >= '0' && b <= '9')
}
