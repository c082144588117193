package filters

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aescanero/dago-node-template/internal/eval/values"
)

// Args is the argument bag of one filter invocation: positional values in order,
// plus key=value pairs.
type Args struct {
	Positional []any
	Named      map[string]any
}

// NewArgs builds an argument bag from positional values
func NewArgs(positional ...any) Args {
	return Args{Positional: positional}
}

// Len returns the number of positional arguments
func (a Args) Len() int {
	return len(a.Positional)
}

// At returns the i-th positional argument
func (a Args) At(i int) (any, bool) {
	if i < 0 || i >= len(a.Positional) {
		return nil, false
	}
	return a.Positional[i], true
}

// Get returns a named argument
func (a Args) Get(name string) (any, bool) {
	v, ok := a.Named[name]
	return v, ok
}

// String returns the i-th positional argument as a string, or def when absent
func (a Args) String(i int, def string) string {
	v, ok := a.At(i)
	if !ok || v == nil {
		return def
	}
	return values.Stringify(v)
}

// Float returns the i-th positional argument as a number, or def when absent or not numeric
func (a Args) Float(i int, def float64) float64 {
	v, ok := a.At(i)
	if !ok {
		return def
	}
	f, ok := values.ToFloat(v)
	if !ok {
		return def
	}
	return f
}

// Int returns the i-th positional argument truncated to an int, or def
func (a Args) Int(i int, def int) int {
	return int(a.Float(i, float64(def)))
}

// ParseArgs parses a comma separated argument list such as `3, 'a,b', sep="-"`.
// Commas and parentheses inside quotes do not split.
func ParseArgs(s string) (Args, error) {
	args := Args{}
	if strings.TrimSpace(s) == "" {
		return args, nil
	}

	parts, err := SplitTopLevel(s, ',')
	if err != nil {
		return args, err
	}

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return args, fmt.Errorf("empty argument in %q", s)
		}
		if key, val, ok := namedArg(part); ok {
			if args.Named == nil {
				args.Named = make(map[string]any)
			}
			args.Named[key] = ParseLiteral(val)
			continue
		}
		args.Positional = append(args.Positional, ParseLiteral(part))
	}
	return args, nil
}

// namedArg splits key=value when the key is a bare identifier outside quotes
func namedArg(part string) (string, string, bool) {
	idx := strings.IndexByte(part, '=')
	if idx <= 0 || isQuote(rune(part[0])) {
		return "", "", false
	}
	if idx+1 < len(part) && part[idx+1] == '=' {
		return "", "", false
	}
	key := strings.TrimSpace(part[:idx])
	for i, r := range key {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || i > 0 && r >= '0' && r <= '9') {
			return "", "", false
		}
	}
	return key, strings.TrimSpace(part[idx+1:]), true
}

// ParseLiteral converts an argument token to a value: quoted strings lose their quotes,
// true/false become booleans, null/undefined become nil and numbers become float64.
// Anything else is kept as a bare string.
func ParseLiteral(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if unquoted, ok := Unquote(s); ok {
		return unquoted
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	case "null", "nil", "undefined":
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// Unquote strips matching single, double or back quotes and resolves backslash escapes.
func Unquote(s string) (string, bool) {
	if len(s) < 2 {
		return s, false
	}
	q := rune(s[0])
	if !isQuote(q) || rune(s[len(s)-1]) != q {
		return s, false
	}

	body := s[1 : len(s)-1]
	if !strings.ContainsRune(body, '\\') {
		return body, true
	}

	var b strings.Builder
	escaped := false
	for _, r := range body {
		if escaped {
			switch r {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			default:
				b.WriteRune(r)
			}
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String(), true
}

// SplitTopLevel splits s on sep where sep is outside quotes, parentheses and brackets.
func SplitTopLevel(s string, sep rune) ([]string, error) {
	var parts []string
	var quote rune
	depth := 0
	escaped := false
	start := 0

	for i, r := range s {
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == quote:
				quote = 0
			}
			continue
		}
		switch {
		case isQuote(r):
			quote = r
		case r == '(' || r == '[' || r == '{':
			depth++
		case r == ')' || r == ']' || r == '}':
			depth--
		case r == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + len(string(r))
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated string in %q", s)
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced parentheses in %q", s)
	}
	return append(parts, s[start:]), nil
}

func isQuote(r rune) bool {
	return r == '"' || r == '\'' || r == '`'
}
