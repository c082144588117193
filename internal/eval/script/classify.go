package script

import (
	"strings"
)

// Kind distinguishes single-value scripts from statement scripts
type Kind int

const (
	// Expression scripts produce a single value, optionally preceded by return
	Expression Kind = iota
	// Statement scripts yield a value only through an explicit return
	Statement
)

func (k Kind) String() string {
	if k == Statement {
		return "statement"
	}
	return "expression"
}

var statementKeywords = map[string]bool{
	"if":    true,
	"for":   true,
	"while": true,
	"def":   true,
	"let":   true,
	"const": true,
	"var":   true,
	"pass":  true,
	"load":  true,
}

// Classify decides how a script block runs and returns the code to hand to
// the backend. A leading return is removed from single-line expression scripts.
func Classify(code string) (Kind, string) {
	trimmed := strings.TrimSpace(code)
	oneLine := strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))

	if rest, ok := cutReturn(oneLine); ok {
		if strings.Contains(rest, "\n") || hasTopLevel(rest, isSemicolon) {
			return Statement, trimmed
		}
		return Expression, rest
	}

	if strings.Contains(oneLine, "\n") || hasTopLevel(oneLine, isSemicolon) {
		return Statement, trimmed
	}

	if statementKeywords[firstWord(oneLine)] {
		return Statement, trimmed
	}

	if hasAssignment(oneLine) {
		return Statement, trimmed
	}

	return Expression, oneLine
}

func cutReturn(s string) (string, bool) {
	if s == "return" {
		return "", true
	}
	if !strings.HasPrefix(s, "return") {
		return "", false
	}
	next := s[len("return")]
	if next != ' ' && next != '\t' && next != '(' && next != '\n' {
		return "", false
	}
	return strings.TrimSpace(s[len("return"):]), true
}

func firstWord(s string) string {
	end := strings.IndexFunc(s, func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
	if end < 0 {
		return s
	}
	return s[:end]
}

func isSemicolon(s string, i int) bool {
	return s[i] == ';'
}

// hasAssignment reports a top-level =, +=, -= style operator that is not a comparison
func hasAssignment(s string) bool {
	return hasTopLevel(s, func(s string, i int) bool {
		if s[i] != '=' {
			return false
		}
		if i+1 < len(s) && (s[i+1] == '=' || s[i+1] == '>') {
			return false
		}
		if i > 0 && strings.IndexByte("=!<>", s[i-1]) >= 0 {
			return false
		}
		return true
	})
}

// hasTopLevel reports whether match holds at any byte outside quotes and brackets
func hasTopLevel(s string, match func(s string, i int) bool) bool {
	var quote byte
	depth := 0

	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}

		switch c {
		case '"', '\'', '`':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 && match(s, i) {
				return true
			}
		}
	}
	return false
}
