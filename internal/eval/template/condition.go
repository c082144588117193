package template

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aescanero/dago-node-template/internal/eval/filters"
	"github.com/aescanero/dago-node-template/internal/eval/values"
)

// Condition grammar:
//
//	or      = and { ("||" | "or") and }
//	and     = unary { ("&&" | "and") unary }
//	unary   = ("!" | "not") unary | compare
//	compare = primary [ op primary ]
//	primary = "(" or ")" | string | number | true | false | null | path
//	op      = "==" | "!=" | "===" | "!==" | ">" | "<" | ">=" | "<="

type condTokenKind int

const (
	condEOF condTokenKind = iota
	condValue
	condPath
	condOp
	condLParen
	condRParen
)

type condToken struct {
	kind  condTokenKind
	text  string
	value any
}

// pathLookup resolves a variable path; a missing variable is nil, not an error
type pathLookup func(path string) (any, error)

type condNode interface {
	eval(lookup pathLookup) (any, error)
}

type literalNode struct{ value any }

type pathNode struct{ path string }

type notNode struct{ x condNode }

type logicalNode struct {
	and  bool
	l, r condNode
}

type compareNode struct {
	op   string
	l, r condNode
}

func (n literalNode) eval(pathLookup) (any, error) { return n.value, nil }

func (n pathNode) eval(lookup pathLookup) (any, error) { return lookup(n.path) }

func (n notNode) eval(lookup pathLookup) (any, error) {
	v, err := n.x.eval(lookup)
	if err != nil {
		return nil, err
	}
	return !values.Truthy(v), nil
}

func (n logicalNode) eval(lookup pathLookup) (any, error) {
	l, err := n.l.eval(lookup)
	if err != nil {
		return nil, err
	}
	if n.and != values.Truthy(l) {
		// false && _ and true || _ short-circuit
		return values.Truthy(l), nil
	}
	r, err := n.r.eval(lookup)
	if err != nil {
		return nil, err
	}
	return values.Truthy(r), nil
}

func (n compareNode) eval(lookup pathLookup) (any, error) {
	l, err := n.l.eval(lookup)
	if err != nil {
		return nil, err
	}
	r, err := n.r.eval(lookup)
	if err != nil {
		return nil, err
	}
	return compare(n.op, l, r), nil
}

// compare applies a comparison operator with numeric coercion
func compare(op string, a, b any) bool {
	switch op {
	case "==":
		return looseEqual(a, b)
	case "!=":
		return !looseEqual(a, b)
	case "===":
		return values.TypeName(a) == values.TypeName(b) && looseEqual(a, b)
	case "!==":
		return values.TypeName(a) != values.TypeName(b) || !looseEqual(a, b)
	}

	if a == nil || b == nil {
		return false
	}

	var c int
	fa, okA := values.ToFloat(a)
	fb, okB := values.ToFloat(b)
	if okA && okB {
		switch {
		case fa < fb:
			c = -1
		case fa > fb:
			c = 1
		}
	} else {
		c = strings.Compare(values.Stringify(a), values.Stringify(b))
	}

	switch op {
	case ">":
		return c > 0
	case "<":
		return c < 0
	case ">=":
		return c >= 0
	case "<=":
		return c <= 0
	}
	return false
}

func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	fa, okA := values.ToFloat(a)
	fb, okB := values.ToFloat(b)
	if okA && okB {
		return fa == fb
	}
	return values.Stringify(a) == values.Stringify(b)
}

// parseCondition compiles a condition expression
func parseCondition(expr string) (condNode, error) {
	tokens, err := lexCondition(expr)
	if err != nil {
		return nil, err
	}
	p := &condParser{tokens: tokens}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != condEOF {
		return nil, fmt.Errorf("unexpected %q in condition %q", tok.text, expr)
	}
	return node, nil
}

type condParser struct {
	tokens []condToken
	pos    int
}

func (p *condParser) peek() condToken {
	if p.pos >= len(p.tokens) {
		return condToken{kind: condEOF}
	}
	return p.tokens[p.pos]
}

func (p *condParser) next() condToken {
	tok := p.peek()
	p.pos++
	return tok
}

func (p *condParser) isOp(ops ...string) bool {
	tok := p.peek()
	if tok.kind != condOp {
		return false
	}
	for _, op := range ops {
		if tok.text == op {
			return true
		}
	}
	return false
}

func (p *condParser) parseOr() (condNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isOp("||", "or") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = logicalNode{and: false, l: left, r: right}
	}
	return left, nil
}

func (p *condParser) parseAnd() (condNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isOp("&&", "and") {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = logicalNode{and: true, l: left, r: right}
	}
	return left, nil
}

func (p *condParser) parseUnary() (condNode, error) {
	if p.isOp("!", "not") {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notNode{x: x}, nil
	}
	return p.parseCompare()
}

func (p *condParser) parseCompare() (condNode, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.isOp("==", "!=", "===", "!==", ">", "<", ">=", "<=") {
		op := p.next().text
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return compareNode{op: op, l: left, r: right}, nil
	}
	return left, nil
}

func (p *condParser) parsePrimary() (condNode, error) {
	tok := p.next()
	switch tok.kind {
	case condLParen:
		node, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.next().kind != condRParen {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		return node, nil
	case condValue:
		return literalNode{value: tok.value}, nil
	case condPath:
		return pathNode{path: tok.text}, nil
	case condEOF:
		return nil, fmt.Errorf("unexpected end of condition")
	}
	return nil, fmt.Errorf("unexpected %q in condition", tok.text)
}

var condOperators = []string{"===", "!==", "==", "!=", ">=", "<=", "&&", "||", ">", "<", "!"}

func lexCondition(s string) ([]condToken, error) {
	var tokens []condToken
	i := 0

	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			tokens = append(tokens, condToken{kind: condLParen, text: "("})
			i++
		case c == ')':
			tokens = append(tokens, condToken{kind: condRParen, text: ")"})
			i++
		case c == '"' || c == '\'' || c == '`':
			end, err := scanQuoted(s, i)
			if err != nil {
				return nil, err
			}
			text, _ := filters.Unquote(s[i:end])
			tokens = append(tokens, condToken{kind: condValue, text: s[i:end], value: text})
			i = end
		case isDigit(c) || c == '-' && i+1 < len(s) && isDigit(s[i+1]) && !afterOperand(tokens):
			j := i + 1
			for j < len(s) && (isDigit(s[j]) || s[j] == '.') {
				j++
			}
			f, err := strconv.ParseFloat(s[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q", s[i:j])
			}
			tokens = append(tokens, condToken{kind: condValue, text: s[i:j], value: f})
			i = j
		case isPathStart(c):
			j, err := scanPath(s, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, wordToken(s[i:j]))
			i = j
		default:
			matched := false
			for _, op := range condOperators {
				if strings.HasPrefix(s[i:], op) {
					tokens = append(tokens, condToken{kind: condOp, text: op})
					i += len(op)
					matched = true
					break
				}
			}
			if !matched {
				return nil, fmt.Errorf("unexpected character %q in condition", c)
			}
		}
	}
	return tokens, nil
}

func wordToken(word string) condToken {
	switch word {
	case "and", "or", "not":
		return condToken{kind: condOp, text: word}
	case "true":
		return condToken{kind: condValue, text: word, value: true}
	case "false":
		return condToken{kind: condValue, text: word, value: false}
	case "null", "nil", "undefined":
		return condToken{kind: condValue, text: word, value: nil}
	}
	return condToken{kind: condPath, text: word}
}

func afterOperand(tokens []condToken) bool {
	if len(tokens) == 0 {
		return false
	}
	switch tokens[len(tokens)-1].kind {
	case condValue, condPath, condRParen:
		return true
	}
	return false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isPathStart(c byte) bool {
	return c == '_' || c == '@' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isPathChar(c byte) bool {
	return isPathStart(c) || isDigit(c) || c == '.' || c == '-'
}

// scanPath reads a dotted path, including bracket indexes and method call
// arguments, and returns its end offset
func scanPath(s string, i int) (int, error) {
	j := i
	for j < len(s) {
		c := s[j]
		switch {
		case c == '-':
			// a-b is a hyphenated name only when followed by a name character
			if j+1 >= len(s) || !isPathStart(s[j+1]) {
				return j, nil
			}
			j++
		case isPathChar(c):
			j++
		case c == '(' || c == '[':
			end, err := scanBalanced(s, j)
			if err != nil {
				return 0, err
			}
			j = end
		default:
			return j, nil
		}
	}
	return j, nil
}

// scanBalanced returns the offset after the bracket closing the one at s[i]
func scanBalanced(s string, i int) (int, error) {
	depth := 0
	for j := i; j < len(s); j++ {
		switch s[j] {
		case '"', '\'', '`':
			end, err := scanQuoted(s, j)
			if err != nil {
				return 0, err
			}
			j = end - 1
		case '(', '[':
			depth++
		case ')', ']':
			depth--
			if depth == 0 {
				return j + 1, nil
			}
		}
	}
	return 0, fmt.Errorf("unbalanced brackets in %q", s[i:])
}

// scanQuoted returns the offset after the quote closing the one at s[i]
func scanQuoted(s string, i int) (int, error) {
	q := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case q:
			return j + 1, nil
		}
	}
	return 0, fmt.Errorf("unterminated string in %q", s[i:])
}
