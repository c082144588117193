package template

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/aescanero/dago-node-template/internal/eval/filters"
	"github.com/aescanero/dago-node-template/internal/eval/values"
)

// filterCall is one `name(args)` step of a filter chain
type filterCall struct {
	name string
	args filters.Args
}

// placeholderExpr is the parsed form of `head || default | f(a) | g`
type placeholderExpr struct {
	head       string
	literal    any
	isLiteral  bool
	hasDefault bool
	defaultVal any
	filters    []filterCall
}

// root returns the variable the placeholder reads, or "" for literals
func (p *placeholderExpr) root() string {
	if p.isLiteral {
		return ""
	}
	return rootName(p.head)
}

func (p *placeholderExpr) hasFilter(name string) bool {
	for _, f := range p.filters {
		if f.name == name {
			return true
		}
	}
	return false
}

// parsePlaceholder splits a payload on the fallback operator and the pipes.
// Filters on either side of `||` apply to the resolved value or the default.
func parsePlaceholder(payload string) (*placeholderExpr, error) {
	parts, err := filters.SplitTopLevel(payload, '|')
	if err != nil {
		return nil, err
	}

	p := &placeholderExpr{head: strings.TrimSpace(parts[0])}
	if p.head == "" {
		return nil, fmt.Errorf("missing variable in %q", payload)
	}
	if v, ok := literalValue(p.head); ok {
		p.literal, p.isLiteral = v, true
	}

	for i := 1; i < len(parts); i++ {
		part := strings.TrimSpace(parts[i])
		if part == "" {
			// an empty part between two pipes is the || operator
			if i+1 >= len(parts) || p.hasDefault {
				return nil, fmt.Errorf("misplaced fallback operator in %q", payload)
			}
			i++
			p.hasDefault = true
			p.defaultVal = filters.ParseLiteral(parts[i])
			continue
		}

		call, err := parseFilterCall(part)
		if err != nil {
			return nil, err
		}
		p.filters = append(p.filters, call)
	}

	return p, nil
}

func parseFilterCall(s string) (filterCall, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		if !isIdentifier(s) {
			return filterCall{}, fmt.Errorf("invalid filter %q", s)
		}
		return filterCall{name: s}, nil
	}

	if !strings.HasSuffix(s, ")") {
		return filterCall{}, fmt.Errorf("invalid filter %q", s)
	}
	name := strings.TrimSpace(s[:open])
	if !isIdentifier(name) {
		return filterCall{}, fmt.Errorf("invalid filter %q", s)
	}
	args, err := filters.ParseArgs(s[open+1 : len(s)-1])
	if err != nil {
		return filterCall{}, fmt.Errorf("invalid arguments to %s: %w", name, err)
	}
	return filterCall{name: name, args: args}, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || i > 0 && isDigit(c)) {
			return false
		}
	}
	return true
}

// literalValue recognizes quoted strings, numbers and keywords as placeholder heads
func literalValue(s string) (any, bool) {
	if v, ok := filters.Unquote(s); ok {
		return v, true
	}
	switch s {
	case "true":
		return true, true
	case "false":
		return false, true
	case "null":
		return nil, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	return nil, false
}

// evalPlaceholder resolves the head, applies the default and runs the filters.
// The returned *Error carries the kind and detail; callers add the location.
func (e *Engine) evalPlaceholder(p *placeholderExpr, scope map[string]any) (any, *Error) {
	value := p.literal
	if !p.isLiteral {
		v, _, err := e.resolvePath(p.head, scope)
		if err != nil {
			return nil, &Error{Kind: ErrUnresolvedVariable, Detail: p.head, Cause: err}
		}
		value = v
	}

	if value == nil {
		switch {
		case p.hasDefault:
			value = p.defaultVal
		case p.isLiteral, p.hasFilter("default"), p.hasFilter("ifEmpty"):
			// null literals and chains with their own fallback continue with nil
		default:
			return nil, &Error{Kind: ErrUnresolvedVariable, Detail: p.head}
		}
	}

	for _, call := range p.filters {
		f, ok := e.filters.Lookup(call.name)
		if !ok {
			return nil, &Error{Kind: ErrUnknownFilter, Detail: call.name}
		}
		out, err := f.Fn(value, call.args)
		if err != nil {
			return nil, &Error{Kind: ErrFilterExecutionFailed, Detail: call.name, Cause: err}
		}
		value = out
	}

	return value, nil
}

// isStructural reports tags that the placeholder pass never replaces
func isStructural(payload string) bool {
	payload = strings.TrimSpace(payload)
	if kind, _ := classifyTag(payload); kind != tagNone {
		return true
	}
	return strings.HasPrefix(payload, "include:") ||
		strings.HasPrefix(payload, "#") ||
		strings.HasPrefix(payload, "/")
}

// malformedStructure explains why a structural payload can never be expanded.
// It returns "" for well formed include and block tags.
func malformedStructure(payload string) string {
	switch {
	case isIncludePayload(payload):
		if _, _, ok := parseIncludePayload(payload); !ok {
			return "malformed include"
		}
	case isUnknownTag(payload):
		return "unknown block tag"
	}
	return ""
}

// replacePlaceholders runs one resolution pass over content. accept, when set,
// limits the pass to matching placeholders. It returns the number of
// placeholders replaced.
func (e *Engine) replacePlaceholders(content string, scope map[string]any, pc *processContext, accept func(*placeholderExpr) bool) (string, int, error) {
	matches := placeholderPattern.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return content, 0, nil
	}

	var b strings.Builder
	last := 0
	resolved := 0

	for _, m := range matches {
		raw := content[m[0]:m[1]]
		payload := strings.TrimSpace(content[m[2]:m[3]])
		if isBlankPlaceholder(payload) {
			continue
		}
		if isStructural(payload) {
			if reason := malformedStructure(payload); reason != "" {
				if e.opts.StrictMode {
					return "", 0, pc.newError(ErrMalformedInput, raw, reason, nil)
				}
				e.passThrough(pc, raw, errors.New(reason))
			}
			continue
		}

		expr, err := parsePlaceholder(payload)
		if err != nil {
			if e.opts.StrictMode {
				return "", 0, pc.newError(ErrMalformedInput, raw, "", err)
			}
			e.passThrough(pc, raw, err)
			continue
		}
		if accept != nil && !accept(expr) {
			continue
		}

		value, perr := e.evalPlaceholder(expr, scope)
		if perr != nil {
			located := pc.newError(perr.Kind, raw, perr.Detail, perr.Cause)
			if e.opts.StrictMode {
				return "", 0, located
			}
			e.passThrough(pc, raw, located)
			continue
		}

		b.WriteString(content[last:m[0]])
		b.WriteString(values.Stringify(value))
		last = m[1]
		resolved++
	}

	if resolved == 0 {
		return content, 0, nil
	}
	b.WriteString(content[last:])
	return b.String(), resolved, nil
}

// resolvePlaceholders repeats resolution passes until a pass replaces nothing
// or substituted values bring in directives for the next pipeline round.
// It returns the number of passes run.
func (e *Engine) resolvePlaceholders(content string, scope map[string]any, pc *processContext) (string, int, error) {
	structural := structuralCount(content)
	for pass := 1; ; pass++ {
		if pass > e.opts.MaxIterations {
			return "", pass - 1, pc.newError(ErrIterationBudgetExceeded, "",
				fmt.Sprintf("no fixed point after %d passes", e.opts.MaxIterations), nil)
		}

		next, resolved, err := e.replacePlaceholders(content, scope, pc, nil)
		if err != nil {
			return "", pass, err
		}
		if resolved == 0 {
			return content, pass, nil
		}
		content = next
		if structuralCount(content) > structural {
			return content, pass, nil
		}
	}
}

// passThrough records a directive left literal in lenient mode
func (e *Engine) passThrough(pc *processContext, raw string, err error) {
	pc.state.hasUnresolved = true
	e.logger.Debug("directive left unresolved",
		zap.String("directive", raw),
		zap.String("template_id", pc.templateID()),
		zap.Error(err),
	)
}
