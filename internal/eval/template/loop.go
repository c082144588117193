package template

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/aescanero/dago-node-template/internal/eval/values"
)

var (
	eachAliasPattern = regexp.MustCompile(`^([\s\S]+?)\s+as\s+([A-Za-z_$][\w$]*)$`)
	atBinding        = regexp.MustCompile(`@([A-Za-z_]\w*)`)
	exprIdentPattern = regexp.MustCompile(`@?[A-Za-z_$][\w$]*`)
	exprVarPattern   = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)
)

// Iteration bindings visible inside an each body
const (
	bindThis   = "this"
	bindIndex  = "@index"
	bindFirst  = "@first"
	bindLast   = "@last"
	bindLength = "@length"
)

// expandLoops replaces each blocks with one rendering of the body per element
func (e *Engine) expandLoops(ctx context.Context, content string, scope map[string]any, pc *processContext) (string, error) {
	tags := scanTags(content)
	if len(tags) == 0 {
		return content, nil
	}

	var b strings.Builder
	pos := 0

	for i := 0; i < len(tags); i++ {
		tag := tags[i]
		if tag.kind != tagEach {
			continue
		}

		closeIdx := matchClose(tags, i)
		if closeIdx < 0 {
			if e.opts.StrictMode {
				return "", pc.newError(ErrMalformedInput, tag.raw, "unclosed {{#each}} block", nil)
			}
			e.passThrough(pc, tag.raw, fmt.Errorf("unclosed {{#each}} block"))
			continue
		}

		body := content[tag.end:tags[closeIdx].start]
		out, err := e.renderLoop(ctx, tag, body, scope, pc)
		if err != nil {
			if e.opts.StrictMode || IsFatal(err) || !lenientKind(err) {
				return "", err
			}
			e.passThrough(pc, tag.raw, err)
			out = content[tag.start:tags[closeIdx].end]
		}

		b.WriteString(content[pos:tag.start])
		b.WriteString(out)
		pos = tags[closeIdx].end
		i = closeIdx
	}

	if pos == 0 {
		return content, nil
	}
	b.WriteString(content[pos:])
	return b.String(), nil
}

// splitEachExpr separates `items | sort as task` into the source and alias
func splitEachExpr(expr string) (string, string) {
	expr = strings.TrimSpace(expr)
	if m := eachAliasPattern.FindStringSubmatch(expr); m != nil {
		return strings.TrimSpace(m[1]), m[2]
	}
	return expr, ""
}

func (e *Engine) renderLoop(ctx context.Context, tag blockTag, body string, scope map[string]any, pc *processContext) (string, error) {
	source, alias := splitEachExpr(tag.expr)
	if source == "" {
		return "", pc.newError(ErrMalformedInput, tag.raw, "missing array expression", nil)
	}

	expr, err := parsePlaceholder(source)
	if err != nil {
		return "", pc.newError(ErrMalformedInput, tag.raw, "invalid array expression", err)
	}

	value, perr := e.evalPlaceholder(expr, scope)
	if perr != nil && perr.Kind != ErrUnresolvedVariable {
		return "", pc.newError(perr.Kind, tag.raw, perr.Detail, perr.Cause)
	}

	// non-arrays, including missing variables, yield zero iterations
	items, ok := values.ToSlice(value)
	if !ok || len(items) == 0 {
		return "", nil
	}

	var b strings.Builder
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		locals := map[string]any{
			bindThis:   item,
			bindIndex:  i,
			bindFirst:  i == 0,
			bindLast:   i == len(items)-1,
			bindLength: len(items),
		}
		if alias != "" {
			locals[alias] = item
		}

		out, err := e.renderIteration(ctx, body, values.Merge(scope, locals), locals, pc)
		if err != nil {
			return "", err
		}
		b.WriteString(out)
	}

	e.logger.Debug("loop expanded",
		zap.String("source", source),
		zap.Int("iterations", len(items)),
	)
	return b.String(), nil
}

// renderIteration expands one copy of a loop body: its conditionals, nested
// loops, inline arithmetic, then the placeholders reading iteration bindings.
// Other placeholders are left for the resolution passes.
func (e *Engine) renderIteration(ctx context.Context, body string, scope, locals map[string]any, pc *processContext) (string, error) {
	out, err := e.expandConditionals(body, scope, pc)
	if err != nil {
		return "", err
	}

	out, err = e.expandLoops(ctx, out, scope, pc)
	if err != nil {
		return "", err
	}

	out = e.evalInlineExpressions(ctx, out, scope, locals)

	out, _, err = e.replacePlaceholders(out, scope, pc, func(p *placeholderExpr) bool {
		_, local := locals[p.root()]
		return local
	})
	return out, err
}

// evalInlineExpressions computes placeholders such as {{@index + 1}} that
// combine iteration bindings with arithmetic operators
func (e *Engine) evalInlineExpressions(ctx context.Context, content string, scope, locals map[string]any) string {
	if !strings.Contains(content, "{{") {
		return content
	}

	var env map[string]any
	return placeholderPattern.ReplaceAllStringFunc(content, func(raw string) string {
		payload := strings.TrimSpace(raw[2 : len(raw)-2])
		if !isInlineExpression(payload, locals) {
			return raw
		}
		if env == nil {
			env = exprEnv(scope)
		}

		v, err := e.inline.Eval(ctx, atBinding.ReplaceAllString(payload, "at_$1"), env)
		if err != nil {
			// not an expression after all: leave it to path resolution
			e.logger.Debug("inline expression not evaluated",
				zap.String("expression", payload),
				zap.Error(err),
			)
			return raw
		}
		return values.Stringify(v)
	})
}

// isInlineExpression reports payloads with an arithmetic operator outside
// quotes that reference an iteration binding
func isInlineExpression(payload string, locals map[string]any) bool {
	if payload == "" || isStructural(payload) || strings.Contains(payload, "|") {
		return false
	}

	hasOp := false
	var quote byte
	for i := 0; i < len(payload); i++ {
		c := payload[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
		case '+', '-', '*', '/', '%':
			hasOp = true
		}
	}
	if !hasOp {
		return false
	}

	for _, ident := range exprIdentPattern.FindAllString(payload, -1) {
		if _, ok := locals[ident]; ok {
			return true
		}
	}
	return false
}

// exprEnv exposes scope to expr-lang, renaming @name bindings to at_name
func exprEnv(scope map[string]any) map[string]any {
	env := make(map[string]any, len(scope))
	for k, v := range scope {
		switch {
		case strings.HasPrefix(k, "@"):
			env["at_"+k[1:]] = v
		case exprVarPattern.MatchString(k):
			env[k] = v
		}
	}
	return env
}
