package template

import (
	"fmt"
	"strings"

	"github.com/aescanero/dago-node-template/internal/eval/values"
)

// expandConditionals replaces each if block with its chosen branch. Blocks
// inside each bodies are left for the loop expander, which evaluates them per
// iteration.
func (e *Engine) expandConditionals(content string, scope map[string]any, pc *processContext) (string, error) {
	tags := scanTags(content)
	if len(tags) == 0 {
		return content, nil
	}

	var b strings.Builder
	pos := 0
	eachDepth := 0

	for i := 0; i < len(tags); i++ {
		tag := tags[i]
		switch tag.kind {
		case tagEach:
			eachDepth++
			continue
		case tagEndEach:
			if eachDepth > 0 {
				eachDepth--
			}
			continue
		case tagIf:
		default:
			continue
		}
		if eachDepth > 0 {
			continue
		}

		closeIdx := matchClose(tags, i)
		if closeIdx < 0 {
			if e.opts.StrictMode {
				return "", pc.newError(ErrMalformedInput, tag.raw, "unclosed {{#if}} block", nil)
			}
			e.passThrough(pc, tag.raw, fmt.Errorf("unclosed {{#if}} block"))
			continue
		}

		body, err := e.chooseBranch(splitBranches(content, tags, i, closeIdx), scope, pc)
		if err != nil {
			if e.opts.StrictMode || IsFatal(err) {
				return "", err
			}
			e.passThrough(pc, tag.raw, err)
			i = closeIdx
			continue
		}

		// the chosen branch may hold nested blocks
		expanded, err := e.expandConditionals(body, scope, pc)
		if err != nil {
			return "", err
		}

		b.WriteString(content[pos:tag.start])
		b.WriteString(expanded)
		pos = tags[closeIdx].end
		i = closeIdx
	}

	if pos == 0 {
		return content, nil
	}
	b.WriteString(content[pos:])
	return b.String(), nil
}

// chooseBranch returns the body of the first branch whose condition holds, the
// else body, or nothing
func (e *Engine) chooseBranch(branches []branch, scope map[string]any, pc *processContext) (string, error) {
	for _, br := range branches {
		if br.isElse {
			return br.body, nil
		}

		ok, err := e.evalCondition(br.expr, scope)
		if err != nil {
			return "", pc.newError(ErrMalformedInput, br.raw, "invalid condition", err)
		}
		if ok {
			return br.body, nil
		}
	}
	return "", nil
}

// evalCondition evaluates an if expression to a boolean
func (e *Engine) evalCondition(expr string, scope map[string]any) (bool, error) {
	if strings.TrimSpace(expr) == "" {
		return false, fmt.Errorf("missing condition")
	}

	node, err := parseCondition(expr)
	if err != nil {
		return false, err
	}

	v, err := node.eval(e.lookup(scope))
	if err != nil {
		return false, err
	}
	return values.Truthy(v), nil
}
