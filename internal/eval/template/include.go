package template

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/aescanero/dago-node-template/internal/catalog"
	"github.com/aescanero/dago-node-template/internal/eval/filters"
	"github.com/aescanero/dago-node-template/internal/eval/values"
)

// resolveIncludes substitutes include directives with their processed
// templates, rescanning until no include remains or a pass makes no progress
func (e *Engine) resolveIncludes(ctx context.Context, content string, scope map[string]any, pc *processContext) (string, error) {
	for {
		matches := includePattern.FindAllStringSubmatchIndex(content, -1)
		if len(matches) == 0 {
			return content, nil
		}

		var b strings.Builder
		last := 0
		progress := false

		for _, m := range matches {
			raw := content[m[0]:m[1]]
			id := content[m[2]:m[3]]
			var args string
			if m[4] >= 0 {
				args = content[m[4]:m[5]]
			}

			out, err := e.expandInclude(ctx, raw, id, args, scope, pc)
			if err != nil {
				if e.opts.StrictMode || !errors.Is(err, ErrTemplateNotFound) {
					return "", err
				}
				e.passThrough(pc, raw, err)
				continue
			}

			b.WriteString(content[last:m[0]])
			b.WriteString(out)
			last = m[1]
			progress = true
		}

		if !progress {
			return content, nil
		}
		b.WriteString(content[last:])
		content = b.String()
	}
}

// expandInclude checks the recursion guards, reads the template and processes
// it in a child frame with the directive's variables merged over scope
func (e *Engine) expandInclude(ctx context.Context, raw, id, rawArgs string, scope map[string]any, pc *processContext) (string, error) {
	if pc.inChain(id) {
		return "", pc.newError(ErrCycleDetected, raw, pc.chainString(id), nil)
	}
	if pc.depth+1 > e.opts.MaxDepth {
		return "", pc.newError(ErrDepthExceeded, raw,
			fmt.Sprintf("depth %d exceeds %d", pc.depth+1, e.opts.MaxDepth), nil)
	}

	tpl, err := e.readTemplate(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		return "", pc.newError(ErrTemplateNotFound, raw, id, err)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read template %q for %s: %w", id, raw, err)
	}

	pc.state.inclusions++
	if pc.state.inclusions > e.opts.MaxInclusions {
		return "", pc.newError(ErrInclusionBudgetExceeded, raw,
			fmt.Sprintf("more than %d inclusions", e.opts.MaxInclusions), nil)
	}

	local, err := parseIncludeArgs(rawArgs)
	if err != nil {
		return "", pc.newError(ErrMalformedInput, raw, "invalid include arguments", err)
	}

	e.logger.Debug("including template",
		zap.String("template_id", id),
		zap.Int("depth", pc.depth+1),
		zap.Int("inclusions", pc.state.inclusions),
	)

	out, _, err := e.process(ctx, tpl.Content, values.Merge(scope, local), pc.child(id))
	if err != nil {
		return "", fmt.Errorf("failed to include template %q: %w", id, err)
	}
	return out, nil
}

func (e *Engine) readTemplate(ctx context.Context, id string) (*catalog.Template, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: %s (no template catalog configured)", catalog.ErrNotFound, id)
	}
	return e.catalog.Read(ctx, id)
}

// parseIncludeArgs parses `k=v,k2="a,b"`. Values become numbers or booleans
// when unambiguous; quoted values stay strings.
func parseIncludeArgs(s string) (map[string]any, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	parts, err := filters.SplitTopLevel(s, ',')
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, ok := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", part)
		}
		out[key] = filters.ParseLiteral(val)
	}
	return out, nil
}
