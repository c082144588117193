package template

import (
	"context"
	"strings"

	"github.com/aescanero/dago-node-template/internal/eval/values"
)

// executeScripts replaces each script block with the printed value it returns
func (e *Engine) executeScripts(ctx context.Context, content string, scope map[string]any, pc *processContext) (string, error) {
	if !strings.Contains(content, "<%") {
		return content, nil
	}

	matches := scriptPattern.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return content, nil
	}

	var b strings.Builder
	last := 0

	for _, m := range matches {
		raw := content[m[0]:m[1]]
		code := content[m[2]:m[3]]

		var (
			result any
			err    error
		)
		if e.scripts == nil {
			err = pc.newError(ErrScriptExecutionFailed, raw, "no script evaluator configured", nil)
		} else if result, err = e.scripts.Execute(ctx, code, scope); err != nil {
			err = pc.newError(ErrScriptExecutionFailed, raw, "", err)
		}

		if err != nil {
			if e.opts.StrictMode {
				return "", err
			}
			e.passThrough(pc, raw, err)
			continue
		}

		b.WriteString(content[last:m[0]])
		b.WriteString(values.Stringify(result))
		last = m[1]
	}

	b.WriteString(content[last:])
	return b.String(), nil
}
