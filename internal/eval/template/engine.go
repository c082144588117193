package template

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/aescanero/dago-node-template/internal/catalog"
	"github.com/aescanero/dago-node-template/internal/eval/builtins"
	expreval "github.com/aescanero/dago-node-template/internal/eval/expr"
	"github.com/aescanero/dago-node-template/internal/eval/filters"
	"github.com/aescanero/dago-node-template/internal/eval/values"
)

// Engine expands templates. It holds only read-only collaborators, so one
// Engine may serve concurrent calls; each call gets its own processing context.
type Engine struct {
	opts     Options
	catalog  catalog.Reader
	scripts  ScriptEvaluator
	filters  *filters.Registry
	builtins *builtins.Registry
	inline   *expreval.Evaluator
	logger   *zap.Logger
}

// Result is the outcome of one expansion
type Result struct {
	Content string `json:"content"`
	// Iterations is the number of placeholder resolution passes of the top-level template
	Iterations int `json:"iterations"`
	// Inclusions counts every include performed, at any depth
	Inclusions int `json:"inclusions"`
	// HasUnresolved is set when lenient mode left directives in the output
	HasUnresolved bool `json:"has_unresolved"`
}

// New creates an engine. Without options it is strict, uses the default
// limits, the full filter catalog and the standard built-in variables, and
// has neither a template catalog nor a script evaluator.
func New(opts ...Option) *Engine {
	e := &Engine{opts: DefaultOptions()}
	for _, opt := range opts {
		opt(e)
	}

	e.opts = e.opts.withDefaults()
	if e.filters == nil {
		e.filters = filters.NewDefaultRegistry()
	}
	if e.builtins == nil {
		e.builtins = builtins.NewDefaultRegistry(nil)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	e.inline = expreval.NewEvaluator()

	return e
}

// Options returns the engine's limits and mode
func (e *Engine) Options() Options {
	return e.opts
}

// Filters returns the filter registry
func (e *Engine) Filters() *filters.Registry {
	return e.filters
}

// Lenient returns a copy of the engine that leaves failed directives in place
func (e *Engine) Lenient() *Engine {
	c := *e
	c.opts.StrictMode = false
	return &c
}

// Strict returns a copy of the engine that fails on the first failed directive
func (e *Engine) Strict() *Engine {
	c := *e
	c.opts.StrictMode = true
	return &c
}

// Process expands content with vars. vars is never modified.
func (e *Engine) Process(ctx context.Context, content string, vars map[string]any) (*Result, error) {
	if content == "" {
		return nil, &Error{Kind: ErrMalformedInput, Detail: "empty template"}
	}
	return e.run(ctx, content, vars, newProcessContext())
}

// ProcessTemplate reads id from the catalog and expands it with id at the
// head of the include chain
func (e *Engine) ProcessTemplate(ctx context.Context, id string, vars map[string]any) (*Result, error) {
	tpl, err := e.readTemplate(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, &Error{Kind: ErrTemplateNotFound, TemplateID: id, Detail: id, Cause: err}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read template %q: %w", id, err)
	}
	return e.run(ctx, tpl.Content, vars, newProcessContext(id))
}

func (e *Engine) run(ctx context.Context, content string, vars map[string]any, pc *processContext) (*Result, error) {
	out, iterations, err := e.process(ctx, content, values.Merge(vars, nil), pc)
	if err != nil {
		return nil, err
	}

	return &Result{
		Content:       out,
		Iterations:    iterations,
		Inclusions:    pc.state.inclusions,
		HasUnresolved: pc.state.hasUnresolved,
	}, nil
}

// process runs the pipeline on one template frame. When substituted values
// bring in includes, blocks or scripts, the pipeline runs again on the result,
// so a directive expands the same way wherever its text came from.
// It returns the total number of placeholder passes.
func (e *Engine) process(ctx context.Context, content string, scope map[string]any, pc *processContext) (string, int, error) {
	iterations := 0
	for round := 1; ; round++ {
		out, passes, err := e.expand(ctx, content, scope, pc)
		iterations += passes
		if err != nil {
			return "", iterations, err
		}

		pending := pendingDirective(out)
		if pending == "" {
			return out, iterations, nil
		}
		if out == content {
			// another round would produce the same text
			if e.opts.StrictMode {
				return "", iterations, pc.newError(ErrMalformedInput, pending, "directive cannot be expanded", nil)
			}
			e.passThrough(pc, pending, errors.New("directive cannot be expanded"))
			return out, iterations, nil
		}
		if round >= e.opts.MaxIterations {
			return "", iterations, pc.newError(ErrIterationBudgetExceeded, pending,
				fmt.Sprintf("directives still pending after %d rounds", e.opts.MaxIterations), nil)
		}

		e.logger.Debug("expanding substituted directives",
			zap.String("directive", pending),
			zap.String("template_id", pc.templateID()),
			zap.Int("round", round+1),
		)
		content = out
	}
}

// expand runs comments, includes, conditionals, loops, scripts, then
// placeholder resolution once. Includes re-enter process with a child frame.
func (e *Engine) expand(ctx context.Context, content string, scope map[string]any, pc *processContext) (string, int, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, fmt.Errorf("processing cancelled: %w", err)
	}

	content = stripComments(content)

	content, err := e.resolveIncludes(ctx, content, scope, pc)
	if err != nil {
		return "", 0, err
	}

	content, err = e.expandConditionals(content, scope, pc)
	if err != nil {
		return "", 0, err
	}

	content, err = e.expandLoops(ctx, content, scope, pc)
	if err != nil {
		return "", 0, err
	}

	content, err = e.executeScripts(ctx, content, scope, pc)
	if err != nil {
		return "", 0, err
	}

	return e.resolvePlaceholders(content, scope, pc)
}

// pendingDirective returns the first include, block tag, comment or script
// left in content, or "" when only text and placeholders remain
func pendingDirective(content string) string {
	if !strings.Contains(content, "{{") && !strings.Contains(content, "<%") {
		return ""
	}
	for _, d := range Parse(content) {
		if d.Kind != KindVariable || isUnknownTag(d.Payload) {
			return d.FullMatch
		}
	}
	if tags := scanTags(content); len(tags) > 0 {
		return tags[0].raw
	}
	return ""
}

// structuralCount counts the directives expanded before placeholder resolution
func structuralCount(content string) int {
	if !strings.Contains(content, "{{") && !strings.Contains(content, "<%") {
		return 0
	}
	n := len(scanTags(content))
	for _, d := range Parse(content) {
		switch d.Kind {
		case KindInclude, KindScript, KindComment:
			n++
		}
	}
	return n
}
