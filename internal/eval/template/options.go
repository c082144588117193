package template

import (
	"context"

	"go.uber.org/zap"

	"github.com/aescanero/dago-node-template/internal/catalog"
	"github.com/aescanero/dago-node-template/internal/eval/builtins"
	"github.com/aescanero/dago-node-template/internal/eval/filters"
)

// Defaults for Options
const (
	DefaultMaxDepth      = 10
	DefaultMaxInclusions = 50
	DefaultMaxIterations = 100
)

// Options bounds a single expansion and selects strict or lenient failure handling
type Options struct {
	MaxDepth      int  `json:"max_depth"`
	MaxInclusions int  `json:"max_inclusions"`
	MaxIterations int  `json:"max_iterations"`
	StrictMode    bool `json:"strict_mode"`
}

// DefaultOptions returns the default limits in strict mode
func DefaultOptions() Options {
	return Options{
		MaxDepth:      DefaultMaxDepth,
		MaxInclusions: DefaultMaxInclusions,
		MaxIterations: DefaultMaxIterations,
		StrictMode:    true,
	}
}

// withDefaults replaces non-positive limits with defaults
func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxInclusions <= 0 {
		o.MaxInclusions = DefaultMaxInclusions
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	return o
}

// ScriptEvaluator executes the code of a `<% %>` block
type ScriptEvaluator interface {
	Execute(ctx context.Context, code string, vars map[string]any) (any, error)
}

// Option configures an Engine
type Option func(*Engine)

// WithCatalog sets the source of included templates
func WithCatalog(c catalog.Reader) Option {
	return func(e *Engine) { e.catalog = c }
}

// WithScriptEvaluator sets the sandbox for script blocks
func WithScriptEvaluator(s ScriptEvaluator) Option {
	return func(e *Engine) { e.scripts = s }
}

// WithFilters sets the filter registry
func WithFilters(r *filters.Registry) Option {
	return func(e *Engine) { e.filters = r }
}

// WithBuiltins sets the built-in variable registry
func WithBuiltins(r *builtins.Registry) Option {
	return func(e *Engine) { e.builtins = r }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithOptions replaces all limits and the mode
func WithOptions(o Options) Option {
	return func(e *Engine) { e.opts = o }
}

// WithStrictMode selects strict (true) or lenient (false) handling
func WithStrictMode(strict bool) Option {
	return func(e *Engine) { e.opts.StrictMode = strict }
}

// WithMaxDepth bounds include nesting
func WithMaxDepth(n int) Option {
	return func(e *Engine) { e.opts.MaxDepth = n }
}

// WithMaxInclusions bounds the inclusions of one call
func WithMaxInclusions(n int) Option {
	return func(e *Engine) { e.opts.MaxInclusions = n }
}

// WithMaxIterations bounds placeholder resolution passes per template
func WithMaxIterations(n int) Option {
	return func(e *Engine) { e.opts.MaxIterations = n }
}
