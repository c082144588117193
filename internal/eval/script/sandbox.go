package script

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	celeval "github.com/aescanero/dago-node-template/internal/eval/cel"
	expreval "github.com/aescanero/dago-node-template/internal/eval/expr"
	stareval "github.com/aescanero/dago-node-template/internal/eval/starlark"
)

// Supported script languages
const (
	LanguageStarlark = "starlark"
	LanguageCEL      = "cel"
	LanguageExpr     = "expr"
)

// Backend evaluates script code in one language
type Backend interface {
	Eval(ctx context.Context, expression string, vars map[string]any) (any, error)
	Exec(ctx context.Context, statement string, vars map[string]any) (any, error)
}

// Options configures a Sandbox
type Options struct {
	Language string
	MaxSteps uint64
	Timeout  time.Duration
	Logger   *zap.Logger
}

// Sandbox executes template script blocks on a single backend
type Sandbox struct {
	language string
	backend  Backend
	timeout  time.Duration
	logger   *zap.Logger
}

// New creates a sandbox for opts.Language (starlark when empty)
func New(opts Options) (*Sandbox, error) {
	language := strings.ToLower(strings.TrimSpace(opts.Language))
	if language == "" {
		language = LanguageStarlark
	}

	var backend Backend
	switch language {
	case LanguageStarlark:
		backend = stareval.NewEvaluator(opts.MaxSteps)
	case LanguageCEL:
		backend = celeval.NewEvaluator(opts.MaxSteps)
	case LanguageExpr:
		backend = expreval.NewEvaluator()
	default:
		return nil, fmt.Errorf("unsupported script language: %s", opts.Language)
	}

	return NewWithBackend(language, backend, opts.Timeout, opts.Logger), nil
}

// NewWithBackend wraps an arbitrary backend
func NewWithBackend(language string, backend Backend, timeout time.Duration, logger *zap.Logger) *Sandbox {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sandbox{
		language: language,
		backend:  backend,
		timeout:  timeout,
		logger:   logger,
	}
}

// Language returns the backend language name
func (s *Sandbox) Language() string {
	return s.language
}

// Execute runs one script block and returns its value
func (s *Sandbox) Execute(ctx context.Context, code string, vars map[string]any) (any, error) {
	kind, body := Classify(code)
	if kind == Expression && body == "" {
		return nil, nil
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	var (
		result any
		err    error
	)
	if kind == Expression {
		result, err = s.backend.Eval(ctx, body, vars)
	} else {
		result, err = s.backend.Exec(ctx, body, vars)
	}

	s.logger.Debug("script executed",
		zap.String("language", s.language),
		zap.String("kind", kind.String()),
		zap.Duration("duration", time.Since(start)),
		zap.Bool("failed", err != nil),
	)

	if err != nil {
		return nil, fmt.Errorf("%s %s script failed: %w", s.language, kind, err)
	}
	return result, nil
}
