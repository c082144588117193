package cel

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
	"github.com/google/cel-go/ext"
)

// DefaultCostLimit bounds the work a single evaluation may perform
const DefaultCostLimit uint64 = 1_000_000

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Evaluator evaluates CEL expressions against template variables
type Evaluator struct {
	costLimit uint64
	cache     map[string]cel.Program
	mu        sync.RWMutex
}

// NewEvaluator creates a new CEL evaluator. A zero costLimit uses DefaultCostLimit.
func NewEvaluator(costLimit uint64) *Evaluator {
	if costLimit == 0 {
		costLimit = DefaultCostLimit
	}
	return &Evaluator{
		costLimit: costLimit,
		cache:     make(map[string]cel.Program),
	}
}

// Eval evaluates a CEL expression. Every variable whose name is a valid CEL
// identifier is declared with a dynamic type.
func (e *Evaluator) Eval(ctx context.Context, expression string, vars map[string]any) (any, error) {
	activation := bindable(vars)

	program, err := e.getProgram(expression, activation)
	if err != nil {
		return nil, fmt.Errorf("failed to compile expression: %w", err)
	}

	out, _, err := program.ContextEval(ctx, activation)
	if err != nil {
		return nil, fmt.Errorf("evaluation failed: %w", err)
	}

	return toNative(out), nil
}

// Exec is not supported: CEL has no statements
func (e *Evaluator) Exec(_ context.Context, _ string, _ map[string]any) (any, error) {
	return nil, fmt.Errorf("cel does not support statement scripts")
}

// getProgram gets a compiled program from cache or compiles it
func (e *Evaluator) getProgram(expression string, vars map[string]any) (cel.Program, error) {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	cacheKey := expression + "\x00" + strings.Join(names, ",")

	// Check cache first (read lock)
	e.mu.RLock()
	if program, ok := e.cache[cacheKey]; ok {
		e.mu.RUnlock()
		return program, nil
	}
	e.mu.RUnlock()

	// Compile the expression (write lock)
	e.mu.Lock()
	defer e.mu.Unlock()

	// Check again in case another goroutine compiled it
	if program, ok := e.cache[cacheKey]; ok {
		return program, nil
	}

	opts := []cel.EnvOption{
		ext.Strings(),
		cel.CrossTypeNumericComparisons(true),
	}
	for _, name := range names {
		opts = append(opts, cel.Variable(name, cel.DynType))
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("environment error: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("parse error: %w", issues.Err())
	}

	program, err := env.Program(ast, cel.CostLimit(e.costLimit))
	if err != nil {
		return nil, fmt.Errorf("program generation error: %w", err)
	}

	e.cache[cacheKey] = program

	return program, nil
}

// ClearCache clears the compiled program cache
func (e *Evaluator) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]cel.Program)
}

// bindable drops variables CEL cannot name
func bindable(vars map[string]any) map[string]any {
	out := make(map[string]any, len(vars))
	for name, v := range vars {
		if identPattern.MatchString(name) {
			out[name] = v
		}
	}
	return out
}

// toNative converts a CEL value to plain Go values
func toNative(val ref.Val) any {
	if val == nil || val.Type() == types.NullType {
		return nil
	}

	switch v := val.(type) {
	case traits.Mapper:
		out := make(map[string]any)
		it := v.Iterator()
		for it.HasNext() == types.True {
			key := it.Next()
			out[fmt.Sprint(key.Value())] = toNative(v.Get(key))
		}
		return out
	case traits.Lister:
		var out []any
		it := v.Iterator()
		for it.HasNext() == types.True {
			out = append(out, toNative(it.Next()))
		}
		return out
	}

	return val.Value()
}
