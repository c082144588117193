// Package expr evaluates expr-lang expressions for template scripts and loop arithmetic.
package expr

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Evaluator compiles and runs expr-lang programs, caching compiled programs by
// expression and variable signature.
type Evaluator struct {
	cache map[string]*vm.Program
	mu    sync.RWMutex
}

// NewEvaluator creates a new expr-lang evaluator
func NewEvaluator() *Evaluator {
	return &Evaluator{cache: make(map[string]*vm.Program)}
}

// Eval evaluates a single expression against env
func (e *Evaluator) Eval(ctx context.Context, expression string, env map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	program, err := e.compile(expression, env)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expression, err)
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("eval %q: %w", expression, err)
	}

	return result, nil
}

// Exec runs a statement script. expr-lang programs are expressions with optional
// `let` bindings, so a statement like `let n = 2; return n * 3` is evaluated with
// its return keyword removed.
func (e *Evaluator) Exec(ctx context.Context, statement string, env map[string]any) (any, error) {
	return e.Eval(ctx, stripReturn(statement), env)
}

// ClearCache drops all compiled programs
func (e *Evaluator) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]*vm.Program)
}

func (e *Evaluator) compile(expression string, env map[string]any) (*vm.Program, error) {
	cacheKey := expression + "\x00" + envSignature(env)

	e.mu.RLock()
	if program, ok := e.cache[cacheKey]; ok {
		e.mu.RUnlock()
		return program, nil
	}
	e.mu.RUnlock()

	program, err := expr.Compile(expression, expr.Env(env))
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if existing, ok := e.cache[cacheKey]; ok {
		e.mu.Unlock()
		return existing, nil
	}
	e.cache[cacheKey] = program
	e.mu.Unlock()

	return program, nil
}

// envSignature identifies the variable names and their Go types, which expr-lang
// bakes into compiled programs.
func envSignature(env map[string]any) string {
	if len(env) == 0 {
		return ""
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s:%T;", k, env[k])
	}
	return b.String()
}

func stripReturn(statement string) string {
	parts := strings.Split(strings.TrimSpace(statement), ";")
	for i, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "return" {
			parts[i] = ""
			continue
		}
		if strings.HasPrefix(trimmed, "return ") || strings.HasPrefix(trimmed, "return(") {
			parts[i] = " " + strings.TrimSpace(strings.TrimPrefix(trimmed, "return"))
		}
	}

	// drop empty trailing segments left by a closing semicolon
	for len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, ";")
}
