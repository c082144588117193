// Package starlark provides the default backend for template script blocks.
//
// Expression scripts are evaluated directly; statement scripts become the body of
// a function so that `return` yields the block's value. Every call gets its own
// thread, bounded by a step budget and cancelled with the caller's context.
//
// Example usage:
//
//	evaluator := starlark.NewEvaluator(0)
//
//	result, err := evaluator.Exec(ctx, `
//	total = 0
//	for t in tasks:
//	    total += t["estimate"]
//	return total
//	`, map[string]interface{}{"tasks": tasks})
//
// Template values are converted on the way in: JSON numbers without a fraction
// become ints, arrays become lists, objects become dicts, and dates become strings.
package starlark
