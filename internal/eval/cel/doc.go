// Package cel provides a CEL (Common Expression Language) backend for template script blocks.
//
// CEL is a non-Turing complete expression language that provides fast, safe evaluation
// of single expressions. It only evaluates expression scripts; statement scripts are
// rejected.
//
// Example usage:
//
//	evaluator := cel.NewEvaluator(0)
//
//	vars := map[string]interface{}{
//	    "title":    "Weekly review",
//	    "priority": 2.0,
//	}
//
//	result, err := evaluator.Eval(ctx, "title.upperAscii() + (priority > 1.0 ? '!' : '')", vars)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// result: "WEEKLY REVIEW!"
//
// Supported operations:
//   - Comparisons: ==, !=, <, <=, >, >= (numeric types compare across int and double)
//   - Boolean logic: &&, ||, !
//   - String operations: contains, startsWith, endsWith, matches, upperAscii, split, ...
//   - Arithmetic: +, -, *, /, % (operands must share a numeric type)
//   - List operations: in, size, map, filter, exists, all
//   - Map access: note.field, note["field"]
//
// Template variables arrive as JSON numbers (double); write literals as 1.0 when
// mixing them with variables in arithmetic.
package cel
