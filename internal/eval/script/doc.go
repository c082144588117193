// Package script executes `<% code %>` template blocks in a bounded sandbox.
//
// A block is classified first: a single line without assignments or statement
// keywords is an expression (a leading `return` is allowed and removed); anything
// else is a statement script whose value comes from an explicit `return`.
//
// The sandbox delegates to one backend selected by language:
//   - starlark (default): expressions and statements, step bounded
//   - cel: expressions only, cost bounded
//   - expr: expr-lang expressions and `let` programs
//
// Example usage:
//
//	sandbox, err := script.New(script.Options{Language: "starlark", Timeout: time.Second})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	v, err := sandbox.Execute(ctx, "return len(tasks)", vars)
package script
