// Package template expands note templates into documents.
//
// A template may contain placeholders, includes, conditionals, loops, comments
// and script blocks. Each call to Process runs, in order: comment stripping,
// include resolution (recursive), conditional expansion, loop expansion, script
// execution, and placeholder resolution repeated until a pass resolves nothing.
//
// Example usage:
//
//	engine := template.New(
//	    template.WithCatalog(catalog.NewFile("./templates")),
//	    template.WithLogger(logger),
//	)
//
//	vars := map[string]interface{}{
//	    "title": "weekly review",
//	    "tasks": []interface{}{
//	        map[string]interface{}{"name": "Ship", "done": true},
//	        map[string]interface{}{"name": "Plan", "done": false},
//	    },
//	}
//
//	content := `{{include:header:kind="review"}}
//	# {{title | title}} ({{today.format('EEEE')}})
//	{{#each tasks as task}}{{@index + 1}}. {{task.name}}{{#if task.done}} ✓{{/if}}
//	{{/each}}{{owner || "unassigned"}}`
//
//	result, err := engine.Process(ctx, content, vars)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Directive syntax:
//
//	{{ expr }}                        placeholder: dotted path, literal or method call
//	{{ expr || "default" }}           fallback when expr is missing or null
//	{{ expr | filter(a, b) | other }} filter chain, applied left to right
//	{{include:id}}                    include another template
//	{{include:id:k=v,k2="a,b"}}       include with local variables
//	{{#if expr}}…{{else if expr}}…{{else}}…{{/if}}
//	{{#each expr [as alias]}}…{{/each}}   binds this, @index, @first, @last, @length
//	<%# comment %>                    removed before anything else
//	<% code %>                        script block, run by the configured evaluator
//
// Conditions support ==, !=, ===, !==, <, >, <=, >=, &&, ||, !, and, or, not and
// parentheses; numeric strings compare as numbers.
//
// In strict mode (the default) the first failing directive aborts the call. In
// lenient mode missing templates, unresolved variables, unknown or failing
// filters and failing scripts leave their directive text in the output.
// Include cycles and the depth, inclusion and iteration limits fail in both modes.
package template
