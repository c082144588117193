// Package catalog provides template storage behind the engine's include boundary.
//
// The engine only needs Reader; the full Catalog interface adds the create, list
// and search operations used by the CLI and the worker. Three implementations are
// provided:
//
//   - Memory: in-process map, used in tests and for inline template sets
//   - Redis: JSON values under prefixed keys (template:<id>)
//   - File: read-only directory of .md, .tmpl and .txt files with optional YAML
//     front matter
//
// Example usage:
//
//	c := catalog.NewFile("./templates")
//	t, err := c.Read(ctx, "notes/daily")
//	if errors.Is(err, catalog.ErrNotFound) {
//	    // ...
//	}
package catalog
