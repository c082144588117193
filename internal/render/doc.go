// Package render turns render requests into expanded documents.
//
// A request names a catalog template or carries inline content, plus the
// variables to expand it with. The mode defaults to the engine's configured
// mode and may be overridden per request.
//
// Example usage:
//
//	svc := render.NewService(engine, catalog, logger)
//
//	resp, err := svc.Render(ctx, &render.Request{
//	    TemplateID: "daily-note",
//	    Variables:  map[string]interface{}{"title": "Standup"},
//	    Mode:       render.ModeLenient,
//	})
//	if err != nil {
//	    log.Printf("render failed (%s): %v", render.ErrorKind(err), err)
//	}
package render
