// Package config provides configuration management for the template worker.
//
// Configuration is loaded from environment variables and validated on startup.
// When CONFIG_FILE names a TOML file, its keys are read first and the
// environment overrides them. Tables flatten into underscore-joined names:
//
//	worker_id = "template-2"
//	max_depth = 5
//
//	[catalog]
//	backend = "file"   # CATALOG_BACKEND
//	dir = "/templates" # CATALOG_DIR
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	engine := template.New(template.WithOptions(cfg.EngineOptions()))
package config
