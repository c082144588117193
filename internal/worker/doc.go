// Package worker implements the template worker lifecycle and Redis Streams integration.
//
// The worker joins a consumer group on the request stream, renders each
// request with a render.Service, and publishes the document to the result
// stream or an error event to "<result stream>.errors". Every message is
// acknowledged once handled.
//
// Example usage:
//
//	cfg, _ := config.Load()
//	redisClient := redis.NewClient(cfg.RedisOptions())
//	service := render.NewService(engine, templates, logger)
//
//	worker := worker.NewWorker(cfg, redisClient, service, logger)
//	if err := worker.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer worker.Stop(10 * time.Second)
//
// A request message carries its JSON in the "data" field:
//
//	XADD template.render * data '{"template_id":"daily","variables":{"title":"Standup"}}'
//
// Health checks are provided via a separate HTTP server:
//
//	healthServer := worker.NewHealthServer(8082, redisClient, logger)
//	healthServer.AddCheck("catalog", func(ctx context.Context) error { ... })
//	healthServer.Start()
//	defer healthServer.Stop()
package worker
