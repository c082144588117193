package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aescanero/dago-node-template/internal/catalog"
	"github.com/aescanero/dago-node-template/internal/config"
	"github.com/aescanero/dago-node-template/internal/eval/script"
	"github.com/aescanero/dago-node-template/internal/eval/template"
	"github.com/aescanero/dago-node-template/internal/render"
	"github.com/aescanero/dago-node-template/internal/worker"
)

var (
	// Version is set at build time
	Version = "dev"
	// BuildTime is set at build time
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting template worker",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("worker_id", cfg.WorkerID),
	)

	// Log configuration (without sensitive data)
	logger.Info("configuration loaded", zap.String("config", cfg.String()))

	// Initialize Redis client
	redisClient := redis.NewClient(cfg.RedisOptions())

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))

	// Initialize template catalog
	templates, err := initCatalog(cfg, redisClient, logger)
	if err != nil {
		logger.Fatal("failed to initialize catalog", zap.Error(err))
	}
	logger.Info("catalog initialized", zap.String("backend", cfg.CatalogBackend))

	// Initialize engine
	engineOpts := []template.Option{
		template.WithOptions(cfg.EngineOptions()),
		template.WithCatalog(templates),
		template.WithLogger(logger.Named("template")),
	}
	if cfg.ScriptsEnabled {
		scriptOpts := cfg.ScriptOptions()
		scriptOpts.Logger = logger.Named("script")
		sandbox, err := script.New(scriptOpts)
		if err != nil {
			logger.Fatal("failed to initialize script sandbox", zap.Error(err))
		}
		engineOpts = append(engineOpts, template.WithScriptEvaluator(sandbox))
		logger.Info("script sandbox initialized", zap.String("language", sandbox.Language()))
	} else {
		logger.Warn("script blocks disabled")
	}
	engine := template.New(engineOpts...)

	service := render.NewService(engine, templates, logger.Named("render"))

	// Initialize worker
	w := worker.NewWorker(cfg, redisClient, service, logger)

	// Start worker
	if err := w.Start(); err != nil {
		logger.Fatal("failed to start worker", zap.Error(err))
	}

	// Start health server
	healthServer := worker.NewHealthServer(cfg.HealthPort, redisClient, logger)
	healthServer.AddCheck("catalog", func(ctx context.Context) error {
		_, err := templates.List(ctx)
		return err
	})
	if err := healthServer.Start(); err != nil {
		logger.Fatal("failed to start health server", zap.Error(err))
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("template worker running, press Ctrl+C to stop")
	<-sigChan

	logger.Info("shutdown signal received, stopping worker")

	// Stop health server
	if err := healthServer.Stop(); err != nil {
		logger.Error("failed to stop health server", zap.Error(err))
	}

	// Stop worker
	if err := w.Stop(10 * time.Second); err != nil {
		logger.Error("failed to stop worker", zap.Error(err))
	}

	// Close Redis connection
	if err := redisClient.Close(); err != nil {
		logger.Error("failed to close redis connection", zap.Error(err))
	}

	logger.Info("worker stopped")
}

// initLogger initializes the logger
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}

// initCatalog creates the configured template catalog
func initCatalog(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) (catalog.Catalog, error) {
	switch cfg.CatalogBackend {
	case config.CatalogRedis:
		return catalog.NewRedis(redisClient, cfg.CatalogPrefix, logger.Named("catalog")), nil
	case config.CatalogFile:
		info, err := os.Stat(cfg.CatalogDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open catalog dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("catalog dir %s is not a directory", cfg.CatalogDir)
		}
		return catalog.NewFile(cfg.CatalogDir), nil
	case config.CatalogMemory:
		return catalog.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown catalog backend: %s", cfg.CatalogBackend)
}
