package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v10"
	"github.com/redis/go-redis/v9"

	"github.com/aescanero/dago-node-template/internal/eval/script"
	"github.com/aescanero/dago-node-template/internal/eval/template"
)

// Catalog backends
const (
	CatalogRedis  = "redis"
	CatalogFile   = "file"
	CatalogMemory = "memory"
)

// Config holds all configuration for the template worker
type Config struct {
	// Worker configuration
	WorkerID string `env:"WORKER_ID" envDefault:"template-1"`

	// Redis configuration
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASS" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Stream configuration
	StreamKey     string        `env:"STREAM_KEY" envDefault:"template.render"`
	ConsumerGroup string        `env:"CONSUMER_GROUP" envDefault:"template-workers"`
	ResultStream  string        `env:"RESULT_STREAM" envDefault:"template.rendered"`
	BlockTime     time.Duration `env:"BLOCK_TIME" envDefault:"1s"`
	MaxRetries    int           `env:"MAX_RETRIES" envDefault:"3"`

	// Engine limits
	MaxDepth      int  `env:"MAX_DEPTH" envDefault:"10"`
	MaxInclusions int  `env:"MAX_INCLUSIONS" envDefault:"50"`
	MaxIterations int  `env:"MAX_ITERATIONS" envDefault:"100"`
	StrictMode    bool `env:"STRICT_MODE" envDefault:"true"`

	// Script configuration
	ScriptsEnabled bool          `env:"SCRIPTS_ENABLED" envDefault:"true"`
	ScriptLanguage string        `env:"SCRIPT_LANGUAGE" envDefault:"starlark"`
	ScriptMaxSteps uint64        `env:"SCRIPT_MAX_STEPS" envDefault:"1000000"`
	ScriptTimeout  time.Duration `env:"SCRIPT_TIMEOUT" envDefault:"5s"`

	// Catalog configuration
	CatalogBackend string `env:"CATALOG_BACKEND" envDefault:"redis"`
	CatalogDir     string `env:"CATALOG_DIR" envDefault:"./templates"`
	CatalogPrefix  string `env:"CATALOG_PREFIX" envDefault:"template:"`

	// Health check configuration
	HealthPort int `env:"HEALTH_PORT" envDefault:"8082"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// ConfigFile is the optional TOML file read before the environment
	ConfigFile string `env:"CONFIG_FILE"`
}

// Load loads configuration from CONFIG_FILE, if set, and environment
// variables. Environment variables take precedence over the file.
func Load() (*Config, error) {
	return load(environMap(os.Environ()))
}

func environMap(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out
}

func load(environ map[string]string) (*Config, error) {
	merged := environ
	if path := environ["CONFIG_FILE"]; path != "" {
		fromFile, err := readFile(path)
		if err != nil {
			return nil, err
		}
		merged = make(map[string]string, len(fromFile)+len(environ))
		for k, v := range fromFile {
			merged[k] = v
		}
		for k, v := range environ {
			merged[k] = v
		}
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: merged}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// readFile decodes a TOML file into environment variable assignments.
// Keys are upper-cased and tables are flattened with underscores, so
// `[redis] addr = "..."` sets REDIS_ADDR.
func readFile(path string) (map[string]string, error) {
	var raw map[string]interface{}
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	out := make(map[string]string)
	flatten("", raw, out)
	return out, nil
}

func flatten(prefix string, raw map[string]interface{}, out map[string]string) {
	for k, v := range raw {
		key := strings.ToUpper(k)
		if prefix != "" {
			key = prefix + "_" + key
		}

		switch t := v.(type) {
		case map[string]interface{}:
			flatten(key, t, out)
		case []interface{}:
			parts := make([]string, len(t))
			for i, item := range t {
				parts[i] = fmt.Sprint(item)
			}
			out[key] = strings.Join(parts, ",")
		default:
			out[key] = fmt.Sprint(t)
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.WorkerID == "" {
		return fmt.Errorf("WORKER_ID is required")
	}

	if c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}

	if c.StreamKey == "" {
		return fmt.Errorf("STREAM_KEY is required")
	}

	if c.ConsumerGroup == "" {
		return fmt.Errorf("CONSUMER_GROUP is required")
	}

	if c.ResultStream == "" {
		return fmt.Errorf("RESULT_STREAM is required")
	}

	if c.BlockTime <= 0 {
		return fmt.Errorf("BLOCK_TIME must be positive")
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must be non-negative")
	}

	if c.MaxDepth <= 0 {
		return fmt.Errorf("MAX_DEPTH must be positive")
	}

	if c.MaxInclusions <= 0 {
		return fmt.Errorf("MAX_INCLUSIONS must be positive")
	}

	if c.MaxIterations <= 0 {
		return fmt.Errorf("MAX_ITERATIONS must be positive")
	}

	if !oneOf(c.ScriptLanguage, script.LanguageStarlark, script.LanguageCEL, script.LanguageExpr) {
		return fmt.Errorf("SCRIPT_LANGUAGE must be one of: starlark, cel, expr")
	}

	if c.ScriptTimeout <= 0 {
		return fmt.Errorf("SCRIPT_TIMEOUT must be positive")
	}

	if !oneOf(c.CatalogBackend, CatalogRedis, CatalogFile, CatalogMemory) {
		return fmt.Errorf("CATALOG_BACKEND must be one of: redis, file, memory")
	}

	if c.CatalogBackend == CatalogFile && c.CatalogDir == "" {
		return fmt.Errorf("CATALOG_DIR is required for the file catalog")
	}

	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("HEALTH_PORT must be between 1 and 65535")
	}

	if !isValidLogLevel(c.LogLevel) {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	return nil
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// isValidLogLevel checks if the log level is valid
func isValidLogLevel(level string) bool {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	return validLevels[level]
}

// RedisOptions returns Redis client options
func (c *Config) RedisOptions() *redis.Options {
	return &redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// EngineOptions returns the template engine limits and mode
func (c *Config) EngineOptions() template.Options {
	return template.Options{
		MaxDepth:      c.MaxDepth,
		MaxInclusions: c.MaxInclusions,
		MaxIterations: c.MaxIterations,
		StrictMode:    c.StrictMode,
	}
}

// ScriptOptions returns the script sandbox options
func (c *Config) ScriptOptions() script.Options {
	return script.Options{
		Language: c.ScriptLanguage,
		MaxSteps: c.ScriptMaxSteps,
		Timeout:  c.ScriptTimeout,
	}
}

// String returns a string representation of the config (without sensitive data)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{WorkerID=%s, RedisAddr=%s, RedisDB=%d, StreamKey=%s, ConsumerGroup=%s, "+
			"MaxDepth=%d, MaxInclusions=%d, MaxIterations=%d, StrictMode=%v, "+
			"ScriptsEnabled=%v, ScriptLanguage=%s, CatalogBackend=%s, HealthPort=%d, LogLevel=%s}",
		c.WorkerID,
		c.RedisAddr,
		c.RedisDB,
		c.StreamKey,
		c.ConsumerGroup,
		c.MaxDepth,
		c.MaxInclusions,
		c.MaxIterations,
		c.StrictMode,
		c.ScriptsEnabled,
		c.ScriptLanguage,
		c.CatalogBackend,
		c.HealthPort,
		c.LogLevel,
	)
}
