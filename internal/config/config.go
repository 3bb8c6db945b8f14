package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Store backends
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

// ErrInvalidConfig is returned when parsed settings do not fit together
var ErrInvalidConfig = errors.New("invalid config")

// Config is the server's environment-driven configuration
type Config struct {
	StoreType string `env:"ACCOUNTS_STORE_TYPE" envDefault:"memory"`

	RedisURL string `env:"ACCOUNTS_REDIS_URL" envDefault:"redis://localhost:6379"`

	MongoURI        string `env:"ACCOUNTS_MONGO_URI"        envDefault:"mongodb://localhost:27017"`
	MongoDatabase   string `env:"ACCOUNTS_MONGO_DATABASE"   envDefault:"network"`
	MongoCollection string `env:"ACCOUNTS_MONGO_COLLECTION" envDefault:"accounts"`

	PostgresURL string `env:"ACCOUNTS_POSTGRES_URL"`

	// CacheSpec bounds the online account cache, e.g. "maximumSize=500,expireAfterWrite=1d"
	CacheSpec string `env:"ACCOUNTS_CACHE_SPEC" envDefault:"maximumSize=1000"`

	RunnerMaxConcurrency int `env:"ACCOUNTS_RUNNER_MAX_CONCURRENCY" envDefault:"0"`

	HTTPPort int    `env:"ACCOUNTS_HTTP_PORT" envDefault:"8080"`
	LogLevel string `env:"ACCOUNTS_LOG_LEVEL" envDefault:"info"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads and validates the server configuration
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.StoreType = strings.ToLower(strings.TrimSpace(cfg.StoreType))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings the env tags cannot express
func (c Config) Validate() error {
	switch c.StoreType {
	case StoreMemory, StoreRedis, StoreMongo:
	case StorePostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("%w: ACCOUNTS_POSTGRES_URL required when store type is postgres", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store type %q", ErrInvalidConfig, c.StoreType)
	}

	if c.RunnerMaxConcurrency < 0 {
		return fmt.Errorf("%w: runner max concurrency must not be negative", ErrInvalidConfig)
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("%w: http port %d out of range", ErrInvalidConfig, c.HTTPPort)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.LogLevel)
	}
	return level, nil
}
