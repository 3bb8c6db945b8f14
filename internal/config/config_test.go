package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.StoreType)
	assert.Equal(t, "network", cfg.MongoDatabase)
	assert.Equal(t, "accounts", cfg.MongoCollection)
	assert.Equal(t, "maximumSize=1000", cfg.CacheSpec)
	assert.Equal(t, 8080, cfg.HTTPPort)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ACCOUNTS_STORE_TYPE", " Redis ")
	t.Setenv("ACCOUNTS_REDIS_URL", "redis://cache:6379/2")
	t.Setenv("ACCOUNTS_CACHE_SPEC", "maximumSize=10,expireAfterWrite=1d")
	t.Setenv("ACCOUNTS_RUNNER_MAX_CONCURRENCY", "4")
	t.Setenv("ACCOUNTS_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreRedis, cfg.StoreType)
	assert.Equal(t, "redis://cache:6379/2", cfg.RedisURL)
	assert.Equal(t, "maximumSize=10,expireAfterWrite=1d", cfg.CacheSpec)
	assert.Equal(t, 4, cfg.RunnerMaxConcurrency)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("ACCOUNTS_HTTP_PORT", "not-an-int")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{StoreType: StoreMemory, HTTPPort: 8080, LogLevel: "info"}
	}

	cases := map[string]func(c *Config){
		"unknown store":        func(c *Config) { c.StoreType = "cassandra" },
		"postgres without url": func(c *Config) { c.StoreType = StorePostgres },
		"negative runner":      func(c *Config) { c.RunnerMaxConcurrency = -1 },
		"port out of range":    func(c *Config) { c.HTTPPort = 70000 },
		"bad log level":        func(c *Config) { c.LogLevel = "chatty" },
	}

	require.NoError(t, base().Validate())

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base()
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
