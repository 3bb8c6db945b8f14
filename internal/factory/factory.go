package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/playeraccounts/internal/cache"
	"github.com/mcoot/playeraccounts/internal/config"
	"github.com/mcoot/playeraccounts/internal/dependencies/clock"
	"github.com/mcoot/playeraccounts/internal/resolver"
	"github.com/mcoot/playeraccounts/internal/runner"
	"github.com/mcoot/playeraccounts/internal/session"
	"github.com/mcoot/playeraccounts/internal/storage"
	"github.com/mcoot/playeraccounts/internal/storage/memory"
	mongostorage "github.com/mcoot/playeraccounts/internal/storage/mongo"
	pgstorage "github.com/mcoot/playeraccounts/internal/storage/postgres"
	redisstorage "github.com/mcoot/playeraccounts/internal/storage/redis"
)

// App contains all wired application components
type App struct {
	Store storage.DocumentStore
	Clock clock.Clock

	Cache    *cache.Cache
	Runner   *runner.Runner
	Resolver *resolver.Resolver
	Sessions *session.Manager
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StoreType selects the document store backend
	// If empty, defaults to "memory"
	StoreType string

	// Backend settings, required for the matching StoreType
	RedisConfig *redisstorage.Config
	MongoConfig *mongostorage.Config
	PostgresURL string

	Cache  cache.Config
	Runner runner.Config
}

// FromEnvConfig translates the server's environment configuration
func FromEnvConfig(env config.Config, logger *slog.Logger) (Config, error) {
	cacheCfg, err := cache.ParseSpec(env.CacheSpec)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Logger:      logger,
		StoreType:   env.StoreType,
		PostgresURL: env.PostgresURL,
		Cache:       cacheCfg,
		Runner:      runner.Config{MaxConcurrency: env.RunnerMaxConcurrency},
	}

	switch env.StoreType {
	case config.StoreRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = env.RedisURL
		cfg.RedisConfig = &redisCfg
	case config.StoreMongo:
		mongoCfg := mongostorage.DefaultConfig()
		mongoCfg.URI = env.MongoURI
		mongoCfg.Database = env.MongoDatabase
		mongoCfg.Collection = env.MongoCollection
		cfg.MongoConfig = &mongoCfg
	}

	return cfg, nil
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("document store ready", slog.String("type", storeType(cfg)))

	return newWithDependencies(store, clock.New(), cfg.Cache, cfg.Runner, logger), nil
}

func storeType(cfg Config) string {
	if cfg.StoreType == "" {
		return config.StoreMemory
	}
	return cfg.StoreType
}

func newStore(ctx context.Context, cfg Config) (storage.DocumentStore, error) {
	switch storeType(cfg) {
	case config.StoreMemory:
		return memory.New(), nil
	case config.StoreRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StoreType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case config.StoreMongo:
		if cfg.MongoConfig == nil {
			return nil, errors.New("MongoConfig required when StoreType is mongo")
		}
		return mongostorage.New(ctx, *cfg.MongoConfig)
	case config.StorePostgres:
		if cfg.PostgresURL == "" {
			return nil, errors.New("PostgresURL required when StoreType is postgres")
		}
		return pgstorage.New(ctx, cfg.PostgresURL)
	default:
		return nil, fmt.Errorf("invalid StoreType %q: must be memory, redis, mongo or postgres", cfg.StoreType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.DocumentStore, clk clock.Clock, cacheCfg cache.Config, runnerCfg runner.Config, logger *slog.Logger) *App {
	accountCache := cache.New(cacheCfg, logger)
	taskRunner := runner.New(runnerCfg, logger)
	res := resolver.New(store, accountCache, taskRunner, logger)

	return &App{
		Store:    store,
		Clock:    clk,
		Cache:    accountCache,
		Runner:   taskRunner,
		Resolver: res,
		Sessions: session.NewManager(res, clk, logger),
	}
}

// Close drains outstanding background writes and then releases the store
func (a *App) Close(ctx context.Context) error {
	runnerErr := a.Runner.Shutdown(ctx)
	storeErr := a.Store.Close()
	return errors.Join(runnerErr, storeErr)
}
