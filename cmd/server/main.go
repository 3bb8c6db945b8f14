package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcoot/playeraccounts/internal/api"
	"github.com/mcoot/playeraccounts/internal/config"
	"github.com/mcoot/playeraccounts/internal/factory"
)

// drainTimeout bounds how long shutdown waits for queued account writes
const drainTimeout = 30 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return 1
	}

	// Validate has already checked the level
	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	appCfg, err := factory.FromEnvConfig(cfg, logger)
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		return 1
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := factory.New(ctx, appCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		return 1
	}

	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:   logger,
		Resolver: app.Resolver,
		Sessions: app.Sessions,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)

	serverConfig := api.DefaultServerConfig()
	serverConfig.Port = cfg.HTTPPort
	server := api.NewServer(mux, serverConfig, logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("store", cfg.StoreType),
	)

	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			exitCode = 1
		}
	}

	// Stop taking requests first, then let queued writes reach the store
	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := app.Close(drainCtx); err != nil {
		logger.Error("failed to release resources", slog.String("error", err.Error()))
		exitCode = 1
	}

	logger.Info("server stopped")
	return exitCode
}
