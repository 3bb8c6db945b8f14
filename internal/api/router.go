package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/playeraccounts/internal/api/handler"
	"github.com/mcoot/playeraccounts/internal/api/middleware"
	"github.com/mcoot/playeraccounts/internal/resolver"
	"github.com/mcoot/playeraccounts/internal/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger   *slog.Logger
	Resolver *resolver.Resolver
	Sessions *session.Manager
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	playerHandler := handler.NewPlayerHandler(cfg.Resolver)
	sessionHandler := handler.NewSessionHandler(cfg.Sessions)
	healthHandler := handler.NewHealthHandler(cfg.Resolver, cfg.Logger)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))

	api.HandleFunc("/health", healthHandler.Check).Methods(http.MethodGet)

	// Account lookups; the key is a UUID or a username
	api.HandleFunc("/players/{key}", playerHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/players/{uuid}/role", playerHandler.SetRole).Methods(http.MethodPut)

	// Session lifecycle
	api.HandleFunc("/sessions", sessionHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/sessions", sessionHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{uuid}", sessionHandler.Logout).Methods(http.MethodDelete)

	return r
}
