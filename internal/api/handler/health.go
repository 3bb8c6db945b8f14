package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/playeraccounts/internal/api/apierr"
	"github.com/mcoot/playeraccounts/internal/api/response"
	"github.com/mcoot/playeraccounts/internal/resolver"
)

// HealthHandler reports whether the account store is reachable
type HealthHandler struct {
	resolver *resolver.Resolver
	logger   *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(r *resolver.Resolver, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		resolver: r,
		logger:   logger,
	}
}

// Check handles GET /api/v1/health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if err := h.resolver.Ping(r.Context()); err != nil {
		h.logger.Warn("health check failed", slog.String("error", err.Error()))
		WriteError(w, apierr.NewStoreUnavailableError())
		return
	}
	response.JSON(w, http.StatusOK, response.Health{
		Status: "ok",
		Store:  "reachable",
		Online: len(h.resolver.CachedAccounts()),
	})
}
