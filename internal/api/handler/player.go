package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mcoot/playeraccounts/internal/api/apierr"
	"github.com/mcoot/playeraccounts/internal/api/request"
	"github.com/mcoot/playeraccounts/internal/api/response"
	"github.com/mcoot/playeraccounts/internal/model"
	"github.com/mcoot/playeraccounts/internal/resolver"
	"github.com/mcoot/playeraccounts/internal/runner"
)

// PlayerHandler handles account lookup endpoints
type PlayerHandler struct {
	resolver *resolver.Resolver
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(r *resolver.Resolver) *PlayerHandler {
	return &PlayerHandler{
		resolver: r,
	}
}

// Get handles GET /api/v1/players/{key}
// The key is either a UUID, with or without dashes, or a username.
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	var future *runner.Future[*model.Account]
	if id, err := uuid.Parse(key); err == nil {
		future = h.resolver.FetchByUUID(id)
	} else if model.ValidUsername(key) {
		future = h.resolver.FetchByUsername(key)
	} else {
		WriteError(w, apierr.NewInvalidUsernameError())
		return
	}

	account, err := future.Get(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	if account == nil {
		WriteError(w, apierr.NewAccountNotFoundError())
		return
	}

	response.JSON(w, http.StatusOK, response.AccountFromModel(account))
}

// SetRole handles PUT /api/v1/players/{uuid}/role
func (h *PlayerHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["uuid"])
	if err != nil {
		WriteError(w, apierr.NewInvalidUUIDError())
		return
	}

	var req request.SetRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	role, err := model.ParseRole(req.Role)
	if err != nil {
		WriteError(w, err)
		return
	}

	// Online players resolve to their cached account, so the change is
	// visible to the session straight away
	account, err := h.resolver.FetchByUUIDSync(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	if account == nil {
		WriteError(w, apierr.NewAccountNotFoundError())
		return
	}

	if _, err := h.resolver.SetRole(account, role).Get(r.Context()); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AccountFromModel(account))
}
