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
	"github.com/mcoot/playeraccounts/internal/session"
)

// SessionHandler handles player session endpoints
type SessionHandler struct {
	sessions *session.Manager
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *session.Manager) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
	}
}

// List handles GET /api/v1/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.SessionsFromModel(h.sessions.Online()))
}

// Login handles POST /api/v1/sessions
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	id, err := uuid.Parse(req.UUID)
	if err != nil {
		WriteError(w, apierr.NewInvalidUUIDError())
		return
	}
	if !model.ValidUsername(req.Name) {
		WriteError(w, apierr.NewInvalidUsernameError())
		return
	}

	account, err := h.sessions.Login(r.Context(), session.LoginRequest{
		UUID:    id,
		Name:    req.Name,
		Address: req.Address,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, "/api/v1/sessions/"+id.String(), response.AccountFromModel(account))
}

// Logout handles DELETE /api/v1/sessions/{uuid}
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["uuid"])
	if err != nil {
		WriteError(w, apierr.NewInvalidUUIDError())
		return
	}

	if _, err := h.sessions.Grab(id); err != nil {
		WriteError(w, err)
		return
	}

	h.sessions.Quit(id)
	response.NoContent(w)
}
