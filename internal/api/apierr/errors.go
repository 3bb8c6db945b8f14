package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/playeraccounts/internal/model"
	"github.com/mcoot/playeraccounts/internal/resolver"
	"github.com/mcoot/playeraccounts/internal/runner"
	"github.com/mcoot/playeraccounts/internal/session"
	"github.com/mcoot/playeraccounts/internal/storage"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeInvalidUsername  = "INVALID_USERNAME"
	CodeInvalidUUID      = "INVALID_UUID"
	CodeInvalidRole      = "INVALID_ROLE"
	CodeAccountNotFound  = "ACCOUNT_NOT_FOUND"
	CodeNotOnline        = "NOT_ONLINE"
	CodeShuttingDown     = "SHUTTING_DOWN"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeInternalError    = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrInvalidRole):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRole, "Unknown role, expected one of " + model.RoleNames()}}
	case errors.Is(err, resolver.ErrIdentityMode):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "Exactly one of uuid or username is required"}}
	case errors.Is(err, session.ErrNotOnline):
		return &httpError{http.StatusNotFound, APIError{CodeNotOnline, "Player is not online"}}
	case errors.Is(err, runner.ErrRunnerClosed):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeShuttingDown, "Server is shutting down"}}
	case errors.Is(err, model.ErrMalformedDocument):
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	case errors.Is(err, storage.ErrUnavailable):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeStoreUnavailable, "Account store unavailable"}}
	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInvalidUsernameError is returned for lookup keys that are neither a UUID
// nor a valid username
func NewInvalidUsernameError() error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidUsername, "Invalid username provided"}}
}

// NewInvalidUUIDError creates an invalid uuid error
func NewInvalidUUIDError() error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidUUID, "Invalid uuid provided"}}
}

// NewAccountNotFoundError creates an account not found error
func NewAccountNotFoundError() error {
	return &httpError{http.StatusNotFound, APIError{CodeAccountNotFound, "Account not found"}}
}

// NewStoreUnavailableError is returned when the account store cannot be reached
func NewStoreUnavailableError() error {
	return &httpError{http.StatusServiceUnavailable, APIError{CodeStoreUnavailable, "Account store unavailable"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
