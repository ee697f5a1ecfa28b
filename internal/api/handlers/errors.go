package handlers

import (
	"errors"
	"net/http"

	"github.com/dom/task-manager/internal/domain"
	"github.com/dom/task-manager/internal/httpx"
	"github.com/dom/task-manager/internal/service"
	"github.com/rs/zerolog/log"
)

// writeServiceError maps service and repository errors onto status codes.
// Anything unrecognised is logged and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		httpx.Error(w, http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, domain.ErrUsernameTaken):
		httpx.Error(w, http.StatusConflict, "Username already exists")
	case errors.Is(err, domain.ErrInvalidCredentials):
		httpx.Error(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, domain.ErrTaskNotFound):
		httpx.Error(w, http.StatusNotFound, "Task not found")
	case errors.Is(err, domain.ErrUserNotFound):
		httpx.Error(w, http.StatusNotFound, "User not found")
	default:
		log.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
		httpx.Error(w, http.StatusInternalServerError, httpx.InternalErrorMessage)
	}
}
