package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dom/task-manager/internal/domain"
	"github.com/dom/task-manager/internal/httpx"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	UserKey contextKey = "user"
)

// AuthUser is the identity attached to authenticated requests.
type AuthUser struct {
	ID       string
	Username string
}

// Authenticator verifies tokens and resolves the user they belong to.
type Authenticator interface {
	ValidateToken(token string) (string, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}

// Auth rejects requests without a Bearer token (401), with an invalid or
// expired token (403), or whose user no longer exists (401).
func Auth(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				httpx.Error(w, http.StatusUnauthorized, "Access token required")
				return
			}

			user, status, msg := Resolve(r.Context(), authenticator, token)
			if user == nil {
				httpx.Error(w, status, msg)
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, *user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Resolve verifies token and loads its user. On failure it returns the
// status and message to send.
func Resolve(ctx context.Context, authenticator Authenticator, token string) (*AuthUser, int, string) {
	userID, err := authenticator.ValidateToken(token)
	if err != nil {
		log.Debug().Err(err).Msg("Token verification failed")
		return nil, http.StatusForbidden, "Invalid or expired token"
	}

	user, err := authenticator.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			log.Warn().Str("user_id", userID).Msg("Token references unknown user")
			return nil, http.StatusUnauthorized, "Invalid token - user not found"
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load user for token")
		return nil, http.StatusInternalServerError, httpx.InternalErrorMessage
	}

	return &AuthUser{ID: user.ID, Username: user.Username}, 0, ""
}

func GetUser(ctx context.Context) (AuthUser, bool) {
	user, ok := ctx.Value(UserKey).(AuthUser)
	return user, ok
}
