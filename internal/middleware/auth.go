package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"sahaayak/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const IdentityKey contextKey = "identity"

// SessionValidator resolves a bearer token to the identity of a live session
type SessionValidator interface {
	CurrentUser(ctx context.Context, token string) (*domain.Identity, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// AuthMiddleware validates session tokens and stores the caller's identity in the request context
func AuthMiddleware(sessions SessionValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				logger.Debug("Missing authorization header")
				RespondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			token, ok := BearerToken(r)
			if !ok {
				logger.Debug("Invalid authorization header format")
				RespondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			identity, err := sessions.CurrentUser(r.Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrStoreUnavailable) {
					RespondWithDomainError(w, r, logger, err)
					return
				}
				logger.Debug("Token validation failed", zap.Error(err))
				RespondWithError(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}

			logger.Debug("User authenticated",
				zap.String("user_id", identity.ID.String()),
				zap.String("role", string(identity.Role)),
			)

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), *identity)))
		})
	}
}

// WithIdentity returns a copy of ctx carrying identity
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// GetIdentity extracts the authenticated identity from request context
func GetIdentity(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(domain.Identity)
	return identity, ok
}

// GetUserID extracts user ID from request context
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	identity, ok := GetIdentity(ctx)
	return identity.ID, ok
}

// GetUserRole extracts user role from request context
func GetUserRole(ctx context.Context) (domain.Role, bool) {
	identity, ok := GetIdentity(ctx)
	return identity.Role, ok
}
