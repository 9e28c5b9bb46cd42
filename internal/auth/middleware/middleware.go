// Package middleware guards routes with JWT validation and permission checks.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/GabrielSchiavo/smartstock-sub002/internal/auth/jwt"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/actor"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/errors"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/httputil"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/logger"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/permissions"
)

type contextKey string

const claimsContextKey contextKey = "auth_claims"

// Middleware provides authentication middleware backed by a JWT manager.
type Middleware struct {
	manager *jwt.Manager
	logger  *logger.Logger
}

// New creates a new auth middleware.
func New(manager *jwt.Manager, log *logger.Logger) *Middleware {
	return &Middleware{manager: manager, logger: log}
}

// Authenticate validates the bearer token and attaches the actor to the context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.ErrorLocalized(w, r, errors.Unauthorized("missing authorization header"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.ErrorLocalized(w, r, errors.Unauthorized("invalid authorization header format"))
			return
		}

		claims, err := m.manager.ValidateAccessToken(parts[1])
		if err != nil {
			m.logger.Debug().Err(err).Msg("token validation failed")
			httputil.ErrorLocalized(w, r, err)
			return
		}

		ctx := actor.WithActor(r.Context(), &actor.Actor{
			ID:       claims.UserID,
			Name:     claims.Name,
			Email:    claims.Email,
			RoleName: claims.Role,
		})
		ctx = httputil.WithUserContext(ctx, claims.UserID, claims.Email, claims.Role)
		ctx = withClaims(ctx, claims)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission rejects requests whose token lacks the given permission.
// Authenticate must run earlier in the chain.
func (m *Middleware) RequirePermission(required string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				httputil.ErrorLocalized(w, r, errors.Unauthorized("not authenticated"))
				return
			}

			if !permissions.HasPermission(claims.Permissions, required) {
				m.logger.Debug().
					Str("user_id", claims.UserID).
					Str("permission", required).
					Msg("permission denied")
				httputil.ErrorLocalized(w, r, errors.Forbidden("insufficient permissions"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func withClaims(ctx context.Context, claims *jwt.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext retrieves the validated claims from the context.
// Returns nil when the request was not authenticated.
func ClaimsFromContext(ctx context.Context) *jwt.Claims {
	claims, ok := ctx.Value(claimsContextKey).(*jwt.Claims)
	if !ok {
		return nil
	}
	return claims
}
