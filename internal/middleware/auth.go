package middleware

import (
	"context"
	"net/http"

	"github.com/hageshiame/light-heart/internal/apperr"
	"github.com/hageshiame/light-heart/internal/service"
	"github.com/hageshiame/light-heart/internal/utils"
)

// Context keys
type contextKey string

const playerContextKey = contextKey("player")

// Auth validates the bearer token and injects the session claims into the
// request context. Handlers downstream can assume an authenticated player.
func Auth(accounts *service.AccountService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := utils.BearerToken(r)
			if token == "" {
				utils.WriteError(w, apperr.Auth("MISSING_TOKEN", "authorization token is required"))
				return
			}

			claims, err := accounts.Authenticate(token)
			if err != nil {
				utils.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), playerContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PlayerFromContext returns the authenticated session claims, or nil when
// the route skipped the auth middleware.
func PlayerFromContext(r *http.Request) *service.SessionClaims {
	claims, _ := r.Context().Value(playerContextKey).(*service.SessionClaims)
	return claims
}

// RequireOwnership rejects a request whose body or path names a player
// other than the authenticated one.
func RequireOwnership(r *http.Request, playerID string) error {
	claims := PlayerFromContext(r)
	if claims == nil {
		return apperr.Auth("MISSING_TOKEN", "authorization token is required")
	}
	if claims.PlayerID != playerID {
		return apperr.Forbidden("NOT_OWNER", "cannot act on another player's data")
	}
	return nil
}
