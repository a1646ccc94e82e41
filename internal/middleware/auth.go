package middleware

import (
	"errors"
	"net/http"

	"github.com/portfolio-cms/apiserver/internal/auth"
	"github.com/rs/zerolog"
)

// AccessTokenParser verifies access tokens.
type AccessTokenParser interface {
	ParseAccess(token string) (auth.Identity, error)
}

// RequireAuth rejects requests without a valid bearer access token and
// attaches the caller's identity to the request context.
func RequireAuth(tokens AccessTokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Access token required")
				return
			}

			identity, err := tokens.ParseAccess(raw)
			if err != nil {
				message := "Invalid token"
				if errors.Is(err, auth.ErrExpiredToken) {
					message = "Token expired"
				}
				zerolog.Ctx(r.Context()).Debug().Err(err).Msg("access token rejected")
				writeError(w, http.StatusUnauthorized, message)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireCapability admits callers whose role holds every bit of required.
// It must run after RequireAuth.
func RequireCapability(required auth.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Access token required")
				return
			}
			if !identity.Role.Can(required) {
				writeError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
