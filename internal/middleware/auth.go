package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/simplecrypto/server/internal/auth"
)

// sessionCookieName is the cookie carrying the signed session token.
const sessionCookieName = "token"

type contextKey string

const claimsContextKey contextKey = "session-claims"

// RequireAuth rejects requests without a valid session cookie and places
// the verified claims in the request context for downstream handlers.
func RequireAuth(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w, "authentication required")
				return
			}

			claims, err := tokens.Parse(cookie.Value)
			if err != nil {
				unauthorized(w, "invalid or expired session")
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFrom extracts the verified session claims placed by RequireAuth.
func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims, ok
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	//nolint:errcheck // Best effort response writing
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
