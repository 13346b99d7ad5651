// Package middleware provides HTTP middleware components for the API.
package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/simplecrypto/server/internal/models"
	"github.com/simplecrypto/server/internal/repository"
)

const idempotencyKeyHeader = "Idempotency-Key"

// idempotentPaths defines which paths require idempotency handling
//
// Only mutating money movements (POST) need idempotency
var idempotentPaths = []string{
	"/api/withdraw",
	"/api/invest/payment/verify",
}

type responseCapture struct {
	http.ResponseWriter
	body       bytes.Buffer
	statusCode int
}

func newResponseCapture(w http.ResponseWriter) *responseCapture {
	return &responseCapture{
		ResponseWriter: w,
		statusCode:     http.StatusOK, // Default if WriteHeader not called
	}
}

func (rc *responseCapture) WriteHeader(code int) {
	rc.statusCode = code
	rc.ResponseWriter.WriteHeader(code)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	rc.body.Write(b) // Capture for caching
	return rc.ResponseWriter.Write(b)
}

// Idempotency creates middleware that handles idempotent request caching.
// Clients may retry a withdrawal submission with the same Idempotency-Key
// and receive the original response instead of a second debit.
//
// Cache entries are scoped to the authenticated account so one caller's
// key can never replay another caller's response. The middleware must be
// mounted inside RequireAuth; without verified claims in the context the
// request runs normally and nothing is cached.
func Idempotency(store repository.IdempotencyStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requiresIdempotency(r) {
				next.ServeHTTP(w, r)
				return
			}

			idempotencyKey := r.Header.Get(idempotencyKeyHeader)
			if idempotencyKey == "" {
				// Keys are optional; without one the request runs normally
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			claims, ok := ClaimsFrom(ctx)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			scopedKey := claims.ID.String() + ":" + idempotencyKey
			requestPath := normalizeRequestPath(r.URL.Path)

			cached, err := store.Get(ctx, scopedKey, requestPath)
			if err != nil {
				logger.Error("failed to check idempotency cache", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if cached != nil {
				logger.Debug("returning cached idempotent response",
					"account_id", claims.ID,
					"key", idempotencyKey,
					"path", requestPath,
					"status", cached.ResponseStatus,
				)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Idempotent-Replayed", "true")
				w.WriteHeader(cached.ResponseStatus)
				//nolint:errcheck // Best effort response writing
				w.Write([]byte(cached.ResponseBody))
				return
			}

			capture := newResponseCapture(w)
			next.ServeHTTP(capture, r)

			if shouldCacheResponse(capture.statusCode) {
				idemKey := &models.IdempotencyKey{
					Key:            scopedKey,
					RequestPath:    requestPath,
					ResponseStatus: capture.statusCode,
					ResponseBody:   capture.body.String(),
					CreatedAt:      time.Now(),
				}

				if err := store.Store(ctx, idemKey); err != nil {
					logger.Error("failed to store idempotency key",
						"error", err,
						"key", idempotencyKey,
					)
				}
			}
		})
	}
}

func requiresIdempotency(r *http.Request) bool {
	if r.Method != http.MethodPost {
		return false
	}

	for _, path := range idempotentPaths {
		if r.URL.Path == path {
			return true
		}
	}
	return false
}

func normalizeRequestPath(urlPath string) string {
	return strings.TrimSuffix(urlPath, "/")
}

func shouldCacheResponse(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
