package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// rateLimitedPrefixes are the paths subject to per-client throttling.
// Credential endpoints are the interesting brute-force surface.
var rateLimitedPrefixes = []string{
	"/api/signup",
	"/api/login",
}

// RateLimiter throttles requests per client IP using a token bucket.
type RateLimiter struct {
	mu sync.Mutex
	// limiters is keyed by client-supplied addresses and is never
	// evicted; a TTL sweep is the fix if the key space becomes a
	// memory problem in practice.
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

// NewRateLimiter creates a RateLimiter allowing rps requests per second
// with the given burst per client.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (rl *RateLimiter) limiterFor(clientIP string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.limiters[clientIP]
	if !ok {
		limiter = rate.NewLimiter(rl.rps, rl.burst)
		rl.limiters[clientIP] = limiter
	}
	return limiter
}

// Middleware applies the rate limit to credential endpoints only.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rateLimited(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if !rl.limiterFor(clientIP(r)).Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			//nolint:errcheck // Best effort response writing
			json.NewEncoder(w).Encode(map[string]string{"error": "too many requests, slow down"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func rateLimited(path string) bool {
	for _, prefix := range rateLimitedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx > 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
