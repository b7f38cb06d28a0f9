package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/forecastlab/econcast/internal/domain"
)

// RateLimit wraps a handler with per-client sliding-window rate limiting.
// Each unique client IP gets `limit` requests per `window`. It guards the
// forecast submission route, which is the only write path open to
// non-admins.
func RateLimit(limiter domain.RateLimiter, limit int, window time.Duration, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := "ratelimit:submit:" + extractClientIP(r)

		allowed, err := limiter.Allow(r.Context(), key, limit, window)
		if err != nil {
			// Fail open on limiter errors so a Redis outage does not block
			// submissions.
			next(w, r)
			return
		}

		if !allowed {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded"}`))
			return
		}

		next(w, r)
	}
}

// extractClientIP attempts to determine the real client IP from standard
// proxy headers, falling back to the direct remote address.
func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.SplitN(xff, ",", 2)
		ip := strings.TrimSpace(parts[0])
		if ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
