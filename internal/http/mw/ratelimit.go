package mw

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/visionaihq/visionai-api/internal/ratelimit"
)

// AuthRateLimit returns middleware that throttles credential-guessing
// attempts per client IP. Chi's RealIP middleware must run earlier so
// RemoteAddr holds the real client address behind a proxy.
func AuthRateLimit(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := limiter.CheckAndRecord(clientIP(r))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

			if !result.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(result.RetryAfter.Seconds()))))
				http.Error(w, `{"error":"too many attempts, try again later"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
