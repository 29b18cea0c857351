package middleware

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimiter applies one shared token bucket to the whole control surface.
// The daemon fronts a single operator and their dashboard, so per-client
// buckets would just accumulate state; what the limit actually protects is
// the upstream telemetry session behind the force-recovery and settings
// endpoints. Quiet paths bypass the bucket so a burst of dashboard traffic
// can never starve the metrics scrape.
type RateLimiter struct {
	limiter *rate.Limiter
	quiet   map[string]struct{}
}

func NewRateLimiter(r rate.Limit, burst int, quiet map[string]struct{}) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(r, burst),
		quiet:   quiet,
	}
}

// Middleware rejects requests over the limit with 429 and the shared error
// envelope.
func (rl *RateLimiter) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, skip := rl.quiet[r.URL.Path]; skip {
				next.ServeHTTP(w, r)
				return
			}

			if !rl.limiter.Allow() {
				writeError(w, r, http.StatusTooManyRequests, ErrorCodeRateLimitExceeded, errorMessageRateLimitExceeded)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
