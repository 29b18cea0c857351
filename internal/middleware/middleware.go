// Package middleware wraps the control surface with request identity,
// logging, panic recovery, rate limiting, and per-request deadlines. The
// surface serves one operator plus a metrics scraper, so the chain is tuned
// for a small trusted audience rather than public traffic.
package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config holds the knobs for the full chain.
type Config struct {
	Logger *zap.Logger

	// CORS enables cross-origin handling when set. The daemon has no
	// browser frontend of its own, so nil (off) is the norm.
	CORS *CORSConfig

	RateLimit      rate.Limit
	RateLimitBurst int

	RequestTimeout time.Duration

	// QuietPaths are exempt from request logging and rate limiting.
	// The Prometheus scrape lands here: it fires on a fixed cadence and
	// logging it would drown the real traffic.
	QuietPaths []string
}

// Chain assembles the middleware stack, outermost first: request identity,
// then logging (so every logged request carries its ID), then recovery,
// CORS when enabled, the shared rate limit, and the deadline innermost.
func Chain(config *Config) func(http.Handler) http.Handler {
	quiet := make(map[string]struct{}, len(config.QuietPaths))
	for _, p := range config.QuietPaths {
		quiet[p] = struct{}{}
	}

	limiter := NewRateLimiter(config.RateLimit, config.RateLimitBurst, quiet)

	return func(handler http.Handler) http.Handler {
		h := handler

		h = Timeout(config.RequestTimeout)(h)
		h = limiter.Middleware()(h)
		if config.CORS != nil {
			h = CORS(config.CORS)(h)
		}
		h = Recovery(config.Logger)(h)
		h = Logger(config.Logger, quiet)(h)
		h = RequestID(h)

		return h
	}
}
