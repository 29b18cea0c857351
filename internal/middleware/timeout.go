package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Timeout puts a deadline on the request context. Handlers propagate the
// context into the remote client and surface cancellation through their own
// error paths; this middleware only answers for a handler that hit the
// deadline and returned without writing anything.
func Timeout(timeout time.Duration) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			wrapped, ok := w.(*responseWriter)
			if !ok {
				wrapped = &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			}

			next.ServeHTTP(wrapped, r.WithContext(ctx))

			if errors.Is(ctx.Err(), context.DeadlineExceeded) && !wrapped.written {
				writeError(wrapped, r, http.StatusRequestTimeout, ErrorCodeRequestTimeout, errorMessageRequestTimeout)
			}
		})
	}
}
