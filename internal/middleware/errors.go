package middleware

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/mpetrenko/telewatch/internal/api"
)

// Error codes shared between the middleware chain and the handlers.
const (
	ErrorCodeInternal          = "INTERNAL_ERROR"
	ErrorCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrorCodeRequestTimeout    = "REQUEST_TIMEOUT"
)

const (
	errorMessageInternal          = "An internal error occurred"
	errorMessageRateLimitExceeded = "Too many requests"
	errorMessageRequestTimeout    = "Request timeout"
)

// writeError renders the same error envelope the handlers use, so a client
// never has to distinguish middleware rejections from handler ones.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	render.Status(r, status)
	render.JSON(w, r, api.ErrorResponse{Error: code, Message: message})
}
