package proxy

import (
	"log/slog"
	"net/http"

	"github.com/florianilch/messagebridge/internal/anthropicadapter"
)

// Recovery recovers from panics in HTTP handlers and returns an api_error
// envelope with HTTP 500 to the client.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			slog.ErrorContext(r.Context(), "handler panicked", "panic", rec)
			writeJSONAnthropicError(r.Context(), w, anthropicadapter.NewErrorResponse(
				anthropicadapter.ErrorTypeAPI,
				http.StatusText(http.StatusInternalServerError),
			))
		}()

		next.ServeHTTP(w, r)
	})
}

// RequestSizeLimit enforces maximum request body size.
// Handlers that read the body will receive *http.MaxBytesError when the limit is exceeded.
func RequestSizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
