package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/httplog/v3"
)

// Logging writes one ECS log line per request. Bodies and credentials are
// never logged. Successful health probes are skipped.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return httplog.RequestLogger(logger, &httplog.Options{
		Schema: httplog.SchemaECS.Concise(true),

		LogRequestHeaders:  []string{"Content-Type", "Origin", "Anthropic-Version"},
		LogResponseHeaders: []string{},
		LogRequestBody:     nil,
		LogResponseBody:    nil,

		Skip: func(r *http.Request, respStatus int) bool {
			return respStatus < http.StatusBadRequest && strings.HasPrefix(r.URL.Path, "/health/")
		},

		// Recovery middleware handles panics.
		RecoverPanics: false,
	})
}

// SetLogAttrs adds attributes to the current request log line. It is a no-op
// without the Logging middleware.
func SetLogAttrs(ctx context.Context, attrs ...slog.Attr) {
	httplog.SetAttrs(ctx, attrs...)
}
