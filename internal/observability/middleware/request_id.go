package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// Request id headers. Anthropic clients read request-id; X-Request-ID is the
// common convention for proxies and load balancers.
const (
	HeaderRequestID  = "request-id"
	HeaderXRequestID = "X-Request-ID"
)

type requestIDKey struct{}

// RequestIDFromContext returns the request id stored by RequestIDGeneration,
// or "" outside a request.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// incomingRequestID prefers the caller's id so traces can be joined across
// hops.
func incomingRequestID(r *http.Request) string {
	if id := r.Header.Get(HeaderXRequestID); id != "" {
		return id
	}
	return r.Header.Get(HeaderRequestID)
}

// RequestIDGeneration stores the caller's request id in the request context,
// generating a random one when the request carries none.
func RequestIDGeneration(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := incomingRequestID(r)
		if requestID == "" {
			requestID = "req_" + uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDPropagation echoes the request id in both response headers and adds
// it to the request log.
func RequestIDPropagation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestID := RequestIDFromContext(r.Context()); requestID != "" {
			// Set before the handler runs so recovered panics carry it too.
			w.Header().Set(HeaderRequestID, requestID)
			w.Header().Set(HeaderXRequestID, requestID)

			SetLogAttrs(r.Context(), slog.String("request_id", requestID))
		}

		next.ServeHTTP(w, r)
	})
}
