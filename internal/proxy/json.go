package proxy

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/florianilch/messagebridge/internal/anthropicadapter"
)

// writeJSON writes a JSON response with the given status code.
// Logs encoding failures internally using the provided context.
func writeJSON(ctx context.Context, w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	// Headers and status are written before encoding to avoid buffering.
	// If encoding fails, the client may receive a partial response.
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.ErrorContext(ctx, "failed to encode JSON response", "error", err)
	}
}

// writeJSONAnthropicError writes an Anthropic error envelope with the HTTP
// status code that belongs to its error type.
func writeJSONAnthropicError(ctx context.Context, w http.ResponseWriter, errResp *anthropicadapter.ErrorResponse) {
	writeJSON(ctx, w, errResp, statusForErrorType(errResp.Err.Type))
}

func statusForErrorType(t anthropicadapter.ErrorType) int {
	switch t {
	case anthropicadapter.ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case anthropicadapter.ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case anthropicadapter.ErrorTypePermission:
		return http.StatusForbidden
	case anthropicadapter.ErrorTypeNotFound:
		return http.StatusNotFound
	case anthropicadapter.ErrorTypeRequestTooLarge:
		return http.StatusRequestEntityTooLarge
	case anthropicadapter.ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	case anthropicadapter.ErrorTypeOverloaded:
		return 529
	default:
		return http.StatusInternalServerError
	}
}
