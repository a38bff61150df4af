package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/florianilch/messagebridge/internal/anthropicadapter"
	"github.com/florianilch/messagebridge/internal/observability/middleware"
)

// CreateMessageHandler handles Anthropic Messages API requests.
type CreateMessageHandler struct {
	Adapter   anthropicadapter.CreateMessageAdapter
	Transport http.RoundTripper
	// BaseURL is the backend API root, reported in logs.
	BaseURL string
}

// Compile-time check to ensure CreateMessageHandler implements http.Handler
var _ http.Handler = (*CreateMessageHandler)(nil)

// ServeHTTP implements http.Handler interface for streaming or non-streaming requests.
func (h *CreateMessageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req anthropicadapter.CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			slog.WarnContext(ctx, "request exceeds size limit", "limit_bytes", maxBytesErr.Limit)
			writeJSONAnthropicError(ctx, w, anthropicadapter.NewErrorResponse(
				anthropicadapter.ErrorTypeRequestTooLarge,
				fmt.Sprintf("Request exceeds the maximum allowed number of bytes (%d)", maxBytesErr.Limit),
			))
			return
		}
		slog.WarnContext(ctx, "failed to decode request", "error", err)
		writeJSONAnthropicError(ctx, w, anthropicadapter.NewErrorResponse(
			anthropicadapter.ErrorTypeInvalidRequest,
			"Invalid request body: "+err.Error(),
		))
		return
	}

	if err := req.Validate(); err != nil {
		slog.WarnContext(ctx, "invalid request", "error", err)
		writeError(ctx, w, err)
		return
	}

	middleware.SetLogAttrs(ctx,
		slog.String("model", req.Model),
		slog.Bool("stream", req.Stream),
	)

	if req.Stream {
		h.streamResponse(ctx, w, req)
	} else {
		h.writeResponse(ctx, w, req)
	}
}

// writeResponse handles non-streaming message requests.
func (h *CreateMessageHandler) writeResponse(
	ctx context.Context,
	w http.ResponseWriter,
	req anthropicadapter.CreateMessageRequest,
) {
	if ctx.Err() != nil {
		return
	}
	response, err := h.Adapter.ProcessRequest(ctx, req, h.Transport)
	if err != nil {
		slog.ErrorContext(ctx, "request failed", "error", err, "base_url", h.BaseURL)
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, response, http.StatusOK)
}

// streamResponse streams message events using SSE.
func (h *CreateMessageHandler) streamResponse(
	ctx context.Context,
	w http.ResponseWriter,
	req anthropicadapter.CreateMessageRequest,
) {
	if ctx.Err() != nil {
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		slog.ErrorContext(ctx, "SSE not supported", "error", err)
		writeJSONAnthropicError(ctx, w, anthropicadapter.NewErrorResponse(
			anthropicadapter.ErrorTypeAPI,
			http.StatusText(http.StatusInternalServerError),
		))
		return
	}

	events, err := h.Adapter.ProcessStreamingRequest(ctx, req, h.Transport)
	if err != nil {
		slog.ErrorContext(ctx, "streaming request failed", "error", err, "base_url", h.BaseURL)
		writeError(ctx, w, err)
		return
	}

	sse.Start()

	written := 0
	for event := range events {
		// Check for client disconnect before writing the event; leaving the
		// loop releases the backend stream.
		if ctx.Err() != nil {
			slog.DebugContext(ctx, "client disconnected during stream", "events_written", written)
			return
		}

		if event.Type == anthropicadapter.StreamEventError && event.Err != nil {
			slog.ErrorContext(ctx, "stream error", "error", event.Err.Message, "base_url", h.BaseURL)
		}

		if err := sse.WriteData(event); err != nil {
			slog.ErrorContext(ctx, "failed to write event", "error", err)
			return
		}
		written++
	}

	middleware.SetLogAttrs(ctx, slog.Int("events_written", written))
}

// writeError writes err as an Anthropic error envelope. Backend failures
// become api_error with the diagnostic message; unknown errors are hidden
// behind a generic message.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var errResp *anthropicadapter.ErrorResponse
	if errors.As(err, &errResp) {
		writeJSONAnthropicError(ctx, w, errResp)
		return
	}

	var backendErr *anthropicadapter.BackendError
	if errors.As(err, &backendErr) {
		writeJSONAnthropicError(ctx, w, anthropicadapter.NewErrorResponse(anthropicadapter.ErrorTypeAPI, backendErr.Error()))
		return
	}

	writeJSONAnthropicError(ctx, w, anthropicadapter.NewErrorResponse(
		anthropicadapter.ErrorTypeAPI,
		http.StatusText(http.StatusInternalServerError),
	))
}
