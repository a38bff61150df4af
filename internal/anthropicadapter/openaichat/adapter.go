package openaichat

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/ssestream"
	"github.com/openai/openai-go/v3/shared"

	"github.com/florianilch/messagebridge/internal/anthropicadapter"
)

// CreateMessageAdapter serves the Anthropic Messages API from an
// OpenAI-compatible Chat Completions backend.
type CreateMessageAdapter struct {
	baseURL string
	models  *ModelResolver
}

// Compile-time check to ensure CreateMessageAdapter implements the adapter contract
var _ anthropicadapter.CreateMessageAdapter = (*CreateMessageAdapter)(nil)

// NewCreateMessageAdapter creates an adapter for the backend at baseURL.
// The URL is normalized with NormalizeBaseURL.
func NewCreateMessageAdapter(baseURL string, models *ModelResolver) (*CreateMessageAdapter, error) {
	if models == nil {
		return nil, fmt.Errorf("model resolver cannot be nil")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("backend base URL cannot be empty")
	}

	return &CreateMessageAdapter{
		baseURL: NormalizeBaseURL(baseURL),
		models:  models,
	}, nil
}

// BaseURL returns the normalized backend base URL.
func (a *CreateMessageAdapter) BaseURL() string {
	return a.baseURL
}

// Models returns the model resolver.
func (a *CreateMessageAdapter) Models() *ModelResolver {
	return a.models
}

// ModelAliases returns the Anthropic model names of the resolver's table.
func (a *CreateMessageAdapter) ModelAliases() []string {
	return a.models.Aliases()
}

// ProcessRequest sends one Chat Completion request and converts the result.
// Backend failures are returned as *anthropicadapter.BackendError.
func (a *CreateMessageAdapter) ProcessRequest(
	ctx context.Context,
	clientReq anthropicadapter.CreateMessageRequest,
	transport http.RoundTripper,
) (*anthropicadapter.CreateMessageResponse, error) {
	client, err := newClient(transport, a.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	params := a.prepareParams(ctx, clientReq)

	completion, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		slog.ErrorContext(ctx, "backend request failed", "error", err, "base_url", a.baseURL)
		return nil, toBackendError(err, a.baseURL)
	}

	return toCreateMessageResponse(completion, clientReq.Model, a.models), nil
}

// ProcessStreamingRequest opens a Chat Completion stream and returns the
// translated event sequence.
//
// The first chunk is pulled before returning so that a backend which fails
// before the stream starts is reported as *anthropicadapter.BackendError while
// the client can still receive a plain error response. Ranging over the
// returned sequence releases the backend stream when it ends or when the
// consumer stops early.
func (a *CreateMessageAdapter) ProcessStreamingRequest(
	ctx context.Context,
	clientReq anthropicadapter.CreateMessageRequest,
	transport http.RoundTripper,
) (iter.Seq[*anthropicadapter.StreamEvent], error) {
	client, err := newClient(transport, a.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	params := a.prepareParams(ctx, clientReq)

	stream := client.Chat.Completions.NewStreaming(ctx, params)
	if !stream.Next() {
		err := stream.Err()
		_ = stream.Close()
		if err != nil {
			slog.ErrorContext(ctx, "backend stream failed to start", "error", err, "base_url", a.baseURL)
			return nil, toBackendError(err, a.baseURL)
		}
		// Backend closed the stream without sending anything.
		return func(func(*anthropicadapter.StreamEvent) bool) {}, nil
	}

	return translateStream(a.chunks(ctx, stream)), nil
}

// chunks adapts an SDK stream whose first chunk is already pulled.
func (a *CreateMessageAdapter) chunks(
	ctx context.Context,
	stream *ssestream.Stream[openai.ChatCompletionChunk],
) iter.Seq2[*openai.ChatCompletionChunk, error] {
	return func(yield func(*openai.ChatCompletionChunk, error) bool) {
		defer func() { _ = stream.Close() }()

		for pulled := true; pulled; pulled = stream.Next() {
			chunk := stream.Current()
			if !yield(&chunk, nil) {
				return
			}
		}

		if err := stream.Err(); err != nil {
			if ctx.Err() != nil {
				// Client went away; nobody is left to receive an error event.
				return
			}
			slog.ErrorContext(ctx, "backend stream failed", "error", err, "base_url", a.baseURL)
			yield(nil, err)
		}
	}
}

// prepareParams translates the request, logs what the translation dropped and
// rewrites the model for the wire.
func (a *CreateMessageAdapter) prepareParams(ctx context.Context, clientReq anthropicadapter.CreateMessageRequest) openai.ChatCompletionNewParams {
	logDroppedContent(ctx, clientReq)

	params := toChatCompletionParams(clientReq, a.models)

	if slog.Default().Enabled(ctx, slog.LevelDebug) {
		if body, err := json.Marshal(params); err == nil {
			slog.DebugContext(ctx, "converted request to chat completion", "request", string(body))
		}
	}

	params.Model = shared.ChatModel(wireModel(params.Model))
	return params
}

// logDroppedContent records content blocks that have no text representation.
// Dropping them is intended; the backend only receives text.
func logDroppedContent(ctx context.Context, req anthropicadapter.CreateMessageRequest) {
	if dropped := droppedBlockTypes(req.System); len(dropped) > 0 {
		slog.DebugContext(ctx, "dropped non-text content", "location", "system", "block_types", dropped)
	}
	for i, msg := range req.Messages {
		if dropped := droppedBlockTypes(msg.Content); len(dropped) > 0 {
			slog.DebugContext(ctx, "dropped non-text content", "location", fmt.Sprintf("messages[%d]", i), "block_types", dropped)
		}
	}
}
