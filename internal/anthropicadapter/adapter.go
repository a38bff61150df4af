// Package anthropicadapter defines the Anthropic Messages API surface that
// clients speak to the proxy, and the contract for adapters that serve it from
// a different provider API.
package anthropicadapter

import (
	"context"
	"iter"
	"net/http"
)

// Adapter defines the contract for transforming client requests to provider API calls.
//
// Type parameters allow the interface to express transformation contracts for different
// request/response shapes while maintaining compile-time type safety.
//
// Type parameters:
//   - TRequest:  Client-specific request structure
//   - TResponse: Client-specific response structure
//   - TEvent:    Client-specific streaming event protocol
type Adapter[TRequest, TResponse, TEvent any] interface {
	// ProcessRequest transforms the client request, calls the provider API, and returns
	// the transformed response. Implementations should remain stateless.
	ProcessRequest(ctx context.Context, clientReq TRequest, transport http.RoundTripper) (*TResponse, error)

	// ProcessStreamingRequest transforms the client request, opens the provider stream
	// and returns a lazy sequence of transformed events. An error is returned only when
	// the provider fails before the stream starts; later failures are reported as
	// events inside the sequence. Implementations should remain stateless.
	ProcessStreamingRequest(ctx context.Context, clientReq TRequest, transport http.RoundTripper) (iter.Seq[*TEvent], error)
}

// CreateMessageAdapter is the adapter contract for the Messages API
// (POST /v1/messages).
type CreateMessageAdapter = Adapter[
	CreateMessageRequest,
	CreateMessageResponse,
	StreamEvent,
]
