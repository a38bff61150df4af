package openaichat

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// newClient creates an OpenAI client for baseURL with the provided transport.
// The transport chain needs to handle authentication, so the SDK's own
// Authorization header is removed.
func newClient(transport http.RoundTripper, baseURL string) (*openai.Client, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport cannot be nil")
	}

	httpClient := &http.Client{
		Transport: transport,
		// Client.Timeout = 0 allows long-running SSE streams (bounded by server WriteTimeout)
	}

	client := openai.NewClient(
		option.WithHTTPClient(httpClient),
		option.WithBaseURL(baseURL+"/"),
		option.WithHeaderDel("authorization"),
		// Retry policy belongs to the caller; a failed call is reported as is.
		option.WithMaxRetries(0),
	)

	return &client, nil
}

// NormalizeBaseURL returns the API root for an OpenAI-compatible server.
// Trailing slashes are trimmed and /v1 is appended unless the URL already ends
// in /v1 or contains /v1/.
func NormalizeBaseURL(rawURL string) string {
	base := strings.TrimRight(strings.TrimSpace(rawURL), "/")
	if strings.Contains(base, "/v1/") || strings.HasSuffix(base, "/v1") {
		return base
	}
	return base + "/v1"
}

// wireModel removes the routing namespace before the model name is sent to
// the backend.
func wireModel(model string) string {
	return stripNamespace(model)
}
