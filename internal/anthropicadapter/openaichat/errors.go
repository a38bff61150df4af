package openaichat

import (
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"

	"github.com/florianilch/messagebridge/internal/anthropicadapter"
)

// toBackendError wraps a failed backend call. The backend's message is kept
// verbatim; for API errors the status code is prefixed so the client can tell
// a rejected request from an unreachable server.
func toBackendError(err error, baseURL string) *anthropicadapter.BackendError {
	if err == nil {
		return nil
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		err = fmt.Errorf("backend returned %d: %s", apiErr.StatusCode, apiErr.Message)
	}

	return &anthropicadapter.BackendError{BaseURL: baseURL, Err: err}
}
