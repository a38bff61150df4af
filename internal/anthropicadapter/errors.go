package anthropicadapter

import "fmt"

// ErrorType is the Anthropic error taxonomy carried in error envelopes and
// error stream events.
type ErrorType string

const (
	ErrorTypeInvalidRequest  ErrorType = "invalid_request_error"
	ErrorTypeAuthentication  ErrorType = "authentication_error"
	ErrorTypePermission      ErrorType = "permission_error"
	ErrorTypeNotFound        ErrorType = "not_found_error"
	ErrorTypeRequestTooLarge ErrorType = "request_too_large"
	ErrorTypeRateLimit       ErrorType = "rate_limit_error"
	ErrorTypeAPI             ErrorType = "api_error"
	ErrorTypeOverloaded      ErrorType = "overloaded_error"
)

// Error is the error detail object of the Anthropic API.
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
}

// Error implements the error interface, returning the error message.
func (e *Error) Error() string {
	return e.Message
}

// ErrorResponse is the top-level error envelope: {"type":"error","error":{...}}.
type ErrorResponse struct {
	Type string `json:"type"`
	Err  Error  `json:"error"`
}

// NewErrorResponse builds an error envelope of the given type.
func NewErrorResponse(errType ErrorType, message string) *ErrorResponse {
	return &ErrorResponse{
		Type: "error",
		Err:  Error{Type: errType, Message: message},
	}
}

// Error implements the error interface, returning the underlying error message.
// This allows ErrorResponse to be used directly in error returns.
func (e *ErrorResponse) Error() string {
	return e.Err.Message
}

// BackendError reports a failed call to the provider backend before any
// response or stream event reached the client. It keeps the backend base URL
// so operators can see where the proxy tried to connect.
type BackendError struct {
	BaseURL string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("Proxy error: %v. Check that your backend service is running at %s", e.Err, e.BaseURL)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
