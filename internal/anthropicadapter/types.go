package anthropicadapter

import (
	"encoding/json"
	"fmt"
)

// DefaultMaxTokens applies when a request omits max_tokens.
const DefaultMaxTokens = 1024

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one turn of the conversation.
type Message struct {
	Role    Role    `json:"role" validate:"required,oneof=user assistant system"`
	Content Content `json:"content"`
}

// CreateMessageRequest is the body of POST /v1/messages.
//
// TopK, StopSequences and Metadata are accepted for compatibility but have no
// counterpart in the backend request.
type CreateMessageRequest struct {
	Model         string         `json:"model" validate:"required"`
	Messages      []Message      `json:"messages" validate:"required,dive"`
	MaxTokens     int64          `json:"max_tokens" validate:"gte=1"`
	Temperature   *float64       `json:"temperature,omitempty" validate:"omitnil,gte=0,lte=2"`
	TopP          *float64       `json:"top_p,omitempty" validate:"omitnil,gte=0,lte=1"`
	TopK          *int64         `json:"top_k,omitempty"`
	StopSequences []string       `json:"stop_sequences,omitempty"`
	Stream        bool           `json:"stream"`
	System        Content        `json:"system"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// UnmarshalJSON applies request defaults before decoding.
func (r *CreateMessageRequest) UnmarshalJSON(data []byte) error {
	type plain CreateMessageRequest
	decoded := plain{MaxTokens: DefaultMaxTokens}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*r = CreateMessageRequest(decoded)
	return nil
}

// TextBlock is a text content block of a response.
type TextBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewTextBlock returns a block of type "text".
func NewTextBlock(text string) TextBlock {
	return TextBlock{Type: "text", Text: text}
}

// CreateMessageResponse is the non-streaming response of POST /v1/messages.
// Usage carries the backend's usage object unchanged.
type CreateMessageResponse struct {
	ID           string          `json:"id"`
	Model        string          `json:"model"`
	Created      int64           `json:"created"`
	Content      []TextBlock     `json:"content"`
	Role         Role            `json:"role"`
	StopReason   *string         `json:"stop_reason"`
	StopSequence *string         `json:"stop_sequence"`
	Usage        json.RawMessage `json:"usage"`
}

// StreamEventType tags a StreamEvent.
type StreamEventType string

const (
	StreamEventContentBlockDelta StreamEventType = "content_block_delta"
	StreamEventMessageDelta      StreamEventType = "message_delta"
	StreamEventMessageStop       StreamEventType = "message_stop"
	StreamEventError             StreamEventType = "error"
)

// StreamEvent is one server-sent event of a streamed response. Only the
// fields belonging to its Type are encoded.
type StreamEvent struct {
	Type StreamEventType

	// content_block_delta
	Index int
	Text  string

	// message_delta
	StopReason string

	// error
	Err *Error
}

// NewTextDeltaEvent returns a content_block_delta event for the given block.
func NewTextDeltaEvent(index int, text string) *StreamEvent {
	return &StreamEvent{Type: StreamEventContentBlockDelta, Index: index, Text: text}
}

// NewMessageDeltaEvent returns the message_delta event that carries the stop reason.
func NewMessageDeltaEvent(stopReason string) *StreamEvent {
	return &StreamEvent{Type: StreamEventMessageDelta, StopReason: stopReason}
}

// NewMessageStopEvent returns the terminal message_stop event.
func NewMessageStopEvent() *StreamEvent {
	return &StreamEvent{Type: StreamEventMessageStop}
}

// NewErrorEvent returns an error event.
func NewErrorEvent(errType ErrorType, message string) *StreamEvent {
	return &StreamEvent{Type: StreamEventError, Err: &Error{Type: errType, Message: message}}
}

type textDelta struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type stopDelta struct {
	StopReason   string  `json:"stop_reason"`
	StopSequence *string `json:"stop_sequence"`
}

// MarshalJSON encodes the event in its wire shape.
func (e StreamEvent) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case StreamEventContentBlockDelta:
		return json.Marshal(struct {
			Type  StreamEventType `json:"type"`
			Index int             `json:"index"`
			Delta textDelta       `json:"delta"`
		}{e.Type, e.Index, textDelta{Type: "text_delta", Text: e.Text}})

	case StreamEventMessageDelta:
		return json.Marshal(struct {
			Type  StreamEventType `json:"type"`
			Delta stopDelta       `json:"delta"`
		}{e.Type, stopDelta{StopReason: e.StopReason}})

	case StreamEventMessageStop:
		return json.Marshal(struct {
			Type StreamEventType `json:"type"`
		}{e.Type})

	case StreamEventError:
		errDetail := e.Err
		if errDetail == nil {
			errDetail = &Error{Type: ErrorTypeAPI}
		}
		return json.Marshal(struct {
			Type  StreamEventType `json:"type"`
			Error *Error          `json:"error"`
		}{e.Type, errDetail})

	default:
		return nil, fmt.Errorf("unknown stream event type %q", e.Type)
	}
}
