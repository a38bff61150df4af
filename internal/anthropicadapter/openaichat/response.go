package openaichat

import (
	"encoding/json"

	"github.com/openai/openai-go/v3"

	"github.com/florianilch/messagebridge/internal/anthropicadapter"
)

// defaultFinishReason is reported when the backend leaves finish_reason empty.
const defaultFinishReason = "stop"

// toCreateMessageResponse converts a Chat Completion into an Anthropic
// Messages response.
//
// The model is reverse-resolved so clients see an Anthropic model name; when
// no table entry matches, the model the client asked for is reported instead
// of the backend name. Only the first choice is used. finish_reason is copied
// into stop_reason as is; stop_sequence is always null because the backend
// does not say which sequence matched.
func toCreateMessageResponse(resp *openai.ChatCompletion, requestedModel string, models *ModelResolver) *anthropicadapter.CreateMessageResponse {
	out := &anthropicadapter.CreateMessageResponse{
		ID:      resp.ID,
		Model:   models.resolveInboundOr(resp.Model, requestedModel),
		Created: resp.Created,
		Role:    anthropicadapter.RoleAssistant,
		Usage:   rawUsage(resp.Usage),
	}

	if len(resp.Choices) == 0 {
		out.Content = []anthropicadapter.TextBlock{anthropicadapter.NewTextBlock("")}
		return out
	}

	choice := resp.Choices[0]
	out.Content = []anthropicadapter.TextBlock{anthropicadapter.NewTextBlock(choice.Message.Content)}

	if role := string(choice.Message.Role); role != "" {
		out.Role = anthropicadapter.Role(role)
	}

	stopReason := choice.FinishReason
	if stopReason == "" {
		stopReason = defaultFinishReason
	}
	out.StopReason = &stopReason

	return out
}

// rawUsage passes the backend usage object through unchanged.
func rawUsage(usage openai.CompletionUsage) json.RawMessage {
	if raw := usage.RawJSON(); raw != "" {
		return json.RawMessage(raw)
	}
	return json.RawMessage("{}")
}
