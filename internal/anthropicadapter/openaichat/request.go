package openaichat

import (
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"

	"github.com/florianilch/messagebridge/internal/anthropicadapter"
)

// toChatCompletionParams converts an Anthropic Messages request into Chat
// Completions parameters.
//
// A non-empty system prompt becomes a leading system message. Every input
// message produces exactly one output message with the same role, in the same
// order, even when its extracted text is empty. Unset optional parameters are
// omitted from the encoded body; the backend rejects null for them.
func toChatCompletionParams(req anthropicadapter.CreateMessageRequest, models *ModelResolver) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)

	if system := extractText(req.System); system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}

	for _, msg := range req.Messages {
		messages = append(messages, toChatCompletionMessage(msg.Role, extractText(msg.Content)))
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(models.ResolveOutbound(req.Model)),
		Messages: messages,
	}

	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.TopP != nil {
		params.TopP = openai.Float(*req.TopP)
	}
	// max_tokens always has a value after request defaults are applied.
	params.MaxTokens = openai.Int(req.MaxTokens)

	// TopK transformation: Chat Completions has no top_k parameter.
	// StopSequences and Metadata are not forwarded either; the backend call
	// only carries sampling parameters both APIs share.

	return params
}

// toChatCompletionMessage builds a text message for the given role.
// Roles are validated at the boundary; anything unexpected is sent as user.
func toChatCompletionMessage(role anthropicadapter.Role, text string) openai.ChatCompletionMessageParamUnion {
	switch role {
	case anthropicadapter.RoleSystem:
		return openai.SystemMessage(text)
	case anthropicadapter.RoleAssistant:
		return openai.AssistantMessage(text)
	default:
		return openai.UserMessage(text)
	}
}
