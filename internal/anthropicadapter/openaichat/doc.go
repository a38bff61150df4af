// Package openaichat adapts Anthropic Messages requests to OpenAI-compatible
// Chat Completions backends, enabling Anthropic SDK clients to work with
// local or hosted OpenAI-style models without code changes.
//
// The adapter handles:
//
//   - Model names: Anthropic model names are mapped to a backend model through
//     a static table and tagged with the "openai/" routing namespace. Responses
//     report an Anthropic model name again; the reverse mapping is lossy.
//
//   - Message content: Anthropic content (a string, or an array of typed
//     blocks) is flattened to text. Non-text blocks such as images or tool
//     use are dropped and logged at debug level.
//
//   - System prompts: Anthropic's top-level system field becomes a leading
//     system message. System messages inside the conversation pass through.
//
//   - Streaming: Chat Completion chunks are translated into content_block_delta,
//     message_delta and message_stop events by a per-stream state machine that
//     terminates exactly once.
//
// # Adapters
//
// CreateMessageAdapter: Anthropic Messages → OpenAI Chat Completions
package openaichat
