package openaichat

import (
	"iter"

	"github.com/openai/openai-go/v3"

	"github.com/florianilch/messagebridge/internal/anthropicadapter"
)

// streamState is the position of a streamTranslator in its lifecycle.
type streamState int

const (
	// stateStreaming forwards text deltas.
	stateStreaming streamState = iota
	// stateDone has emitted its terminal events; nothing follows.
	stateDone
)

// textBlockIndex is the only content block of a streamed reply.
const textBlockIndex = 0

// streamTranslator converts Chat Completion chunks into Anthropic stream
// events, one chunk at a time. A translator serves a single stream.
//
// Transitions:
//
//	streaming --(text delta)------> streaming   content_block_delta
//	streaming --(finish_reason)---> done        message_delta, message_stop
//	streaming --(upstream error)--> done        error
//
// Chunks without choices, text or finish_reason emit nothing.
type streamTranslator struct {
	state streamState
}

// next returns the events triggered by one chunk.
// A chunk carrying both text and finish_reason yields the delta first.
func (t *streamTranslator) next(chunk *openai.ChatCompletionChunk) []*anthropicadapter.StreamEvent {
	if t.state == stateDone || chunk == nil || len(chunk.Choices) == 0 {
		return nil
	}

	choice := chunk.Choices[0]

	var events []*anthropicadapter.StreamEvent
	if choice.Delta.Content != "" {
		events = append(events, anthropicadapter.NewTextDeltaEvent(textBlockIndex, choice.Delta.Content))
	}

	if choice.FinishReason != "" {
		events = append(events,
			anthropicadapter.NewMessageDeltaEvent(choice.FinishReason),
			anthropicadapter.NewMessageStopEvent(),
		)
		t.state = stateDone
	}

	return events
}

// fail returns the single error event for an upstream failure.
func (t *streamTranslator) fail(err error) []*anthropicadapter.StreamEvent {
	if t.state == stateDone {
		return nil
	}
	t.state = stateDone
	return []*anthropicadapter.StreamEvent{
		anthropicadapter.NewErrorEvent(anthropicadapter.ErrorTypeAPI, err.Error()),
	}
}

func (t *streamTranslator) done() bool {
	return t.state == stateDone
}

// translateStream lazily maps a chunk sequence to an event sequence. It pulls
// the next chunk only after the consumer accepted all events of the previous
// one, and stops pulling once the stream terminated or the consumer stopped.
func translateStream(chunks iter.Seq2[*openai.ChatCompletionChunk, error]) iter.Seq[*anthropicadapter.StreamEvent] {
	return func(yield func(*anthropicadapter.StreamEvent) bool) {
		var t streamTranslator
		for chunk, err := range chunks {
			var events []*anthropicadapter.StreamEvent
			if err != nil {
				events = t.fail(err)
			} else {
				events = t.next(chunk)
			}

			for _, event := range events {
				if !yield(event) {
					return
				}
			}

			if t.done() {
				return
			}
		}
	}
}
