package anthropicadapter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMessageRequest_UnmarshalJSON(t *testing.T) {
	t.Run("defaults max_tokens", func(t *testing.T) {
		var req CreateMessageRequest
		require.NoError(t, json.Unmarshal([]byte(`{"model":"m","messages":[{"role":"user","content":"hi"}]}`), &req))

		assert.Equal(t, int64(DefaultMaxTokens), req.MaxTokens)
		assert.Nil(t, req.Temperature)
		assert.Nil(t, req.TopP)
		assert.False(t, req.Stream)
		assert.Equal(t, ContentKindAbsent, req.System.Kind())
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		var req CreateMessageRequest
		require.NoError(t, json.Unmarshal([]byte(`{
			"model": "claude-3-haiku-20240307",
			"messages": [{"role": "user", "content": [{"type": "text", "text": "hi"}]}],
			"max_tokens": 5,
			"temperature": 0,
			"top_p": 0.5,
			"top_k": 10,
			"stop_sequences": ["END"],
			"stream": true,
			"system": "be brief",
			"metadata": {"user_id": "u-1"}
		}`), &req))

		assert.Equal(t, "claude-3-haiku-20240307", req.Model)
		assert.Equal(t, int64(5), req.MaxTokens)
		require.NotNil(t, req.Temperature)
		assert.Zero(t, *req.Temperature)
		require.NotNil(t, req.TopP)
		assert.Equal(t, 0.5, *req.TopP)
		require.NotNil(t, req.TopK)
		assert.Equal(t, int64(10), *req.TopK)
		assert.Equal(t, []string{"END"}, req.StopSequences)
		assert.True(t, req.Stream)
		assert.Equal(t, "be brief", req.System.Text())
		assert.Equal(t, "u-1", req.Metadata["user_id"])
		require.Len(t, req.Messages, 1)
		assert.Equal(t, ContentKindBlocks, req.Messages[0].Content.Kind())
	})

	t.Run("rejects wrong field types", func(t *testing.T) {
		var req CreateMessageRequest
		assert.Error(t, json.Unmarshal([]byte(`{"model":"m","messages":[],"max_tokens":"many"}`), &req))
		assert.Error(t, json.Unmarshal([]byte(`{"model":"m","messages":{}}`), &req))
	})
}

func TestStreamEvent_MarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		event *StreamEvent
		want  string
	}{
		{
			name:  "content_block_delta",
			event: NewTextDeltaEvent(0, "Hi"),
			want:  `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hi"}}`,
		},
		{
			name:  "message_delta",
			event: NewMessageDeltaEvent("stop"),
			want:  `{"type":"message_delta","delta":{"stop_reason":"stop","stop_sequence":null}}`,
		},
		{
			name:  "message_stop",
			event: NewMessageStopEvent(),
			want:  `{"type":"message_stop"}`,
		},
		{
			name:  "error",
			event: NewErrorEvent(ErrorTypeAPI, "boom"),
			want:  `{"type":"error","error":{"type":"api_error","message":"boom"}}`,
		},
		{
			name:  "error without detail",
			event: &StreamEvent{Type: StreamEventError},
			want:  `{"type":"error","error":{"type":"api_error","message":""}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.event)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}

	t.Run("unknown type", func(t *testing.T) {
		_, err := json.Marshal(&StreamEvent{Type: "ping"})
		assert.Error(t, err)
	})
}

func TestErrors(t *testing.T) {
	resp := NewErrorResponse(ErrorTypeInvalidRequest, "messages: field required")
	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"error","error":{"type":"invalid_request_error","message":"messages: field required"}}`, string(body))
	assert.Equal(t, "messages: field required", resp.Error())

	backendErr := &BackendError{BaseURL: "http://localhost:1234/v1", Err: assert.AnError}
	assert.Equal(t,
		"Proxy error: "+assert.AnError.Error()+". Check that your backend service is running at http://localhost:1234/v1",
		backendErr.Error())
	assert.ErrorIs(t, backendErr, assert.AnError)
}
