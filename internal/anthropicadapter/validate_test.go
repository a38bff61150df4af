package anthropicadapter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMessageRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name: "minimal request",
			body: `{"model":"claude-3-haiku-20240307","messages":[{"role":"user","content":"hi"}]}`,
		},
		{
			name: "full request",
			body: `{"model":"m","system":[{"type":"text","text":"s"}],"messages":[{"role":"user","content":[{"type":"text","text":"hi"}]},{"role":"assistant","content":"yo"},{"role":"system","content":"note"}],"max_tokens":1,"temperature":2,"top_p":1}`,
		},
		{
			name: "boundary zero sampling values",
			body: `{"model":"m","messages":[{"role":"user","content":"hi"}],"temperature":0,"top_p":0}`,
		},
		{
			name:    "missing model",
			body:    `{"messages":[{"role":"user","content":"hi"}]}`,
			wantErr: "model: field required",
		},
		{
			name:    "missing messages",
			body:    `{"model":"m"}`,
			wantErr: "messages: field required",
		},
		{
			name:    "unknown role",
			body:    `{"model":"m","messages":[{"role":"tool","content":"hi"}]}`,
			wantErr: "messages[0].role: must be one of [user assistant system]",
		},
		{
			name:    "missing role",
			body:    `{"model":"m","messages":[{"content":"hi"}]}`,
			wantErr: "messages[0].role: field required",
		},
		{
			name:    "missing content",
			body:    `{"model":"m","messages":[{"role":"user","content":"hi"},{"role":"user"}]}`,
			wantErr: "messages[1].content: must be a string or an array of content blocks, got absent",
		},
		{
			name:    "numeric content",
			body:    `{"model":"m","messages":[{"role":"user","content":12}]}`,
			wantErr: "messages[0].content: must be a string or an array of content blocks, got other",
		},
		{
			name:    "zero max_tokens",
			body:    `{"model":"m","messages":[{"role":"user","content":"hi"}],"max_tokens":0}`,
			wantErr: "max_tokens: must be greater than or equal to 1",
		},
		{
			name:    "temperature too high",
			body:    `{"model":"m","messages":[{"role":"user","content":"hi"}],"temperature":2.5}`,
			wantErr: "temperature: must be less than or equal to 2",
		},
		{
			name:    "negative top_p",
			body:    `{"model":"m","messages":[{"role":"user","content":"hi"}],"top_p":-0.1}`,
			wantErr: "top_p: must be greater than or equal to 0",
		},
		{
			name:    "object system prompt",
			body:    `{"model":"m","system":{"type":"text","text":"s"},"messages":[{"role":"user","content":"hi"}]}`,
			wantErr: "system: must be a string or an array of content blocks, got block",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req CreateMessageRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))

			err := req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			var errResp *ErrorResponse
			require.ErrorAs(t, err, &errResp)
			assert.Equal(t, "error", errResp.Type)
			assert.Equal(t, ErrorTypeInvalidRequest, errResp.Err.Type)
			assert.Contains(t, errResp.Err.Message, tt.wantErr)
		})
	}
}

func TestCreateMessageRequest_ValidateReportsAllFields(t *testing.T) {
	var req CreateMessageRequest
	require.NoError(t, json.Unmarshal([]byte(`{"max_tokens":0,"messages":[{"role":"bot","content":"x"}]}`), &req))

	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model: field required")
	assert.Contains(t, err.Error(), "messages[0].role")
	assert.Contains(t, err.Error(), "max_tokens")
}
