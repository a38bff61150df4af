package openaichat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florianilch/messagebridge/internal/anthropicadapter"
)

func decodeContent(t *testing.T, raw string) anthropicadapter.Content {
	t.Helper()

	var c anthropicadapter.Content
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	return c
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"null", `null`, ""},
		{"plain string", `"hello world"`, "hello world"},
		{"empty string", `""`, ""},
		{"mixed blocks", `[{"type":"text","text":"a"}, "b", {"type":"image","data":"..."}]`, "ab"},
		{"text block without text", `[{"type":"text"}, {"type":"text","text":"x"}]`, "x"},
		{"tool blocks only", `[{"type":"tool_use","id":"t1","name":"f","input":{}}]`, ""},
		{"empty array", `[]`, ""},
		{"order preserved", `["1", {"type":"text","text":"2"}, "3"]`, "123"},
		{"non-string text field", `[{"type":"text","text":42}]`, ""},
		{"nested arrays ignored", `[["a"], {"type":"text","text":"b"}]`, "b"},
		{"single block with text", `{"type":"text","text":"solo"}`, "solo"},
		{"single block of other type with text", `{"type":"custom","text":"kept"}`, "kept"},
		{"single block without text", `{"type":"image","source":{}}`, ""},
		{"number", `42`, ""},
		{"boolean", `true`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractText(decodeContent(t, tt.content)))
		})
	}

	t.Run("zero value", func(t *testing.T) {
		assert.Equal(t, "", extractText(anthropicadapter.Content{}))
	})
}

func TestDroppedBlockTypes(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"string", `"text"`, nil},
		{"text blocks", `[{"type":"text","text":"a"}, "b"]`, nil},
		{"image and tool use", `[{"type":"image"}, {"type":"text","text":"a"}, {"type":"tool_use"}]`, []string{"image", "tool_use"}},
		{"untyped element", `[42]`, []string{"unknown"}},
		{"single block without text", `{"type":"document"}`, []string{"document"}},
		{"number", `1`, []string{"unknown"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, droppedBlockTypes(decodeContent(t, tt.content)))
		})
	}
}
