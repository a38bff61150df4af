package openaichat

import (
	"strings"

	"github.com/florianilch/messagebridge/internal/anthropicadapter"
)

// extractText flattens Anthropic content into a single string.
//
// Strings pass through. In block arrays, bare strings and the text of "text"
// blocks are concatenated in order; image, tool_use and other blocks are
// dropped. A single object contributes its "text" field when that is a
// string. Every other shape yields "".
func extractText(content anthropicadapter.Content) string {
	switch content.Kind() {
	case anthropicadapter.ContentKindText:
		return content.Text()

	case anthropicadapter.ContentKindBlocks:
		var b strings.Builder
		for _, block := range content.Blocks() {
			if block.Bare || block.Type == "text" {
				b.WriteString(block.Text)
			}
		}
		return b.String()

	case anthropicadapter.ContentKindSingleBlock:
		blocks := content.Blocks()
		if len(blocks) == 1 && blocks[0].HasText {
			return blocks[0].Text
		}
		return ""

	default:
		return ""
	}
}

// droppedBlockTypes lists the block types extractText discarded, in order.
// Blocks without a type are reported as "unknown".
func droppedBlockTypes(content anthropicadapter.Content) []string {
	var dropped []string
	switch content.Kind() {
	case anthropicadapter.ContentKindBlocks:
		for _, block := range content.Blocks() {
			if block.Bare || block.Type == "text" {
				continue
			}
			dropped = append(dropped, blockTypeName(block))
		}

	case anthropicadapter.ContentKindSingleBlock:
		for _, block := range content.Blocks() {
			if !block.HasText {
				dropped = append(dropped, blockTypeName(block))
			}
		}

	case anthropicadapter.ContentKindOther:
		dropped = append(dropped, "unknown")
	}
	return dropped
}

func blockTypeName(block anthropicadapter.ContentBlock) string {
	if block.Type == "" {
		return "unknown"
	}
	return block.Type
}
