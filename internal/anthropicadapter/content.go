package anthropicadapter

import (
	"bytes"
	"encoding/json"
)

// ContentKind discriminates the shapes a message content value can take on
// the wire.
type ContentKind int

const (
	// ContentKindAbsent is a missing or null content value.
	ContentKindAbsent ContentKind = iota
	// ContentKindText is a plain JSON string.
	ContentKindText
	// ContentKindBlocks is an array of blocks or bare strings.
	ContentKindBlocks
	// ContentKindSingleBlock is a single JSON object.
	ContentKindSingleBlock
	// ContentKindOther is any other JSON value (numbers, booleans).
	ContentKindOther
)

func (k ContentKind) String() string {
	switch k {
	case ContentKindAbsent:
		return "absent"
	case ContentKindText:
		return "text"
	case ContentKindBlocks:
		return "blocks"
	case ContentKindSingleBlock:
		return "block"
	default:
		return "other"
	}
}

// Content is the polymorphic content of a message or system prompt: either a
// plain string or an ordered sequence of typed blocks. The zero value is
// absent content.
type Content struct {
	kind   ContentKind
	text   string
	blocks []ContentBlock
	raw    json.RawMessage
}

// ContentBlock is one element of block content, or the single object of
// ContentKindSingleBlock.
type ContentBlock struct {
	// Type is the block's "type" discriminator; empty for bare strings and
	// elements that are not objects.
	Type string
	// Text holds the "text" field when it is a string, or the value of a bare
	// string element.
	Text string
	// HasText reports whether Text came from a string "text" field.
	HasText bool
	// Bare marks an element that was a plain JSON string.
	Bare bool
}

// TextContent returns string content.
func TextContent(text string) Content {
	raw, _ := json.Marshal(text)
	return Content{kind: ContentKindText, text: text, raw: raw}
}

// Kind returns the content shape.
func (c Content) Kind() ContentKind {
	return c.kind
}

// Text returns the string of ContentKindText content.
func (c Content) Text() string {
	return c.text
}

// Blocks returns the elements of ContentKindBlocks content, or the single
// element of ContentKindSingleBlock content.
func (c Content) Blocks() []ContentBlock {
	return c.blocks
}

// UnmarshalJSON decodes any JSON value. Shapes the proxy cannot use are kept
// as ContentKindOther instead of failing, so extraction stays total.
func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*c = Content{}
		return nil
	}

	raw := append(json.RawMessage(nil), trimmed...)

	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*c = Content{kind: ContentKindText, text: text, raw: raw}

	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		blocks := make([]ContentBlock, 0, len(items))
		for _, item := range items {
			blocks = append(blocks, decodeContentBlock(item))
		}
		*c = Content{kind: ContentKindBlocks, blocks: blocks, raw: raw}

	case '{':
		*c = Content{kind: ContentKindSingleBlock, blocks: []ContentBlock{decodeContentBlock(trimmed)}, raw: raw}

	default:
		*c = Content{kind: ContentKindOther, raw: raw}
	}

	return nil
}

// MarshalJSON re-encodes the original wire value.
func (c Content) MarshalJSON() ([]byte, error) {
	if len(c.raw) == 0 {
		return []byte("null"), nil
	}
	return c.raw, nil
}

// decodeContentBlock decodes one block leniently: unknown or malformed
// elements yield a block without text.
func decodeContentBlock(raw json.RawMessage) ContentBlock {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ContentBlock{}
	}

	switch raw[0] {
	case '"':
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return ContentBlock{}
		}
		return ContentBlock{Text: text, Bare: true}

	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return ContentBlock{}
		}
		var block ContentBlock
		if t, ok := fields["type"]; ok {
			_ = json.Unmarshal(t, &block.Type)
		}
		if t, ok := fields["text"]; ok {
			if err := json.Unmarshal(t, &block.Text); err == nil && bytes.HasPrefix(bytes.TrimSpace(t), []byte(`"`)) {
				block.HasText = true
			} else {
				block.Text = ""
			}
		}
		return block

	default:
		return ContentBlock{}
	}
}
