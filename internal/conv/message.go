package conv

import (
	"encoding/json"
	"fmt"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation entry: a role plus an ordered sequence of
// content blocks. Assistant turns may carry a ToolUse alongside or instead
// of text; tool results travel back as user messages.
type Message struct {
	Role    Role    `json:"role"`
	Content []Block `json:"content"`
}

// Block is the content sum type. Exactly Text, ToolUse and ToolResult
// implement it; consumption sites switch over these three.
type Block interface {
	blockType() string
}

// Text is plain model- or user-authored text.
type Text struct {
	Text string `json:"text"`
}

// ToolUse is a model request to invoke a named tool with JSON arguments.
type ToolUse struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResult carries a tool outcome back to the model. Content is the raw
// payload (text encoded as a JSON string, structured data as-is).
type ToolResult struct {
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
	IsError   bool            `json:"is_error,omitempty"`
}

func (Text) blockType() string       { return "text" }
func (ToolUse) blockType() string    { return "tool_use" }
func (ToolResult) blockType() string { return "tool_result" }

// UserText builds a single-block user message.
func UserText(s string) Message {
	return Message{Role: RoleUser, Content: []Block{Text{Text: s}}}
}

// AssistantText builds a single-block assistant message.
func AssistantText(s string) Message {
	return Message{Role: RoleAssistant, Content: []Block{Text{Text: s}}}
}

// envelope is the persisted form of a Block: the block fields plus a type tag.
// The tag values match the Anthropic wire names so transcripts stay readable
// next to raw API logs.
type envelope struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

// MarshalJSON encodes the message with type-tagged content blocks.
func (m Message) MarshalJSON() ([]byte, error) {
	envs := make([]envelope, 0, len(m.Content))
	for _, b := range m.Content {
		switch v := b.(type) {
		case Text:
			envs = append(envs, envelope{Type: "text", Text: v.Text})
		case ToolUse:
			envs = append(envs, envelope{Type: "tool_use", ID: v.ID, Name: v.Name, Input: v.Input})
		case ToolResult:
			envs = append(envs, envelope{Type: "tool_result", ToolUseID: v.ToolUseID, Content: v.Content, IsError: v.IsError})
		default:
			return nil, fmt.Errorf("conv: unknown block type %T", b)
		}
	}
	return json.Marshal(struct {
		Role    Role       `json:"role"`
		Content []envelope `json:"content"`
	}{Role: m.Role, Content: envs})
}

// UnmarshalJSON decodes type-tagged content blocks back into the sum type.
// Unknown tags are an error: the transcript is ours, so anything else means
// a corrupted or foreign file.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role    Role       `json:"role"`
		Content []envelope `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	blocks := make([]Block, 0, len(raw.Content))
	for _, e := range raw.Content {
		switch e.Type {
		case "text":
			blocks = append(blocks, Text{Text: e.Text})
		case "tool_use":
			blocks = append(blocks, ToolUse{ID: e.ID, Name: e.Name, Input: e.Input})
		case "tool_result":
			blocks = append(blocks, ToolResult{ToolUseID: e.ToolUseID, Content: e.Content, IsError: e.IsError})
		default:
			return fmt.Errorf("conv: unknown block type %q", e.Type)
		}
	}
	m.Role = raw.Role
	m.Content = blocks
	return nil
}

// FirstToolUse returns the first ToolUse block of the message, or nil.
func (m Message) FirstToolUse() *ToolUse {
	for _, b := range m.Content {
		if tu, ok := b.(ToolUse); ok {
			return &tu
		}
	}
	return nil
}

// TextParts returns the text of every Text block, in emission order.
func (m Message) TextParts() []string {
	var out []string
	for _, b := range m.Content {
		if t, ok := b.(Text); ok {
			out = append(out, t.Text)
		}
	}
	return out
}
