package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/verlune/quickchat/internal/conv"
	"github.com/verlune/quickchat/internal/mcpx"
)

// AnthropicBackend implements Backend over the Anthropic SDK. The client
// reads ANTHROPIC_API_KEY (and optional base URL) from the environment.
type AnthropicBackend struct {
	client *anthropic.Client
}

// NewAnthropicBackend returns a backend using an environment-configured client.
func NewAnthropicBackend() *AnthropicBackend {
	c := anthropic.NewClient()
	return &AnthropicBackend{client: &c}
}

// CreateMessage sends the context to one model and converts the response
// into the conversation model. System-role messages are lifted out of the
// message list into the request's system field.
func (b *AnthropicBackend) CreateMessage(
	ctx context.Context,
	model string,
	messages []conv.Message,
	tools []mcpx.ToolDescriptor,
	maxTokens int64,
) (conv.Message, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
	}
	for _, m := range messages {
		if m.Role == conv.RoleSystem {
			for _, part := range m.TextParts() {
				params.System = append(params.System, anthropic.TextBlockParam{Text: part})
			}
			continue
		}
		mp, err := toMessageParam(m)
		if err != nil {
			return conv.Message{}, err
		}
		params.Messages = append(params.Messages, mp)
	}
	if len(tools) > 0 {
		tp, err := toToolParams(tools)
		if err != nil {
			return conv.Message{}, err
		}
		params.Tools = tp
	}

	msg, err := b.client.Messages.New(ctx, params)
	if err != nil {
		return conv.Message{}, err
	}
	return fromSDKMessage(msg), nil
}

func toMessageParam(m conv.Message) (anthropic.MessageParam, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.Content))
	for _, b := range m.Content {
		switch v := b.(type) {
		case conv.Text:
			blocks = append(blocks, anthropic.NewTextBlock(v.Text))
		case conv.ToolUse:
			blocks = append(blocks, anthropic.ContentBlockParamUnion{
				OfToolUse: &anthropic.ToolUseBlockParam{
					Type:  "tool_use",
					ID:    v.ID,
					Name:  v.Name,
					Input: v.Input,
				},
			})
		case conv.ToolResult:
			blocks = append(blocks, anthropic.NewToolResultBlock(v.ToolUseID, payloadText(v.Content), v.IsError))
		default:
			return anthropic.MessageParam{}, fmt.Errorf("llm: unsupported block type %T", b)
		}
	}
	if m.Role == conv.RoleAssistant {
		return anthropic.NewAssistantMessage(blocks...), nil
	}
	return anthropic.NewUserMessage(blocks...), nil
}

// payloadText renders a tool payload for the wire: JSON strings verbatim,
// structured data as compact JSON.
func payloadText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func toToolParams(tools []mcpx.ToolDescriptor) ([]anthropic.ToolUnionParam, error) {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		var schema struct {
			Properties map[string]any `json:"properties"`
			Required   []string       `json:"required"`
		}
		if err := json.Unmarshal(t.InputSchema, &schema); err != nil {
			return nil, fmt.Errorf("llm: invalid input schema for tool %q: %w", t.Name, err)
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: schema.Properties,
				Required:   schema.Required,
			},
		}})
	}
	return out, nil
}

func fromSDKMessage(msg *anthropic.Message) conv.Message {
	out := conv.Message{Role: conv.RoleAssistant}
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			out.Content = append(out.Content, conv.Text{Text: v.Text})
		case anthropic.ToolUseBlock:
			out.Content = append(out.Content, conv.ToolUse{
				ID:    v.ID,
				Name:  v.Name,
				Input: json.RawMessage(v.JSON.Input.Raw()),
			})
		}
	}
	return out
}
