// Package llm sends conversation context to Anthropic model backends, with
// ordered fallback across a configured model list.
package llm

import (
	"context"

	"github.com/verlune/quickchat/internal/conv"
	"github.com/verlune/quickchat/internal/mcpx"
)

// Backend is one round trip to a model provider. Implementations report
// provider rejections as errors; the invoker decides whether to fall back.
type Backend interface {
	CreateMessage(ctx context.Context, model string, messages []conv.Message, tools []mcpx.ToolDescriptor, maxTokens int64) (conv.Message, error)
}
