package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/verlune/quickchat/internal/conv"
)

// DefaultSummaryModel is used when no summary model is configured. A small
// model is enough: summaries trade fidelity for context headroom.
const DefaultSummaryModel = "claude-3-5-haiku-latest"

// maxSummaryTokens caps the synopsis length.
const maxSummaryTokens = 512

const summaryInstruction = "Please provide a concise summary of the following conversation, " +
	"extracting only the key information and main points. Return only the summary content, " +
	"without any additional embellishments."

// Summarizer condenses a conversation span via a single fixed-prompt model
// call. It satisfies memory.Summarizer.
type Summarizer struct {
	backend Backend
	model   string
}

// NewSummarizer builds a summarizer on the given backend. An empty model
// selects DefaultSummaryModel.
func NewSummarizer(backend Backend, model string) *Summarizer {
	if model == "" {
		model = DefaultSummaryModel
	}
	return &Summarizer{backend: backend, model: model}
}

// Summarize renders the span with conv.Format and asks the summary model for
// a synopsis. No tools are attached.
func (s *Summarizer) Summarize(ctx context.Context, messages []conv.Message) (string, error) {
	prompt := []conv.Message{
		conv.UserText(summaryInstruction),
		conv.AssistantText("Conversation content:\n" + conv.Format(messages)),
	}

	resp, err := s.backend.CreateMessage(ctx, s.model, prompt, nil, maxSummaryTokens)
	if err != nil {
		return "", fmt.Errorf("summarizing conversation: %w", err)
	}

	parts := resp.TextParts()
	if len(parts) == 0 {
		return "", fmt.Errorf("summary model %q returned no text", s.model)
	}
	return strings.TrimSpace(strings.Join(parts, "\n")), nil
}
