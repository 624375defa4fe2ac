package llm

import (
	"context"
	"errors"
	"fmt"

	charmlog "github.com/charmbracelet/log"

	"github.com/verlune/quickchat/internal/conv"
	"github.com/verlune/quickchat/internal/mcpx"
	"github.com/verlune/quickchat/internal/trace"
)

// ErrAllModelsFailed is returned when every configured model rejected the
// call. The turn fails; the session and transcript stay intact.
var ErrAllModelsFailed = errors.New("all models failed")

// maxResponseTokens caps the assistant reply per call.
const maxResponseTokens = 2024

// Invoker tries an ordered list of candidate models, one attempt each.
// This is fallback across backends, not retry-with-backoff.
type Invoker struct {
	backend Backend
	models  []string
	log     *charmlog.Logger
	sink    *trace.Sink
}

// NewInvoker builds an invoker over the given model list, attempted in order.
func NewInvoker(backend Backend, models []string, logger *charmlog.Logger, sink *trace.Sink) *Invoker {
	return &Invoker{
		backend: backend,
		models:  models,
		log:     logger.With("component", "invoker"),
		sink:    sink,
	}
}

// Invoke sends the context to each model in order and returns the first
// success. The tool catalog is attached identically to every attempt, so a
// later model sees the same affordances as the first.
func (inv *Invoker) Invoke(ctx context.Context, messages []conv.Message, tools []mcpx.ToolDescriptor) (conv.Message, error) {
	if len(inv.models) == 0 {
		return conv.Message{}, fmt.Errorf("%w: no models configured", ErrAllModelsFailed)
	}

	turnID, _ := trace.TurnIDFromContext(ctx)

	var lastErr error
	for i, model := range inv.models {
		inv.sink.Emit("model_attempt", map[string]any{"turn_id": turnID, "model": model, "attempt": i + 1})

		resp, err := inv.backend.CreateMessage(ctx, model, messages, tools, maxResponseTokens)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		inv.log.Warn("model failed", "model", model, "error", err)
		if i < len(inv.models)-1 {
			inv.log.Warn("attempting with the next model", "model", inv.models[i+1])
			inv.sink.Emit("model_fallback", map[string]any{"turn_id": turnID, "from": model, "to": inv.models[i+1]})
		}
	}

	inv.log.Error("all models failed, no more models to try")
	return conv.Message{}, fmt.Errorf("%w: last error: %v", ErrAllModelsFailed, lastErr)
}
