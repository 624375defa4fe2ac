// Package chat drives one conversation session: per user turn it updates
// memory, invokes the model, executes any requested tools through the tool
// session, feeds results back, and repeats until the model produces a final
// textual answer.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/verlune/quickchat/internal/conv"
	"github.com/verlune/quickchat/internal/llm"
	"github.com/verlune/quickchat/internal/mcpx"
	"github.com/verlune/quickchat/internal/memory"
	"github.com/verlune/quickchat/internal/trace"
)

// ErrNoSession aborts a turn when the model requests a tool but no tool
// session is established: there is no channel to report the outcome the
// model expects.
var ErrNoSession = errors.New("tool session is not established")

// Output is where final assistant text and session notices go.
type Output interface {
	Assistant(text string)
	System(text string)
	Warning(text string)
}

// Orchestrator serializes turns for a single session. It owns no state
// besides its collaborators; the conversation state lives in the memory
// manager.
type Orchestrator struct {
	mem     *memory.Manager
	invoker *llm.Invoker
	session mcpx.Session
	tools   []mcpx.ToolDescriptor
	out     Output
	log     *charmlog.Logger
	sink    *trace.Sink
}

// New wires an orchestrator. session may be nil when no tool server is
// configured; tool-use responses then abort the turn with ErrNoSession.
func New(
	mem *memory.Manager,
	invoker *llm.Invoker,
	session mcpx.Session,
	tools []mcpx.ToolDescriptor,
	out Output,
	logger *charmlog.Logger,
	sink *trace.Sink,
) *Orchestrator {
	return &Orchestrator{
		mem:     mem,
		invoker: invoker,
		session: session,
		tools:   tools,
		out:     out,
		log:     logger.With("component", "orchestrator"),
		sink:    sink,
	}
}

// ProcessTurn handles one user input through to a terminal state: a control
// command, a final textual answer, a silent empty response, or an error.
func (o *Orchestrator) ProcessTurn(ctx context.Context, input string) error {
	if o.handleCommand(input) {
		return nil
	}

	turnID := fmt.Sprintf("turn-%d", time.Now().UnixNano())
	ctx = trace.WithTurnID(ctx, turnID)
	o.sink.Emit("turn_started", map[string]any{"turn_id": turnID, "input_len": len(input)})

	o.mem.Append(conv.UserText(input))

	resp, err := o.invoker.Invoke(ctx, o.mem.FullContext(ctx), o.tools)
	if err != nil {
		return fmt.Errorf("turn aborted: %w", err)
	}

	// Tool loop: unbounded, terminates when the model stops requesting tools.
	for {
		tu := resp.FirstToolUse()
		if tu == nil {
			break
		}

		o.mem.Append(conv.Message{Role: conv.RoleAssistant, Content: []conv.Block{*tu}})
		o.log.Info("calling tool", "tool", tu.Name, "args", string(tu.Input))

		if o.session == nil {
			o.log.Error("tool requested but no tool session is established", "tool", tu.Name)
			return ErrNoSession
		}

		result := o.execTool(ctx, turnID, tu)
		o.mem.Append(conv.Message{Role: conv.RoleUser, Content: []conv.Block{result}})

		resp, err = o.invoker.Invoke(ctx, o.mem.FullContext(ctx), o.tools)
		if err != nil {
			return fmt.Errorf("turn aborted: %w", err)
		}
	}

	texts := resp.TextParts()
	for _, text := range texts {
		o.mem.Append(conv.AssistantText(text))
		o.out.Assistant(text)
	}
	if len(texts) == 0 {
		// Valid but unusual terminal state: nothing to emit.
		o.log.Debug("model response carried no text and no tool use")
	}
	o.sink.Emit("turn_finished", map[string]any{"turn_id": turnID, "texts": len(texts)})
	return nil
}

// execTool runs one tool call. Failures never abort the turn here: they are
// encoded as an {"error": ...} payload and handed back to the model as data.
func (o *Orchestrator) execTool(ctx context.Context, turnID string, tu *conv.ToolUse) conv.ToolResult {
	args := map[string]any{}
	if len(tu.Input) > 0 {
		if err := json.Unmarshal(tu.Input, &args); err != nil {
			o.log.Warn("tool arguments are not a JSON object", "tool", tu.Name, "error", err)
		}
	}

	start := time.Now()
	payload, err := o.session.CallTool(ctx, tu.Name, args)
	isError := err != nil
	if err != nil {
		o.log.Error("tool call failed", "tool", tu.Name, "error", err)
		payload, _ = json.Marshal(map[string]string{"error": err.Error()})
	}
	o.sink.Emit("tool_exec", map[string]any{
		"turn_id":     turnID,
		"tool_name":   tu.Name,
		"duration_ms": time.Since(start).Milliseconds(),
		"is_error":    isError,
	})

	return conv.ToolResult{ToolUseID: tu.ID, Content: payload, IsError: isError}
}
