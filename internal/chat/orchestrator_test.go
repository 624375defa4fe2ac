package chat_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	charmlog "github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/verlune/quickchat/internal/chat"
	"github.com/verlune/quickchat/internal/conv"
	"github.com/verlune/quickchat/internal/llm"
	"github.com/verlune/quickchat/internal/mcpx"
	"github.com/verlune/quickchat/internal/memory"
	"github.com/verlune/quickchat/internal/trace"
)

// scriptedBackend returns its responses in order; extra calls fail the call.
type scriptedBackend struct {
	responses []conv.Message
	calls     int
}

func (b *scriptedBackend) CreateMessage(_ context.Context, _ string, _ []conv.Message, _ []mcpx.ToolDescriptor, _ int64) (conv.Message, error) {
	if b.calls >= len(b.responses) {
		return conv.Message{}, errors.New("no scripted response left")
	}
	resp := b.responses[b.calls]
	b.calls++
	return resp, nil
}

// fakeSession records tool calls and returns a fixed payload or error.
type fakeSession struct {
	payload json.RawMessage
	err     error

	calledName string
	calledArgs map[string]any
	calls      int
}

func (s *fakeSession) Initialize(context.Context) error { return nil }
func (s *fakeSession) Close() error                     { return nil }
func (s *fakeSession) ListTools(context.Context) ([]mcpx.ToolDescriptor, error) {
	return nil, nil
}
func (s *fakeSession) CallTool(_ context.Context, name string, args map[string]any) (json.RawMessage, error) {
	s.calls++
	s.calledName = name
	s.calledArgs = args
	return s.payload, s.err
}

// recordingOutput captures everything the orchestrator emits.
type recordingOutput struct {
	assistant []string
	system    []string
	warnings  []string
}

func (o *recordingOutput) Assistant(text string) { o.assistant = append(o.assistant, text) }
func (o *recordingOutput) System(text string)    { o.system = append(o.system, text) }
func (o *recordingOutput) Warning(text string)   { o.warnings = append(o.warnings, text) }

type fixture struct {
	orch    *chat.Orchestrator
	mem     *memory.Manager
	backend *scriptedBackend
	session *fakeSession
	out     *recordingOutput
}

type nopSummarizer struct{}

func (nopSummarizer) Summarize(context.Context, []conv.Message) (string, error) {
	return "summary", nil
}

func newFixture(t *testing.T, backend *scriptedBackend, session mcpx.Session) *fixture {
	t.Helper()
	logger := charmlog.New(io.Discard)
	sink := trace.NewSink(t.TempDir())

	tr, err := memory.NewTranscript(t.TempDir(), "test")
	require.NoError(t, err)
	mem := memory.NewManager(tr, nopSummarizer{}, 100, logger)

	inv := llm.NewInvoker(backend, []string{"model-a"}, logger, sink)
	out := &recordingOutput{}

	fs, _ := session.(*fakeSession)
	return &fixture{
		orch:    chat.New(mem, inv, session, nil, out, logger, sink),
		mem:     mem,
		backend: backend,
		session: fs,
		out:     out,
	}
}

func toolUseResponse(id, name, args string) conv.Message {
	return conv.Message{
		Role: conv.RoleAssistant,
		Content: []conv.Block{
			conv.ToolUse{ID: id, Name: name, Input: json.RawMessage(args)},
		},
	}
}

func TestProcessTurn_PlainTextAnswer(t *testing.T) {
	backend := &scriptedBackend{responses: []conv.Message{conv.AssistantText("hello there")}}
	f := newFixture(t, backend, &fakeSession{})

	require.NoError(t, f.orch.ProcessTurn(context.Background(), "hi"))

	require.Equal(t, []string{"hello there"}, f.out.assistant)

	got := f.mem.FullContext(context.Background())
	require.Len(t, got, 2)
	require.Equal(t, conv.RoleUser, got[0].Role)
	require.Equal(t, []string{"hi"}, got[0].TextParts())
	require.Equal(t, conv.RoleAssistant, got[1].Role)
}

func TestProcessTurn_ToolRoundTrip(t *testing.T) {
	backend := &scriptedBackend{responses: []conv.Message{
		toolUseResponse("t1", "search", `{"q":"x"}`),
		conv.AssistantText("found it"),
	}}
	session := &fakeSession{payload: json.RawMessage(`"result"`)}
	f := newFixture(t, backend, session)

	require.NoError(t, f.orch.ProcessTurn(context.Background(), "look this up"))

	require.Equal(t, 1, session.calls)
	require.Equal(t, "search", session.calledName)
	require.Equal(t, map[string]any{"q": "x"}, session.calledArgs)
	require.Equal(t, []string{"found it"}, f.out.assistant)

	// Memory sequence: user, assistant tool_use, user tool_result, assistant text.
	got := f.mem.FullContext(context.Background())
	require.Len(t, got, 4)

	require.Equal(t, conv.RoleAssistant, got[1].Role)
	tu := got[1].FirstToolUse()
	require.NotNil(t, tu)
	require.Equal(t, "t1", tu.ID)

	require.Equal(t, conv.RoleUser, got[2].Role)
	tr, ok := got[2].Content[0].(conv.ToolResult)
	require.True(t, ok)
	require.Equal(t, "t1", tr.ToolUseID)
	require.Equal(t, `"result"`, string(tr.Content))
	require.False(t, tr.IsError)
}

func TestProcessTurn_MultipleToolCycles(t *testing.T) {
	backend := &scriptedBackend{responses: []conv.Message{
		toolUseResponse("t1", "search", `{"q":"a"}`),
		toolUseResponse("t2", "search", `{"q":"b"}`),
		conv.AssistantText("done"),
	}}
	session := &fakeSession{payload: json.RawMessage(`"ok"`)}
	f := newFixture(t, backend, session)

	require.NoError(t, f.orch.ProcessTurn(context.Background(), "go"))

	require.Equal(t, 2, session.calls)
	require.Equal(t, 3, backend.calls)
	require.Equal(t, []string{"done"}, f.out.assistant)
}

func TestProcessTurn_ToolFailureBecomesErrorPayload(t *testing.T) {
	backend := &scriptedBackend{responses: []conv.Message{
		toolUseResponse("t1", "search", `{"q":"x"}`),
		conv.AssistantText("sorry, the tool failed"),
	}}
	session := &fakeSession{err: errors.New("boom")}
	f := newFixture(t, backend, session)

	// The turn is not aborted; the error is surfaced to the model as data.
	require.NoError(t, f.orch.ProcessTurn(context.Background(), "go"))

	got := f.mem.FullContext(context.Background())
	tr, ok := got[2].Content[0].(conv.ToolResult)
	require.True(t, ok)
	require.True(t, tr.IsError)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(tr.Content, &payload))
	require.Contains(t, payload["error"], "boom")

	require.Equal(t, []string{"sorry, the tool failed"}, f.out.assistant)
}

func TestProcessTurn_NoSessionAbortsTurn(t *testing.T) {
	backend := &scriptedBackend{responses: []conv.Message{
		toolUseResponse("t1", "search", `{"q":"x"}`),
	}}
	f := newFixture(t, backend, nil)

	err := f.orch.ProcessTurn(context.Background(), "go")
	require.ErrorIs(t, err, chat.ErrNoSession)

	// The tool_use is recorded, but no tool-result message is synthesized.
	got := f.mem.FullContext(context.Background())
	require.Len(t, got, 2)
	require.NotNil(t, got[1].FirstToolUse())
}

func TestProcessTurn_AllModelsFailedAbortsTurn(t *testing.T) {
	backend := &scriptedBackend{} // no scripted responses: every call fails
	f := newFixture(t, backend, &fakeSession{})

	err := f.orch.ProcessTurn(context.Background(), "hi")
	require.ErrorIs(t, err, llm.ErrAllModelsFailed)

	// The user message stays in memory; the session remains usable.
	require.Equal(t, 1, f.mem.ShortTermLen())
}

func TestProcessTurn_EmptyResponseEndsSilently(t *testing.T) {
	backend := &scriptedBackend{responses: []conv.Message{{Role: conv.RoleAssistant}}}
	f := newFixture(t, backend, &fakeSession{})

	require.NoError(t, f.orch.ProcessTurn(context.Background(), "hi"))
	require.Empty(t, f.out.assistant)
}

func TestProcessTurn_MultipleTextBlocksAllEmitted(t *testing.T) {
	backend := &scriptedBackend{responses: []conv.Message{{
		Role:    conv.RoleAssistant,
		Content: []conv.Block{conv.Text{Text: "first"}, conv.Text{Text: "second"}},
	}}}
	f := newFixture(t, backend, &fakeSession{})

	require.NoError(t, f.orch.ProcessTurn(context.Background(), "hi"))
	require.Equal(t, []string{"first", "second"}, f.out.assistant)

	got := f.mem.FullContext(context.Background())
	require.Len(t, got, 3) // user + one assistant message per text block
}

func TestProcessTurn_MemoryCommandSkipsModel(t *testing.T) {
	backend := &scriptedBackend{}
	f := newFixture(t, backend, &fakeSession{})

	f.mem.Append(conv.UserText("earlier"))
	longBefore := f.mem.LongTermLen()

	require.NoError(t, f.orch.ProcessTurn(context.Background(), "/memory"))

	require.Zero(t, backend.calls, "control commands must not invoke the model")
	require.Zero(t, f.mem.ShortTermLen())
	require.Equal(t, longBefore+1, f.mem.LongTermLen())
	require.NotEmpty(t, f.out.system)
}

func TestProcessTurn_ResetCommand(t *testing.T) {
	f := newFixture(t, &scriptedBackend{}, &fakeSession{})

	f.mem.Append(conv.UserText("earlier"))
	require.NoError(t, f.orch.ProcessTurn(context.Background(), "/reset"))

	require.Zero(t, f.mem.ShortTermLen())
	require.Zero(t, f.mem.LongTermLen())
}

func TestProcessTurn_HistoryCommand(t *testing.T) {
	backend := &scriptedBackend{}
	f := newFixture(t, backend, &fakeSession{})

	f.mem.Append(conv.UserText("earlier question"))
	require.NoError(t, f.orch.ProcessTurn(context.Background(), "/history"))

	require.Zero(t, backend.calls)
	require.Len(t, f.out.system, 2)
	require.Contains(t, f.out.system[0], f.mem.TranscriptPath())
	require.Contains(t, f.out.system[1], "earlier question")
}

func TestProcessTurn_UnknownCommandWarns(t *testing.T) {
	backend := &scriptedBackend{}
	f := newFixture(t, backend, &fakeSession{})

	require.NoError(t, f.orch.ProcessTurn(context.Background(), "/bogus"))

	require.Zero(t, backend.calls)
	require.Len(t, f.out.warnings, 1)
}

func TestIsExit(t *testing.T) {
	require.True(t, chat.IsExit("/exit"))
	require.True(t, chat.IsExit("/quit"))
	require.False(t, chat.IsExit("/EXIT"), "control commands are case-sensitive")
	require.False(t, chat.IsExit("exit"))
}
