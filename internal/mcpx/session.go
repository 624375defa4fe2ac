// Package mcpx is the client-side boundary to the external tool server.
// The server is reached over MCP and consumed through the narrow Session
// interface: initialize, list tools, call a tool.
package mcpx

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// ToolDescriptor is one catalog entry fetched at connection time and treated
// as read-only for the rest of the session.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// Session is the tool-execution capability consumed by the orchestrator.
// Initialize must succeed before any other call.
type Session interface {
	Initialize(ctx context.Context) error
	ListTools(ctx context.Context) ([]ToolDescriptor, error)
	CallTool(ctx context.Context, name string, args map[string]any) (json.RawMessage, error)
	Close() error
}

// StdioSession talks MCP to a tool server subprocess over stdio.
type StdioSession struct {
	client *client.Client
}

// NewStdioSession launches the tool server process and wraps it in a
// session. env entries are "KEY=VALUE" pairs appended to the inherited
// environment.
func NewStdioSession(command string, env []string, args ...string) (*StdioSession, error) {
	c, err := client.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, fmt.Errorf("starting tool server %q: %w", command, err)
	}
	return &StdioSession{client: c}, nil
}

// Initialize performs the MCP handshake.
func (s *StdioSession) Initialize(ctx context.Context) error {
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{Name: "quickchat", Version: "1.0.0"}
	if _, err := s.client.Initialize(ctx, req); err != nil {
		return fmt.Errorf("initializing tool session: %w", err)
	}
	return nil
}

// ListTools fetches the tool catalog.
func (s *StdioSession) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	res, err := s.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("listing tools: %w", err)
	}
	out := make([]ToolDescriptor, 0, len(res.Tools))
	for _, t := range res.Tools {
		schema, err := json.Marshal(t.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("encoding schema for tool %q: %w", t.Name, err)
		}
		out = append(out, ToolDescriptor{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schema,
		})
	}
	return out, nil
}

// CallTool invokes a tool and returns its payload. A result the server
// flags as an error is surfaced as a Go error so the caller can encode it
// for the model.
func (s *StdioSession) CallTool(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := s.client.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("calling tool %q: %w", name, err)
	}
	payload, err := ResultPayload(res)
	if err != nil {
		return nil, fmt.Errorf("tool %q: %w", name, err)
	}
	if res.IsError {
		return nil, fmt.Errorf("tool %q reported an error: %s", name, payloadString(payload))
	}
	return payload, nil
}

// Close terminates the tool server subprocess.
func (s *StdioSession) Close() error {
	return s.client.Close()
}

// ResultPayload reduces an MCP call result to one JSON payload: a lone text
// block becomes a JSON string, anything else becomes a JSON array of the
// blocks' generic string forms.
func ResultPayload(res *mcp.CallToolResult) (json.RawMessage, error) {
	texts := make([]string, 0, len(res.Content))
	for _, c := range res.Content {
		switch v := c.(type) {
		case mcp.TextContent:
			texts = append(texts, v.Text)
		default:
			texts = append(texts, fmt.Sprintf("%v", c))
		}
	}
	switch len(texts) {
	case 0:
		return json.Marshal("")
	case 1:
		return json.Marshal(texts[0])
	default:
		return json.Marshal(texts)
	}
}

func payloadString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
