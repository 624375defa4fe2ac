// Package toolsrv is quickchat's built-in MCP tool server: the search and
// fetch utilities the chat agent reaches over the tool session. Tools are
// registered from an explicit manifest in New: adding a tool means adding
// a registration line here, not dropping a file in a directory.
package toolsrv

import (
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with all tools registered.
func New() *server.MCPServer {
	s := server.NewMCPServer(
		"quickchat-tools",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	client := resty.New().SetTimeout(30 * time.Second)

	webSearch := NewWebSearchTool(client)
	s.AddTool(webSearch.Definition(), webSearch.Handle)

	fetchURL := NewFetchURLTool(client)
	s.AddTool(fetchURL.Definition(), fetchURL.Handle)

	return s
}
