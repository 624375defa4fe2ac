package toolsrv

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/mark3labs/mcp-go/mcp"
)

// overallRuneCap bounds a fetched page so tool results stay predictably
// small in the model context.
const overallRuneCap = 12_000

const truncationSentinel = "\n-- truncated --"

// FetchURLInput is the fetch_url tool contract.
type FetchURLInput struct {
	URL string `json:"url" jsonschema_description:"Absolute http(s) URL to fetch."`
}

// FetchURLTool retrieves a URL and returns its body as text.
type FetchURLTool struct {
	client *resty.Client
}

// NewFetchURLTool builds the tool with a shared HTTP client.
func NewFetchURLTool(client *resty.Client) *FetchURLTool {
	return &FetchURLTool{client: client}
}

// Definition returns the MCP tool definition for registration.
func (t *FetchURLTool) Definition() mcp.Tool {
	return mcp.NewToolWithRawSchema(
		"fetch_url",
		"Fetch an http(s) URL and return the raw response body as text (truncated past a size cap).",
		GenerateSchema[FetchURLInput](),
	)
}

// Handle processes a fetch_url call.
func (t *FetchURLTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url := strings.TrimSpace(req.GetString("url", ""))
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return mcp.NewToolResultError("'url' must be an absolute http(s) URL"), nil
	}

	resp, err := t.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fetch failed: %v", err)), nil
	}
	if resp.IsError() {
		return mcp.NewToolResultError(fmt.Sprintf("fetch returned status %d", resp.StatusCode())), nil
	}

	return mcp.NewToolResultText(ClampRunes(resp.String(), overallRuneCap)), nil
}

// ClampRunes truncates s to at most n runes, appending a sentinel when
// anything was cut.
func ClampRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + truncationSentinel
}
