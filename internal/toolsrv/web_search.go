package toolsrv

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tidwall/gjson"
)

const tavilyEndpoint = "https://api.tavily.com/search"

const defaultMaxResults = 5

// WebSearchInput is the web_search tool contract.
type WebSearchInput struct {
	Query      string `json:"query" jsonschema_description:"The content to search the internet for."`
	MaxResults int    `json:"max_results,omitempty" jsonschema_description:"Maximum number of results to return (default 5)."`
}

// WebSearchTool searches the internet through the Tavily HTTP API.
type WebSearchTool struct {
	client   *resty.Client
	endpoint string
}

// NewWebSearchTool builds the tool with a shared HTTP client.
func NewWebSearchTool(client *resty.Client) *WebSearchTool {
	return &WebSearchTool{client: client, endpoint: tavilyEndpoint}
}

// Definition returns the MCP tool definition for registration.
func (t *WebSearchTool) Definition() mcp.Tool {
	return mcp.NewToolWithRawSchema(
		"web_search",
		"Search the internet and return the top results as titles, snippets and links.",
		GenerateSchema[WebSearchInput](),
	)
}

// Handle processes a web_search call.
func (t *WebSearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(req.GetString("query", ""))
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}
	maxResults := req.GetInt("max_results", defaultMaxResults)
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	apiKey := os.Getenv("TAVILY_API_KEY")
	if apiKey == "" {
		return mcp.NewToolResultError("TAVILY_API_KEY is not set in the tool server environment"), nil
	}

	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{
			"api_key":     apiKey,
			"query":       query,
			"max_results": maxResults,
		}).
		Post(t.endpoint)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search request failed: %v", err)), nil
	}
	if resp.IsError() {
		return mcp.NewToolResultError(fmt.Sprintf("search API returned status %d: %s", resp.StatusCode(), resp.String())), nil
	}

	formatted := FormatSearchResults(resp.Body())
	if formatted == "" {
		return mcp.NewToolResultText("No search results found."), nil
	}
	return mcp.NewToolResultText(formatted), nil
}

// FormatSearchResults renders a search API response body as one readable
// block per result: title, snippet, link.
func FormatSearchResults(body []byte) string {
	results := gjson.GetBytes(body, "results")
	if !results.Exists() || !results.IsArray() {
		return ""
	}

	var blocks []string
	results.ForEach(func(_, r gjson.Result) bool {
		title := r.Get("title").String()
		if title == "" {
			title = "No title"
		}
		snippet := r.Get("content").String()
		if snippet == "" {
			snippet = "No description"
		}
		link := r.Get("url").String()
		if link == "" {
			link = "No URL"
		}
		blocks = append(blocks, fmt.Sprintf("Title: %s\nSnippet: %s\nLink: %s", title, snippet, link))
		return true
	})
	return strings.Join(blocks, "\n\n")
}
