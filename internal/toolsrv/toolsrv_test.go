package toolsrv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"
)

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return tc.Text
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func TestGenerateSchema_WebSearchInput(t *testing.T) {
	schema := string(GenerateSchema[WebSearchInput]())

	require.Contains(t, schema, `"query"`)
	require.Contains(t, schema, `"max_results"`)
	require.Contains(t, schema, `"object"`)
}

func TestFormatSearchResults(t *testing.T) {
	body := []byte(`{
		"results": [
			{"title": "Go", "content": "The Go programming language", "url": "https://go.dev"},
			{"title": "", "content": "", "url": ""}
		]
	}`)

	got := FormatSearchResults(body)

	blocks := strings.Split(got, "\n\n")
	require.Len(t, blocks, 2)
	require.Equal(t, "Title: Go\nSnippet: The Go programming language\nLink: https://go.dev", blocks[0])
	require.Equal(t, "Title: No title\nSnippet: No description\nLink: No URL", blocks[1])
}

func TestFormatSearchResults_NoResults(t *testing.T) {
	require.Empty(t, FormatSearchResults([]byte(`{"results": []}`)))
	require.Empty(t, FormatSearchResults([]byte(`{}`)))
	require.Empty(t, FormatSearchResults([]byte(`not json`)))
}

func TestWebSearch_MissingQuery(t *testing.T) {
	tool := NewWebSearchTool(resty.New())

	res, err := tool.Handle(context.Background(), callRequest("web_search", map[string]any{}))
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, resultText(t, res), "'query' is required")
}

func TestWebSearch_MissingAPIKey(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "")
	tool := NewWebSearchTool(resty.New())

	res, err := tool.Handle(context.Background(), callRequest("web_search", map[string]any{"query": "go"}))
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, resultText(t, res), "TAVILY_API_KEY")
}

func TestWebSearch_SuccessAgainstFakeAPI(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "test-key")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"title":"Go","content":"lang","url":"https://go.dev"}]}`))
	}))
	defer srv.Close()

	tool := &WebSearchTool{client: resty.New(), endpoint: srv.URL}

	res, err := tool.Handle(context.Background(), callRequest("web_search", map[string]any{"query": "go"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Contains(t, resultText(t, res), "Title: Go")
}

func TestFetchURL_RejectsNonHTTP(t *testing.T) {
	tool := NewFetchURLTool(resty.New())

	res, err := tool.Handle(context.Background(), callRequest("fetch_url", map[string]any{"url": "file:///etc/passwd"}))
	require.NoError(t, err)
	require.True(t, res.IsError)
}

func TestFetchURL_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("page body"))
	}))
	defer srv.Close()

	tool := NewFetchURLTool(resty.New())

	res, err := tool.Handle(context.Background(), callRequest("fetch_url", map[string]any{"url": srv.URL}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Equal(t, "page body", resultText(t, res))
}

func TestClampRunes(t *testing.T) {
	require.Equal(t, "short", ClampRunes("short", 10))

	long := strings.Repeat("x", 20)
	got := ClampRunes(long, 10)
	require.True(t, strings.HasPrefix(got, strings.Repeat("x", 10)))
	require.True(t, strings.HasSuffix(got, truncationSentinel))
}
