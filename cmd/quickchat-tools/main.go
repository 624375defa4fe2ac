// Quickchat-tools: the built-in MCP tool server for quickchat.
//
// It serves web_search and fetch_url over stdio; quickchat launches it as a
// subprocess based on the servers section of its config.
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/verlune/quickchat/internal/toolsrv"
)

func main() {
	s := toolsrv.New()
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
