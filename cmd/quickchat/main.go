// Quickchat: a command-line conversational agent.
//
// It talks to Anthropic models, keeps a two-tier conversation memory with a
// persisted transcript, and delegates sub-tasks to an external MCP tool
// server launched over stdio.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
