package chat

import (
	"fmt"
	"strings"

	"github.com/verlune/quickchat/internal/conv"
)

// Control commands are matched case-sensitively against the raw turn input.
// CmdExit and CmdQuit are handled by the REPL before the orchestrator runs.
const (
	CmdExit    = "/exit"
	CmdQuit    = "/quit"
	CmdMemory  = "/memory"
	CmdReset   = "/reset"
	CmdHistory = "/history"
)

// IsExit reports whether the input terminates the outer loop.
func IsExit(input string) bool {
	return input == CmdExit || input == CmdQuit
}

// handleCommand performs the memory operation a reserved command names and
// reports whether the turn is done without invoking the model. Unknown
// slash-prefixed inputs get a warning instead of being sent to the model.
func (o *Orchestrator) handleCommand(input string) bool {
	switch input {
	case CmdMemory:
		o.log.Info("storing short-term memory into long-term memory")
		o.mem.StoreShortTerm()
		o.out.System("The current conversation has been stored to long-term memory and will not be compressed.")
		return true
	case CmdReset:
		o.mem.Reset()
		o.out.System("Memory cleared. Starting fresh.")
		return true
	case CmdHistory:
		o.out.System(fmt.Sprintf("Transcript: %s (long-term: %d, short-term: %d messages)",
			o.mem.TranscriptPath(), o.mem.LongTermLen(), o.mem.ShortTermLen()))
		if formatted := conv.Format(o.mem.Peek()); formatted != "" {
			o.out.System(formatted)
		}
		return true
	default:
		if strings.HasPrefix(input, "/") {
			o.out.Warning(fmt.Sprintf("Unknown command %q. Available: /memory, /reset, /history, /exit.", input))
			return true
		}
		return false
	}
}
