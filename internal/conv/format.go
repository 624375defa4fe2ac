package conv

import (
	"fmt"
	"strings"
)

// Format renders messages as LLM- and human-readable text: a "role:" header
// per message and one indented line per content block. A ToolUse renders as
// the deterministic string "Calling tool '<name>' with args: <json>"; other
// blocks fall back to their generic string form. The output is never parsed
// back.
func Format(messages []Message) string {
	var sb strings.Builder
	for _, msg := range messages {
		if len(msg.Content) == 0 {
			continue
		}
		sb.WriteString(string(msg.Role))
		sb.WriteString(": \n")
		for _, b := range msg.Content {
			switch v := b.(type) {
			case Text:
				fmt.Fprintf(&sb, "  %s\n", v.Text)
			case ToolUse:
				fmt.Fprintf(&sb, "  Calling tool '%s' with args: %s\n", v.Name, string(v.Input))
			default:
				fmt.Fprintf(&sb, "  %v\n", v)
			}
		}
	}
	return strings.TrimSpace(sb.String())
}
