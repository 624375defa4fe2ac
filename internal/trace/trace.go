// Package trace emits JSONL diagnostic events for turn orchestration.
//
// Events are appended to <dir>/events.jsonl only when QUICKCHAT_TRACE=1, so
// the sink is free to be best-effort: a failed write must never fail the
// conversation.
package trace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Sink appends events to a single JSONL file.
type Sink struct {
	path    string
	enabled bool
}

// NewSink returns a sink writing under dir. The sink is disabled unless
// QUICKCHAT_TRACE=1.
func NewSink(dir string) *Sink {
	return &Sink{
		path:    filepath.Join(dir, "events.jsonl"),
		enabled: os.Getenv("QUICKCHAT_TRACE") == "1",
	}
}

// Emit writes one JSON line augmented with the event name and an
// RFC3339Nano timestamp. The caller's map is not mutated.
func (s *Sink) Emit(name string, fields map[string]any) {
	if s == nil || !s.enabled {
		return
	}

	m := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		m[k] = v
	}
	m["time"] = time.Now().UTC().Format(time.RFC3339Nano)
	m["event"] = name

	b, err := json.Marshal(m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "trace: marshal: %v\n", err)
		return
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "trace: mkdir: %v\n", err)
		return
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "trace: open %s: %v\n", s.path, err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "trace: write %s: %v\n", s.path, err)
	}
}
