package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verlune/quickchat/internal/conv"
)

// Snapshot is the persisted form of the conversation state: both memory
// tiers, rewritten wholesale on every mutation.
type Snapshot struct {
	LongTermMemory  []conv.Message `json:"long_term_memory"`
	ShortTermMemory []conv.Message `json:"short_term_memory"`
}

// Transcript persists snapshots to one JSON file per session.
type Transcript struct {
	path string
	id   string
}

// NewSessionID generates the transcript key for one process invocation:
// a readable timestamp plus a short random suffix.
func NewSessionID() string {
	ts := time.Now().Format("2006-01-02-15-04-05")
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return ts + "_" + suffix
}

// NewTranscript creates the history directory and binds the store to the
// session's file. The file is only written, never read back by this process.
func NewTranscript(dir, sessionID string) (*Transcript, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}
	return &Transcript{
		path: filepath.Join(dir, "chat_history_"+sessionID+".json"),
		id:   sessionID,
	}, nil
}

// SessionID returns the immutable session token.
func (t *Transcript) SessionID() string { return t.id }

// Path returns the transcript file location.
func (t *Transcript) Path() string { return t.path }

// Write rewrites the whole transcript. It writes to a temp file in the same
// directory and renames, so a crash mid-write leaves the previous snapshot
// intact.
func (t *Transcript) Write(snap Snapshot) error {
	if snap.LongTermMemory == nil {
		snap.LongTermMemory = []conv.Message{}
	}
	if snap.ShortTermMemory == nil {
		snap.ShortTermMemory = []conv.Message{}
	}
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding transcript: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(t.path), ".chat_history_*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp transcript: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing transcript: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing transcript: %w", err)
	}
	if err := os.Rename(tmp.Name(), t.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing transcript: %w", err)
	}
	return nil
}

// Read loads a snapshot back from disk. Used by tests and tooling; the
// running session treats its in-memory state as authoritative.
func (t *Transcript) Read() (Snapshot, error) {
	var snap Snapshot
	b, err := os.ReadFile(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return snap, nil
		}
		return snap, err
	}
	if err := json.Unmarshal(b, &snap); err != nil {
		return snap, fmt.Errorf("decoding transcript: %w", err)
	}
	return snap, nil
}
