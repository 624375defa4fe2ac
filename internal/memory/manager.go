// Package memory owns the two-tier conversation state: a short-term tier of
// recent uncompressed messages and a long-term tier of summaries and
// manually archived spans. Every mutation is mirrored to the transcript file.
package memory

import (
	"context"

	charmlog "github.com/charmbracelet/log"

	"github.com/verlune/quickchat/internal/conv"
)

// DefaultThreshold bounds the short-term tier when no value is configured.
const DefaultThreshold = 50

// summaryPrefix precedes every compressed span appended to long-term memory.
const summaryPrefix = "Historical conversation summary: "

// manualStorePrefix precedes uncompressed spans archived on user request.
const manualStorePrefix = "User requested to save the following conversation content:\n"

// summaryFallback stands in when the summarizer fails; summarization
// failures are non-fatal to the conversation.
const summaryFallback = "Fail to summarize"

// Summarizer condenses a message span into a short text synopsis.
type Summarizer interface {
	Summarize(ctx context.Context, messages []conv.Message) (string, error)
}

// Manager is the sole owner of the conversation state for one session.
// It is not safe for concurrent use; the orchestrator is strictly serial.
type Manager struct {
	shortTerm []conv.Message
	longTerm  []conv.Message

	threshold  int
	summarizer Summarizer
	transcript *Transcript
	log        *charmlog.Logger
}

// NewManager builds a manager around the given transcript store. threshold
// bounds the short-term tier after the next full-context read; values < 1
// fall back to DefaultThreshold.
func NewManager(transcript *Transcript, summarizer Summarizer, threshold int, logger *charmlog.Logger) *Manager {
	if threshold < 1 {
		threshold = DefaultThreshold
	}
	m := &Manager{
		threshold:  threshold,
		summarizer: summarizer,
		transcript: transcript,
		log:        logger.With("component", "memory"),
	}
	// Persist the empty state so the session file exists from the start.
	m.snapshot()
	return m
}

// Append adds a message to short-term memory and snapshots. It never
// summarizes: compression is a read-side effect, so bursts of appends may
// transiently exceed the threshold between reads.
func (m *Manager) Append(msg conv.Message) {
	m.shortTerm = append(m.shortTerm, msg)
	m.snapshot()
}

// FullContext returns long-term followed by short-term memory, in insertion
// order. If the short-term tier has reached the threshold it is first
// compressed into a single long-term summary message, so the short-term
// length is always below the threshold when this returns.
func (m *Manager) FullContext(ctx context.Context) []conv.Message {
	if len(m.shortTerm) >= m.threshold {
		m.log.Info("short-term memory threshold reached, summarizing",
			"messages", len(m.shortTerm), "threshold", m.threshold)

		summary, err := m.summarizer.Summarize(ctx, m.shortTerm)
		if err != nil {
			m.log.Warn("summarization failed, storing placeholder", "error", err)
			summary = summaryFallback
		}
		m.longTerm = append(m.longTerm, conv.UserText(summaryPrefix+summary))
		m.shortTerm = nil
	}
	m.snapshot()

	out := make([]conv.Message, 0, len(m.longTerm)+len(m.shortTerm))
	out = append(out, m.longTerm...)
	out = append(out, m.shortTerm...)
	return out
}

// StoreShortTerm archives the raw short-term tier into long-term memory as a
// single uncompressed message, bypassing summarization, then clears it.
func (m *Manager) StoreShortTerm() {
	m.longTerm = append(m.longTerm, conv.UserText(manualStorePrefix+conv.Format(m.shortTerm)))
	m.shortTerm = nil
	m.snapshot()
}

// Reset clears both tiers. The emptied state is still persisted.
func (m *Manager) Reset() {
	m.shortTerm = nil
	m.longTerm = nil
	m.snapshot()
}

// Peek returns both tiers in insertion order without triggering
// summarization. For display only; model calls go through FullContext.
func (m *Manager) Peek() []conv.Message {
	out := make([]conv.Message, 0, len(m.longTerm)+len(m.shortTerm))
	out = append(out, m.longTerm...)
	out = append(out, m.shortTerm...)
	return out
}

// ShortTermLen reports the current short-term tier size.
func (m *Manager) ShortTermLen() int { return len(m.shortTerm) }

// LongTermLen reports the current long-term tier size.
func (m *Manager) LongTermLen() int { return len(m.longTerm) }

// TranscriptPath returns the on-disk location of the session transcript.
func (m *Manager) TranscriptPath() string { return m.transcript.Path() }

// snapshot mirrors the in-memory state to disk. I/O failures are logged and
// swallowed: the in-memory state stays authoritative for the session.
func (m *Manager) snapshot() {
	err := m.transcript.Write(Snapshot{
		LongTermMemory:  m.longTerm,
		ShortTermMemory: m.shortTerm,
	})
	if err != nil {
		m.log.Error("failed to persist transcript", "path", m.transcript.Path(), "error", err)
	}
}
