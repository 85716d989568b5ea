package pipeline

import (
	"sync"
	"time"
)

// Transcript records the canonical ordered log of a run together with the
// last progress update and statistics snapshot it observed.
type Transcript struct {
	mu       sync.Mutex
	now      func() time.Time
	entries  []LogEntry
	percent  int
	label    string
	stats    Stats
	hasStats bool
}

// NewTranscript creates an empty transcript. A nil clock uses time.Now.
func NewTranscript(now func() time.Time) *Transcript {
	if now == nil {
		now = time.Now
	}
	return &Transcript{now: now}
}

func (t *Transcript) AppendLog(level Level, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, LogEntry{Time: t.now(), Level: level, Message: message})
}

func (t *Transcript) ReportProgress(percent int, label string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.percent = percent
	t.label = label
}

func (t *Transcript) ObserveStats(snapshot Stats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats = snapshot.Snapshot()
	t.hasStats = true
}

// Entries returns a copy of the recorded log entries.
func (t *Transcript) Entries() []LogEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]LogEntry(nil), t.entries...)
}

// Progress returns the last reported progress.
func (t *Transcript) Progress() (int, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.percent, t.label
}

// LastStats returns the most recent statistics snapshot, if any.
func (t *Transcript) LastStats() (Stats, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats.Snapshot(), t.hasStats
}
