package pipeline

import "time"

// Level classifies a transcript line.
type Level string

const (
	LevelInfo     Level = "INFO"
	LevelSuccess  Level = "SUCCESS"
	LevelWarning  Level = "WARNING"
	LevelError    Level = "ERROR"
	LevelProgress Level = "PROGRESS"
)

// LogEntry is one immutable transcript line.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
}

// Sink receives progress and log updates from a running pipeline. Calls arrive
// from the pipeline's worker goroutine; implementations must not block
// indefinitely and must keep AppendLog calls in arrival order.
type Sink interface {
	ReportProgress(percent int, label string)
	AppendLog(level Level, message string)
}

// StatsObserver is an optional Sink extension that receives a statistics
// snapshot after every step. The snapshot, not the live Stats value, is the
// consistency boundary for readers outside the worker.
type StatsObserver interface {
	ObserveStats(snapshot Stats)
}

// Fanout delivers every update to each sink in order.
type Fanout []Sink

func (f Fanout) ReportProgress(percent int, label string) {
	for _, s := range f {
		if s != nil {
			s.ReportProgress(percent, label)
		}
	}
}

func (f Fanout) AppendLog(level Level, message string) {
	for _, s := range f {
		if s != nil {
			s.AppendLog(level, message)
		}
	}
}

func (f Fanout) ObserveStats(snapshot Stats) {
	for _, s := range f {
		if obs, ok := s.(StatsObserver); ok {
			obs.ObserveStats(snapshot.Snapshot())
		}
	}
}

// Discard drops every update.
type Discard struct{}

func (Discard) ReportProgress(int, string) {}
func (Discard) AppendLog(Level, string)    {}

func observe(s Sink, stats *Stats) {
	if obs, ok := s.(StatsObserver); ok {
		obs.ObserveStats(stats.Snapshot())
	}
}
