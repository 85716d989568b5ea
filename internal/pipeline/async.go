package pipeline

import "sync"

type eventKind int

const (
	eventProgress eventKind = iota
	eventLog
	eventStats
)

type event struct {
	kind    eventKind
	percent int
	label   string
	level   Level
	message string
	stats   Stats
}

// AsyncSink hands updates to a target sink on its own goroutine so a slow
// renderer never blocks the worker. The queue is unbounded and FIFO; only
// consecutive progress updates for the same label are coalesced, log entries
// are never dropped or merged.
type AsyncSink struct {
	target Sink

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []event
	closed bool
	done   chan struct{}
}

// NewAsyncSink starts delivering to target. Call Close to flush and stop.
func NewAsyncSink(target Sink) *AsyncSink {
	s := &AsyncSink{target: target, done: make(chan struct{})}
	s.cond = sync.NewCond(&s.mu)
	go s.loop()
	return s
}

func (s *AsyncSink) ReportProgress(percent int, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if n := len(s.queue); n > 0 {
		last := &s.queue[n-1]
		if last.kind == eventProgress && last.label == label {
			last.percent = percent
			return
		}
	}
	s.queue = append(s.queue, event{kind: eventProgress, percent: percent, label: label})
	s.cond.Signal()
}

func (s *AsyncSink) AppendLog(level Level, message string) {
	s.push(event{kind: eventLog, level: level, message: message})
}

func (s *AsyncSink) ObserveStats(snapshot Stats) {
	s.push(event{kind: eventStats, stats: snapshot.Snapshot()})
}

func (s *AsyncSink) push(e event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue = append(s.queue, e)
	s.cond.Signal()
}

// Close delivers everything already queued and stops the delivery goroutine.
func (s *AsyncSink) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		s.cond.Signal()
	}
	s.mu.Unlock()
	<-s.done
}

func (s *AsyncSink) loop() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 && s.closed {
			s.mu.Unlock()
			return
		}
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, e := range batch {
			s.deliver(e)
		}
	}
}

func (s *AsyncSink) deliver(e event) {
	switch e.kind {
	case eventProgress:
		s.target.ReportProgress(e.percent, e.label)
	case eventLog:
		s.target.AppendLog(e.level, e.message)
	case eventStats:
		if obs, ok := s.target.(StatsObserver); ok {
			obs.ObserveStats(e.stats)
		}
	}
}
