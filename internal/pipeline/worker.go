package pipeline

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrBusy is returned when a pipeline is already executing on the worker.
	ErrBusy = errors.New("a pipeline is already running")
	// ErrNotStarted is returned by Wait before any pipeline was started.
	ErrNotStarted = errors.New("no pipeline started")
)

// Worker runs at most one pipeline at a time on a background goroutine,
// keeping the caller free to observe progress or request a stop.
type Worker struct {
	mu      sync.Mutex
	current *Pipeline
	done    chan struct{}
	result  Result
	err     error
}

// NewWorker creates an idle worker.
func NewWorker() *Worker {
	return &Worker{}
}

// Start launches p in the background. It returns ErrBusy while a previous
// pipeline is still running.
func (w *Worker) Start(ctx context.Context, p *Pipeline, env Env) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busyLocked() {
		return ErrBusy
	}
	done := make(chan struct{})
	w.current = p
	w.done = done
	w.result = Result{}
	w.err = nil

	go func() {
		res, err := p.Run(ctx, env)
		w.mu.Lock()
		w.result, w.err = res, err
		w.mu.Unlock()
		close(done)
	}()
	return nil
}

// Busy reports whether a pipeline is executing.
func (w *Worker) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.busyLocked()
}

func (w *Worker) busyLocked() bool {
	if w.done == nil {
		return false
	}
	select {
	case <-w.done:
		return false
	default:
		return true
	}
}

// Stop asks the running pipeline to finish after its current step.
func (w *Worker) Stop() {
	w.mu.Lock()
	p := w.current
	w.mu.Unlock()
	if p != nil {
		p.Stop()
	}
}

// Done returns a channel closed when the current run finishes.
func (w *Worker) Done() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return w.done
}

// Wait blocks until the current run finishes and returns its result.
func (w *Worker) Wait() (Result, error) {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()
	if done == nil {
		return Result{}, ErrNotStarted
	}
	<-done
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result, w.err
}
