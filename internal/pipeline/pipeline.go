// Package pipeline runs ordered sequences of fallible, observable steps.
//
// A Pipeline executes its steps strictly one after another on the caller's
// goroutine, reports progress and transcript lines to a Sink, and aggregates
// a shared Stats value. Step failures are logged and recorded, never fatal:
// a run that starts always completes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/bgricker/vitalboost/internal/runner"
)

// State is the lifecycle position of a pipeline.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes the names written by MarshalText, so JSON reports read back.
func (s *State) UnmarshalText(text []byte) error {
	for _, candidate := range []State{StateIdle, StateRunning, StateCompleted, StateAborted} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown pipeline state %q", text)
}

var (
	// ErrAborted is returned when a pipeline is cancelled before its first step.
	ErrAborted = errors.New("pipeline aborted")
	// ErrAlreadyRun is returned when Run is called on a pipeline that has left Idle.
	ErrAlreadyRun = errors.New("pipeline already run")
	// ErrStepPanic wraps a panic recovered from a step.
	ErrStepPanic = errors.New("step panicked")
)

// Step outcome statuses.
const (
	StatusOK      = "ok"
	StatusWarning = "warning"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Confirmer decides whether a pipeline that asks for confirmation may start.
type Confirmer interface {
	Confirm(title, message string) bool
}

// ConfirmFunc adapts a function into a Confirmer.
type ConfirmFunc func(title, message string) bool

func (f ConfirmFunc) Confirm(title, message string) bool { return f(title, message) }

// Env carries the collaborators of one run.
type Env struct {
	Sink      Sink
	Stats     *Stats
	Confirmer Confirmer
	Now       func() time.Time
}

func (e Env) withDefaults() Env {
	if e.Sink == nil {
		e.Sink = Discard{}
	}
	if e.Stats == nil {
		e.Stats = &Stats{}
	}
	if e.Now == nil {
		e.Now = time.Now
	}
	return e
}

// StepOutcome records how one step ended. Nested holds the outcomes of a
// sub-pipeline when the step wraps one.
type StepOutcome struct {
	Label    string        `json:"label"`
	Status   string        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"-"`
	Nested   []StepOutcome `json:"nested,omitempty"`
}

// Result summarises a finished (or aborted) run.
type Result struct {
	Pipeline string        `json:"pipeline"`
	State    State         `json:"state"`
	Started  time.Time     `json:"started"`
	Finished time.Time     `json:"finished"`
	Steps    []StepOutcome `json:"steps"`
	Stats    Stats         `json:"stats"`
}

// Duration returns the wall-clock length of the run.
func (r Result) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// Operations lists the labels of every executed leaf step in order.
func (r Result) Operations() []string {
	var out []string
	var walk func([]StepOutcome)
	walk = func(steps []StepOutcome) {
		for _, s := range steps {
			if len(s.Nested) > 0 {
				walk(s.Nested)
				continue
			}
			if s.Status != StatusSkipped {
				out = append(out, s.Label)
			}
		}
	}
	walk(r.Steps)
	return out
}

// Counts returns how many leaf steps ended in each status.
func (r Result) Counts() map[string]int {
	counts := map[string]int{}
	var walk func([]StepOutcome)
	walk = func(steps []StepOutcome) {
		for _, s := range steps {
			if len(s.Nested) > 0 {
				walk(s.Nested)
				continue
			}
			counts[s.Status]++
		}
	}
	walk(r.Steps)
	return counts
}

// Pipeline is an ordered sequence of steps executed once.
type Pipeline struct {
	name         string
	steps        []Step
	confirmTitle string
	confirmMsg   string
	doneLabel    string
	children     []*Pipeline

	state atomic.Int32
	stop  atomic.Bool
}

// New assembles a pipeline from steps in declaration order.
func New(name string, steps ...Step) *Pipeline {
	return &Pipeline{
		name:      name,
		steps:     append([]Step(nil), steps...),
		doneLabel: name + " complete",
	}
}

// WithConfirmation makes Run ask the Confirmer before starting.
func (p *Pipeline) WithConfirmation(title, message string) *Pipeline {
	p.confirmTitle = title
	p.confirmMsg = message
	return p
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string { return p.name }

// Steps returns a copy of the declared steps.
func (p *Pipeline) Steps() []Step { return append([]Step(nil), p.steps...) }

// Len returns the number of steps.
func (p *Pipeline) Len() int { return len(p.steps) }

// State returns the current lifecycle state.
func (p *Pipeline) State() State { return State(p.state.Load()) }

// Stop asks the pipeline to finish after the step in flight. Remaining steps
// are logged as skipped and the run still completes.
func (p *Pipeline) Stop() {
	p.stop.Store(true)
	for _, child := range p.children {
		child.Stop()
	}
}

// Run resets env.Stats, asks for confirmation when configured and executes
// every step. It returns ErrAborted when the run is cancelled before the
// first step; after that it always completes.
func (p *Pipeline) Run(ctx context.Context, env Env) (Result, error) {
	env = env.withDefaults()
	if p.State() != StateIdle {
		return Result{Pipeline: p.name, State: p.State()}, fmt.Errorf("%s: %w", p.name, ErrAlreadyRun)
	}

	if err := ctx.Err(); err != nil {
		return p.abort(env, fmt.Sprintf("%s cancelled before start", p.name)), fmt.Errorf("%s: %w: %v", p.name, ErrAborted, err)
	}
	if p.confirmTitle != "" && env.Confirmer != nil && !env.Confirmer.Confirm(p.confirmTitle, p.confirmMsg) {
		return p.abort(env, fmt.Sprintf("%s cancelled by user", p.name)), fmt.Errorf("%s: %w", p.name, ErrAborted)
	}

	env.Stats.Reset()
	res, err := p.execute(ctx, env, env.Sink)
	if err != nil {
		return res, err
	}
	res.Stats = env.Stats.Snapshot()
	return res, nil
}

func (p *Pipeline) abort(env Env, reason string) Result {
	if !p.state.CompareAndSwap(int32(StateIdle), int32(StateAborted)) {
		return Result{Pipeline: p.name, State: p.State()}
	}
	env.Sink.AppendLog(LevelInfo, reason)
	now := env.Now()
	return Result{Pipeline: p.name, State: StateAborted, Started: now, Finished: now, Stats: env.Stats.Snapshot()}
}

// execute runs the steps without touching statistics lifecycle; composites
// call it for nested pipelines so the shared Stats is reset only once.
func (p *Pipeline) execute(ctx context.Context, env Env, sink Sink) (Result, error) {
	if !p.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return Result{Pipeline: p.name, State: p.State()}, fmt.Errorf("%s: %w", p.name, ErrAlreadyRun)
	}

	res := Result{Pipeline: p.name, Started: env.Now()}
	run := &Run{pipeline: p.name, sink: sink, stats: env.Stats}

	var completed float64
	for i, step := range p.steps {
		if p.stop.Load() || ctx.Err() != nil {
			for _, rest := range p.steps[i:] {
				sink.AppendLog(LevelWarning, fmt.Sprintf("%s: skipped, run stopped", rest.Label()))
				res.Steps = append(res.Steps, StepOutcome{Label: rest.Label(), Status: StatusSkipped})
			}
			break
		}

		weight := math.Max(step.Weight(), 0)
		sink.ReportProgress(clampPercent(completed), step.Label())
		sink.AppendLog(LevelProgress, step.Label()+"...")

		run.base, run.span = completed, weight
		start := env.Now()
		err := invoke(ctx, step, run)
		outcome := StepOutcome{Label: step.Label(), Status: StatusOK, Duration: env.Now().Sub(start)}
		if nested, ok := step.(interface{ nestedOutcomes() []StepOutcome }); ok {
			outcome.Nested = nested.nestedOutcomes()
		}
		if err != nil {
			outcome.Status, outcome.Error = handleFailure(run, step, err), err.Error()
		}
		res.Steps = append(res.Steps, outcome)

		completed += weight
		observe(sink, env.Stats)
	}

	sink.ReportProgress(100, p.doneLabel)
	p.state.Store(int32(StateCompleted))
	res.State = StateCompleted
	res.Finished = env.Now()
	res.Stats = env.Stats.Snapshot()
	return res, nil
}

func invoke(ctx context.Context, step Step, run *Run) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrStepPanic, r)
		}
	}()
	return step.Execute(ctx, run)
}

// handleFailure applies the failure policy and returns the outcome status.
// Launch failures and cancellations are no-ops, timeouts are warnings,
// everything else is an error. Only cleanup and repair failures reach the
// statistics.
func handleFailure(run *Run, step Step, err error) string {
	msg := fmt.Sprintf("%s: %v", step.Label(), err)
	counts := CategoryOf(step) != CategoryGeneral

	switch {
	case runner.IsLaunchFailure(err), errors.Is(err, runner.ErrCancelled):
		run.sink.AppendLog(LevelWarning, msg)
		return StatusWarning
	case errors.Is(err, runner.ErrTimedOut):
		run.sink.AppendLog(LevelWarning, msg)
		if counts {
			run.stats.Warn(msg)
		}
		return StatusWarning
	default:
		run.sink.AppendLog(LevelError, msg)
		if counts {
			run.stats.Warn(msg)
		}
		return StatusFailed
	}
}

func clampPercent(v float64) int {
	switch {
	case v <= 0:
		return 0
	case v >= 100:
		return 100
	}
	return int(math.Round(v))
}
