package pipeline

import (
	"context"
	"fmt"
)

// Category tells the pipeline how a failing step affects statistics.
type Category int

const (
	CategoryGeneral Category = iota
	CategoryCleanup
	CategoryRepair
)

func (c Category) String() string {
	switch c {
	case CategoryCleanup:
		return "cleanup"
	case CategoryRepair:
		return "repair"
	default:
		return "general"
	}
}

// Step is one named, weighted unit of work. Execute receives the run
// capability and communicates results only through it or its returned error.
type Step interface {
	Label() string
	Weight() float64
	Execute(ctx context.Context, run *Run) error
}

// Categorized is implemented by steps whose failures count as cleanup or
// repair warnings.
type Categorized interface {
	Category() Category
}

// CategoryOf returns the step's category, or CategoryGeneral.
func CategoryOf(s Step) Category {
	if c, ok := s.(Categorized); ok {
		return c.Category()
	}
	return CategoryGeneral
}

// Func is the body of a step built with NewStep.
type Func func(ctx context.Context, run *Run) error

// NewStep adapts a function into a Step.
func NewStep(label string, weight float64, category Category, fn Func) Step {
	return &funcStep{label: label, weight: weight, category: category, fn: fn}
}

type funcStep struct {
	label    string
	weight   float64
	category Category
	fn       Func
}

func (s *funcStep) Label() string      { return s.label }
func (s *funcStep) Weight() float64    { return s.weight }
func (s *funcStep) Category() Category { return s.category }

func (s *funcStep) Execute(ctx context.Context, run *Run) error {
	if s.fn == nil {
		return nil
	}
	return s.fn(ctx, run)
}

// Run is the capability handed to executing steps: the progress sink, the
// shared statistics, and the slice of the progress bar the step owns.
type Run struct {
	pipeline string
	sink     Sink
	stats    *Stats
	base     float64
	span     float64
}

// Pipeline returns the name of the pipeline executing the step.
func (r *Run) Pipeline() string { return r.pipeline }

// Stats returns the run's shared statistics.
func (r *Run) Stats() *Stats { return r.stats }

// Sink returns the run's progress sink.
func (r *Run) Sink() Sink { return r.sink }

// Progress reports progress inside the current step, where fraction runs from
// 0 to 1 across the step's weight.
func (r *Run) Progress(fraction float64, label string) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	r.sink.ReportProgress(clampPercent(r.base+fraction*r.span), label)
}

func (r *Run) logf(level Level, format string, args ...any) {
	r.sink.AppendLog(level, fmt.Sprintf(format, args...))
}

func (r *Run) Infof(format string, args ...any)     { r.logf(LevelInfo, format, args...) }
func (r *Run) Successf(format string, args ...any)  { r.logf(LevelSuccess, format, args...) }
func (r *Run) Warnf(format string, args ...any)     { r.logf(LevelWarning, format, args...) }
func (r *Run) Errorf(format string, args ...any)    { r.logf(LevelError, format, args...) }
func (r *Run) Progressf(format string, args ...any) { r.logf(LevelProgress, format, args...) }

// Problemf logs a WARNING and records it in the statistics warnings.
func (r *Run) Problemf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.sink.AppendLog(LevelWarning, msg)
	r.stats.Warn(msg)
}
