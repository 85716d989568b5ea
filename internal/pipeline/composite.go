package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Composite sequences whole pipelines as the steps of one outer pipeline.
// Every stage shares the outer run's Stats, which Run resets exactly once.
// Between stages the composite announces the transition and waits pause.
func Composite(name string, pause time.Duration, stages ...*Pipeline) *Pipeline {
	steps := make([]Step, 0, len(stages))
	weight := 0.0
	if len(stages) > 0 {
		weight = 100 / float64(len(stages))
	}
	for i, stage := range stages {
		steps = append(steps, &stageStep{
			pipeline: stage,
			weight:   weight,
			index:    i,
			total:    len(stages),
			pause:    pause,
		})
	}
	p := New(name, steps...)
	p.children = append([]*Pipeline(nil), stages...)
	return p
}

type stageStep struct {
	pipeline *Pipeline
	weight   float64
	index    int
	total    int
	pause    time.Duration
	outcomes []StepOutcome
}

func (s *stageStep) Label() string   { return s.pipeline.Name() }
func (s *stageStep) Weight() float64 { return s.weight }

func (s *stageStep) nestedOutcomes() []StepOutcome { return s.outcomes }

func (s *stageStep) Execute(ctx context.Context, run *Run) error {
	if s.index > 0 && s.pause > 0 {
		run.Infof("Next stage in %s", s.pause)
		timer := time.NewTimer(s.pause)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
	run.Infof("=== STAGE %d/%d: %s ===", s.index+1, s.total, strings.ToUpper(s.pipeline.Name()))

	child := Env{Sink: &scaledSink{run: run}, Stats: run.stats}.withDefaults()
	res, err := s.pipeline.execute(ctx, child, child.Sink)
	s.outcomes = res.Steps
	if err != nil {
		return fmt.Errorf("stage %s: %w", s.pipeline.Name(), err)
	}
	return nil
}

// scaledSink maps a nested pipeline's 0..100 progress into the slice of the
// outer progress bar owned by the stage step.
type scaledSink struct {
	run *Run
}

func (s *scaledSink) ReportProgress(percent int, label string) {
	s.run.Progress(float64(percent)/100, label)
}

func (s *scaledSink) AppendLog(level Level, message string) {
	s.run.sink.AppendLog(level, message)
}

func (s *scaledSink) ObserveStats(snapshot Stats) {
	if obs, ok := s.run.sink.(StatsObserver); ok {
		obs.ObserveStats(snapshot)
	}
}
