package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bgricker/vitalboost/internal/runner"
)

type progressEvent struct {
	percent int
	label   string
}

type recordingSink struct {
	mu       sync.Mutex
	progress []progressEvent
	logs     []LogEntry
	stats    []Stats
}

func (r *recordingSink) ReportProgress(percent int, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, progressEvent{percent: percent, label: label})
}

func (r *recordingSink) AppendLog(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, LogEntry{Level: level, Message: message})
}

func (r *recordingSink) ObserveStats(s Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = append(r.stats, s)
}

func (r *recordingSink) levels() []Level {
	out := make([]Level, 0, len(r.logs))
	for _, e := range r.logs {
		out = append(out, e.Level)
	}
	return out
}

func (r *recordingSink) lastProgress() progressEvent {
	return r.progress[len(r.progress)-1]
}

func okStep(label string, weight float64, executed *[]string) Step {
	return NewStep(label, weight, CategoryGeneral, func(ctx context.Context, run *Run) error {
		*executed = append(*executed, label)
		return nil
	})
}

func TestPipelineRunsStepsInOrderAndReportsEachStart(t *testing.T) {
	var executed []string
	failing := NewStep("two", 30, CategoryRepair, func(ctx context.Context, run *Run) error {
		executed = append(executed, "two")
		return errors.New("repair failed")
	})
	p := New("demo", okStep("one", 30, &executed), failing, okStep("three", 40, &executed))
	sink := &recordingSink{}

	res, err := p.Run(context.Background(), Env{Sink: sink})
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "two", "three"}, executed)
	assert.Equal(t, StateCompleted, p.State())
	assert.Equal(t, StateCompleted, res.State)

	require.Len(t, sink.progress, 4)
	assert.Equal(t, progressEvent{0, "one"}, sink.progress[0])
	assert.Equal(t, progressEvent{30, "two"}, sink.progress[1])
	assert.Equal(t, progressEvent{60, "three"}, sink.progress[2])
	assert.Equal(t, 100, sink.lastProgress().percent)

	assert.Len(t, sink.stats, 3, "one statistics snapshot per step")

	require.Len(t, res.Steps, 3)
	assert.Equal(t, StatusOK, res.Steps[0].Status)
	assert.Equal(t, StatusFailed, res.Steps[1].Status)
	assert.Equal(t, StatusOK, res.Steps[2].Status)
	assert.Equal(t, []string{"one", "two", "three"}, res.Operations())
}

func TestPipelineFailureLogsErrorAndRecordsRepairWarning(t *testing.T) {
	p := New("repairs",
		NewStep("check disk", 50, CategoryRepair, func(ctx context.Context, run *Run) error {
			return errors.New("volume locked")
		}),
		NewStep("list drivers", 50, CategoryGeneral, func(ctx context.Context, run *Run) error {
			return errors.New("driverquery garbled")
		}),
	)
	sink := &recordingSink{}
	stats := &Stats{}

	_, err := p.Run(context.Background(), Env{Sink: sink, Stats: stats})
	require.NoError(t, err)

	assert.Equal(t, []Level{LevelProgress, LevelError, LevelProgress, LevelError}, sink.levels())
	assert.Equal(t, "check disk: volume locked", sink.logs[1].Message)
	assert.Equal(t, []string{"check disk: volume locked"}, stats.Warnings, "general steps do not add warnings")
}

func TestPipelineResetsStatsAtStartAndGrowsMonotonically(t *testing.T) {
	stats := &Stats{FilesCleaned: 9, SpaceFreedBytes: 1 << 20, ErrorsFixed: 3, Warnings: []string{"stale"}}
	var atStart Stats
	p := New("cleanup",
		NewStep("inspect", 10, CategoryGeneral, func(ctx context.Context, run *Run) error {
			atStart = run.Stats().Snapshot()
			return nil
		}),
		NewStep("temp", 45, CategoryCleanup, func(ctx context.Context, run *Run) error {
			run.Stats().AddCleaned(100)
			return nil
		}),
		NewStep("cache", 45, CategoryCleanup, func(ctx context.Context, run *Run) error {
			run.Stats().AddCleaned(250)
			run.Stats().AddFix()
			return nil
		}),
	)
	sink := &recordingSink{}

	res, err := p.Run(context.Background(), Env{Sink: sink, Stats: stats})
	require.NoError(t, err)

	assert.Equal(t, Stats{}, atStart)
	for i := 1; i < len(sink.stats); i++ {
		prev, cur := sink.stats[i-1], sink.stats[i]
		assert.GreaterOrEqual(t, cur.FilesCleaned, prev.FilesCleaned)
		assert.GreaterOrEqual(t, cur.SpaceFreedBytes, prev.SpaceFreedBytes)
		assert.GreaterOrEqual(t, cur.ErrorsFixed, prev.ErrorsFixed)
		assert.GreaterOrEqual(t, len(cur.Warnings), len(prev.Warnings))
	}
	assert.Equal(t, 2, res.Stats.FilesCleaned)
	assert.Equal(t, int64(350), res.Stats.SpaceFreedBytes)
	assert.Equal(t, 1, res.Stats.ErrorsFixed)
	assert.Empty(t, res.Stats.Warnings)
}

func TestPipelineFinalProgressIsClamped(t *testing.T) {
	for _, weights := range [][]float64{{10, 20}, {80, 90, 75}, {0}, {-5, 33}} {
		steps := make([]Step, 0, len(weights))
		for i, w := range weights {
			steps = append(steps, NewStep(fmt.Sprintf("s%d", i), w, CategoryGeneral, nil))
		}
		sink := &recordingSink{}
		_, err := New("w", steps...).Run(context.Background(), Env{Sink: sink})
		require.NoError(t, err)

		assert.Equal(t, 100, sink.lastProgress().percent, "weights %v", weights)
		for _, ev := range sink.progress {
			assert.LessOrEqual(t, ev.percent, 100)
			assert.GreaterOrEqual(t, ev.percent, 0)
		}
	}
}

func TestPipelineCleanupThenTimedOutRepair(t *testing.T) {
	p := New("maintenance",
		NewStep("cleanTemp", 50, CategoryCleanup, func(ctx context.Context, run *Run) error {
			run.Stats().AddCleaned(1000)
			run.Successf("temp cleaned")
			return nil
		}),
		NewStep("runRepair", 50, CategoryRepair, func(ctx context.Context, run *Run) error {
			return fmt.Errorf("sfc exceeded 30m0s: %w", runner.ErrTimedOut)
		}),
	)
	sink := &recordingSink{}

	res, err := p.Run(context.Background(), Env{Sink: sink, Stats: &Stats{}})
	require.NoError(t, err)

	assert.Equal(t, int64(1000), res.Stats.SpaceFreedBytes)
	require.Len(t, res.Stats.Warnings, 1)
	assert.Contains(t, res.Stats.Warnings[0], "timed out")
	assert.Equal(t, 100, sink.lastProgress().percent)

	var outcomes []Level
	for _, lvl := range sink.levels() {
		if lvl != LevelProgress {
			outcomes = append(outcomes, lvl)
		}
	}
	assert.Equal(t, []Level{LevelSuccess, LevelWarning}, outcomes)
}

func TestPipelineLaunchFailureLeavesStatsUntouched(t *testing.T) {
	p := New("software", NewStep("winget", 100, CategoryRepair, func(ctx context.Context, run *Run) error {
		return &runner.LaunchError{Program: "winget", Err: exec.ErrNotFound}
	}))
	sink := &recordingSink{}
	stats := &Stats{}

	res, err := p.Run(context.Background(), Env{Sink: sink, Stats: stats})
	require.NoError(t, err)

	assert.Empty(t, stats.Warnings)
	assert.Equal(t, StatusWarning, res.Steps[0].Status)
	assert.Equal(t, []Level{LevelProgress, LevelWarning}, sink.levels())
}

func TestPipelineRecoversPanickingStep(t *testing.T) {
	var executed []string
	p := New("panic",
		NewStep("boom", 50, CategoryCleanup, func(ctx context.Context, run *Run) error {
			panic("index out of range")
		}),
		okStep("after", 50, &executed),
	)
	sink := &recordingSink{}

	res, err := p.Run(context.Background(), Env{Sink: sink})
	require.NoError(t, err)

	assert.Equal(t, []string{"after"}, executed)
	assert.Equal(t, StatusFailed, res.Steps[0].Status)
	assert.Contains(t, res.Steps[0].Error, ErrStepPanic.Error())
	assert.Len(t, res.Stats.Warnings, 1)
}

func TestPipelineAbortedWhenConfirmationDeclined(t *testing.T) {
	var executed []string
	p := New("all", okStep("one", 100, &executed)).WithConfirmation("Run everything", "Continue?")
	stats := &Stats{FilesCleaned: 5}
	var asked string

	res, err := p.Run(context.Background(), Env{
		Stats: stats,
		Confirmer: ConfirmFunc(func(title, message string) bool {
			asked = title
			return false
		}),
	})

	require.ErrorIs(t, err, ErrAborted)
	assert.Equal(t, "Run everything", asked)
	assert.Empty(t, executed)
	assert.Equal(t, StateAborted, p.State())
	assert.Equal(t, StateAborted, res.State)
	assert.Equal(t, 5, stats.FilesCleaned, "aborted runs leave statistics alone")
}

func TestPipelineAbortedWhenContextCancelledBeforeStart(t *testing.T) {
	var executed []string
	p := New("cancelled", okStep("one", 100, &executed))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, Env{})
	require.ErrorIs(t, err, ErrAborted)
	assert.Empty(t, executed)
	assert.Equal(t, StateAborted, p.State())
}

func TestPipelineRunsOnlyOnce(t *testing.T) {
	var executed []string
	p := New("once", okStep("one", 100, &executed))

	_, err := p.Run(context.Background(), Env{})
	require.NoError(t, err)
	_, err = p.Run(context.Background(), Env{})
	require.ErrorIs(t, err, ErrAlreadyRun)
	assert.Equal(t, []string{"one"}, executed)
}

func TestPipelineStopSkipsRemainingStepsButCompletes(t *testing.T) {
	var executed []string
	var p *Pipeline
	p = New("stoppable",
		NewStep("first", 30, CategoryGeneral, func(ctx context.Context, run *Run) error {
			executed = append(executed, "first")
			p.Stop()
			return nil
		}),
		okStep("second", 30, &executed),
		okStep("third", 40, &executed),
	)
	sink := &recordingSink{}

	res, err := p.Run(context.Background(), Env{Sink: sink})
	require.NoError(t, err)

	assert.Equal(t, []string{"first"}, executed)
	assert.Equal(t, StateCompleted, res.State)
	assert.Equal(t, map[string]int{StatusOK: 1, StatusSkipped: 2}, res.Counts())
	assert.Equal(t, 100, sink.lastProgress().percent)
}

func TestRunProgressMapsIntoStepSlice(t *testing.T) {
	p := New("granular",
		NewStep("half", 50, CategoryGeneral, nil),
		NewStep("detail", 50, CategoryGeneral, func(ctx context.Context, run *Run) error {
			run.Progress(0.5, "halfway through detail")
			return nil
		}),
	)
	sink := &recordingSink{}

	_, err := p.Run(context.Background(), Env{Sink: sink})
	require.NoError(t, err)

	assert.Contains(t, sink.progress, progressEvent{75, "halfway through detail"})
}

func TestCompositeSharesStatsAndResetsOnce(t *testing.T) {
	clean := func(name string) *Pipeline {
		return New(name,
			NewStep(name+" a", 50, CategoryCleanup, func(ctx context.Context, run *Run) error {
				run.Stats().AddCleaned(10)
				return nil
			}),
			NewStep(name+" b", 50, CategoryCleanup, func(ctx context.Context, run *Run) error {
				run.Stats().AddCleaned(20)
				return nil
			}),
		)
	}
	all := Composite("all", 0, clean("first"), clean("second"))
	stats := &Stats{FilesCleaned: 42}
	sink := &recordingSink{}

	res, err := all.Run(context.Background(), Env{Sink: sink, Stats: stats})
	require.NoError(t, err)

	assert.Equal(t, 4, stats.FilesCleaned)
	assert.Equal(t, int64(60), stats.SpaceFreedBytes)
	assert.Equal(t, 4, res.Stats.FilesCleaned)
	assert.Equal(t, []string{"first a", "first b", "second a", "second b"}, res.Operations())

	last := -1
	for _, ev := range sink.progress {
		assert.GreaterOrEqual(t, ev.percent, last, "progress went backwards at %q", ev.label)
		last = ev.percent
	}
	assert.Equal(t, 100, last)

	var stages []string
	for _, e := range sink.logs {
		if strings.HasPrefix(e.Message, "=== STAGE") {
			stages = append(stages, e.Message)
		}
	}
	assert.Equal(t, []string{"=== STAGE 1/2: FIRST ===", "=== STAGE 2/2: SECOND ==="}, stages)
}

func TestCompositeStopPropagatesToStages(t *testing.T) {
	var executed []string
	var all *Pipeline
	first := New("first", NewStep("first a", 100, CategoryGeneral, func(ctx context.Context, run *Run) error {
		executed = append(executed, "first a")
		all.Stop()
		return nil
	}))
	second := New("second", okStep("second a", 100, &executed))
	all = Composite("all", time.Millisecond, first, second)

	res, err := all.Run(context.Background(), Env{})
	require.NoError(t, err)

	assert.Equal(t, []string{"first a"}, executed)
	assert.Equal(t, StateCompleted, res.State)
}

func TestStateTextRoundTrip(t *testing.T) {
	for _, s := range []State{StateIdle, StateRunning, StateCompleted, StateAborted} {
		text, err := s.MarshalText()
		require.NoError(t, err)
		var decoded State
		require.NoError(t, decoded.UnmarshalText(text))
		assert.Equal(t, s, decoded)
	}

	var bad State
	assert.Error(t, bad.UnmarshalText([]byte("paused")))
}
