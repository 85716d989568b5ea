package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bgricker/vitalboost/internal/pipeline"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "data", FileName))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndGet(t *testing.T) {
	store := openTemp(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	run := Run{
		ID:       "01HV0000000000000000000001",
		Pipeline: "cleanup",
		State:    "completed",
		Started:  started,
		Finished: started.Add(90 * time.Second),
		DryRun:   true,
		Stats: pipeline.Stats{
			FilesCleaned:    2,
			SpaceFreedBytes: 4096,
			ErrorsFixed:     1,
			DriversChecked:  12,
			SoftwareUpdated: []string{"3 programs via winget"},
			Warnings:        []string{"prefetch: access denied"},
		},
		ReportPath: "/tmp/report.html",
	}
	require.NoError(t, store.Record(ctx, run))

	got, err := store.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Stats, got.Stats)
	assert.True(t, got.Started.Equal(run.Started))
	assert.Equal(t, 90*time.Second, got.Duration())
	assert.True(t, got.DryRun)
	assert.Equal(t, "/tmp/report.html", got.ReportPath)
}

func TestGetUnknown(t *testing.T) {
	store := openTemp(t)
	_, err := store.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestListNewestFirstWithLimit(t *testing.T) {
	store := openTemp(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	for i, offset := range []time.Duration{0, 500 * time.Millisecond, 2 * time.Hour} {
		require.NoError(t, store.Record(ctx, Run{
			ID:       string(rune('a' + i)),
			Pipeline: "all",
			State:    "completed",
			Started:  base.Add(offset),
			Finished: base.Add(offset + time.Minute),
		}))
	}

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{runs[0].ID, runs[1].ID, runs[2].ID})
	assert.Nil(t, runs[0].Stats.Warnings)

	limited, err := store.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "c", limited[0].ID)
}

func TestRecordReplacesSameID(t *testing.T) {
	store := openTemp(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.Record(ctx, Run{ID: "x", Pipeline: "network", State: "running", Started: now, Finished: now}))
	require.NoError(t, store.Record(ctx, Run{ID: "x", Pipeline: "network", State: "completed", Started: now, Finished: now}))

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "completed", runs[0].State)
}

func TestOpenValidation(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)

	require.Error(t, (&Store{}).Record(context.Background(), Run{}))

	mem, err := Open(":memory:")
	require.NoError(t, err)
	assert.NoError(t, mem.Close())
}
