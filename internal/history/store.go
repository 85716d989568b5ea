// Package history keeps a SQLite log of finished maintenance runs.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bgricker/vitalboost/internal/pipeline"
)

// FileName is the database file kept in the data directory.
const FileName = "history.db"

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("run not found")

// Run is one recorded pipeline execution.
type Run struct {
	ID         string         `json:"id"`
	Pipeline   string         `json:"pipeline"`
	State      string         `json:"state"`
	Started    time.Time      `json:"started"`
	Finished   time.Time      `json:"finished"`
	DryRun     bool           `json:"dry_run"`
	Stats      pipeline.Stats `json:"stats"`
	ReportPath string         `json:"report_path,omitempty"`
}

// Duration is the wall-clock time the run took.
func (r Run) Duration() time.Duration {
	if r.Finished.Before(r.Started) {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path. ":memory:" and "file:" URIs
// are passed through unchanged.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history path required")
	}
	if shouldCreateDir(path) {
		dir := filepath.Dir(path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create history dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			pipeline TEXT NOT NULL,
			state TEXT NOT NULL,
			started TEXT NOT NULL,
			finished TEXT NOT NULL,
			dry_run INTEGER NOT NULL DEFAULT 0,
			files_cleaned INTEGER NOT NULL DEFAULT 0,
			space_freed_bytes INTEGER NOT NULL DEFAULT 0,
			errors_fixed INTEGER NOT NULL DEFAULT 0,
			drivers_checked INTEGER NOT NULL DEFAULT 0,
			software_updated TEXT NOT NULL DEFAULT '[]',
			warnings TEXT NOT NULL DEFAULT '[]',
			report_path TEXT NOT NULL DEFAULT ''
		)
	`); err != nil {
		return fmt.Errorf("create runs table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS runs_started ON runs (started)"); err != nil {
		return fmt.Errorf("create runs index: %w", err)
	}
	return nil
}

// Record inserts run, replacing an earlier row with the same id.
func (s *Store) Record(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id required")
	}
	software, err := encodeList(run.Stats.SoftwareUpdated)
	if err != nil {
		return err
	}
	warnings, err := encodeList(run.Stats.Warnings)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (
			id, pipeline, state, started, finished, dry_run,
			files_cleaned, space_freed_bytes, errors_fixed, drivers_checked,
			software_updated, warnings, report_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, run.Pipeline, run.State, formatTime(run.Started), formatTime(run.Finished), boolInt(run.DryRun),
		run.Stats.FilesCleaned, run.Stats.SpaceFreedBytes, run.Stats.ErrorsFixed, run.Stats.DriversChecked,
		software, warnings, run.ReportPath,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

const selectRuns = `
	SELECT id, pipeline, state, started, finished, dry_run,
		files_cleaned, space_freed_bytes, errors_fixed, drivers_checked,
		software_updated, warnings, report_path
	FROM runs`

// List returns the most recent runs first. A limit <= 0 returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := selectRuns + " ORDER BY started DESC, id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Get returns the run with id.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+" WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run               Run
		started, finished string
		dryRun            int
		software, warns   string
	)
	err := sc.Scan(&run.ID, &run.Pipeline, &run.State, &started, &finished, &dryRun,
		&run.Stats.FilesCleaned, &run.Stats.SpaceFreedBytes, &run.Stats.ErrorsFixed, &run.Stats.DriversChecked,
		&software, &warns, &run.ReportPath)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	if run.Started, err = parseTime(started); err != nil {
		return Run{}, err
	}
	if run.Finished, err = parseTime(finished); err != nil {
		return Run{}, err
	}
	run.DryRun = dryRun != 0
	if run.Stats.SoftwareUpdated, err = decodeList(software); err != nil {
		return Run{}, err
	}
	if run.Stats.Warnings, err = decodeList(warns); err != nil {
		return Run{}, err
	}
	return run, nil
}

func encodeList(items []string) (string, error) {
	if len(items) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(data), nil
}

func decodeList(raw string) ([]string, error) {
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items, nil
}

// timeLayout has fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func shouldCreateDir(path string) bool {
	if path == ":memory:" {
		return false
	}
	if strings.HasPrefix(path, "file:") {
		return false
	}
	return true
}
