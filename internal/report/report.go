// Package report renders the end-of-run maintenance report.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bgricker/vitalboost/internal/cleanup"
	"github.com/bgricker/vitalboost/internal/filelock"
	"github.com/bgricker/vitalboost/internal/pipeline"
	"github.com/bgricker/vitalboost/internal/sysinfo"
)

// ErrUnknownFormat is returned for report formats other than html, markdown
// and json.
var ErrUnknownFormat = errors.New("unknown report format")

// Format selects the report encoding.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat accepts html, markdown (or md) and json.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "html", "htm":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownFormat, s)
}

// Ext returns the file extension for f without the dot.
func (f Format) Ext() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatJSON:
		return "json"
	default:
		return "html"
	}
}

// Input is everything a report shows. It is a value: Generate never reads
// the clock or the host.
type Input struct {
	Title       string
	Pipeline    string
	RunID       string
	Language    string
	GeneratedAt time.Time
	Duration    time.Duration
	Stats       pipeline.Stats
	Transcript  []pipeline.LogEntry
	SystemInfo  []sysinfo.Field
	Operations  []string
}

// Generate renders in as f. Equal inputs produce byte-identical output.
func Generate(in Input, f Format) ([]byte, error) {
	lb := labelsFor(in.Language)
	switch f {
	case FormatMarkdown:
		return []byte(renderMarkdown(in, lb)), nil
	case FormatHTML:
		return renderHTML(in, lb)
	case FormatJSON:
		return renderJSON(in)
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownFormat, string(f))
}

type jsonDocument struct {
	Title       string              `json:"title"`
	Pipeline    string              `json:"pipeline,omitempty"`
	RunID       string              `json:"run_id,omitempty"`
	Language    string              `json:"language"`
	GeneratedAt time.Time           `json:"generated_at"`
	DurationMS  int64               `json:"duration_ms"`
	Stats       pipeline.Stats      `json:"stats"`
	SpaceFreed  string              `json:"space_freed"`
	SystemInfo  []sysinfo.Field     `json:"system_info"`
	Operations  []string            `json:"operations"`
	Transcript  []pipeline.LogEntry `json:"transcript"`
}

func renderJSON(in Input) ([]byte, error) {
	doc := jsonDocument{
		Title:       titleOf(in, labelsFor(in.Language)),
		Pipeline:    in.Pipeline,
		RunID:       in.RunID,
		Language:    labelsFor(in.Language).Lang,
		GeneratedAt: in.GeneratedAt,
		DurationMS:  in.Duration.Milliseconds(),
		Stats:       in.Stats.Snapshot(),
		SpaceFreed:  cleanup.FormatBytes(in.Stats.SpaceFreedBytes),
		SystemInfo:  nonNil(in.SystemInfo),
		Operations:  nonNil(in.Operations),
		Transcript:  nonNil(in.Transcript),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode json report: %w", err)
	}
	return append(data, '\n'), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func titleOf(in Input, lb labels) string {
	if strings.TrimSpace(in.Title) != "" {
		return in.Title
	}
	return lb.Title
}

// FileName builds "<prefix>_<YYYYMMDD_HHMMSS>_<id>.<ext>". The id keeps two
// reports written within the same second apart.
func FileName(prefix string, f Format, t time.Time, id string) string {
	if prefix == "" {
		prefix = "vitalboost_report"
	}
	name := prefix + "_" + t.Format("20060102_150405")
	if id != "" {
		name += "_" + id
	}
	return name + "." + f.Ext()
}

// Write stores data as dir/name, creating dir when needed, and returns the
// full path. A reader never observes a partially written report.
func Write(dir, name string, data []byte) (string, error) {
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, name)
	if err := filelock.AtomicWrite(path, data); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
