package output

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bgricker/vitalboost/internal/cleanup"
	"github.com/bgricker/vitalboost/internal/history"
	"github.com/bgricker/vitalboost/internal/pipeline"
	"github.com/bgricker/vitalboost/internal/tools"
)

// PipelineInfo describes a pipeline for list mode.
type PipelineInfo struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Steps       []StepInfo `json:"steps"`
}

// StepInfo describes one step for list mode.
type StepInfo struct {
	Key    string  `json:"key,omitempty"`
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
}

// Summary is the outcome of one run as shown to the user.
type Summary struct {
	RunID      string                 `json:"run_id"`
	Pipeline   string                 `json:"pipeline"`
	State      pipeline.State         `json:"state"`
	DryRun     bool                   `json:"dry_run"`
	Duration   time.Duration          `json:"-"`
	DurationMS int64                  `json:"duration_ms"`
	Steps      []pipeline.StepOutcome `json:"steps"`
	Stats      pipeline.Stats         `json:"stats"`
	ReportPath string                 `json:"report_path,omitempty"`
}

// NewSummary builds a Summary from a pipeline result.
func NewSummary(id string, res pipeline.Result, dryRun bool, reportPath string) Summary {
	return Summary{
		RunID:      id,
		Pipeline:   res.Pipeline,
		State:      res.State,
		DryRun:     dryRun,
		Duration:   res.Duration(),
		DurationMS: res.Duration().Milliseconds(),
		Steps:      res.Steps,
		Stats:      res.Stats,
		ReportPath: reportPath,
	}
}

// PrettyRenderer renders results in a human-friendly format.
type PrettyRenderer struct {
	out io.Writer
}

// NewPretty creates a PrettyRenderer writing to the provided writer.
func NewPretty(out io.Writer) *PrettyRenderer {
	return &PrettyRenderer{out: out}
}

// RenderList renders pipelines and their steps.
func (p *PrettyRenderer) RenderList(pipelines []PipelineInfo) error {
	var buf bytes.Buffer
	for _, info := range pipelines {
		fmt.Fprintf(&buf, "Pipeline %s\n", decorateName(info.Name, info.Description))
		for _, step := range info.Steps {
			if step.Key != "" {
				fmt.Fprintf(&buf, "  • %s [%s]\n", step.Label, step.Key)
				continue
			}
			fmt.Fprintf(&buf, "  • %s\n", step.Label)
		}
	}
	_, err := buf.WriteTo(p.out)
	return err
}

// RenderResults shows step outcomes followed by the statistics.
func (p *PrettyRenderer) RenderResults(s Summary) error {
	var buf bytes.Buffer
	title := s.Pipeline
	if s.DryRun {
		title += " (dry run)"
	}
	fmt.Fprintf(&buf, "Pipeline %s\n", title)
	writeOutcomes(&buf, s.Steps, "  ")

	counts := pipeline.Result{Steps: s.Steps}.Counts()
	fmt.Fprintf(&buf, "SUMMARY: %d ok, %d warning, %d failed, %d skipped (%s)\n",
		counts[pipeline.StatusOK], counts[pipeline.StatusWarning], counts[pipeline.StatusFailed], counts[pipeline.StatusSkipped],
		formatDuration(s.Duration))
	fmt.Fprintf(&buf, "  space freed: %s, locations cleaned: %d, errors fixed: %d, drivers checked: %d\n",
		cleanup.FormatBytes(s.Stats.SpaceFreedBytes), s.Stats.FilesCleaned, s.Stats.ErrorsFixed, s.Stats.DriversChecked)
	for _, sw := range s.Stats.SoftwareUpdated {
		fmt.Fprintf(&buf, "  updated: %s\n", sw)
	}
	if len(s.Stats.Warnings) > 0 {
		fmt.Fprintf(&buf, "  warnings:\n")
		for _, w := range s.Stats.Warnings {
			fmt.Fprintf(&buf, "%s\n", indent(w, "    - "))
		}
	}
	if s.ReportPath != "" {
		fmt.Fprintf(&buf, "Report: %s\n", s.ReportPath)
	}
	_, err := buf.WriteTo(p.out)
	return err
}

func writeOutcomes(buf *bytes.Buffer, steps []pipeline.StepOutcome, pad string) {
	for _, step := range steps {
		fmt.Fprintf(buf, "%s%s %s (%s)\n", pad, statusGlyph(step.Status), step.Label, formatDuration(step.Duration))
		if step.Error != "" {
			fmt.Fprintf(buf, "%s  error: %s\n", pad, strings.TrimSpace(step.Error))
		}
		if len(step.Nested) > 0 {
			writeOutcomes(buf, step.Nested, pad+"  ")
		}
	}
}

// RenderTools lists tool availability.
func (p *PrettyRenderer) RenderTools(infos []tools.Info) error {
	var buf bytes.Buffer
	for _, info := range infos {
		switch {
		case info.Available && info.Version != "":
			fmt.Fprintf(&buf, "%s %s %s (%s)\n", statusGlyph(pipeline.StatusOK), info.Name, info.Version, info.Path)
		case info.Available:
			fmt.Fprintf(&buf, "%s %s (%s)\n", statusGlyph(pipeline.StatusOK), info.Name, info.Path)
		default:
			fmt.Fprintf(&buf, "%s %s not found\n", statusGlyph(pipeline.StatusFailed), info.Name)
		}
	}
	_, err := buf.WriteTo(p.out)
	return err
}

// RenderHistory lists past runs, newest first.
func (p *PrettyRenderer) RenderHistory(runs []history.Run) error {
	var buf bytes.Buffer
	if len(runs) == 0 {
		buf.WriteString("No runs recorded yet.\n")
	}
	for _, run := range runs {
		fmt.Fprintf(&buf, "%s  %s  %-11s %-9s %8s  freed %s, fixed %d, warnings %d\n",
			run.Started.Local().Format("2006-01-02 15:04"), run.ID, run.Pipeline, run.State,
			formatDuration(run.Duration()), cleanup.FormatBytes(run.Stats.SpaceFreedBytes),
			run.Stats.ErrorsFixed, len(run.Stats.Warnings))
		if run.ReportPath != "" {
			fmt.Fprintf(&buf, "%s\n", indent(run.ReportPath, "    report: "))
		}
	}
	_, err := buf.WriteTo(p.out)
	return err
}

func decorateName(name, description string) string {
	if description == "" || description == name {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, description)
}

func statusGlyph(status string) string {
	switch status {
	case pipeline.StatusOK:
		return "✓"
	case pipeline.StatusWarning:
		return "!"
	case pipeline.StatusFailed:
		return "✗"
	case pipeline.StatusSkipped:
		return "-"
	default:
		return "?"
	}
}

func indent(s, pad string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = pad + lines[i]
	}
	return strings.Join(lines, "\n")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Truncate(time.Second).String()
}
