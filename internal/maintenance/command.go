package maintenance

import (
	"context"
	"strings"

	"github.com/bgricker/vitalboost/internal/pipeline"
	"github.com/bgricker/vitalboost/internal/runner"
)

// handler interprets a finished command. A returned error goes through the
// pipeline failure policy.
type handler func(run *pipeline.Run, res runner.Result) error

// commandStep runs one external command. It never attempts a privileged
// command without elevation and reports unsupported platforms as a no-op.
type commandStep struct {
	key        string
	label      string
	weight     float64
	category   pipeline.Category
	cmd        runner.Command
	privileged bool

	runner Runner
	host   Host
	handle handler
}

func (s *commandStep) Key() string                 { return s.key }
func (s *commandStep) Label() string               { return s.label }
func (s *commandStep) Weight() float64             { return s.weight }
func (s *commandStep) Category() pipeline.Category { return s.category }

func (s *commandStep) Execute(ctx context.Context, run *pipeline.Run) error {
	if len(s.cmd.Args) == 0 {
		run.Infof("%s: not supported on %s", s.label, s.host.GOOS)
		return nil
	}
	if !s.host.Elevated {
		_, matched := s.runner.RequiresPrivilege(s.cmd.Args)
		if matched || s.privileged {
			if !s.runner.DryRun() {
				run.Warnf("%s requires %s privileges; skipped", s.label, s.host.PrivilegeName)
				return nil
			}
			run.Warnf("%s requires %s privileges", s.label, s.host.PrivilegeName)
		}
	}

	res, err := s.runner.Run(ctx, s.cmd)
	if err != nil {
		return err
	}
	if res.DryRun {
		run.Infof("dry-run: %s", runner.Quote(s.cmd.Args))
		return nil
	}
	if res.Truncated {
		run.Warnf("%s: output exceeded the capture limit and was truncated", s.label)
	}
	if res.Cancelled {
		return res.Err(s.label)
	}
	if s.handle != nil {
		return s.handle(run, res)
	}
	if err := res.Err(s.label); err != nil {
		return err
	}
	run.Successf("%s completed", s.label)
	return nil
}

// newCommandStep builds a step for inv, with the configured timeout for key.
func (c *Catalog) newCommandStep(key, label string, weight float64, category pipeline.Category, inv Invocation, h handler) *commandStep {
	step := &commandStep{
		key:      key,
		label:    label,
		weight:   weight,
		category: category,
		runner:   c.opts.Runner,
		host:     c.opts.Host,
		handle:   h,
	}
	if inv.supported() {
		step.cmd = runner.Command{Args: append([]string(nil), inv.Args...), Input: inv.Input, Timeout: c.timeout(key, inv)}
	}
	return step
}

// outputLines splits stdout into trimmed non-empty lines.
func outputLines(stdout string) []string {
	var lines []string
	for _, line := range splitLines(stdout) {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
