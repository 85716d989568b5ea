package maintenance

import (
	"fmt"

	"github.com/bgricker/vitalboost/internal/classify"
	"github.com/bgricker/vitalboost/internal/pipeline"
	"github.com/bgricker/vitalboost/internal/runner"
)

func (c *Catalog) driverSteps() []pipeline.Step {
	t := c.tools
	return []pipeline.Step{
		c.newCommandStep("drivers", "Check installed drivers", 10, pipeline.CategoryRepair, t.Drivers, c.handleDrivers),
		c.newCommandStep("sfc", "Run system file checker", 40, pipeline.CategoryRepair, t.SFC, c.handleRepair("sfc", "System file checker")),
		c.newCommandStep("dism", "Repair Windows image", 30, pipeline.CategoryRepair, t.DISM, c.handleRepair("dism", "DISM")),
		c.newCommandStep("chkdsk", "Check disk", 20, pipeline.CategoryRepair, t.Chkdsk, c.handleRepair("chkdsk", "CHKDSK")),
	}
}

func (c *Catalog) handleDrivers(run *pipeline.Run, res runner.Result) error {
	if err := res.Err("driver listing"); err != nil {
		return err
	}
	lines := outputLines(res.Stdout)
	if len(lines) > c.tools.DriverHeaders {
		lines = lines[c.tools.DriverHeaders:]
	} else {
		lines = nil
	}
	run.Stats().AddDrivers(len(lines))
	run.Successf("%d installed drivers checked", len(lines))

	tool := "driverquery"
	if c.tools.GOOS != "windows" {
		tool = "lsmod"
	}
	if problems := c.opts.Table.ProblemLines(tool, lines); len(problems) > 0 {
		run.Problemf("%d drivers with problems detected", len(problems))
		for _, line := range problems {
			run.Infof("  %s", line)
		}
		return nil
	}
	run.Successf("No problem drivers found")
	return nil
}

// handleRepair classifies the output of a repair tool. Only a reported fix
// counts towards ErrorsFixed.
func (c *Catalog) handleRepair(tool, name string) handler {
	return func(run *pipeline.Run, res runner.Result) error {
		verdict := c.opts.Table.Classify(tool, res)
		switch verdict.Outcome {
		case classify.OutcomeClean:
			run.Successf("%s: no problems found", name)
		case classify.OutcomeRepaired:
			run.Stats().AddFix()
			run.Successf("%s: problems found and repaired", name)
		case classify.OutcomeProblems:
			run.Problemf("%s: problems detected; restart and run it again to repair them", name)
		case classify.OutcomeFailed:
			if err := res.Err(name); err != nil {
				return err
			}
			return fmt.Errorf("%s reported a failure", name)
		default:
			run.Warnf("%s finished with output that could not be classified; check the system log", name)
		}
		return nil
	}
}
