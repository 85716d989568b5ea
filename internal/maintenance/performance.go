package maintenance

import (
	"github.com/bgricker/vitalboost/internal/classify"
	"github.com/bgricker/vitalboost/internal/pipeline"
	"github.com/bgricker/vitalboost/internal/runner"
)

func (c *Catalog) performanceSteps() []pipeline.Step {
	t := c.tools
	return []pipeline.Step{
		c.newCommandStep("power-plan-create", "Create high performance power plan", 20, pipeline.CategoryGeneral, t.PowerPlanCreate, nil),
		c.newCommandStep("power-plan", "Activate high performance power plan", 20, pipeline.CategoryGeneral, t.PowerPlanActivate, nil),
		c.newCommandStep("memory-trim", "Trim memory working set", 30, pipeline.CategoryGeneral, t.MemoryTrim, nil),
		c.newCommandStep("visual-effects", "Apply performance visual effects", 30, pipeline.CategoryGeneral, t.VisualEffects, nil),
	}
}

// networkSteps shares total weight among the platform's network fixes.
func (c *Catalog) networkSteps(total float64) []pipeline.Step {
	fixes := c.tools.Network
	if len(fixes) == 0 {
		return []pipeline.Step{c.newCommandStep("network", "Reset network stack", total, pipeline.CategoryRepair, Invocation{}, nil)}
	}
	steps := make([]pipeline.Step, 0, len(fixes))
	for _, fix := range fixes {
		steps = append(steps, c.newCommandStep(fix.Key, fix.Label, total/float64(len(fixes)), pipeline.CategoryRepair, fix.Invocation, c.handleNetwork(fix.Label)))
	}
	return steps
}

func (c *Catalog) handleNetwork(label string) handler {
	return func(run *pipeline.Run, res runner.Result) error {
		switch c.opts.Table.Classify("network", res).Outcome {
		case classify.OutcomeFailed:
			if res.TimedOut {
				return res.Err(label)
			}
			run.Problemf("%s finished with warnings (exit code %d)", label, res.ExitCode)
		case classify.OutcomeProblems:
			run.Problemf("%s reported problems", label)
		default:
			run.Successf("%s completed", label)
		}
		return nil
	}
}
