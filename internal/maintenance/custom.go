package maintenance

import (
	"fmt"
	"strings"

	"github.com/bgricker/vitalboost/internal/config"
	"github.com/bgricker/vitalboost/internal/pipeline"
	"github.com/bgricker/vitalboost/internal/runner"
)

// defaultCustomWeight is used when a custom step declares no weight.
const defaultCustomWeight = 10

// customSteps returns the configured steps that belong to the named
// pipeline. Steps without a pipeline belong to the custom pipeline.
func (c *Catalog) customSteps(name string) []pipeline.Step {
	var steps []pipeline.Step
	for i, cs := range c.opts.Config.CustomSteps {
		target := strings.ToLower(strings.TrimSpace(cs.Pipeline))
		if target == "" {
			target = Custom
		}
		if target != name {
			continue
		}
		weight := cs.Weight
		if weight <= 0 {
			weight = defaultCustomWeight
		}
		inv := Invocation{Args: cs.Command, Input: cs.Input, Timeout: cs.Timeout}
		step := c.newCommandStep(customKey(i, cs), cs.Name, weight, parseCategory(cs.Category), inv, handleCustom(cs))
		step.privileged = cs.Privileged
		steps = append(steps, step)
	}
	return steps
}

func customKey(i int, cs config.CustomStep) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, strings.TrimSpace(cs.Name))
	if slug == "" {
		return fmt.Sprintf("custom-step-%d", i+1)
	}
	return slug
}

func parseCategory(s string) pipeline.Category {
	switch strings.ToLower(s) {
	case "cleanup":
		return pipeline.CategoryCleanup
	case "repair":
		return pipeline.CategoryRepair
	default:
		return pipeline.CategoryGeneral
	}
}

// handleCustom checks the exit code and, when success phrases are
// configured, that one of them appears in the output.
func handleCustom(cs config.CustomStep) handler {
	return func(run *pipeline.Run, res runner.Result) error {
		if err := res.Err(cs.Name); err != nil {
			return err
		}
		if len(cs.SuccessPhrases) > 0 {
			output := strings.ToLower(res.Stdout + "\n" + res.Stderr)
			matched := false
			for _, phrase := range cs.SuccessPhrases {
				if phrase != "" && strings.Contains(output, strings.ToLower(phrase)) {
					matched = true
					break
				}
			}
			if !matched {
				run.Problemf("%s: expected output not found", cs.Name)
				return nil
			}
		}
		run.Successf("%s completed", cs.Name)
		return nil
	}
}
