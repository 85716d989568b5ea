package maintenance

import (
	"context"
	"fmt"
	"os"

	"github.com/bgricker/vitalboost/internal/cleanup"
	"github.com/bgricker/vitalboost/internal/discovery"
	"github.com/bgricker/vitalboost/internal/pipeline"
	"github.com/bgricker/vitalboost/internal/runner"
)

// upgradeState carries the pending count from the listing step to the
// upgrade step of the same run.
type upgradeState struct {
	listed  bool
	pending int
}

func (c *Catalog) softwareSteps() []pipeline.Step {
	pm, ok := c.packageManager()
	if !ok {
		return []pipeline.Step{pipeline.NewStep("Detect package manager", 100, pipeline.CategoryGeneral,
			func(_ context.Context, run *pipeline.Run) error {
				run.Warnf("No supported package manager found on %s", c.tools.GOOS)
				return nil
			})}
	}

	state := &upgradeState{}
	list := c.newCommandStep("software-list", "List outdated software", 20, pipeline.CategoryGeneral, pm.List,
		func(run *pipeline.Run, res runner.Result) error {
			if err := res.Err(pm.Name); err != nil {
				return err
			}
			state.listed = true
			state.pending = pm.Pending(res.Stdout)
			run.Infof("%d programs need updates", state.pending)
			return nil
		})

	upgrade := c.newCommandStep("software-upgrade", "Upgrade software", 60, pipeline.CategoryGeneral, pm.Upgrade,
		func(run *pipeline.Run, res runner.Result) error {
			if err := res.Err(pm.Name + " upgrade"); err != nil {
				return fmt.Errorf("some updates may have failed: %w", err)
			}
			n := c.opts.Table.Count(pm.CountTool, res.Stdout)
			run.Stats().AddSoftware(fmt.Sprintf("%d programs via %s", n, pm.Name))
			run.Successf("%d programs updated", n)
			return nil
		})

	steps := []pipeline.Step{list, &skipWhenCurrent{commandStep: upgrade, state: state}}
	switch {
	case pm.CacheClean.supported():
		steps = append(steps, c.newCommandStep("installer-cache", "Clean installer cache", 20, pipeline.CategoryCleanup, pm.CacheClean, nil))
	case pm.CacheDir != "":
		steps = append(steps, pipeline.NewStep("Clean installer cache", 20, pipeline.CategoryCleanup, c.cleanCacheDir(pm)))
	}
	return steps
}

func (c *Catalog) packageManager() (PackageManager, bool) {
	for _, pm := range c.tools.Packages {
		if _, err := c.opts.LookPath(pm.Binary); err == nil {
			return pm, true
		}
	}
	return PackageManager{}, false
}

// skipWhenCurrent skips the upgrade when the listing found nothing pending.
type skipWhenCurrent struct {
	*commandStep
	state *upgradeState
}

func (s *skipWhenCurrent) Execute(ctx context.Context, run *pipeline.Run) error {
	if s.state.listed && s.state.pending == 0 {
		run.Successf("All programs are already up to date")
		return nil
	}
	return s.commandStep.Execute(ctx, run)
}

func (c *Catalog) cleanCacheDir(pm PackageManager) pipeline.Func {
	return func(_ context.Context, run *pipeline.Run) error {
		dir, ok := discovery.Expand(pm.CacheDir, c.opts.Getenv)
		if !ok {
			run.Infof("%s cache location is not set; skipped", pm.Name)
			return nil
		}
		if _, err := os.Stat(dir); err != nil {
			run.Infof("%s cache not found; skipped", pm.Name)
			return nil
		}
		res, err := cleanup.CleanDir(dir, cleanup.Options{DryRun: c.opts.Runner.DryRun()})
		if err != nil {
			return err
		}
		if res.Reclaimable > 0 {
			run.Infof("dry-run: %s cache would free %s", pm.Name, cleanup.FormatBytes(res.Reclaimable))
			return nil
		}
		if freed := res.Freed(); freed > 0 {
			run.Stats().AddSpaceFreed(freed)
			run.Successf("%s cache cleaned: %s freed", pm.Name, cleanup.FormatBytes(freed))
		}
		return nil
	}
}
