package maintenance

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/bgricker/vitalboost/internal/cleanup"
	"github.com/bgricker/vitalboost/internal/discovery"
	"github.com/bgricker/vitalboost/internal/pipeline"
)

// locationWeight is shared by all cleanup locations of one run.
const locationWeight = 80

func (c *Catalog) cleanupSteps() ([]pipeline.Step, error) {
	locations, err := discovery.Locations(discovery.Templates(c.tools.GOOS), c.opts.Config.CleanupPaths, c.opts.Getenv)
	if err != nil && !errors.Is(err, discovery.ErrNoLocations) {
		return nil, err
	}

	steps := make([]pipeline.Step, 0, len(locations)+6)
	for _, loc := range locations {
		steps = append(steps, &locationStep{
			loc:    loc,
			weight: locationWeight / float64(len(locations)),
			dryRun: c.opts.Runner.DryRun(),
		})
	}
	steps = append(steps, c.newCommandStep("disk-cleanup", "Run disk cleanup", 5, pipeline.CategoryCleanup, c.tools.DiskCleanup, nil))
	steps = append(steps, c.networkSteps(5)...)
	steps = append(steps, c.newCommandStep("recycle-bin", "Empty recycle bin", 5, pipeline.CategoryCleanup, c.tools.RecycleBin, nil))
	return steps, nil
}

// locationStep empties one cleanup location. Browser profile roots are
// cleaned only inside each profile's cache directory.
type locationStep struct {
	loc    discovery.Location
	weight float64
	dryRun bool
}

func (s *locationStep) Key() string                 { return s.loc.Key }
func (s *locationStep) Label() string               { return s.loc.Description }
func (s *locationStep) Weight() float64             { return s.weight }
func (s *locationStep) Category() pipeline.Category { return pipeline.CategoryCleanup }

func (s *locationStep) Execute(_ context.Context, run *pipeline.Run) error {
	name := s.loc.Description
	if _, err := os.Stat(s.loc.Path); err != nil {
		run.Infof("%s: not found; skipped", name)
		return nil
	}

	dirs := []string{s.loc.Path}
	if s.loc.ProfileCache != "" {
		var err error
		if dirs, err = discovery.ProfileCaches(s.loc.Path, s.loc.ProfileCache); err != nil {
			return err
		}
	}

	var freed, reclaimable int64
	var failures int
	for _, dir := range dirs {
		res, err := cleanup.CleanDir(dir, cleanup.Options{DryRun: s.dryRun})
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		freed += res.Freed()
		reclaimable += res.Reclaimable
		failures += len(res.Errors)
	}

	if failures > 0 {
		run.Warnf("%s: %d entries in use or not removable", name, failures)
	}
	switch {
	case s.dryRun:
		run.Infof("dry-run: %s would free %s", name, cleanup.FormatBytes(reclaimable))
	case freed > 0:
		run.Stats().AddCleaned(freed)
		run.Successf("%s: %s freed", name, cleanup.FormatBytes(freed))
	default:
		run.Successf("%s: already clean", name)
	}
	return nil
}
