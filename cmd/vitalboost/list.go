package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bgricker/vitalboost/internal/config"
	"github.com/bgricker/vitalboost/internal/filter"
	"github.com/bgricker/vitalboost/internal/maintenance"
	"github.com/bgricker/vitalboost/internal/output"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [pipeline...]",
		Short: "List pipelines and their steps",
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	cfg.DryRun = true
	catalog, err := newCatalog(cfg, newRunner(cmd, cfg))
	if err != nil {
		return err
	}

	names := args
	if len(names) == 0 {
		names = catalog.Names()
	}
	pipelines, err := describePipelines(catalog, names)
	if err != nil {
		return err
	}

	switch strings.ToLower(cfg.Format) {
	case config.FormatPretty:
		return output.NewPretty(cmd.OutOrStdout()).RenderList(pipelines)
	case config.FormatJSON:
		return output.NewJSON(cmd.OutOrStdout()).Render(output.Report{Pipelines: pipelines})
	default:
		return fmt.Errorf("unsupported format %q", cfg.Format)
	}
}

func describePipelines(catalog *maintenance.Catalog, names []string) ([]output.PipelineInfo, error) {
	out := make([]output.PipelineInfo, 0, len(names))
	for _, name := range names {
		p, err := catalog.Build(name)
		if err != nil {
			return nil, err
		}
		info := output.PipelineInfo{Name: p.Name(), Description: maintenance.Describe(p.Name())}
		for _, step := range p.Steps() {
			si := output.StepInfo{Label: step.Label(), Weight: step.Weight()}
			if keyed, ok := step.(filter.Keyed); ok {
				si.Key = keyed.Key()
			}
			info.Steps = append(info.Steps, si)
		}
		out = append(out, info)
	}
	return out, nil
}
