package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bgricker/vitalboost/internal/config"
	"github.com/bgricker/vitalboost/internal/maintenance"
	"github.com/bgricker/vitalboost/internal/output"
	"github.com/bgricker/vitalboost/internal/tools"
)

// versionArgs lists how tools that support it report their version.
var versionArgs = map[string][]string{
	"winget":           {"--version"},
	"apt-get":          {"--version"},
	"apt":              {"--version"},
	"brew":             {"--version"},
	"gio":              {"--version"},
	"resolvectl":       {"--version"},
	"powerprofilesctl": {"version"},
}

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Show which maintenance tools are available on this system",
		RunE:  runTools,
	}
}

func runTools(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	cfg.DryRun = false
	detector := tools.Detector{Exec: newRunner(cmd, cfg)}
	infos := detector.Detect(cmd.Context(), toolSpecs(maintenance.ToolsetFor(runtime.GOOS)))

	switch strings.ToLower(cfg.Format) {
	case config.FormatPretty:
		return output.NewPretty(cmd.OutOrStdout()).RenderTools(infos)
	case config.FormatJSON:
		return output.NewJSON(cmd.OutOrStdout()).Render(output.Report{Tools: infos})
	default:
		return fmt.Errorf("unsupported format %q", cfg.Format)
	}
}

// toolSpecs lists every executable ts invokes, once, in pipeline order.
func toolSpecs(ts maintenance.Toolset) []tools.Spec {
	invocations := []maintenance.Invocation{ts.Drivers, ts.SFC, ts.DISM, ts.Chkdsk}
	for _, pm := range ts.Packages {
		invocations = append(invocations, pm.List, pm.Upgrade, pm.CacheClean)
	}
	invocations = append(invocations, ts.DiskCleanup, ts.RecycleBin)
	for _, fix := range ts.Network {
		invocations = append(invocations, fix.Invocation)
	}
	invocations = append(invocations, ts.PowerPlanCreate, ts.PowerPlanActivate, ts.MemoryTrim, ts.VisualEffects)

	seen := make(map[string]bool)
	var specs []tools.Spec
	for _, inv := range invocations {
		if len(inv.Args) == 0 || seen[inv.Args[0]] {
			continue
		}
		name := inv.Args[0]
		seen[name] = true
		specs = append(specs, tools.Spec{Name: name, VersionArgs: versionArgs[name]})
	}
	return specs
}
