package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "vitalboost",
		Short:         "Vitalboost runs PC maintenance pipelines",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	persistent := cmd.PersistentFlags()
	persistent.String("language", "", "report language (en|pt_BR)")
	persistent.String("report-dir", "", "directory reports are written to")
	persistent.String("report-format", "", "report format (html|markdown|json)")
	persistent.String("data-dir", "", "directory holding the run lock and history")
	persistent.StringArray("only-step", nil, "include only matching steps")
	persistent.StringArray("skip-step", nil, "exclude matching steps")
	persistent.String("format", "pretty", "output format (pretty|json)")
	persistent.String("log-level", "", "console and diagnostic log level (debug|info|warn|error)")
	persistent.Duration("pause", 0, "pause between stages of the all pipeline")
	persistent.Bool("dry-run", false, "print commands without executing them")
	persistent.BoolP("verbose", "v", false, "stream command output in real time")
	persistent.BoolP("yes", "y", false, "skip the confirmation prompt")
	persistent.Bool("no-report", false, "do not write a report file")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newToolsCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}
