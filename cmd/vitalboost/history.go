package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bgricker/vitalboost/internal/config"
	"github.com/bgricker/vitalboost/internal/history"
	"github.com/bgricker/vitalboost/internal/output"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past maintenance runs",
		RunE:  runHistory,
	}
	cmd.Flags().Int("limit", 20, "maximum number of runs to show")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("parse --limit: %w", err)
	}

	var runs []history.Run
	path := filepath.Join(dataDir(cfg), historyFile)
	if _, statErr := os.Stat(path); statErr == nil {
		store, err := history.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()
		if runs, err = store.List(cmd.Context(), limit); err != nil {
			return err
		}
	}

	switch strings.ToLower(cfg.Format) {
	case config.FormatPretty:
		return output.NewPretty(cmd.OutOrStdout()).RenderHistory(runs)
	case config.FormatJSON:
		return output.NewJSON(cmd.OutOrStdout()).Render(output.Report{History: runs})
	default:
		return fmt.Errorf("unsupported format %q", cfg.Format)
	}
}
