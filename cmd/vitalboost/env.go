package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/bgricker/vitalboost/internal/config"
	"github.com/bgricker/vitalboost/internal/logger"
	"github.com/bgricker/vitalboost/internal/maintenance"
	"github.com/bgricker/vitalboost/internal/privilege"
	"github.com/bgricker/vitalboost/internal/runner"
)

const historyFile = "history.db"

// loadConfig resolves the effective configuration: defaults, then the first
// config file found, then flags. A broken config file only produces a debug
// diagnostic.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	root, err := os.Getwd()
	if err != nil {
		return config.Config{}, fmt.Errorf("determine working directory: %w", err)
	}

	cfg, source, loadErr := config.Load(config.Candidates(root))

	flags, err := gatherFlags(cmd.Flags())
	if err != nil {
		return config.Config{}, err
	}
	config.ApplyFlags(&cfg, flags)

	if _, err := logger.ConfigureDiagnostics(cfg.LogLevel, "text", cmd.ErrOrStderr()); err != nil {
		return config.Config{}, err
	}
	if loadErr != nil {
		slog.Debug("config fallback", "error", loadErr)
	} else if source != "" {
		slog.Debug("config loaded", "path", source)
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// dataDir returns the directory holding the run lock and history database.
func dataDir(cfg config.Config) string {
	if cfg.DataDir != "" {
		return cfg.DataDir
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "vitalboost")
	}
	return ".vitalboost"
}

func currentHost() maintenance.Host {
	st := privilege.Detect()
	return maintenance.Host{GOOS: runtime.GOOS, Elevated: st.Elevated, PrivilegeName: st.Name}
}

func newRunner(cmd *cobra.Command, cfg config.Config) *runner.Runner {
	return runner.New(runner.Options{
		Stdout:             cmd.ErrOrStderr(),
		Stderr:             cmd.ErrOrStderr(),
		Verbose:            cfg.Verbose,
		DryRun:             cfg.DryRun,
		PrivilegedPatterns: cfg.PrivilegedCommandPatterns,
	})
}

func newCatalog(cfg config.Config, exec *runner.Runner) (*maintenance.Catalog, error) {
	return maintenance.New(maintenance.Options{
		Runner: exec,
		Host:   currentHost(),
		Config: cfg,
	})
}
