package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bgricker/vitalboost/internal/config"
	"github.com/bgricker/vitalboost/internal/filelock"
	"github.com/bgricker/vitalboost/internal/history"
	"github.com/bgricker/vitalboost/internal/ident"
	"github.com/bgricker/vitalboost/internal/logger"
	"github.com/bgricker/vitalboost/internal/output"
	"github.com/bgricker/vitalboost/internal/pipeline"
	"github.com/bgricker/vitalboost/internal/report"
	"github.com/bgricker/vitalboost/internal/sysinfo"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <pipeline>",
		Short: "Run a maintenance pipeline (drivers, software, cleanup, performance, network, all, custom)",
		Args:  cobra.ExactArgs(1),
		RunE:  runExecute,
	}
}

func runExecute(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	exec := newRunner(cmd, cfg)
	catalog, err := newCatalog(cfg, exec)
	if err != nil {
		return err
	}
	p, err := catalog.Build(args[0])
	if err != nil {
		return err
	}

	dir := dataDir(cfg)
	lock, err := filelock.AcquireRun(dir)
	if err != nil {
		if errors.Is(err, filelock.ErrLocked) {
			return fmt.Errorf("another maintenance run is in progress (%s)", filepath.Join(dir, filelock.RunLockName))
		}
		return err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			slog.Warn("release run lock", "error", err)
		}
	}()

	runID, err := ident.NewGenerator().NewID(time.Now())
	if err != nil {
		return err
	}

	console := logger.NewConsole(cmd.ErrOrStderr(), cfg.LogLevel)
	transcript := pipeline.NewTranscript(time.Now)
	async := pipeline.NewAsyncSink(console)
	env := pipeline.Env{
		Sink:      pipeline.Fanout{transcript, async},
		Stats:     &pipeline.Stats{},
		Confirmer: newPromptConfirmer(cmd.InOrStdin(), cmd.ErrOrStderr(), cfg.AssumeYes),
	}

	signals := make(chan os.Signal, 2)
	signal.Notify(signals, os.Interrupt)
	res, runErr := execute(cmd.Context(), p, env, signals)
	signal.Stop(signals)
	async.Close()
	console.Finish()

	if errors.Is(runErr, pipeline.ErrAborted) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Maintenance cancelled; nothing was changed.")
		return nil
	}
	if runErr != nil {
		return runErr
	}

	var reportPath string
	if !cfg.NoReport {
		reportPath, err = writeReport(cfg, runID, res, transcript.Entries())
		if err != nil {
			slog.Error("report not written", "error", err)
		}
	}

	recordHistory(filepath.Join(dir, historyFile), history.Run{
		ID:         runID,
		Pipeline:   res.Pipeline,
		State:      res.State.String(),
		Started:    res.Started,
		Finished:   res.Finished,
		DryRun:     cfg.DryRun,
		Stats:      res.Stats,
		ReportPath: reportPath,
	})

	summary := output.NewSummary(runID, res, cfg.DryRun, reportPath)
	switch strings.ToLower(cfg.Format) {
	case config.FormatJSON:
		return output.NewJSON(cmd.OutOrStdout()).Render(output.Report{Run: &summary})
	default:
		return output.NewPretty(cmd.OutOrStdout()).RenderResults(summary)
	}
}

// execute runs p on a worker. The first interrupt asks the pipeline to stop
// after the current step; a second one cancels the command in flight.
func execute(parent context.Context, p *pipeline.Pipeline, env pipeline.Env, signals <-chan os.Signal) (pipeline.Result, error) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	worker := pipeline.NewWorker()
	if err := worker.Start(ctx, p, env); err != nil {
		return pipeline.Result{}, err
	}

	interrupts := 0
	for {
		select {
		case <-worker.Done():
			return worker.Wait()
		case <-signals:
			interrupts++
			if interrupts == 1 {
				if env.Sink != nil {
					env.Sink.AppendLog(pipeline.LevelWarning, "Stop requested; finishing the current step")
				}
				worker.Stop()
				continue
			}
			cancel()
		}
	}
}

func writeReport(cfg config.Config, runID string, res pipeline.Result, entries []pipeline.LogEntry) (string, error) {
	format, err := report.ParseFormat(cfg.ReportFormat)
	if err != nil {
		return "", err
	}
	data, err := report.Generate(report.Input{
		Pipeline:    res.Pipeline,
		RunID:       runID,
		Language:    cfg.DefaultLanguage,
		GeneratedAt: res.Finished,
		Duration:    res.Duration(),
		Stats:       res.Stats,
		Transcript:  entries,
		SystemInfo:  sysinfo.Collect(),
		Operations:  res.Operations(),
	}, format)
	if err != nil {
		return "", err
	}
	return report.Write(cfg.ReportDir, report.FileName("", format, res.Finished, runID), data)
}

func recordHistory(path string, run history.Run) {
	store, err := history.Open(path)
	if err != nil {
		slog.Warn("history unavailable", "error", err)
		return
	}
	defer store.Close()
	if err := store.Record(context.Background(), run); err != nil {
		slog.Warn("history not recorded", "run", run.ID, "error", err)
	}
}
