package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"archcheck/internal/checker"
	"archcheck/internal/core/config"
	"archcheck/internal/core/model"
	"archcheck/internal/history"
	"archcheck/internal/output"
	"archcheck/internal/shared/observability"
	"archcheck/internal/shared/util"
	"archcheck/internal/subsystem"
	"archcheck/internal/ui/report"
	"archcheck/internal/watcher"
)

// App ties one configured target to the checker, the reporter and the
// optional run history.
type App struct {
	cfg      *config.Config
	log      *slog.Logger
	checker  *checker.Checker
	reporter *report.Reporter
	store    *history.Store

	// DiagramPath, when set, gets a mermaid subsystem diagram per run.
	DiagramPath string
}

func NewApp(cfg *config.Config, opts report.Options) (*App, error) {
	log := slog.Default()
	app := &App{
		cfg:      cfg,
		log:      log,
		checker:  checker.New(cfg, log),
		reporter: report.New(os.Stdout, opts),
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		app.store = store
	}

	return app, nil
}

func (a *App) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// RunOnce executes a full check, reports it and records the run.
func (a *App) RunOnce(ctx context.Context) (*model.Results, error) {
	results, err := a.checker.Run(ctx)
	if err != nil {
		return nil, err
	}

	artifact, err := a.reporter.Report(results)
	if err != nil {
		return nil, err
	}

	if a.store != nil {
		run := history.Run{
			RunID:          artifact.RunID,
			Timestamp:      artifact.Timestamp,
			TargetPath:     results.TargetPath,
			FileCount:      results.FilesScanned,
			SubsystemCount: results.SubsystemCount,
			ErrorCount:     len(results.Errors),
			WarningCount:   len(results.Warnings),
			ByCategory:     results.SummaryByCategory(),
			DurationMS:     results.ExecutionTime.Milliseconds(),
		}
		if err := a.store.SaveRun(run); err != nil {
			observability.HistoryWriteErrorsTotal.Inc()
			a.log.Warn("failed to record run history", "error", err)
		}
	}

	if a.DiagramPath != "" {
		if err := a.writeDiagram(results); err != nil {
			a.log.Warn("failed to write diagram", "path", a.DiagramPath, "error", err)
		}
	}

	return results, nil
}

func (a *App) writeDiagram(results *model.Results) error {
	builder := &subsystem.Builder{
		Root:         a.cfg.TargetPath,
		Extensions:   a.cfg.Scan.Extensions,
		ManifestName: a.cfg.Scan.ManifestName,
		Log:          a.log,
	}
	tree, err := builder.Build()
	if err != nil {
		return err
	}
	diagram, err := output.NewMermaidGenerator(tree).Generate(results)
	if err != nil {
		return err
	}
	return util.WriteFileWithDirs(a.DiagramPath, []byte(diagram), 0o644)
}

// TrendReport summarizes the recorded runs for the configured target
// over the given window.
func (a *App) TrendReport(window time.Duration) (history.TrendReport, error) {
	if a.store == nil {
		return history.TrendReport{}, fmt.Errorf("run history is disabled, enable [history] in the config")
	}
	runs, err := a.store.LoadRuns(a.cfg.TargetPath, time.Time{})
	if err != nil {
		return history.TrendReport{}, err
	}
	return history.BuildTrendReport(runs, window)
}

// WatchLoop reruns the check whenever relevant files under the target
// change. It blocks until ctx is cancelled.
func (a *App) WatchLoop(ctx context.Context) error {
	rerun := make(chan []string, 1)
	watchNames := []string{
		a.cfg.Scan.ManifestName,
		a.cfg.Scan.IgnoreFile,
		a.cfg.Overrides.ThresholdFile,
		a.cfg.Overrides.FunctionFile,
	}
	w, err := watcher.New(a.cfg.Watch.Debounce, a.cfg.Scan.Extensions, a.cfg.Scan.ExcludeDirs, watchNames, func(paths []string) {
		select {
		case rerun <- paths:
		default:
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Watch(a.cfg.TargetPath); err != nil {
		return err
	}
	a.log.Info("watching for changes", "target", a.cfg.TargetPath, "debounce", a.cfg.Watch.Debounce)

	for {
		select {
		case paths := <-rerun:
			observability.RechecksTotal.Inc()
			a.log.Info("change detected, rechecking", "changed", len(paths))
			if _, err := a.RunOnce(ctx); err != nil {
				a.log.Error("recheck failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
