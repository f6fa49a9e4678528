// Package checker wires the scan together: it builds the subsystem
// tree, fans the rule checks out over a worker pool and collects one
// Results for the reporter.
package checker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"archcheck/internal/core/config"
	"archcheck/internal/core/errors"
	"archcheck/internal/core/model"
	"archcheck/internal/engine/domain"
	"archcheck/internal/engine/legality"
	"archcheck/internal/engine/permission"
	"archcheck/internal/engine/structure"
	"archcheck/internal/ignore"
	"archcheck/internal/override"
	"archcheck/internal/shared/observability"
	"archcheck/internal/shared/util"
	"archcheck/internal/subsystem"
)

// Checker runs one full architecture check per call to Run.
type Checker struct {
	cfg *config.Config
	log *slog.Logger
	// warnLimit throttles repeated per-file warnings on large trees
	warnLimit *util.Limiter
}

func New(cfg *config.Config, log *slog.Logger) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{cfg: cfg, log: log, warnLimit: util.NewLimiter(5, 10)}
}

// Run executes every rule over the configured target and returns the
// sorted results.
func (c *Checker) Run(ctx context.Context) (*model.Results, error) {
	start := time.Now()

	ig, err := ignore.Load(c.cfg.Scan.IgnoreFile)
	if err != nil {
		return nil, err
	}
	thresholds, warnings, err := override.LoadThresholds(c.cfg.Overrides.ThresholdFile)
	if err != nil {
		return nil, err
	}
	fnLimits, fnWarnings, err := override.LoadFunctionLimits(c.cfg.Overrides.FunctionFile)
	if err != nil {
		return nil, err
	}
	nestedWarnings, err := thresholds.Discover(c.cfg.TargetPath)
	if err != nil {
		return nil, err
	}
	fnNestedWarnings, err := fnLimits.Discover(c.cfg.TargetPath)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, fnWarnings...)
	warnings = append(warnings, nestedWarnings...)
	warnings = append(warnings, fnNestedWarnings...)
	for _, w := range warnings {
		c.log.Warn("exception file entry ignored", "problem", w)
	}

	builder := &subsystem.Builder{
		Root:         c.cfg.TargetPath,
		Extensions:   c.cfg.Scan.Extensions,
		ManifestName: c.cfg.Scan.ManifestName,
		SkipDir:      ig.SkipTraversal,
		Log:          c.log,
	}
	tree, err := builder.Build()
	if err != nil {
		return nil, err
	}
	c.reportUnreadable(tree)

	resolver := permission.NewResolver(tree)
	imports := legality.New(tree, resolver, ig)
	structural := structure.New(tree, c.cfg.Thresholds)
	structural.Overrides = thresholds
	structural.FnLimits = fnLimits
	structural.Ignore = ig
	domains := domain.New(tree)
	domains.Ignore = ig

	var tasks []func() []model.Violation
	for _, s := range tree.Subsystems {
		s := s
		tasks = append(tasks,
			func() []model.Violation { return imports.CheckImports(s) },
			func() []model.Violation { return imports.CheckReexports(s) },
			func() []model.Violation { return resolver.Redundancies(s) },
		)
	}
	tasks = append(tasks,
		imports.CheckBoundaries,
		imports.CheckOverlays,
		imports.CheckStandaloneIndexes,
		structural.Check,
		domains.Check,
	)

	results := model.NewResults(c.cfg.TargetPath)
	results.FilesScanned = len(tree.Files)
	results.SubsystemCount = len(tree.Subsystems)
	results.AddAll(c.runTasks(ctx, tasks))
	results.Sort()
	results.ExecutionTime = time.Since(start)

	observability.CheckDuration.Observe(results.ExecutionTime.Seconds())
	observability.FilesScanned.Set(float64(results.FilesScanned))
	observability.SubsystemsDiscovered.Set(float64(results.SubsystemCount))
	observability.Violations.WithLabelValues("error").Set(float64(len(results.Errors)))
	observability.Violations.WithLabelValues("warning").Set(float64(len(results.Warnings)))

	c.log.Info("check complete",
		"target", c.cfg.TargetPath,
		"errors", len(results.Errors),
		"warnings", len(results.Warnings),
		"duration", results.ExecutionTime)
	return results, ctx.Err()
}

// runTasks fans the checks out over the configured number of workers
// and gathers every violation. Order is irrelevant here, Results.Sort
// makes the output deterministic.
func (c *Checker) runTasks(ctx context.Context, tasks []func() []model.Violation) []model.Violation {
	workers := c.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan func() []model.Violation)
	findings := make(chan []model.Violation)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range jobs {
				findings <- task()
			}
		}()
	}
	go func() {
		defer close(jobs)
		for _, task := range tasks {
			select {
			case jobs <- task:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(findings)
	}()

	var out []model.Violation
	for vs := range findings {
		out = append(out, vs...)
	}
	return out
}

// reportUnreadable surfaces files the scanner could not read. The
// limiter keeps a tree full of permission problems from flooding the
// log.
func (c *Checker) reportUnreadable(tree *subsystem.Tree) {
	for _, file := range tree.Files {
		if _, err := tree.Cache().Content(file); err != nil {
			if c.warnLimit.Allow(1) {
				degraded := errors.AddContext(
					errors.Wrap(err, errors.CodeParseDegraded, "source facts degraded to empty"),
					errors.CtxPath, file)
				c.log.Warn("file unreadable", "error", degraded)
			}
		}
	}
}
