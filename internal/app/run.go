package app

import (
	"context"
	"fmt"

	"github.com/vk/millgrid/internal/pipeline"
	"github.com/zclconf/go-cty/cty"
)

// Run loads the job files at paths and runs them as one batch. Directories
// are expanded with ExpandPaths. Loading is all or nothing; running is not:
// the results carry one entry per job file and the returned error joins the
// failures.
func (a *App) Run(ctx context.Context, paths []string, vars map[string]cty.Value) ([]pipeline.BatchResult, error) {
	ctx = a.Context(ctx)
	a.logger.Debug("App.Run method started.", "jobs", len(paths))

	paths, err := ExpandPaths(paths)
	if err != nil {
		return nil, fmt.Errorf("failed to load jobs: %w", err)
	}
	jobs, err := LoadJobs(ctx, paths, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to load jobs: %w", err)
	}

	a.logger.Info("🚀 Starting job runs...", "jobs", len(jobs), "delivery", a.orch.Delivery())
	results, err := a.orch.RunBatch(ctx, jobs)
	if err != nil {
		return results, fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Debug("App.Run method finished.")
	return results, nil
}
