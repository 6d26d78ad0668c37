package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/millgrid/internal/ctxlog"
	"github.com/vk/millgrid/internal/job"
	"golang.org/x/sync/errgroup"
)

// BatchResult is the outcome of one job in a batch, in input order.
type BatchResult struct {
	Manifest *Manifest
	Err      error
}

// RunBatch runs jobs concurrently, at most Options.Parallel at a time. Every
// job gets its own session and run id. A failing job does not stop the
// others; jobs not yet started when ctx is cancelled are skipped with the
// context error. The returned error joins every per-job error.
func (o *Orchestrator) RunBatch(ctx context.Context, jobs []*job.Job) ([]BatchResult, error) {
	logger := ctxlog.FromContext(ctx)
	results := make([]BatchResult, len(jobs))

	var g errgroup.Group
	g.SetLimit(o.opts.Parallel)
	for i, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			m, err := o.Run(ctx, j)
			results[i] = BatchResult{Manifest: m, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for i, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("job %d: %w", i, r.Err))
		}
	}
	logger.Info("🏁 Batch finished.", "jobs", len(jobs), "failed", len(errs), "parallel", o.opts.Parallel)
	return results, errors.Join(errs...)
}
