// Package concurrency is the cooperative-cancellation and bounded-fan-out
// plumbing spec.md §5 describes, shared by internal/metadata's downloads
// and parse workers. No suspension point lives in internal/sat or
// internal/version, matching §5's ordering guarantee that solving and
// version comparison never block on I/O.
package concurrency

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/operator-framework/deppy/internal/errs"
)

// Signal checks ctx for cancellation at a suspension point, reporting it
// as the errs.ErrCancelled sentinel itself (the context's own error is not
// wrapped) so callers can branch on one sentinel regardless of which
// component observed the cancellation.
func Signal(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return errs.ErrCancelled
	default:
		return nil
	}
}

// Scheduler runs work items with at most Limit concurrently in flight,
// stopping at the first error and cancelling the rest, via errgroup.Group
// wrapping a semaphore.Weighted-guarded fan-out.
type Scheduler struct {
	Limit int64
}

// Run executes fn once for each index i in [0, n), bounded to s.Limit concurrent
// calls, returning the first error encountered (after which the
// remaining, not-yet-started tasks are skipped via ctx cancellation).
func (s Scheduler) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	limit := s.Limit
	if limit <= 0 {
		limit = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(limit)

	for i := 0; i < n; i++ {
		i := i
		if err := sem.Acquire(ctx, 1); err != nil {
			// ctx is cancelled either by a failed worker, whose error
			// g.Wait reports, or by the caller.
			if werr := g.Wait(); werr != nil {
				return werr
			}
			return err
		}
		g.Go(func() error {
			defer sem.Release(1)
			if err := Signal(ctx); err != nil {
				return err
			}
			return fn(ctx, i)
		})
	}
	return g.Wait()
}
