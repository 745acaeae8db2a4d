// Package workerpool fans a set of tasks out across a bounded number of
// goroutines, aggregating the first error and enforcing an overall
// deadline, per spec §4.5.
package workerpool

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Timeout bounds how long a single Run call may take before it aborts
// with an error (spec §4.5's "awaits completion with a 60-minute timeout").
const Timeout = 60 * time.Minute

// Task is one unit of work submitted to the pool; it receives the
// sub-pool's context, which is cancelled the moment any task errors.
type Task func(ctx context.Context) error

// Pool runs tasks with bounded concurrency.
type Pool struct {
	maxWorkers int
}

// New builds a Pool bounded to maxWorkers concurrent tasks.
func New(maxWorkers int) *Pool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Pool{maxWorkers: maxWorkers}
}

// Run submits every task, bounds concurrency to maxWorkers, and waits for
// all of them (or the first error, or the timeout) before returning. The
// first task error becomes the returned error; all other tasks observe
// ctx cancellation and should abort promptly.
func (p *Pool) Run(ctx context.Context, tasks []Task) error {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxWorkers)

	for _, task := range tasks {
		task := task
		g.Go(func() error {
			return task(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("workerpool: timed out after %s: %w", Timeout, err)
		}
		return err
	}
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("workerpool: timed out after %s", Timeout)
	}
	return nil
}
