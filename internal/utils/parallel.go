package utils

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ParallelFunc is one independent unit of work.
type ParallelFunc func(ctx context.Context) error

// ParallelResult holds the failures of a RunParallel call.
type ParallelResult struct {
	Errors []error
}

// RunParallel runs every func to completion, even when some fail, and
// collects the failures.
func RunParallel(ctx context.Context, funcs []ParallelFunc) ParallelResult {
	wrapped := make([]func(context.Context) (struct{}, error), len(funcs))
	for i, fn := range funcs {
		wrapped[i] = func(ctx context.Context) (struct{}, error) {
			return struct{}{}, fn(ctx)
		}
	}
	_, errs := RunParallelLimit(ctx, 0, wrapped)
	return ParallelResult{Errors: errs}
}

// RunParallelWithResults runs funcs concurrently without a limit. See RunParallelLimit.
func RunParallelWithResults[T any](ctx context.Context, funcs []func(ctx context.Context) (T, error)) ([]T, []error) {
	return RunParallelLimit(ctx, 0, funcs)
}

// RunParallelLimit runs funcs on an errgroup with at most limit in flight
// (limit <= 0 means no limit). Results keep the order of funcs and a failed
// call leaves its zero value. A failure does not cancel the others.
func RunParallelLimit[T any](ctx context.Context, limit int, funcs []func(ctx context.Context) (T, error)) ([]T, []error) {
	if len(funcs) == 0 {
		return nil, nil
	}

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	results := make([]T, len(funcs))
	errs := make([]error, len(funcs))
	for i, fn := range funcs {
		g.Go(func() error {
			// each goroutine owns index i
			results[i], errs[i] = fn(ctx)
			return nil
		})
	}
	_ = g.Wait()

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	return results, failed
}
