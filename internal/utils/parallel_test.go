package utils

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunParallel_CollectsErrors(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("boom")

	result := RunParallel(context.Background(), []ParallelFunc{
		func(ctx context.Context) error { calls.Add(1); return nil },
		func(ctx context.Context) error { calls.Add(1); return boom },
		func(ctx context.Context) error { calls.Add(1); return nil },
	})

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []error{boom}, result.Errors)
}

func TestRunParallel_Empty(t *testing.T) {
	assert.Empty(t, RunParallel(context.Background(), nil).Errors)
}

func TestRunParallelWithResults_PreservesOrder(t *testing.T) {
	funcs := []func(ctx context.Context) (int, error){
		func(ctx context.Context) (int, error) { return 1, nil },
		func(ctx context.Context) (int, error) { return 0, errors.New("skip") },
		func(ctx context.Context) (int, error) { return 3, nil },
	}

	results, errs := RunParallelWithResults(context.Background(), funcs)

	assert.Equal(t, []int{1, 0, 3}, results)
	assert.Len(t, errs, 1)
}

func TestRunParallelLimit_CapsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	funcs := make([]func(ctx context.Context) (int, error), 8)
	for i := range funcs {
		funcs[i] = func(ctx context.Context) (int, error) {
			n := inFlight.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			return i, nil
		}
	}

	results, errs := RunParallelLimit(context.Background(), 2, funcs)

	assert.Empty(t, errs)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, results)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRunParallel_FailureDoesNotCancelOthers(t *testing.T) {
	var sawCancel atomic.Bool
	result := RunParallel(context.Background(), []ParallelFunc{
		func(ctx context.Context) error { return errors.New("sweep failed") },
		func(ctx context.Context) error {
			time.Sleep(10 * time.Millisecond)
			sawCancel.Store(ctx.Err() != nil)
			return nil
		},
	})

	assert.Len(t, result.Errors, 1)
	assert.False(t, sawCancel.Load())
}
