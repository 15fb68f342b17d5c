package utils

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"
)

// RetryConfig controls WithRetry. Retryable, when set, replaces the
// RetryableErrors substring match.
type RetryConfig struct {
	Name            string
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	Timeout         time.Duration
	RetryableErrors []string
	Retryable       func(error) bool
}

// RetryableFunc is one attempt of a retried operation.
type RetryableFunc[T any] func(ctx context.Context) (T, error)

// ModelRetryConfig suits calls to hosted models: slow, occasionally cold,
// and rate limited.
func ModelRetryConfig() RetryConfig {
	return RetryConfig{
		Name:          "model",
		MaxAttempts:   3,
		InitialDelay:  1 * time.Second,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		Timeout:       60 * time.Second,
		RetryableErrors: []string{
			"timeout",
			"connection reset",
			"connection refused",
			"rate limit",
			"resource exhausted",
			"unavailable",
			"loading",
			"status 5",
			"status 429",
		},
	}
}

// LookupRetryConfig fails fast so the caller can still answer with
// generated recipes.
func LookupRetryConfig() RetryConfig {
	return RetryConfig{
		Name:          "lookup",
		MaxAttempts:   2,
		InitialDelay:  250 * time.Millisecond,
		MaxDelay:      1 * time.Second,
		BackoffFactor: 2.0,
		Timeout:       10 * time.Second,
		RetryableErrors: []string{
			"timeout",
			"connection reset",
			"connection refused",
			"status 5",
			"status 429",
		},
	}
}

// IsRetryableError reports whether err matches one of patterns, case-insensitively.
func IsRetryableError(err error, patterns []string) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	for _, pattern := range patterns {
		if strings.Contains(errMsg, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

func (c RetryConfig) shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if c.Retryable != nil {
		return c.Retryable(err)
	}
	return IsRetryableError(err, c.RetryableErrors)
}

// Backoff returns the wait before the attempt following attempt (1-based),
// without jitter.
func (c RetryConfig) Backoff(attempt int) time.Duration {
	delay := time.Duration(float64(c.InitialDelay) * math.Pow(c.BackoffFactor, float64(attempt-1)))
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	return delay
}

func withJitter(delay time.Duration) time.Duration {
	// up to 10%
	if spread := int64(delay) / 10; spread > 0 {
		delay += time.Duration(rand.Int63n(spread))
	}
	return delay
}

// WithRetry runs operation until it succeeds, returns a non-retryable error,
// or MaxAttempts is reached. Each attempt gets its own Timeout.
func WithRetry[T any](ctx context.Context, operation RetryableFunc[T], config RetryConfig) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		attemptCtx, cancel := ctx, context.CancelFunc(func() {})
		if config.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, config.Timeout)
		}
		result, err := operation(attemptCtx)
		cancel()

		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == config.MaxAttempts || !config.shouldRetry(err) {
			break
		}

		delay := withJitter(config.Backoff(attempt))
		slog.DebugContext(ctx, "Retrying operation",
			"operation", config.Name,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	return zero, lastErr
}
