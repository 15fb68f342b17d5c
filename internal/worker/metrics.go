package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("recipegen/worker")

// Task outcomes recorded by WorkerMetrics.
const (
	OutcomeSuccess = "success"
	OutcomeRetry   = "retry"
	OutcomeFailed  = "failed"
)

type WorkerMetrics struct {
	tasks    metric.Int64Counter
	duration metric.Float64Histogram
}

func NewWorkerMetrics() (*WorkerMetrics, error) {
	tasks, err := meter.Int64Counter(
		"recipegen.worker.tasks",
		metric.WithDescription("Worker tasks processed, by type and outcome"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		return nil, err
	}

	// generation runs several model calls; cleanup is quick
	duration, err := meter.Float64Histogram(
		"recipegen.worker.task.duration",
		metric.WithDescription("Duration of worker tasks"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.5, 1, 5, 15, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	return &WorkerMetrics{tasks: tasks, duration: duration}, nil
}

// RecordTask counts one finished attempt of taskType. Safe on a nil receiver.
func (m *WorkerMetrics) RecordTask(ctx context.Context, taskType, queue, outcome string, seconds float64) {
	if m == nil {
		return
	}
	typeAttr := attribute.String("task.type", taskType)
	m.tasks.Add(ctx, 1, metric.WithAttributes(
		typeAttr,
		attribute.String("task.queue", queue),
		attribute.String("outcome", outcome),
	))
	m.duration.Record(ctx, seconds, metric.WithAttributes(typeAttr, attribute.String("outcome", outcome)))
}

// taskOutcome tells a failure asynq will retry apart from a final one.
func taskOutcome(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case finalAttempt(ctx, err):
		return OutcomeFailed
	default:
		return OutcomeRetry
	}
}

// Middleware records every task attempt.
func (m *WorkerMetrics) Middleware(h asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		start := time.Now()
		err := h.ProcessTask(ctx, t)
		queue, _ := asynq.GetQueueName(ctx)
		m.RecordTask(ctx, t.Type(), queue, taskOutcome(ctx, err), time.Since(start).Seconds())
		return err
	})
}
