package worker

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/pantrychef/recipegen/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelMiddleware starts a consumer span per task. Generation tasks also
// carry the job and user ids.
func OTelMiddleware(h asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		info := describeTask(ctx, t)

		attrs := []attribute.KeyValue{
			attribute.String("task.id", info.ID),
			attribute.String("task.type", t.Type()),
			attribute.String("task.queue", info.Queue),
			attribute.Int("task.retry_count", info.Retry),
		}
		if info.JobID != "" {
			attrs = append(attrs,
				attribute.String("generation.job_id", info.JobID),
				attribute.String("generation.user_id", info.UserID),
			)
		}

		ctx, span := telemetry.Tracer("worker").Start(ctx, "task "+t.Type(),
			trace.WithSpanKind(trace.SpanKindConsumer),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		err := h.ProcessTask(ctx, t)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		return err
	})
}
