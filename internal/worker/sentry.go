package worker

import (
	"context"
	"errors"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"

	appsentry "github.com/pantrychef/recipegen/internal/sentry"
)

// SentryMiddleware reports task failures. A task that will be retried is
// only reported on its last attempt.
func SentryMiddleware(h asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		info := describeTask(ctx, t)

		hub := sentry.CurrentHub().Clone()
		hub.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetTag("task_type", t.Type())
			scope.SetTag("task_id", info.ID)
			scope.SetTag("queue", info.Queue)
			scope.SetTag("retry_count", strconv.Itoa(info.Retry))
			if info.UserID != "" {
				scope.SetUser(sentry.User{ID: info.UserID})
			}
		})
		ctx = sentry.SetHubOnContext(ctx, hub)

		err := h.ProcessTask(ctx, t)
		if err == nil || !finalAttempt(ctx, err) {
			return err
		}

		var tags map[string]string
		if info.JobID != "" {
			tags = map[string]string{"job_id": info.JobID}
		}
		appsentry.CaptureError(ctx, err, tags)
		return err
	})
}

func finalAttempt(ctx context.Context, err error) bool {
	if errors.Is(err, asynq.SkipRetry) {
		return true
	}
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return true
	}
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		return true
	}
	return retried >= maxRetry
}
