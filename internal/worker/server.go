package worker

import (
	"github.com/hibiken/asynq"
)

// CleanupSchedule is the cron spec for the periodic upload sweep.
const CleanupSchedule = "@every 1h"

// NewServer creates a new Asynq server for processing tasks
func NewServer(redisURL string, concurrency int) (*asynq.Server, error) {
	opt, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	if concurrency <= 0 {
		concurrency = 10
	}

	return asynq.NewServer(
		opt,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"default": 6,
				"low":     1,
			},
		},
	), nil
}

// NewMux routes every task type to its handler behind the shared middleware chain.
func NewMux(handlers map[string]asynq.HandlerFunc, middlewares ...asynq.MiddlewareFunc) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(middlewares...)
	for taskType, handler := range handlers {
		mux.HandleFunc(taskType, handler)
	}
	return mux
}

// NewScheduler registers the periodic cleanup task.
func NewScheduler(redisURL string) (*asynq.Scheduler, error) {
	opt, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}

	scheduler := asynq.NewScheduler(opt, nil)
	if _, err := scheduler.Register(CleanupSchedule, NewCleanupUploadsTask(), asynq.Queue("low")); err != nil {
		return nil, err
	}
	return scheduler, nil
}
