package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pantrychef/recipegen/internal/services/chef"
)

// Task type constants
const (
	TypeGenerateRecipe = "generate:recipe"
	TypeCleanupUploads = "cleanup:uploads"
)

// GenerateRecipePayload is the payload for asynchronous generation tasks
type GenerateRecipePayload struct {
	JobID   string             `json:"job_id"`
	UserID  string             `json:"user_id"`
	Request chef.GenerateInput `json:"request"`
}

// NewGenerateRecipeTask creates a new generation task
func NewGenerateRecipeTask(payload GenerateRecipePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeGenerateRecipe, data, asynq.MaxRetry(3), asynq.Timeout(5*time.Minute)), nil
}

// NewCleanupUploadsTask creates a new cleanup task
func NewCleanupUploadsTask() *asynq.Task {
	return asynq.NewTask(TypeCleanupUploads, nil, asynq.MaxRetry(1))
}

// taskInfo is what the middlewares know about a task before its handler runs.
type taskInfo struct {
	ID     string
	Queue  string
	Retry  int
	JobID  string
	UserID string
}

func describeTask(ctx context.Context, t *asynq.Task) taskInfo {
	info := taskInfo{}
	info.ID, _ = asynq.GetTaskID(ctx)
	info.Queue, _ = asynq.GetQueueName(ctx)
	info.Retry, _ = asynq.GetRetryCount(ctx)

	if t.Type() == TypeGenerateRecipe {
		var p GenerateRecipePayload
		if json.Unmarshal(t.Payload(), &p) == nil {
			info.JobID = p.JobID
			info.UserID = p.UserID
		}
	}
	return info
}
