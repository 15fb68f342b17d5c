package worker

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pantrychef/recipegen/internal/db"
	"github.com/pantrychef/recipegen/internal/errors"
	"github.com/pantrychef/recipegen/internal/services/chef"
	"github.com/pantrychef/recipegen/internal/services/storage"
	"github.com/pantrychef/recipegen/internal/utils"
)

// JobStore is the part of db.Queries the worker writes through.
type JobStore interface {
	UpdateGenerationJobStatus(ctx context.Context, arg db.UpdateGenerationJobStatusParams) error
	CompleteGenerationJob(ctx context.Context, arg db.CompleteGenerationJobParams) error
	DeleteOldGenerationJobs(ctx context.Context, before time.Time) (int64, error)
}

// RecipeGenerator runs one generate request.
type RecipeGenerator interface {
	Generate(ctx context.Context, in chef.GenerateInput) (*chef.Result, error)
}

// Retention windows applied by the cleanup task.
type Retention struct {
	Uploads time.Duration
	Jobs    time.Duration
}

type RecipeProcessor struct {
	jobs        JobStore
	chef        RecipeGenerator
	sweeper     storage.Sweeper
	broadcaster *ProgressBroadcaster
	retention   Retention
	// lastAttempt reports whether asynq will give up on the task after err.
	lastAttempt func(ctx context.Context, err error) bool
}

// NewRecipeProcessor wires the task handlers. sweeper and broadcaster may be nil.
func NewRecipeProcessor(
	jobs JobStore,
	generator RecipeGenerator,
	sweeper storage.Sweeper,
	broadcaster *ProgressBroadcaster,
	retention Retention,
) *RecipeProcessor {
	if retention.Uploads == 0 {
		retention.Uploads = 24 * time.Hour
	}
	if retention.Jobs == 0 {
		retention.Jobs = 7 * 24 * time.Hour
	}
	return &RecipeProcessor{
		jobs:        jobs,
		chef:        generator,
		sweeper:     sweeper,
		broadcaster: broadcaster,
		retention:   retention,
		lastAttempt: finalAttempt,
	}
}

func parseUUID(s string) pgtype.UUID {
	var u pgtype.UUID
	if err := u.Scan(s); err != nil {
		return pgtype.UUID{Valid: false}
	}
	return u
}

// Handlers maps task types to processor methods.
func (p *RecipeProcessor) Handlers() map[string]asynq.HandlerFunc {
	return map[string]asynq.HandlerFunc{
		TypeGenerateRecipe: p.HandleGenerateRecipe,
		TypeCleanupUploads: p.HandleCleanupUploads,
	}
}

func (p *RecipeProcessor) HandleGenerateRecipe(ctx context.Context, t *asynq.Task) error {
	var payload GenerateRecipePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	jobID := payload.JobID
	userID := payload.UserID

	slog.InfoContext(ctx, "Generating recipe", "job_id", jobID, "ingredients", payload.Request.Ingredients)

	p.updateProgress(ctx, jobID, userID, db.JobStatusGenerating, "Generating recipe...")

	result, err := p.chef.Generate(ctx, payload.Request)
	if err != nil {
		message := err.Error()
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) && !appErr.IsRetryable() {
			err = fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return p.fail(ctx, jobID, userID, message, err)
	}

	body, err := json.Marshal(result)
	if err != nil {
		return p.fail(ctx, jobID, userID, "Failed to encode result",
			fmt.Errorf("failed to marshal result: %w: %w", err, asynq.SkipRetry))
	}

	if err := p.jobs.CompleteGenerationJob(ctx, db.CompleteGenerationJobParams{
		ID:     parseUUID(jobID),
		Prompt: result.Prompt,
		Result: body,
	}); err != nil {
		return p.fail(ctx, jobID, userID, fmt.Sprintf("Failed to save result: %v", err),
			fmt.Errorf("failed to save result: %w", err))
	}

	p.broadcast(ctx, userID, ProgressUpdate{
		JobID:   jobID,
		Status:  db.JobStatusCompleted,
		Message: fmt.Sprintf("Generated %d recipe(s)", len(result.AIRecipes)),
	})

	return nil
}

func (p *RecipeProcessor) HandleCleanupUploads(ctx context.Context, t *asynq.Task) error {
	slog.InfoContext(ctx, "Running cleanup job")

	result := utils.RunParallel(ctx, []utils.ParallelFunc{
		func(ctx context.Context) error {
			if p.sweeper == nil {
				return nil
			}
			removed, err := p.sweeper.Sweep(ctx, p.retention.Uploads)
			if err != nil {
				return fmt.Errorf("failed to sweep uploads: %w", err)
			}
			slog.InfoContext(ctx, "Swept uploads", "removed", removed)
			return nil
		},
		func(ctx context.Context) error {
			deleted, err := p.jobs.DeleteOldGenerationJobs(ctx, time.Now().Add(-p.retention.Jobs))
			if err != nil {
				return fmt.Errorf("failed to delete old jobs: %w", err)
			}
			slog.InfoContext(ctx, "Deleted old jobs", "deleted", deleted)
			return nil
		},
	})

	return stderrors.Join(result.Errors...)
}

func (p *RecipeProcessor) updateProgress(ctx context.Context, jobID, userID, status, message string) {
	slog.InfoContext(ctx, "Progress update", "job_id", jobID, "status", status, "message", message)

	if err := p.jobs.UpdateGenerationJobStatus(ctx, db.UpdateGenerationJobStatusParams{
		ID:     parseUUID(jobID),
		Status: status,
	}); err != nil {
		slog.WarnContext(ctx, "Failed to update job status", "job_id", jobID, "error", err)
	}

	p.broadcast(ctx, userID, ProgressUpdate{JobID: jobID, Status: status, Message: message})
}

// fail records a failed attempt and returns err for asynq. The job is only
// marked failed once no retry is left; until then it goes back to pending.
func (p *RecipeProcessor) fail(ctx context.Context, jobID, userID, message string, err error) error {
	if p.lastAttempt(ctx, err) {
		p.markFailed(ctx, jobID, userID, message)
		return err
	}
	p.updateProgress(ctx, jobID, userID, db.JobStatusPending, "Retrying: "+message)
	return err
}

func (p *RecipeProcessor) markFailed(ctx context.Context, jobID, userID, errorMsg string) {
	slog.ErrorContext(ctx, "Job failed", "job_id", jobID, "error", errorMsg)

	if err := p.jobs.UpdateGenerationJobStatus(ctx, db.UpdateGenerationJobStatusParams{
		ID:     parseUUID(jobID),
		Status: db.JobStatusFailed,
		Error:  pgtype.Text{String: errorMsg, Valid: true},
	}); err != nil {
		slog.WarnContext(ctx, "Failed to mark job failed", "job_id", jobID, "error", err)
	}

	p.broadcast(ctx, userID, ProgressUpdate{JobID: jobID, Status: db.JobStatusFailed, Message: errorMsg})
}

func (p *RecipeProcessor) broadcast(ctx context.Context, userID string, update ProgressUpdate) {
	if err := p.broadcaster.Broadcast(ctx, userID, update); err != nil {
		slog.WarnContext(ctx, "Failed to broadcast progress", "job_id", update.JobID, "error", err)
	}
}
