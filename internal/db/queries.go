package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// Job statuses.
const (
	JobStatusPending    = "pending"
	JobStatusGenerating = "generating"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type GenerationJob struct {
	ID        pgtype.UUID        `json:"id"`
	UserID    pgtype.Text        `json:"user_id"`
	Prompt    string             `json:"prompt"`
	Request   []byte             `json:"request"`
	Status    string             `json:"status"`
	Result    []byte             `json:"result"`
	Error     pgtype.Text        `json:"error"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

const generationJobColumns = `id, user_id, prompt, request, status, result, error, created_at, updated_at`

func scanGenerationJob(row pgx.Row) (GenerationJob, error) {
	var i GenerationJob
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Prompt,
		&i.Request,
		&i.Status,
		&i.Result,
		&i.Error,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createGenerationJob = `-- name: CreateGenerationJob :one
INSERT INTO generation_jobs (id, user_id, prompt, request, status)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + generationJobColumns

type CreateGenerationJobParams struct {
	ID      pgtype.UUID `json:"id"`
	UserID  pgtype.Text `json:"user_id"`
	Prompt  string      `json:"prompt"`
	Request []byte      `json:"request"`
	Status  string      `json:"status"`
}

func (q *Queries) CreateGenerationJob(ctx context.Context, arg CreateGenerationJobParams) (GenerationJob, error) {
	row := q.db.QueryRow(ctx, createGenerationJob,
		arg.ID,
		arg.UserID,
		arg.Prompt,
		arg.Request,
		arg.Status,
	)
	return scanGenerationJob(row)
}

const getGenerationJob = `-- name: GetGenerationJob :one
SELECT ` + generationJobColumns + `
FROM generation_jobs
WHERE id = $1`

func (q *Queries) GetGenerationJob(ctx context.Context, id pgtype.UUID) (GenerationJob, error) {
	row := q.db.QueryRow(ctx, getGenerationJob, id)
	return scanGenerationJob(row)
}

const updateGenerationJobStatus = `-- name: UpdateGenerationJobStatus :exec
UPDATE generation_jobs
SET status = $2, error = $3, updated_at = now()
WHERE id = $1`

type UpdateGenerationJobStatusParams struct {
	ID     pgtype.UUID `json:"id"`
	Status string      `json:"status"`
	Error  pgtype.Text `json:"error"`
}

func (q *Queries) UpdateGenerationJobStatus(ctx context.Context, arg UpdateGenerationJobStatusParams) error {
	_, err := q.db.Exec(ctx, updateGenerationJobStatus, arg.ID, arg.Status, arg.Error)
	return err
}

const completeGenerationJob = `-- name: CompleteGenerationJob :exec
UPDATE generation_jobs
SET status = 'completed', prompt = $2, result = $3, error = NULL, updated_at = now()
WHERE id = $1`

type CompleteGenerationJobParams struct {
	ID     pgtype.UUID `json:"id"`
	Prompt string      `json:"prompt"`
	Result []byte      `json:"result"`
}

func (q *Queries) CompleteGenerationJob(ctx context.Context, arg CompleteGenerationJobParams) error {
	_, err := q.db.Exec(ctx, completeGenerationJob, arg.ID, arg.Prompt, arg.Result)
	return err
}

const listGenerationJobsByUser = `-- name: ListGenerationJobsByUser :many
SELECT ` + generationJobColumns + `
FROM generation_jobs
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2`

func (q *Queries) ListGenerationJobsByUser(ctx context.Context, userID pgtype.Text, limit int32) ([]GenerationJob, error) {
	rows, err := q.db.Query(ctx, listGenerationJobsByUser, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []GenerationJob{}
	for rows.Next() {
		i, err := scanGenerationJob(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteOldGenerationJobs = `-- name: DeleteOldGenerationJobs :execrows
DELETE FROM generation_jobs
WHERE updated_at < $1 AND status IN ('completed', 'failed')`

func (q *Queries) DeleteOldGenerationJobs(ctx context.Context, before time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteOldGenerationJobs, pgtype.Timestamptz{Time: before, Valid: true})
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
