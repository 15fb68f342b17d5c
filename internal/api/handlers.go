package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/pantrychef/recipegen/internal/db"
	"github.com/pantrychef/recipegen/internal/detection"
	"github.com/pantrychef/recipegen/internal/errors"
	"github.com/pantrychef/recipegen/internal/metrics"
	"github.com/pantrychef/recipegen/internal/middleware"
	"github.com/pantrychef/recipegen/internal/services/chef"
	"github.com/pantrychef/recipegen/internal/services/storage"
	"github.com/pantrychef/recipegen/internal/worker"
)

// Request defaults applied when a field is absent.
const (
	DefaultCuisine        = "Any"
	DefaultMaxTimeMinutes = 60
	MaxUploadBytes        = 10 << 20
	jobListLimit          = 50
)

// RecipeGenerator runs one generate request.
type RecipeGenerator interface {
	Generate(ctx context.Context, in chef.GenerateInput) (*chef.Result, error)
}

// JobStore is the part of db.Queries the API reads and writes.
type JobStore interface {
	CreateGenerationJob(ctx context.Context, arg db.CreateGenerationJobParams) (db.GenerationJob, error)
	GetGenerationJob(ctx context.Context, id pgtype.UUID) (db.GenerationJob, error)
	ListGenerationJobsByUser(ctx context.Context, userID pgtype.Text, limit int32) ([]db.GenerationJob, error)
}

// TaskEnqueuer is satisfied by *asynq.Client.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type Server struct {
	chef          RecipeGenerator
	detector      detection.Detector
	store         storage.Store
	jobs          JobStore
	queue         TaskEnqueuer
	minConfidence float64
	defaultCount  int
}

// Dependencies are the collaborators behind the handlers. Detector, Store,
// Jobs and Queue may be nil; the routes that need them then answer with an error.
type Dependencies struct {
	Chef          RecipeGenerator
	Detector      detection.Detector
	Store         storage.Store
	Jobs          JobStore
	Queue         TaskEnqueuer
	MinConfidence float64
	// DefaultCount must match the chef service's Options.DefaultCount.
	DefaultCount int
}

func NewServer(deps Dependencies) *Server {
	if deps.MinConfidence == 0 {
		deps.MinConfidence = detection.DefaultMinConfidence
	}
	return &Server{
		chef:          deps.Chef,
		detector:      deps.Detector,
		store:         deps.Store,
		jobs:          deps.Jobs,
		queue:         deps.Queue,
		minConfidence: deps.MinConfidence,
		defaultCount:  deps.DefaultCount,
	}
}

func parseUUID(s string) pgtype.UUID {
	var u pgtype.UUID
	if err := u.Scan(s); err != nil {
		return pgtype.UUID{Valid: false}
	}
	return u
}

// GenerateRequest is the body of POST /generate.
type GenerateRequest struct {
	Ingredients string `json:"ingredients"`
	Allergies   string `json:"allergies"`
	Cuisine     string `json:"cuisine"`
	MaxTime     *int   `json:"max_time"`
	Count       int    `json:"count"`
}

// Input applies request defaults.
func (req GenerateRequest) Input() chef.GenerateInput {
	in := chef.GenerateInput{
		Ingredients:    req.Ingredients,
		Allergies:      req.Allergies,
		Cuisine:        req.Cuisine,
		MaxTimeMinutes: DefaultMaxTimeMinutes,
		Count:          req.Count,
	}
	if in.Cuisine == "" {
		in.Cuisine = DefaultCuisine
	}
	if req.MaxTime != nil {
		in.MaxTimeMinutes = *req.MaxTime
	}
	return in
}

func decodeGenerateRequest(r *http.Request) (GenerateRequest, error) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, errors.NewValidationError("Invalid request body", "INVALID_BODY", "Send a JSON object with an ingredients field")
	}
	return req, nil
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeGenerateRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := s.chef.Generate(r.Context(), req.Input())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// DetectResponse is the body returned by POST /detect-ingredients.
type DetectResponse struct {
	Ingredients    []detection.Detection `json:"ingredients"`
	OutputImageURL string                `json:"output_image_url"`
}

func (s *Server) HandleDetectIngredients(w http.ResponseWriter, r *http.Request) {
	if s.detector == nil {
		writeError(w, r, errors.NewDetectionError("Ingredient detection is not configured", "DETECTION_DISABLED", nil))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	file, header, err := r.FormFile("file")
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		writeError(w, r, errors.NewPayloadTooLargeError(
			fmt.Sprintf("Upload exceeds the %d MB limit", MaxUploadBytes>>20), "FILE_TOO_LARGE", "Resize or compress the photo"))
		return
	}
	if err != nil {
		writeError(w, r, errors.NewValidationError("An image file is required", "NO_FILE", "Upload the photo in the multipart field \"file\""))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		writeError(w, r, errors.NewValidationError("Could not read the uploaded file", "INVALID_FILE", ""))
		return
	}

	contentType := storage.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, r, errors.NewValidationError("Upload must be an image", "INVALID_IMAGE", "Use a JPEG or PNG photo"))
		return
	}

	var imageURL string
	if s.store != nil {
		imageURL, err = s.store.Save(r.Context(), storage.UploadKey(header.Filename), contentType, data)
		if err != nil {
			writeError(w, r, errors.NewStorageError("Failed to store upload", "UPLOAD_FAILED", err))
			return
		}
	}

	start := time.Now()
	detections, err := s.detector.Detect(r.Context(), data, contentType)
	metrics.DetectionDuration.Record(r.Context(), time.Since(start).Seconds())
	if err != nil {
		writeError(w, r, errors.NewDetectionError("Ingredient detection failed", "DETECTION_FAILED", err))
		return
	}

	kept := detection.FilterDetections(detections, s.minConfidence)
	metrics.DetectionsTotal.Add(r.Context(), int64(len(kept)), metric.WithAttributes(attribute.Int("raw", len(detections))))
	slog.InfoContext(r.Context(), "Detected ingredients", "kept", len(kept), "raw", len(detections))

	writeJSON(w, http.StatusOK, DetectResponse{
		Ingredients:    kept,
		OutputImageURL: imageURL,
	})
}

type CreateJobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

func (s *Server) HandleCreateJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	req, err := decodeGenerateRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in := req.Input()

	prepared, err := chef.PrepareInput(in, s.defaultCount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in.Count = prepared.Count
	prompt := prepared.Prompt

	requestBody, err := json.Marshal(in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	jobID := uuid.New().String()

	if _, err := s.jobs.CreateGenerationJob(r.Context(), db.CreateGenerationJobParams{
		ID:      parseUUID(jobID),
		UserID:  pgtype.Text{String: userID, Valid: true},
		Prompt:  prompt,
		Request: requestBody,
		Status:  db.JobStatusPending,
	}); err != nil {
		writeError(w, r, errors.NewInternalError("Failed to create job", "JOB_CREATE_FAILED", err))
		return
	}

	task, err := worker.NewGenerateRecipeTask(worker.GenerateRecipePayload{
		JobID:   jobID,
		UserID:  userID,
		Request: in,
	})
	if err != nil {
		writeError(w, r, errors.NewInternalError("Failed to create task", "TASK_CREATE_FAILED", err))
		return
	}

	if _, err := s.queue.EnqueueContext(r.Context(), task); err != nil {
		writeError(w, r, errors.NewInternalError("Failed to enqueue task", "ENQUEUE_FAILED", err))
		return
	}

	writeJSON(w, http.StatusAccepted, CreateJobResponse{JobID: jobID, Status: db.JobStatusPending})
}

type JobResponse struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Prompt    string          `json:"prompt"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

func toJobResponse(job db.GenerationJob) JobResponse {
	return JobResponse{
		ID:        uuid.UUID(job.ID.Bytes).String(),
		Status:    job.Status,
		Prompt:    job.Prompt,
		Result:    json.RawMessage(job.Result),
		Error:     job.Error.String,
		CreatedAt: job.CreatedAt.Time.Format(time.RFC3339),
		UpdatedAt: job.UpdatedAt.Time.Format(time.RFC3339),
	}
}

func (s *Server) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	notFound := errors.NewNotFoundError("Job not found", "JOB_NOT_FOUND", "")

	jobID := parseUUID(chi.URLParam(r, "id"))
	if !jobID.Valid {
		writeError(w, r, notFound)
		return
	}

	job, err := s.jobs.GetGenerationJob(r.Context(), jobID)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			writeError(w, r, notFound)
			return
		}
		writeError(w, r, errors.NewInternalError("Failed to fetch job", "JOB_FETCH_FAILED", err))
		return
	}

	if job.UserID.String != userID {
		writeError(w, r, notFound)
		return
	}

	writeJSON(w, http.StatusOK, toJobResponse(job))
}

type JobListResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

func (s *Server) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	jobs, err := s.jobs.ListGenerationJobsByUser(r.Context(), pgtype.Text{String: userID, Valid: true}, jobListLimit)
	if err != nil {
		writeError(w, r, errors.NewInternalError("Failed to fetch jobs", "JOB_FETCH_FAILED", err))
		return
	}

	response := JobListResponse{Jobs: make([]JobResponse, len(jobs))}
	for i, job := range jobs {
		response.Jobs[i] = toJobResponse(job)
	}

	writeJSON(w, http.StatusOK, response)
}
