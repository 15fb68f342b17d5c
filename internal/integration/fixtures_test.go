// Package integration wires the HTTP API, the chef service and the worker
// together against in-memory stores and httptest model servers.
package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/pantrychef/recipegen/internal/api"
	"github.com/pantrychef/recipegen/internal/db"
	"github.com/pantrychef/recipegen/internal/middleware"
	"github.com/pantrychef/recipegen/internal/services/chef"
	"github.com/pantrychef/recipegen/internal/services/generator"
	"github.com/pantrychef/recipegen/internal/services/spoonacular"
	"github.com/pantrychef/recipegen/internal/worker"
)

const testSecret = "integration-secret"

const modelOutput = "<pad> title: bacon mac<section>ingredients: 2 cups macaroni<sep> 4 slices bacon<sep> 1 cup milk<section>directions: boil the macaroni until tender<sep> fry the bacon and stir everything together</s>"

// memoryJobs is a map-backed job store satisfying both the API and worker views.
type memoryJobs struct {
	mu   sync.Mutex
	jobs map[[16]byte]db.GenerationJob
}

func newMemoryJobs() *memoryJobs {
	return &memoryJobs{jobs: map[[16]byte]db.GenerationJob{}}
}

func (m *memoryJobs) CreateGenerationJob(_ context.Context, arg db.CreateGenerationJobParams) (db.GenerationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := pgtype.Timestamptz{Time: time.Now(), Valid: true}
	job := db.GenerationJob{
		ID:        arg.ID,
		UserID:    arg.UserID,
		Prompt:    arg.Prompt,
		Request:   arg.Request,
		Status:    arg.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.jobs[arg.ID.Bytes] = job
	return job, nil
}

func (m *memoryJobs) GetGenerationJob(_ context.Context, id pgtype.UUID) (db.GenerationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id.Bytes]
	if !ok {
		return db.GenerationJob{}, pgx.ErrNoRows
	}
	return job, nil
}

func (m *memoryJobs) ListGenerationJobsByUser(_ context.Context, userID pgtype.Text, limit int32) ([]db.GenerationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []db.GenerationJob{}
	for _, job := range m.jobs {
		if job.UserID.String == userID.String {
			out = append(out, job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Time.After(out[j].CreatedAt.Time) })
	if len(out) > int(limit) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryJobs) UpdateGenerationJobStatus(_ context.Context, arg db.UpdateGenerationJobStatusParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job := m.jobs[arg.ID.Bytes]
	job.Status = arg.Status
	job.Error = arg.Error
	job.UpdatedAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	m.jobs[arg.ID.Bytes] = job
	return nil
}

func (m *memoryJobs) CompleteGenerationJob(_ context.Context, arg db.CompleteGenerationJobParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job := m.jobs[arg.ID.Bytes]
	job.Status = db.JobStatusCompleted
	job.Prompt = arg.Prompt
	job.Result = arg.Result
	job.Error = pgtype.Text{}
	m.jobs[arg.ID.Bytes] = job
	return nil
}

func (m *memoryJobs) DeleteOldGenerationJobs(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, job := range m.jobs {
		if job.UpdatedAt.Time.Before(before) {
			delete(m.jobs, id)
			n++
		}
	}
	return n, nil
}

// memoryQueue records enqueued tasks instead of sending them to redis.
type memoryQueue struct {
	mu    sync.Mutex
	tasks []*asynq.Task
}

func (q *memoryQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

// newModelServer answers Hugging Face style inference calls with output.
func newModelServer(t *testing.T, status int, output string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/models/") {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Inputs []string `json:"inputs"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if status != http.StatusOK {
			http.Error(w, "model unavailable", status)
			return
		}
		results := make([]map[string]string, len(req.Inputs))
		for i := range req.Inputs {
			results[i] = map[string]string{"generated_text": output}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(results)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newLookupServer(t *testing.T, recipes []spoonacular.LookupRecipe) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(recipes)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type fixture struct {
	router    http.Handler
	jobs      *memoryJobs
	queue     *memoryQueue
	processor *worker.RecipeProcessor
}

func newFixture(t *testing.T, modelURL, lookupURL string) *fixture {
	t.Helper()

	hf := generator.NewHuggingFaceProvider("hf-test-key", "flax-community/t5-recipe-generation")
	hf.BaseURL = modelURL

	opts := chef.Options{
		Decoding:      generator.DefaultDecodingConfig(),
		DefaultCount:  1,
		LookupEnabled: lookupURL != "",
		LookupNumber:  5,
		Timeout:       10 * time.Second,
	}
	var lookup chef.RecipeLookup
	if lookupURL != "" {
		lookup = spoonacular.NewClient("spoon-test-key", lookupURL, nil)
	}
	service := chef.NewService(hf, lookup, opts)

	jobs := newMemoryJobs()
	queue := &memoryQueue{}

	srv := api.NewServer(api.Dependencies{
		Chef:         service,
		Jobs:         jobs,
		Queue:        queue,
		DefaultCount: opts.DefaultCount,
	})
	router := api.NewRouter(srv, api.RouterOptions{
		ServiceName:    "recipegen-integration",
		AllowedOrigins: []string{"http://localhost:5173"},
		Auth:           &middleware.AuthConfig{Secret: testSecret, Issuer: "recipegen"},
	})

	processor := worker.NewRecipeProcessor(jobs, service, nil, worker.NewProgressBroadcaster(nil), worker.Retention{})

	return &fixture{router: router, jobs: jobs, queue: queue, processor: processor}
}

func createTestToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"iss": "recipegen",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	tokenString, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return tokenString
}
