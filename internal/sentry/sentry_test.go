package sentry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/pantrychef/recipegen/internal/errors"
)

func TestInit_EmptyDSN(t *testing.T) {
	assert.NoError(t, Init("", "test", "recipegen", "dev"))
}

func TestShouldReport(t *testing.T) {
	assert.False(t, ShouldReport(nil))
	assert.False(t, ShouldReport(apperrors.NewValidationError("bad", "INVALID_INPUT", "")))
	assert.False(t, ShouldReport(apperrors.NewNotFoundError("missing", "JOB_NOT_FOUND", "")))
	assert.True(t, ShouldReport(apperrors.NewGenerationError("model down", "GENERATION_FAILED", nil)))
	assert.True(t, ShouldReport(errors.New("plain")))
}

func TestCaptureError_NoClient(t *testing.T) {
	assert.NotPanics(t, func() {
		CaptureError(context.Background(), errors.New("boom"), map[string]string{"task": "generate"})
	})
}

func TestHTTPMiddleware_RecoversPanic(t *testing.T) {
	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/generate", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHTTPMiddleware_PassesThrough(t *testing.T) {
	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
