package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	plain := NewValidationError("at least one ingredient is required", "NO_INGREDIENTS", "Add ingredients")
	assert.Equal(t, "at least one ingredient is required", plain.Error())
	assert.Nil(t, plain.Unwrap())

	cause := errors.New("HuggingFace API error (status 503)")
	wrapped := NewGenerationError("recipe generation failed", "GENERATION_FAILED", cause)
	assert.Equal(t, "recipe generation failed: HuggingFace API error (status 503)", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)

	var target *AppError
	require.ErrorAs(t, fmt.Errorf("job 42: %w", wrapped), &target)
	assert.Equal(t, "GENERATION_FAILED", target.Code())
}

func TestConstructors(t *testing.T) {
	cause := errors.New("cause")

	tests := []struct {
		name   string
		err    *AppError
		typ    ErrorType
		status int
	}{
		{"validation", NewValidationError("bad", "BAD", "fix it"), ErrorTypeValidation, http.StatusBadRequest},
		{"not found", NewNotFoundError("no job", "JOB_NOT_FOUND", ""), ErrorTypeNotFound, http.StatusNotFound},
		{"rate limit", NewRateLimitError("slow down", "RATE_LIMITED", ""), ErrorTypeRateLimit, http.StatusTooManyRequests},
		{"generation", NewGenerationError("model failed", "GENERATION_FAILED", cause), ErrorTypeGeneration, http.StatusBadGateway},
		{"detection", NewDetectionError("vision failed", "DETECTION_FAILED", cause), ErrorTypeDetection, http.StatusInternalServerError},
		{"lookup", NewLookupError("spoonacular failed", "LOOKUP_FAILED", cause), ErrorTypeLookup, http.StatusBadGateway},
		{"storage", NewStorageError("upload failed", "UPLOAD_FAILED", cause), ErrorTypeStorage, http.StatusInternalServerError},
		{"internal", NewInternalError("boom", "INTERNAL", cause), ErrorTypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.err.Type)
			assert.Equal(t, tt.status, tt.err.StatusCode)
			assert.NotEmpty(t, tt.err.Code())
		})
	}
}

func TestAppError_IsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want bool
	}{
		{"rate limit", NewRateLimitError("slow down", "RATE_LIMITED", ""), true},
		{"validation", NewValidationError("bad", "BAD", ""), false},
		{"upstream generation failure", NewGenerationError("model failed", "GENERATION_FAILED", nil), true},
		{"generation rejected input", &AppError{Type: ErrorTypeGeneration, StatusCode: http.StatusBadRequest}, false},
		{"lookup outage", NewLookupError("spoonacular failed", "LOOKUP_FAILED", nil), true},
		{"not found", NewNotFoundError("no job", "JOB_NOT_FOUND", ""), false},
		{"internal", NewInternalError("boom", "BOOM", nil), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.IsRetryable())
		})
	}
}

func TestNewValidationError_Recovery(t *testing.T) {
	err := NewValidationError("max_time must not be negative", "INVALID_MAX_TIME", "Use 0 for no limit")
	assert.Equal(t, "Use 0 for no limit", err.RecoverySuggestion())
	assert.True(t, err.IsOperational)
}
