package errors

import (
	"fmt"
	"net/http"
)

// ErrorType defines the category of the error
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "VALIDATION_ERROR"
	ErrorTypeGeneration ErrorType = "GENERATION_ERROR"
	ErrorTypeDetection  ErrorType = "DETECTION_ERROR"
	ErrorTypeLookup     ErrorType = "LOOKUP_ERROR"
	ErrorTypeStorage    ErrorType = "STORAGE_ERROR"
	ErrorTypeRateLimit  ErrorType = "RATE_LIMIT_ERROR"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND_ERROR"
	ErrorTypeInternal   ErrorType = "INTERNAL_ERROR"
)

// AppError represents a structured error for the application
type AppError struct {
	Type          ErrorType `json:"type"`
	Message       string    `json:"message"`
	StatusCode    int       `json:"statusCode"`
	ErrorCode     string    `json:"errorCode"`
	IsOperational bool      `json:"isOperational"`
	Recovery      string    `json:"recoverySuggestion,omitempty"`
	Err           error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying error to errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// Code returns the application-specific error code
func (e *AppError) Code() string {
	return e.ErrorCode
}

// RecoverySuggestion returns the suggestion on how to recover from the error
func (e *AppError) RecoverySuggestion() string {
	return e.Recovery
}

// IsRetryable determines if the operation that caused the error should be retried
func (e *AppError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeRateLimit:
		return true
	case ErrorTypeGeneration, ErrorTypeDetection, ErrorTypeLookup, ErrorTypeStorage:
		return e.StatusCode >= 500
	default:
		return false
	}
}

// NewValidationError creates a new validation error (400)
func NewValidationError(message string, errorCode string, suggestion string) *AppError {
	return &AppError{
		Type:          ErrorTypeValidation,
		Message:       message,
		StatusCode:    http.StatusBadRequest,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      suggestion,
	}
}

// NewNotFoundError creates a new not found error (404)
func NewNotFoundError(message string, errorCode string, suggestion string) *AppError {
	return &AppError{
		Type:          ErrorTypeNotFound,
		Message:       message,
		StatusCode:    http.StatusNotFound,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      suggestion,
	}
}

// NewRateLimitError creates a new rate limit error (429)
func NewRateLimitError(message string, errorCode string, suggestion string) *AppError {
	return &AppError{
		Type:          ErrorTypeRateLimit,
		Message:       message,
		StatusCode:    http.StatusTooManyRequests,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      suggestion,
	}
}

// NewPayloadTooLargeError creates a validation error for oversized uploads (413)
func NewPayloadTooLargeError(message string, errorCode string, suggestion string) *AppError {
	return &AppError{
		Type:          ErrorTypeValidation,
		Message:       message,
		StatusCode:    http.StatusRequestEntityTooLarge,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      suggestion,
	}
}

// NewGenerationError creates a new recipe generation error (502)
func NewGenerationError(message string, errorCode string, err error) *AppError {
	return &AppError{
		Type:          ErrorTypeGeneration,
		Message:       message,
		StatusCode:    http.StatusBadGateway,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      "Try different ingredients or wait for the model to be available.",
		Err:           err,
	}
}

// NewDetectionError creates a new ingredient detection error (500)
func NewDetectionError(message string, errorCode string, err error) *AppError {
	return &AppError{
		Type:          ErrorTypeDetection,
		Message:       message,
		StatusCode:    http.StatusInternalServerError,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      "Try a clearer photo or type the ingredients instead.",
		Err:           err,
	}
}

// NewLookupError creates a new recipe lookup error (502)
func NewLookupError(message string, errorCode string, err error) *AppError {
	return &AppError{
		Type:          ErrorTypeLookup,
		Message:       message,
		StatusCode:    http.StatusBadGateway,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      "Wait a moment and try again.",
		Err:           err,
	}
}

// NewStorageError creates a new storage error (500)
func NewStorageError(message string, errorCode string, err error) *AppError {
	return &AppError{
		Type:          ErrorTypeStorage,
		Message:       message,
		StatusCode:    http.StatusInternalServerError,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      "Try uploading the image again.",
		Err:           err,
	}
}

// NewInternalError creates a new internal error (500)
func NewInternalError(message string, errorCode string, err error) *AppError {
	return &AppError{
		Type:          ErrorTypeInternal,
		Message:       message,
		StatusCode:    http.StatusInternalServerError,
		ErrorCode:     errorCode,
		IsOperational: false,
		Err:           err,
	}
}
