package generator

import (
	stderrors "errors"
	"strings"

	"github.com/pantrychef/recipegen/internal/errors"
)

// Provider error classes
const (
	ErrorRateLimit       = "rate_limit"
	ErrorCreditExhausted = "credit_exhausted"
	ErrorModelLoading    = "model_loading"
	ErrorServer          = "server_error"
	ErrorClient          = "client_error"
	ErrorUnknown         = "unknown"
)

// ProviderError represents a classified error from a text provider
type ProviderError struct {
	Type     string
	Message  string
	Provider string
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	return e.Message
}

// ClassifyError analyzes an error and returns a ProviderError with classification
func ClassifyError(err error, provider string) *ProviderError {
	if err == nil {
		return nil
	}

	msg := err.Error()
	classified := func(kind string) *ProviderError {
		return &ProviderError{Type: kind, Message: msg, Provider: provider}
	}

	if containsAny(msg, "status 429", "HTTP 429", "rate limit", "too many requests") {
		return classified(ErrorRateLimit)
	}

	if containsAny(msg, "status 402", "HTTP 402", "insufficient credit", "credit exhausted", "billing", "exceeded your monthly included credits") {
		return classified(ErrorCreditExhausted)
	}

	// Hugging Face answers 503 with this body while a cold model loads.
	if containsAny(msg, "is currently loading", "estimated_time") {
		return classified(ErrorModelLoading)
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		if appErr.StatusCode >= 500 {
			return classified(ErrorServer)
		}
		if appErr.StatusCode >= 400 {
			return classified(ErrorClient)
		}
	}

	if containsAny(msg, "status 5", "HTTP 5", "server error", "internal error", "deadline exceeded", "connection refused", "connection reset") {
		return classified(ErrorServer)
	}

	if containsAny(msg, "status 4", "HTTP 4", "bad request", "unauthorized", "forbidden") {
		return classified(ErrorClient)
	}

	return classified(ErrorUnknown)
}

// IsRetryableError returns true if another provider may succeed where this one failed
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	switch ClassifyError(err, "").Type {
	case ErrorRateLimit, ErrorCreditExhausted, ErrorModelLoading, ErrorServer:
		return true
	default:
		return false
	}
}

// containsAny reports whether s contains any of the substrings, case-insensitively
func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, substr := range substrs {
		if strings.Contains(lower, strings.ToLower(substr)) {
			return true
		}
	}
	return false
}
