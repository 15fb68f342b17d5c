package sentry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	apperrors "github.com/pantrychef/recipegen/internal/errors"
)

// Init initializes Sentry with the provided configuration.
// If DSN is empty, Sentry initialization is skipped and nil is returned.
func Init(dsn, env, serviceName, serviceVersion string) error {
	if dsn == "" {
		return nil
	}

	options := sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      env,
		ServerName:       serviceName,
		Release:          serviceVersion,
		AttachStacktrace: true,
		TracesSampleRate: 0.0, // OpenTelemetry owns tracing
	}

	if err := sentry.Init(options); err != nil {
		return fmt.Errorf("failed to initialize Sentry: %w", err)
	}

	return nil
}

// Flush waits for all pending Sentry events to be sent.
// Call this during graceful shutdown.
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}

// Recover captures a panic and forwards it to Sentry.
// Should be used with defer in goroutines.
func Recover() {
	sentry.Recover()
}

// ShouldReport reports whether err is worth an event. Client mistakes
// (validation, not found, rate limit) are expected and skipped.
func ShouldReport(err error) bool {
	if err == nil {
		return false
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case apperrors.ErrorTypeValidation, apperrors.ErrorTypeNotFound, apperrors.ErrorTypeRateLimit:
			return false
		}
	}
	return true
}

// CaptureError reports err on the hub bound to ctx, tagging AppErrors with
// their type. Errors rejected by ShouldReport are dropped.
func CaptureError(ctx context.Context, err error, tags map[string]string) {
	if !ShouldReport(err) {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}

	hub.WithScope(func(scope *sentry.Scope) {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			scope.SetTag("error_type", string(appErr.Type))
		}
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
}
