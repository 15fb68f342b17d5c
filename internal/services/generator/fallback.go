package generator

import (
	"context"
	"log/slog"

	"github.com/pantrychef/recipegen/internal/errors"
	"github.com/pantrychef/recipegen/internal/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// FallbackProvider implements TextGenerator with fallback logic
type FallbackProvider struct {
	Primary       TextGenerator
	Secondary     TextGenerator
	PrimaryName   string
	SecondaryName string
}

// NewFallbackProvider creates a new fallback provider
func NewFallbackProvider(primary, secondary TextGenerator, primaryName, secondaryName string) *FallbackProvider {
	return &FallbackProvider{
		Primary:       primary,
		Secondary:     secondary,
		PrimaryName:   primaryName,
		SecondaryName: secondaryName,
	}
}

// Generate tries the primary provider first, falls back to secondary on retryable errors
func (f *FallbackProvider) Generate(ctx context.Context, prompts []string, cfg DecodingConfig) ([]string, error) {
	outputs, err := f.Primary.Generate(ctx, prompts, cfg)
	if err == nil {
		return outputs, nil
	}

	providerErr := ClassifyError(err, f.PrimaryName)

	if !IsRetryableError(err) {
		slog.InfoContext(ctx, "Primary provider failed with non-retryable error, not attempting fallback",
			"provider", f.PrimaryName,
			"error_type", providerErr.Type,
			"error", err.Error())
		return nil, err
	}

	slog.InfoContext(ctx, "Primary provider failed with retryable error, attempting fallback",
		"provider", f.PrimaryName,
		"error_type", providerErr.Type,
		"error", err.Error(),
		"prompts", len(prompts))

	metrics.ProviderFallbackTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from_provider", f.PrimaryName),
		attribute.String("to_provider", f.SecondaryName),
		attribute.String("reason", providerErr.Type),
	))

	outputs, fallbackErr := f.Secondary.Generate(ctx, prompts, cfg)
	if fallbackErr == nil {
		slog.InfoContext(ctx, "Fallback provider succeeded",
			"provider", f.SecondaryName,
			"primary_error_type", providerErr.Type)
		return outputs, nil
	}

	fallbackProviderErr := ClassifyError(fallbackErr, f.SecondaryName)
	slog.ErrorContext(ctx, "Both primary and secondary providers failed",
		"primary_error_type", providerErr.Type,
		"primary_error", err.Error(),
		"fallback_error_type", fallbackProviderErr.Type,
		"fallback_error", fallbackErr.Error())

	return nil, errors.NewGenerationError(
		"both primary and secondary providers failed",
		"PROVIDER_FALLBACK_FAILED",
		fallbackErr,
	)
}
