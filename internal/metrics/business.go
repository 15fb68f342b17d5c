package metrics

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

var (
	meter = otel.Meter("recipegen/business")

	// Recipe metrics
	RecipesGeneratedTotal metric.Int64Counter
	RecipeRequestDuration metric.Float64Histogram
	EmptyGenerationsTotal metric.Int64Counter

	// Detection metrics
	DetectionsTotal   metric.Int64Counter
	DetectionDuration metric.Float64Histogram

	// External API metrics
	ExternalAPICallsTotal metric.Int64Counter
	ExternalAPIDuration   metric.Float64Histogram

	// AI metrics
	AIGenerationDuration metric.Float64Histogram

	// Fallback metrics
	ProviderFallbackTotal metric.Int64Counter
	LookupFallbackTotal   metric.Int64Counter
)

func init() {
	// Instruments are usable before Init so packages and tests never see nil.
	np := noop.NewMeterProvider().Meter("recipegen/noop")
	RecipesGeneratedTotal, _ = np.Int64Counter("noop")
	RecipeRequestDuration, _ = np.Float64Histogram("noop")
	EmptyGenerationsTotal, _ = np.Int64Counter("noop")
	DetectionsTotal, _ = np.Int64Counter("noop")
	DetectionDuration, _ = np.Float64Histogram("noop")
	ExternalAPICallsTotal, _ = np.Int64Counter("noop")
	ExternalAPIDuration, _ = np.Float64Histogram("noop")
	AIGenerationDuration, _ = np.Float64Histogram("noop")
	ProviderFallbackTotal, _ = np.Int64Counter("noop")
	LookupFallbackTotal, _ = np.Int64Counter("noop")
}

func Init() error {
	var err error

	// Recipe metrics
	RecipesGeneratedTotal, err = meter.Int64Counter(
		"recipe.generated.total",
		metric.WithDescription("Total number of usable recipes generated"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	RecipeRequestDuration, err = meter.Float64Histogram(
		"recipe.request.duration",
		metric.WithDescription("Duration of a full generate request"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2, 5, 10, 30, 60),
	)
	if err != nil {
		return err
	}

	EmptyGenerationsTotal, err = meter.Int64Counter(
		"recipe.empty_generations.total",
		metric.WithDescription("Model outputs that contained no recipe sections"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	// Detection metrics
	DetectionsTotal, err = meter.Int64Counter(
		"detection.items.total",
		metric.WithDescription("Ingredients detected in uploaded photos after filtering"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	DetectionDuration, err = meter.Float64Histogram(
		"detection.duration",
		metric.WithDescription("Duration of ingredient detection"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2, 5, 10, 30),
	)
	if err != nil {
		return err
	}

	// External API metrics
	ExternalAPICallsTotal, err = meter.Int64Counter(
		"external.api.calls.total",
		metric.WithDescription("Total number of external API calls"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	ExternalAPIDuration, err = meter.Float64Histogram(
		"external.api.duration",
		metric.WithDescription("Duration of external API calls"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2, 5, 10, 30),
	)
	if err != nil {
		return err
	}

	// AI metrics
	AIGenerationDuration, err = meter.Float64Histogram(
		"ai.generation.duration",
		metric.WithDescription("Duration of recipe text generation"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2, 5, 10, 30, 60),
	)
	if err != nil {
		return err
	}

	// Fallback metrics
	ProviderFallbackTotal, err = meter.Int64Counter(
		"provider.fallback.total",
		metric.WithDescription("Total number of provider fallback events"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	LookupFallbackTotal, err = meter.Int64Counter(
		"lookup.fallback.total",
		metric.WithDescription("Requests answered from the recipe lookup API"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	return nil
}
