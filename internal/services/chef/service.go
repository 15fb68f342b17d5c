// Package chef turns ingredient lists into recipes. It owns the generation
// pipeline: prompt, model, cleanup, parsing and the lookup fallback.
package chef

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/pantrychef/recipegen/internal/config"
	"github.com/pantrychef/recipegen/internal/errors"
	"github.com/pantrychef/recipegen/internal/metrics"
	"github.com/pantrychef/recipegen/internal/recipe"
	"github.com/pantrychef/recipegen/internal/services/generator"
	"github.com/pantrychef/recipegen/internal/services/spoonacular"
	"github.com/pantrychef/recipegen/internal/telemetry"
	"github.com/pantrychef/recipegen/internal/utils"
	"github.com/pantrychef/recipegen/internal/validation"
)

// RecipeLookup finds existing recipes that use the given ingredients.
type RecipeLookup interface {
	FindByIngredients(ctx context.Context, ingredients []string, number int) ([]spoonacular.LookupRecipe, error)
}

// GenerateInput is a generate request before normalization.
type GenerateInput struct {
	Ingredients    string `json:"ingredients"`
	Allergies      string `json:"allergies"`
	Cuisine        string `json:"cuisine"`
	MaxTimeMinutes int    `json:"max_time"`
	Count          int    `json:"count"`
}

// Result is what a generate request produces.
type Result struct {
	Prompt             string                     `json:"prompt"`
	AIRecipe           string                     `json:"ai_recipe"`
	AIRecipes          []recipe.StructuredRecipe  `json:"ai_recipes"`
	SpoonacularRecipes []spoonacular.LookupRecipe `json:"spoonacular_recipes"`
}

// Options tunes the pipeline.
type Options struct {
	Decoding      generator.DecodingConfig
	SpecialTokens []string
	DefaultCount  int
	LookupEnabled bool
	LookupNumber  int
	Timeout       time.Duration
	// MaxConcurrent caps simultaneous model calls per request.
	MaxConcurrent int
}

// OptionsFromConfig derives the pipeline options from the service config.
func OptionsFromConfig(cfg *config.Config) Options {
	tokens := cfg.Generation.SpecialTokens
	if len(tokens) == 0 {
		tokens = recipe.DefaultSpecialTokens
	}
	return Options{
		Decoding:      generator.DecodingFromConfig(cfg.Generation),
		SpecialTokens: tokens,
		DefaultCount:  cfg.Generation.Count,
		LookupEnabled: cfg.Lookup.Enabled,
		LookupNumber:  cfg.Lookup.Number,
		Timeout:       cfg.Generation.Timeout,
	}
}

// Service is built once at startup and shared by the HTTP handlers, the
// worker and the CLI. It holds no mutable state.
type Service struct {
	gen    generator.TextGenerator
	lookup RecipeLookup
	opts   Options
}

// FallbackCount is used when neither the request nor the config sets a count.
const FallbackCount = 1

// Prepared is a normalised, validated request ready for the model.
type Prepared struct {
	Ingredients []string
	Allergies   string
	Count       int
	Prompt      string
}

// PrepareInput normalises and validates in and builds its prompt. A zero
// count becomes defaultCount. The API calls it before enqueueing a job so
// that the worker later sees exactly the same request.
func PrepareInput(in GenerateInput, defaultCount int) (Prepared, error) {
	if defaultCount <= 0 {
		defaultCount = FallbackCount
	}
	p := Prepared{
		Ingredients: recipe.NormalizeIngredients(in.Ingredients),
		Allergies:   recipe.NormalizeAllergies(in.Allergies),
		Count:       in.Count,
	}
	if p.Count == 0 {
		p.Count = defaultCount
	}

	if err := validation.ValidateGenerateRequest(p.Ingredients, in.MaxTimeMinutes, p.Count); err != nil {
		return Prepared{}, err
	}

	p.Prompt = recipe.BuildPrompt(p.Ingredients, recipe.Constraints{
		Cuisine:        in.Cuisine,
		Allergies:      p.Allergies,
		MaxTimeMinutes: in.MaxTimeMinutes,
	})
	return p, nil
}

// NewService creates a new chef service. lookup may be nil.
func NewService(gen generator.TextGenerator, lookup RecipeLookup, opts Options) *Service {
	if opts.DefaultCount <= 0 {
		opts.DefaultCount = FallbackCount
	}
	if opts.LookupNumber == 0 {
		opts.LookupNumber = 5
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}
	if opts.SpecialTokens == nil {
		opts.SpecialTokens = recipe.DefaultSpecialTokens
	}
	return &Service{gen: gen, lookup: lookup, opts: opts}
}

// Generate runs the full pipeline for one request. It fails only when the
// input is invalid, or when the model fails and the lookup has nothing either.
func (s *Service) Generate(ctx context.Context, in GenerateInput) (*Result, error) {
	ctx, span := telemetry.Tracer("chef").Start(ctx, "chef.Generate")
	defer span.End()

	startTime := time.Now()
	defer func() {
		metrics.RecipeRequestDuration.Record(ctx, time.Since(startTime).Seconds())
	}()

	prepared, err := PrepareInput(in, s.opts.DefaultCount)
	if err != nil {
		return nil, err
	}
	ingredients, count, prompt := prepared.Ingredients, prepared.Count, prepared.Prompt
	span.SetAttributes(attribute.Int("ingredients", len(ingredients)), attribute.Int("count", count))

	result := &Result{
		Prompt:             prompt,
		AIRecipes:          []recipe.StructuredRecipe{},
		SpoonacularRecipes: []spoonacular.LookupRecipe{},
	}

	texts, genErr := s.generateTexts(ctx, prompt, count)
	if len(texts) > 0 {
		result.AIRecipe = texts[0]
	}

	for _, text := range texts {
		parsed := recipe.ParseSections(text)
		if !validation.CheckRecipe(parsed) {
			metrics.EmptyGenerationsTotal.Add(ctx, 1)
			continue
		}
		result.AIRecipes = append(result.AIRecipes, parsed)
	}
	metrics.RecipesGeneratedTotal.Add(ctx, int64(len(result.AIRecipes)))

	if len(result.AIRecipes) > 0 {
		return result, nil
	}

	if s.opts.LookupEnabled && s.lookup != nil {
		found, err := s.lookup.FindByIngredients(ctx, ingredients, s.opts.LookupNumber)
		if err != nil {
			slog.WarnContext(ctx, "Recipe lookup failed", "error", err)
		} else {
			result.SpoonacularRecipes = found
			metrics.LookupFallbackTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("found", len(found) > 0)))
		}
	}

	if genErr != nil && len(result.SpoonacularRecipes) == 0 {
		span.RecordError(genErr)
		return nil, errors.NewGenerationError("recipe generation failed", "GENERATION_FAILED", genErr)
	}

	return result, nil
}

// generateTexts asks the model for count outputs in parallel and cleans them.
// Individual failures are tolerated while at least one output arrives.
func (s *Service) generateTexts(ctx context.Context, prompt string, count int) ([]string, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	funcs := make([]func(ctx context.Context) (string, error), count)
	for i := range funcs {
		funcs[i] = func(ctx context.Context) (string, error) {
			outputs, err := s.gen.Generate(ctx, []string{prompt}, s.opts.Decoding)
			if err != nil {
				return "", err
			}
			if len(outputs) == 0 {
				return "", nil
			}
			return outputs[0], nil
		}
	}

	raw, errs := utils.RunParallelLimit(ctx, s.opts.MaxConcurrent, funcs)

	texts := make([]string, 0, len(raw))
	for _, r := range raw {
		if r != "" {
			texts = append(texts, r)
		}
	}
	texts = recipe.Postprocess(texts, s.opts.SpecialTokens)

	if len(errs) > 0 {
		slog.WarnContext(ctx, "Recipe generation failed", "failed", len(errs), "requested", count, "error", errs[0])
		if len(texts) == 0 {
			return nil, errs[0]
		}
	}
	return texts, nil
}

// GenerateFromPrompts cleans and parses model outputs for ready-made prompts,
// in one batched model call. Used by the CLI.
func (s *Service) GenerateFromPrompts(ctx context.Context, prompts []string) ([]recipe.StructuredRecipe, error) {
	if len(prompts) == 0 {
		return []recipe.StructuredRecipe{}, nil
	}

	raw, err := s.gen.Generate(ctx, prompts, s.opts.Decoding)
	if err != nil {
		return nil, errors.NewGenerationError("recipe generation failed", "GENERATION_FAILED", err)
	}

	cleaned := recipe.Postprocess(raw, s.opts.SpecialTokens)
	recipes := make([]recipe.StructuredRecipe, len(cleaned))
	for i, text := range cleaned {
		recipes[i] = recipe.ParseSections(text)
	}
	return recipes, nil
}
