package generator

import (
	"context"

	"github.com/pantrychef/recipegen/internal/config"
)

// ProviderType represents the type of text generation provider
type ProviderType string

const (
	ProviderHuggingFace ProviderType = "huggingface"
	ProviderOpenAI      ProviderType = "openai"
	ProviderGroq        ProviderType = "groq"
)

// DecodingConfig holds the sampling settings passed to the model.
type DecodingConfig struct {
	MaxLength         int
	MinLength         int
	NoRepeatNgramSize int
	DoSample          bool
	TopK              int
	TopP              float64
	// MaxInputLength bounds the prompt, in whitespace separated words.
	MaxInputLength int
}

// DefaultDecodingConfig returns the settings the recipe model was tuned with.
func DefaultDecodingConfig() DecodingConfig {
	return DecodingConfig{
		MaxLength:         512,
		MinLength:         64,
		NoRepeatNgramSize: 3,
		DoSample:          true,
		TopK:              60,
		TopP:              0.95,
		MaxInputLength:    256,
	}
}

// DecodingFromConfig copies the decoding fields out of the generation config.
func DecodingFromConfig(cfg config.GenerationConfig) DecodingConfig {
	return DecodingConfig{
		MaxLength:         cfg.MaxLength,
		MinLength:         cfg.MinLength,
		NoRepeatNgramSize: cfg.NoRepeatNgramSize,
		DoSample:          cfg.DoSample,
		TopK:              cfg.TopK,
		TopP:              cfg.TopP,
		MaxInputLength:    cfg.MaxInputLength,
	}
}

// TextGenerator turns prompts into raw model outputs, one per prompt, in
// order. Outputs still carry the model's special tokens.
type TextGenerator interface {
	Generate(ctx context.Context, prompts []string, cfg DecodingConfig) ([]string, error)
}
