package generator

import (
	"github.com/pantrychef/recipegen/internal/config"
)

// APIKeys carries the credentials of every text provider.
type APIKeys struct {
	HuggingFace string
	OpenAI      string
	Groq        string
}

// KeysFromConfig picks the provider credentials out of the service config.
func KeysFromConfig(cfg *config.Config) APIKeys {
	return APIKeys{HuggingFace: cfg.HuggingFaceKey, OpenAI: cfg.OpenAIKey, Groq: cfg.GroqKey}
}

// NewProvider creates a new text generator based on the configuration
// It can optionally wrap the provider in a fallback wrapper if enabled
func NewProvider(cfg config.GenerationConfig, keys APIKeys) TextGenerator {
	primary := newSingleProvider(ProviderType(cfg.Provider), cfg.Model, keys)

	if cfg.FallbackEnabled {
		secondary := newSingleProvider(ProviderType(cfg.FallbackProvider), cfg.FallbackModel, keys)
		return NewFallbackProvider(primary, secondary, cfg.Provider, cfg.FallbackProvider)
	}

	return primary
}

func newSingleProvider(provider ProviderType, model string, keys APIKeys) TextGenerator {
	if model == "" {
		model = config.DefaultModel(string(provider))
	}

	switch provider {
	case ProviderOpenAI:
		return NewOpenAIProvider(keys.OpenAI, model)
	case ProviderGroq:
		return NewGroqProvider(keys.Groq, model)
	default:
		if model == "" {
			model = config.DefaultModel(string(ProviderHuggingFace))
		}
		return NewHuggingFaceProvider(keys.HuggingFace, model)
	}
}
