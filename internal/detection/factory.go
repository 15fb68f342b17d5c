package detection

import (
	"fmt"

	"github.com/pantrychef/recipegen/internal/config"
	"github.com/pantrychef/recipegen/internal/services/openai"
)

// NewDetector builds the detector selected in cfg.
func NewDetector(cfg config.DetectionConfig, openAIKey, geminiKey string) (Detector, error) {
	model := cfg.Model
	if model == "" {
		model = config.DefaultModel(cfg.Provider)
	}

	switch cfg.Provider {
	case "yolo":
		return NewYOLOProvider(cfg.Endpoint), nil
	case "openai":
		return NewOpenAIVisionProvider(openai.NewClient(openAIKey), model), nil
	case "gemini":
		return NewGeminiProvider(geminiKey, model), nil
	default:
		return nil, fmt.Errorf("unknown detection provider %q", cfg.Provider)
	}
}
