package detection

import (
	"context"
	"fmt"

	"github.com/pantrychef/recipegen/internal/services/ai"
	"github.com/pantrychef/recipegen/internal/services/openai"
)

type imageDescriber interface {
	DescribeImage(ctx context.Context, model, prompt string, image []byte, mimeType string) (string, error)
}

// OpenAIVisionProvider asks a vision chat model to list the ingredients.
type OpenAIVisionProvider struct {
	client imageDescriber
	model  string
}

// NewOpenAIVisionProvider creates a detector backed by an OpenAI vision model.
func NewOpenAIVisionProvider(client *openai.Client, model string) *OpenAIVisionProvider {
	return &OpenAIVisionProvider{client: client, model: model}
}

func (p *OpenAIVisionProvider) Detect(ctx context.Context, image []byte, mimeType string) ([]Detection, error) {
	answer, err := p.client.DescribeImage(ctx, p.model, ai.BuildIngredientDetectionPrompt(Vocabulary()), image, mimeType)
	if err != nil {
		return nil, err
	}

	detections, err := ParseModelAnswer(answer)
	if err != nil {
		return nil, fmt.Errorf("openai detect: %w", err)
	}
	return detections, nil
}
