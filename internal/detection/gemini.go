package detection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/pantrychef/recipegen/internal/services/ai"
	"github.com/pantrychef/recipegen/internal/utils"
)

// GeminiProvider asks a Gemini model to list the ingredients in a photo.
type GeminiProvider struct {
	apiKey string
	model  string
	retry  utils.RetryConfig
}

// NewGeminiProvider creates a detector backed by Gemini.
func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	retry := utils.ModelRetryConfig()
	retry.Name = "gemini-detect"
	retry.InitialDelay = 300 * time.Millisecond
	return &GeminiProvider{
		apiKey: strings.TrimSpace(apiKey),
		model:  strings.TrimSpace(model),
		retry:  retry,
	}
}

func (p *GeminiProvider) Detect(ctx context.Context, image []byte, mimeType string) ([]Detection, error) {
	if p.apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return nil, err
	}
	defer cl.Close()

	m := cl.GenerativeModel(p.model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(ai.BuildIngredientDetectionPrompt(Vocabulary()))},
	}

	parts := []genai.Part{
		genai.Text("List the ingredients in this photo."),
		&genai.Blob{MIMEType: mimeType, Data: image},
	}

	resp, err := utils.WithRetry(ctx, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		return m.GenerateContent(ctx, parts...)
	}, p.retry)
	if err != nil {
		return nil, fmt.Errorf("gemini detect: %w", err)
	}

	txt := firstText(resp)
	if txt == "" {
		return nil, errors.New("gemini detect: empty response")
	}

	detections, err := ParseModelAnswer(txt)
	if err != nil {
		return nil, fmt.Errorf("gemini detect: %w", err)
	}
	return detections, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
