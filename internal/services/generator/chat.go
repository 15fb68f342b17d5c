package generator

import (
	"context"
	"time"

	"github.com/pantrychef/recipegen/internal/metrics"
	"github.com/pantrychef/recipegen/internal/services/ai"
	"github.com/pantrychef/recipegen/internal/services/openai"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// chatCompleter is the slice of the OpenAI-compatible client used here.
type chatCompleter interface {
	Complete(ctx context.Context, model, systemPrompt, userContent string, opts openai.CompletionOptions) (string, error)
	Provider() string
}

// ChatProvider implements TextGenerator on an OpenAI-compatible chat model
// instructed to answer in the recipe model's delimited format.
type ChatProvider struct {
	client chatCompleter
	model  string
}

// NewOpenAIProvider creates a chat provider backed by OpenAI
func NewOpenAIProvider(apiKey, model string) *ChatProvider {
	return &ChatProvider{client: openai.NewClient(apiKey), model: model}
}

// NewGroqProvider creates a chat provider backed by Groq
func NewGroqProvider(apiKey, model string) *ChatProvider {
	return &ChatProvider{client: openai.NewGroqClient(apiKey), model: model}
}

// NewChatProvider wraps an existing client, e.g. one pointed at a test server.
func NewChatProvider(client *openai.Client, model string) *ChatProvider {
	return &ChatProvider{client: client, model: model}
}

// Generate runs one chat completion per prompt, in order.
func (p *ChatProvider) Generate(ctx context.Context, prompts []string, cfg DecodingConfig) ([]string, error) {
	startTime := time.Now()
	defer func() {
		attrs := []attribute.KeyValue{attribute.String("provider", p.client.Provider())}
		metrics.AIGenerationDuration.Record(ctx, time.Since(startTime).Seconds(), metric.WithAttributes(attrs...))
	}()

	systemPrompt := ai.BuildRecipeFormatPrompt()
	opts := chatOptions(cfg)

	outputs := make([]string, 0, len(prompts))
	for _, prompt := range prompts {
		content, err := p.client.Complete(ctx, p.model, systemPrompt, TruncateWords(prompt, cfg.MaxInputLength), opts)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, content)
	}
	return outputs, nil
}

// chatOptions maps seq2seq decoding settings onto chat sampling knobs.
// Greedy decoding becomes temperature zero.
func chatOptions(cfg DecodingConfig) openai.CompletionOptions {
	opts := openai.CompletionOptions{MaxTokens: cfg.MaxLength}
	if !cfg.DoSample {
		zero := 0.0
		opts.Temperature = &zero
		return opts
	}
	if cfg.TopP > 0 {
		topP := cfg.TopP
		opts.TopP = &topP
	}
	return opts
}
