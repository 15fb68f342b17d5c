package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pantrychef/recipegen/internal/httpclient"
	"github.com/pantrychef/recipegen/internal/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HuggingFaceBaseURL is the root of the hosted inference API.
const HuggingFaceBaseURL = "https://api-inference.huggingface.co"

// HuggingFaceProvider implements TextGenerator for the Hugging Face Inference API
type HuggingFaceProvider struct {
	apiKey  string
	model   string
	BaseURL string
	client  *http.Client
}

// NewHuggingFaceProvider creates a new Hugging Face text generation provider
func NewHuggingFaceProvider(apiKey, model string) *HuggingFaceProvider {
	return &HuggingFaceProvider{
		apiKey:  apiKey,
		model:   model,
		BaseURL: HuggingFaceBaseURL,
		client:  httpclient.InstrumentedClient,
	}
}

type hfRequest struct {
	Inputs     []string     `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    hfOptions    `json:"options"`
}

type hfParameters struct {
	MaxLength         int     `json:"max_length"`
	MinLength         int     `json:"min_length"`
	NoRepeatNgramSize int     `json:"no_repeat_ngram_size"`
	DoSample          bool    `json:"do_sample"`
	TopK              int     `json:"top_k,omitempty"`
	TopP              float64 `json:"top_p,omitempty"`
	ReturnFullText    bool    `json:"return_full_text"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
	UseCache     bool `json:"use_cache"`
}

type hfResult struct {
	GeneratedText string `json:"generated_text"`
}

// Generate sends all prompts in one batched inference request.
func (p *HuggingFaceProvider) Generate(ctx context.Context, prompts []string, cfg DecodingConfig) ([]string, error) {
	if len(prompts) == 0 {
		return []string{}, nil
	}

	startTime := time.Now()
	defer func() {
		duration := time.Since(startTime).Seconds()
		attrs := []attribute.KeyValue{attribute.String("provider", "huggingface")}
		metrics.AIGenerationDuration.Record(ctx, duration, metric.WithAttributes(attrs...))
		metrics.ExternalAPIDuration.Record(ctx, duration, metric.WithAttributes(attrs...))
		metrics.ExternalAPICallsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	}()

	inputs := make([]string, len(prompts))
	for i, prompt := range prompts {
		inputs[i] = TruncateWords(prompt, cfg.MaxInputLength)
	}

	req := hfRequest{
		Inputs: inputs,
		Parameters: hfParameters{
			MaxLength:         cfg.MaxLength,
			MinLength:         cfg.MinLength,
			NoRepeatNgramSize: cfg.NoRepeatNgramSize,
			DoSample:          cfg.DoSample,
			ReturnFullText:    false,
		},
		// sampled outputs must not be served from the shared cache
		Options: hfOptions{WaitForModel: true, UseCache: !cfg.DoSample},
	}
	if cfg.DoSample {
		req.Parameters.TopK = cfg.TopK
		req.Parameters.TopP = cfg.TopP
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s", strings.TrimSuffix(p.BaseURL, "/"), p.model)
	httpReq, err := http.NewRequestWithContext(httpclient.WithProvider(ctx, "HuggingFace"), http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HuggingFace API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	results, err := decodeHFResults(respBody)
	if err != nil {
		return nil, fmt.Errorf("failed to decode HuggingFace response: %w", err)
	}
	if len(results) != len(prompts) {
		return nil, fmt.Errorf("HuggingFace returned %d outputs for %d prompts", len(results), len(prompts))
	}

	outputs := make([]string, len(results))
	for i, r := range results {
		outputs[i] = r.GeneratedText
	}
	return outputs, nil
}

// decodeHFResults accepts both the flat list returned for batched inputs
// and the nested list some pipelines return (one inner list per input).
func decodeHFResults(body []byte) ([]hfResult, error) {
	var flat []hfResult
	if err := json.Unmarshal(body, &flat); err == nil {
		return flat, nil
	}

	var nested [][]hfResult
	if err := json.Unmarshal(body, &nested); err != nil {
		return nil, err
	}
	results := make([]hfResult, 0, len(nested))
	for _, inner := range nested {
		if len(inner) == 0 {
			results = append(results, hfResult{})
			continue
		}
		results = append(results, inner[0])
	}
	return results, nil
}

// TruncateWords keeps at most limit whitespace separated words of s.
// A limit of zero or less disables truncation.
func TruncateWords(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) <= limit {
		return s
	}
	return strings.Join(words[:limit], " ")
}
