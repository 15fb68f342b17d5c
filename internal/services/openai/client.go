package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/pantrychef/recipegen/internal/httpclient"
)

const (
	// DefaultBaseURL is the OpenAI API root.
	DefaultBaseURL = "https://api.openai.com/v1"
	// GroqBaseURL is Groq's OpenAI-compatible API root.
	GroqBaseURL = "https://api.groq.com/openai/v1"
)

var ErrNoResponse = errors.New("no response from chat completion")

// Client talks to any OpenAI-compatible chat completions endpoint.
type Client struct {
	apiKey   string
	baseURL  string
	provider string
	http     *http.Client
}

// NewClient returns a client for the OpenAI API.
func NewClient(apiKey string) *Client {
	return &Client{apiKey: apiKey, baseURL: DefaultBaseURL, provider: "OpenAI", http: httpclient.InstrumentedClient}
}

// NewGroqClient returns a client for Groq's OpenAI-compatible API.
func NewGroqClient(apiKey string) *Client {
	return &Client{apiKey: apiKey, baseURL: GroqBaseURL, provider: "Groq", http: httpclient.InstrumentedClient}
}

// WithBaseURL points the client at another endpoint, e.g. a test server.
func (c *Client) WithBaseURL(baseURL string) *Client {
	clone := *c
	clone.baseURL = baseURL
	return &clone
}

// Provider returns the display name used in spans, metrics and errors.
func (c *Client) Provider() string {
	return c.provider
}

// Complete sends a system + user exchange and returns the assistant text.
func (c *Client) Complete(ctx context.Context, model, systemPrompt, userContent string, opts CompletionOptions) (string, error) {
	req := ChatRequest{
		Model: model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userContent},
		},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
	}
	if opts.JSONMode {
		req.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}
	return c.chat(ctx, req)
}

// DescribeImage sends an image as a base64 data URL together with a text
// prompt and returns the assistant text. The answer is requested as JSON.
func (c *Client) DescribeImage(ctx context.Context, model, prompt string, image []byte, mimeType string) (string, error) {
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)
	req := ChatRequest{
		Model: model,
		Messages: []Message{
			{Role: "user", Content: []ContentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &ImageURL{URL: dataURL}},
			}},
		},
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}
	return c.chat(ctx, req)
}
