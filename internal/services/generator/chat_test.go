package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantrychef/recipegen/internal/services/openai"
)

func TestChatProvider_Generate(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var body struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			Messages  []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body.Model)
		assert.Equal(t, 512, body.MaxTokens)
		require.Len(t, body.Messages, 2)
		assert.Contains(t, body.Messages[0].Content, "<section>")

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": "title: " + body.Messages[1].Content}}},
		})
	}))
	defer srv.Close()

	p := NewChatProvider(openai.NewClient("k").WithBaseURL(srv.URL), "gpt-4o-mini")
	outputs, err := p.Generate(context.Background(), []string{"items: a", "items: b"}, DefaultDecodingConfig())

	require.NoError(t, err)
	assert.Equal(t, []string{"title: items: a", "title: items: b"}, outputs)
	assert.Equal(t, int32(2), calls.Load())
}

func TestChatProvider_StopsOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewChatProvider(openai.NewGroqClient("k").WithBaseURL(srv.URL), "llama")
	_, err := p.Generate(context.Background(), []string{"items: a"}, DefaultDecodingConfig())

	require.Error(t, err)
	assert.Equal(t, ErrorRateLimit, ClassifyError(err, "groq").Type)
}

func TestChatOptions(t *testing.T) {
	sampled := chatOptions(DefaultDecodingConfig())
	assert.Nil(t, sampled.Temperature)
	require.NotNil(t, sampled.TopP)
	assert.Equal(t, 0.95, *sampled.TopP)

	greedyCfg := DefaultDecodingConfig()
	greedyCfg.DoSample = false
	greedy := chatOptions(greedyCfg)
	require.NotNil(t, greedy.Temperature)
	assert.Equal(t, 0.0, *greedy.Temperature)
	assert.Nil(t, greedy.TopP)
}
