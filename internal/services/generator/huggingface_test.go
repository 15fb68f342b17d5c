package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHuggingFaceProvider_Generate(t *testing.T) {
	var captured hfRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/flax-community/t5-recipe-generation", r.URL.Path)
		assert.Equal(t, "Bearer hf-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_ = json.NewEncoder(w).Encode([]hfResult{
			{GeneratedText: "title: a <section> ingredients: x"},
			{GeneratedText: "title: b"},
		})
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider("hf-key", "flax-community/t5-recipe-generation")
	p.BaseURL = srv.URL

	outputs, err := p.Generate(context.Background(), []string{"items: a", "items: b"}, DefaultDecodingConfig())

	require.NoError(t, err)
	assert.Equal(t, []string{"title: a <section> ingredients: x", "title: b"}, outputs)
	assert.Equal(t, []string{"items: a", "items: b"}, captured.Inputs)
	assert.Equal(t, 512, captured.Parameters.MaxLength)
	assert.Equal(t, 64, captured.Parameters.MinLength)
	assert.Equal(t, 3, captured.Parameters.NoRepeatNgramSize)
	assert.True(t, captured.Parameters.DoSample)
	assert.Equal(t, 60, captured.Parameters.TopK)
	assert.Equal(t, 0.95, captured.Parameters.TopP)
	assert.False(t, captured.Options.UseCache)
	assert.True(t, captured.Options.WaitForModel)
}

func TestHuggingFaceProvider_GreedyOmitsSampling(t *testing.T) {
	var raw struct {
		Parameters map[string]any `json:"parameters"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`[[{"generated_text":"title: c"}]]`))
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider("hf-key", "m")
	p.BaseURL = srv.URL
	cfg := DefaultDecodingConfig()
	cfg.DoSample = false

	outputs, err := p.Generate(context.Background(), []string{"items: c"}, cfg)

	require.NoError(t, err)
	assert.Equal(t, []string{"title: c"}, outputs)
	assert.NotContains(t, raw.Parameters, "top_k")
	assert.NotContains(t, raw.Parameters, "top_p")
}

func TestHuggingFaceProvider_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"Model is currently loading","estimated_time":20}`))
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider("hf-key", "m")
	p.BaseURL = srv.URL

	_, err := p.Generate(context.Background(), []string{"items: a"}, DefaultDecodingConfig())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.True(t, IsRetryableError(err))
}

func TestHuggingFaceProvider_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"generated_text":"only one"}]`))
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider("hf-key", "m")
	p.BaseURL = srv.URL

	_, err := p.Generate(context.Background(), []string{"a", "b"}, DefaultDecodingConfig())
	assert.Error(t, err)
}

func TestHuggingFaceProvider_NoPrompts(t *testing.T) {
	outputs, err := NewHuggingFaceProvider("k", "m").Generate(context.Background(), nil, DefaultDecodingConfig())

	require.NoError(t, err)
	assert.Empty(t, outputs)
}

func TestTruncateWords(t *testing.T) {
	assert.Equal(t, "a b", TruncateWords("a b c", 2))
	assert.Equal(t, "a b c", TruncateWords("a b c", 5))
	assert.Equal(t, "a  b", TruncateWords("a  b", 0))
}
