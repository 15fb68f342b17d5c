package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, status int, reply string, inspect func(map[string]any)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if inspect != nil {
			inspect(body)
		}

		w.WriteHeader(status)
		if status >= 400 {
			_, _ = w.Write([]byte(reply))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": reply}}},
		})
	}))
}

func TestComplete(t *testing.T) {
	temp := 0.7
	srv := newTestServer(t, http.StatusOK, "title: soup", func(body map[string]any) {
		assert.Equal(t, "gpt-4o-mini", body["model"])
		assert.Equal(t, float64(128), body["max_tokens"])
		assert.Equal(t, 0.7, body["temperature"])
		assert.NotContains(t, body, "response_format")
		messages := body["messages"].([]any)
		assert.Len(t, messages, 2)
	})
	defer srv.Close()

	client := NewClient("test-key").WithBaseURL(srv.URL)
	got, err := client.Complete(context.Background(), "gpt-4o-mini", "system", "items: rice", CompletionOptions{MaxTokens: 128, Temperature: &temp})

	require.NoError(t, err)
	assert.Equal(t, "title: soup", got)
}

func TestComplete_ErrorStatus(t *testing.T) {
	srv := newTestServer(t, http.StatusTooManyRequests, "slow down", nil)
	defer srv.Close()

	client := NewGroqClient("test-key").WithBaseURL(srv.URL)
	_, err := client.Complete(context.Background(), "llama", "system", "user", CompletionOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
	assert.True(t, strings.HasPrefix(err.Error(), "Groq"))
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, "", nil)
	defer srv.Close()

	_, err := NewClient("test-key").WithBaseURL(srv.URL).Complete(context.Background(), "m", "s", "u", CompletionOptions{})
	assert.ErrorIs(t, err, ErrNoResponse)
}

func TestDescribeImage(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"ingredients":[]}`, func(body map[string]any) {
		assert.Equal(t, map[string]any{"type": "json_object"}, body["response_format"])
		messages := body["messages"].([]any)
		parts := messages[0].(map[string]any)["content"].([]any)
		require.Len(t, parts, 2)
		image := parts[1].(map[string]any)["image_url"].(map[string]any)
		assert.True(t, strings.HasPrefix(image["url"].(string), "data:image/png;base64,"))
	})
	defer srv.Close()

	got, err := NewClient("test-key").WithBaseURL(srv.URL).DescribeImage(context.Background(), "gpt-4o", "find food", []byte{0x89, 0x50}, "image/png")

	require.NoError(t, err)
	assert.Equal(t, `{"ingredients":[]}`, got)
}

func TestProvider(t *testing.T) {
	assert.Equal(t, "OpenAI", NewClient("k").Provider())
	assert.Equal(t, "Groq", NewGroqClient("k").Provider())
}
