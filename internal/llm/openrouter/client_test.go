package openrouter_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasalomone/bot-perito-sub000/internal/config"
	"github.com/andreasalomone/bot-perito-sub000/internal/domain"
	"github.com/andreasalomone/bot-perito-sub000/internal/llm/openrouter"
)

func newTestClient(serverURL string) *openrouter.Client {
	cfg := &config.LLMConfig{
		APIKey:      "test-api-key",
		Model:       "google/gemini-2.5-pro",
		Temperature: 0.2,
		MaxTokens:   8192,
		MaxRetries:  2,
		TimeoutSecs: 30,
		Referer:     "https://example.test",
		Title:       "bot-perito",
	}
	return openrouter.NewClientWithEndpoint(cfg, serverURL)
}

func successResponse(content string) map[string]interface{} {
	return map[string]interface{}{
		"choices": []map[string]interface{}{
			{
				"message":       map[string]interface{}{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
	}
}

func TestComplete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "https://example.test", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "bot-perito", r.Header.Get("X-Title"))

		var reqBody map[string]interface{}
		err := json.NewDecoder(r.Body).Decode(&reqBody)
		assert.NoError(t, err)
		assert.Equal(t, "google/gemini-2.5-pro", reqBody["model"])

		messages := reqBody["messages"].([]interface{})
		assert.Len(t, messages, 2)
		system := messages[0].(map[string]interface{})
		assert.Equal(t, "system", system["role"])
		user := messages[1].(map[string]interface{})
		assert.Equal(t, "user", user["role"])
		assert.Equal(t, "test prompt", user["content"])

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(successResponse(`{"client": "ACME"}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	text, err := c.Complete(context.Background(), "test prompt")

	require.NoError(t, err)
	assert.Equal(t, `{"client": "ACME"}`, text)
}

func TestComplete_RetriesOn429(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(successResponse("ok"))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	text, err := c.Complete(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 2, calls)
}

func TestComplete_NoRetryOn400(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "bad request"}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.Complete(context.Background(), "prompt")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrLLM))
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, 1, calls)
}

func TestComplete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.Complete(context.Background(), "prompt")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrLLM))
	assert.Contains(t, err.Error(), "no choices")
}

func TestComplete_TruncatedOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{
					"message":       map[string]interface{}{"role": "assistant", "content": "cut off"},
					"finish_reason": "length",
				},
			},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.Complete(context.Background(), "prompt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "finish_reason: length")
}
