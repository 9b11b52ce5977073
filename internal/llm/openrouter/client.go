package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andreasalomone/bot-perito-sub000/internal/config"
	"github.com/andreasalomone/bot-perito-sub000/internal/domain"
	"github.com/andreasalomone/bot-perito-sub000/internal/llm"
)

const apiURL = "https://openrouter.ai/api/v1/chat/completions"

// The model is instructed to answer with bare JSON; the extraction layer
// still tolerates prose around it.
const systemMessage = "Rispondi SOLO con un JSON valido e nient'altro."

// Client implements port.LLMGateway against the OpenRouter Chat Completions API.
type Client struct {
	apiKey      string
	model       string
	endpoint    string
	temperature float64
	maxTokens   int
	referer     string
	title       string
	retry       llm.RetryPolicy
	client      *http.Client
}

// NewClient creates an OpenRouter client from config.
func NewClient(cfg *config.LLMConfig) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = apiURL
	}
	return newClient(cfg, endpoint)
}

// NewClientWithEndpoint creates a client pointing at a custom API endpoint (for testing).
func NewClientWithEndpoint(cfg *config.LLMConfig, endpoint string) *Client {
	return newClient(cfg, endpoint)
}

func newClient(cfg *config.LLMConfig, endpoint string) *Client {
	model := cfg.Model
	if model == "" {
		model = "google/gemini-2.5-pro"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	retry := llm.DefaultRetryPolicy()
	if cfg.MaxRetries > 0 {
		retry.MaxAttempts = cfg.MaxRetries
	}
	return &Client{
		apiKey:      cfg.APIKey,
		model:       model,
		endpoint:    endpoint,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		referer:     cfg.Referer,
		title:       cfg.Title,
		retry:       retry,
		client:      &http.Client{Timeout: timeout},
	}
}

// Complete sends prompt as a single user turn and returns the assistant text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	var text string
	err := c.retry.Do(ctx, func() error {
		var callErr error
		text, callErr = c.call(ctx, prompt)
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrLLM, err)
	}
	return text, nil
}

func (c *Client) call(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model":       c.model,
		"temperature": c.temperature,
		"max_tokens":  c.maxTokens,
		"messages": []map[string]interface{}{
			{"role": "system", "content": systemMessage},
			{"role": "user", "content": prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling openrouter API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &llm.StatusError{
			Provider:   "openrouter",
			StatusCode: resp.StatusCode,
			Body:       truncate(string(respBody), 500),
			RetryAfter: llm.ParseRetryAfterHeader(resp.Header.Get("Retry-After")),
		}
	}

	return parseResponse(respBody)
}

// apiResponse models the OpenRouter Chat Completions API response.
type apiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func parseResponse(body []byte) (string, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from API: no choices")
	}

	if resp.Choices[0].FinishReason == "length" {
		return "", fmt.Errorf("output truncated (finish_reason: length): response exceeded output token limit")
	}

	return resp.Choices[0].Message.Content, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
