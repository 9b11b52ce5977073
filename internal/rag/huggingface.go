// Package rag retrieves prior expert reports that resemble the current
// claim, to feed the prompt with stylistic and factual reference material.
package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andreasalomone/bot-perito-sub000/internal/config"
)

const hfURLFormat = "https://api-inference.huggingface.co/pipeline/feature-extraction/%s"

// HFClient implements port.EmbeddingClient against the Hugging Face
// feature-extraction inference API.
type HFClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHFClient creates an embedding client from config. Returns nil when no
// API key is configured, which disables retrieval.
func NewHFClient(cfg *config.RAGConfig) *HFClient {
	if cfg.HFAPIKey == "" {
		return nil
	}
	model := cfg.EmbeddingModel
	if model == "" {
		model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HFClient{
		endpoint: fmt.Sprintf(hfURLFormat, model),
		apiKey:   cfg.HFAPIKey,
		client:   &http.Client{Timeout: timeout},
	}
}

// NewHFClientWithEndpoint creates a client pointing at a custom endpoint (for testing).
func NewHFClientWithEndpoint(apiKey, endpoint string) *HFClient {
	return &HFClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Embed returns the dense vector for text.
func (c *HFClient) Embed(ctx context.Context, text string) ([]float64, error) {
	reqBody := map[string]interface{}{
		"inputs":  text,
		"options": map[string]interface{}{"wait_for_model": true},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling embedding API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	// The API wraps the vector in an outer list.
	var nested [][]float64
	if err := json.Unmarshal(respBody, &nested); err == nil && len(nested) > 0 {
		return nested[0], nil
	}
	var flat []float64
	if err := json.Unmarshal(respBody, &flat); err != nil {
		return nil, fmt.Errorf("unmarshaling embedding response: %w", err)
	}
	return flat, nil
}
