// Package ocr calls an external OCR HTTP service to pull text out of damage
// photos. The service accepts the raw image body and answers with a JSON
// object carrying the recognized text.
package ocr

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

// Client implements port.OCRClient over HTTP.
type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewClient creates an OCR client from config. Returns nil when no endpoint
// is configured, which disables image extraction.
func NewClient(cfg *config.OCRConfig) *Client {
	if cfg.Endpoint == "" {
		return nil
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type ocrResponse struct {
	Text string `json:"text"`
}

// Recognize sends the image and returns the recognized text.
func (c *Client) Recognize(ctx context.Context, image []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(image))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling OCR service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading OCR response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OCR service error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed ocrResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("unmarshaling OCR response: %w", err)
	}
	return parsed.Text, nil
}
