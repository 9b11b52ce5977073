// Package jsonx recovers JSON payloads from LLM completions that wrap the
// JSON in prose, markdown fences or stray tokens.
package jsonx

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/andreasalomone/bot-perito-sub000/internal/domain"
)

// Extract parses raw as a JSON object. If direct parsing fails it falls back
// to the greedy span between the first '{' and the last '}' in raw. Text with
// two unrelated top-level objects therefore still fails to parse; completions
// are prompted to contain exactly one object.
func Extract(raw string, out any) error {
	trimmed := strings.TrimSpace(raw)
	if err := json.Unmarshal([]byte(trimmed), out); err == nil {
		return nil
	}
	return extractSpan(trimmed, "{", "}", out)
}

// ExtractList is Extract for top-level JSON arrays.
func ExtractList(raw string, out any) error {
	trimmed := strings.TrimSpace(raw)
	if err := json.Unmarshal([]byte(trimmed), out); err == nil {
		return nil
	}
	return extractSpan(trimmed, "[", "]", out)
}

func extractSpan(s, opening, closing string, out any) error {
	start := strings.Index(s, opening)
	end := strings.LastIndex(s, closing)
	if start == -1 || end == -1 || end < start {
		return fmt.Errorf("%w: no JSON %s...%s span found in completion", domain.ErrJSONParsing, opening, closing)
	}
	if err := json.Unmarshal([]byte(s[start:end+1]), out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrJSONParsing, err)
	}
	return nil
}
