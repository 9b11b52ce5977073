// Package clarification implements the gate that pauses generation when the
// source documents leave critical report fields unanswered, and the merge of
// the user's answers back into the base context.
package clarification

import (
	"strings"

	"github.com/andreasalomone/bot-perito-sub000/internal/domain"
)

// IdentifyMissingFields returns the critical fields the extraction left
// absent or null. An empty string counts as present: the model uses "" for
// "looked and found nothing", which is an answer.
func IdentifyMissingFields(fields map[string]*string, critical []domain.CriticalField) []domain.MissingField {
	var missing []domain.MissingField
	for _, cf := range critical {
		if v, ok := fields[cf.Key]; !ok || v == nil {
			missing = append(missing, domain.MissingField{
				Key:      cf.Key,
				Label:    cf.Label,
				Question: cf.Question,
			})
		}
	}
	return missing
}

// Normalize flattens nullable fields into plain strings, mapping null to "".
func Normalize(fields map[string]*string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		if v == nil {
			out[k] = ""
		} else {
			out[k] = *v
		}
	}
	return out
}

// Merge applies the user's clarification answers on top of the base context
// and returns a new map. A non-blank answer overwrites; a nil or blank
// answer for an existing key resets it to ""; answers for unknown keys are
// dropped.
func Merge(base map[string]string, answers map[string]*string) map[string]string {
	merged := make(map[string]string, len(base))
	for k, v := range base {
		merged[k] = v
	}
	for key, value := range answers {
		if value != nil && strings.TrimSpace(*value) != "" {
			merged[key] = *value
			continue
		}
		if _, exists := merged[key]; exists {
			merged[key] = ""
		}
	}
	return merged
}
