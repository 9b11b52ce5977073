package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// StreamEvent is a single NDJSON-encoded event on the generation stream.
type StreamEvent struct {
	Type             EventType         `json:"type"`
	Message          string            `json:"message,omitempty"`
	Payload          json.RawMessage   `json:"payload,omitempty"`
	MissingFields    []MissingField    `json:"missing_fields,omitempty"`
	RequestArtifacts *RequestArtifacts `json:"request_artifacts,omitempty"`
}

// NewStatusEvent builds a progress event.
func NewStatusEvent(message string) StreamEvent {
	return StreamEvent{Type: EventStatus, Message: message}
}

// NewErrorEvent builds a terminal error event.
func NewErrorEvent(message string) StreamEvent {
	return StreamEvent{Type: EventError, Message: message}
}

// NewFinishedEvent builds the terminal success event.
func NewFinishedEvent() StreamEvent {
	return StreamEvent{Type: EventFinished, Message: "Report generation completed."}
}

// MissingField describes one critical report field the source documents did
// not cover, together with the question to put to the user.
type MissingField struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Question string `json:"question"`
}

// CriticalField declares a report field that must be present before the
// pipeline can run, with the user-facing label and question emitted when
// the field is missing.
type CriticalField struct {
	Key      string
	Label    string
	Question string
}

// RequestArtifacts carries everything a client must echo back alongside its
// clarification answers so generation can resume without re-uploading files.
type RequestArtifacts struct {
	OriginalCorpus       string            `json:"original_corpus"`
	Notes                string            `json:"notes"`
	TemplateExcerpt      string            `json:"template_excerpt"`
	ReferenceStyleText   string            `json:"reference_style_text"`
	InitialLLMBaseFields map[string]string `json:"initial_llm_base_fields"`
}

// ClarificationAnswers is what the client submits to resume generation.
// A nil value for an existing key resets that field to empty; a nil value
// for an unknown key is ignored.
type ClarificationAnswers struct {
	Clarifications map[string]*string `json:"clarifications"`
	Artifacts      RequestArtifacts   `json:"request_artifacts"`
}

// OutlineItem is one planned report section produced by the outline stage.
type OutlineItem struct {
	Section string   `json:"section"`
	Title   string   `json:"title"`
	Bullets []string `json:"bullets"`
}

// ReferenceReport is a prior expert report stored for style retrieval.
type ReferenceReport struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	Title     string          `db:"title" json:"title"`
	Body      string          `db:"body" json:"body"`
	Embedding json.RawMessage `db:"embedding" json:"embedding"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// ReferenceCase is a retrieved reference report with its similarity score.
type ReferenceCase struct {
	Title string  `json:"title"`
	Body  string  `json:"body"`
	Score float64 `json:"score"`
}

// DefaultCriticalFields lists the report fields that gate generation behind a
// clarification round when the source documents leave them empty.
var DefaultCriticalFields = []CriticalField{
	{Key: "polizza", Label: "Numero di polizza", Question: "Qual è il numero di polizza?"},
	{Key: "data_danno", Label: "Data del danno", Question: "In quale data si è verificato il danno?"},
	{Key: "client", Label: "Cliente", Question: "Chi è il cliente che ha richiesto la perizia?"},
	{Key: "assicurato", Label: "Assicurato", Question: "Chi è l'assicurato?"},
	{Key: "luogo", Label: "Luogo del danno", Question: "Dove si è verificato il danno?"},
	{Key: "cause", Label: "Causa del danno", Question: "Qual è la causa presunta del danno?"},
}
