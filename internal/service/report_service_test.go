package service_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasalomone/bot-perito-sub000/internal/config"
	"github.com/andreasalomone/bot-perito-sub000/internal/domain"
	"github.com/andreasalomone/bot-perito-sub000/internal/extractor"
	"github.com/andreasalomone/bot-perito-sub000/internal/pipeline"
	"github.com/andreasalomone/bot-perito-sub000/internal/port"
	"github.com/andreasalomone/bot-perito-sub000/internal/service"
	"github.com/andreasalomone/bot-perito-sub000/internal/style"
)

const completeBaseJSON = `{
  "client": "ACME S.p.A.",
  "client_address1": "Via Roma 1",
  "client_address2": "16121 Genova",
  "date": "01/09/2026",
  "vs_rif": null,
  "rif_broker": "",
  "polizza": "PL-123",
  "ns_rif": "25/0042",
  "assicurato": "Beta S.r.l.",
  "indirizzo_ass1": "Via Milano 2",
  "indirizzo_ass2": "20121 Milano",
  "luogo": "Genova",
  "data_danno": "12/03/2026",
  "cause": "bagnamento",
  "data_incarico": "15/03/2026",
  "merce": "caffè crudo",
  "peso_merce": "19.000 kg",
  "valore_merce": "€ 80.000",
  "data_intervento": "18/03/2026",
  "allegati": "Verbale; Fatture"
}`

const outlineJSON = `[
  {"section": "dinamica_eventi", "title": "Dinamica degli eventi", "bullets": ["arrivo nave", "scarico merce"]},
  {"section": "accertamenti", "title": "Accertamenti peritali", "bullets": ["sopralluogo", "campionatura"]}
]`

const harmonizeJSON = `{
  "dinamica_eventi": "Dinamica armonizzata.",
  "accertamenti": "Accertamenti armonizzati."
}`

// scriptedLLM answers each pipeline stage based on the prompt preamble.
type scriptedLLM struct {
	mu       sync.Mutex
	baseJSON string
	baseErr  error
	calls    int
}

func (l *scriptedLLM) Complete(_ context.Context, p string) (string, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()

	switch {
	case strings.Contains(p, "Analizza i documenti"):
		if l.baseErr != nil {
			return "", l.baseErr
		}
		return l.baseJSON, nil
	case strings.Contains(p, "Pianifica la struttura"):
		return outlineJSON, nil
	case strings.Contains(p, "Scrivi il contenuto completo"):
		key := sectionKeyFromPrompt(p)
		return fmt.Sprintf(`{%q: "Testo espanso per %s."}`, key, key), nil
	case strings.Contains(p, "Rivedi le sezioni"):
		return harmonizeJSON, nil
	}
	return "", fmt.Errorf("unexpected prompt: %.60s", p)
}

func sectionKeyFromPrompt(p string) string {
	_, rest, ok := strings.Cut(p, "chiave JSON: ")
	if !ok {
		return ""
	}
	key, _, _ := strings.Cut(rest, ")")
	return key
}

type fakeStorage struct {
	objects   map[string][]byte
	downloads []string
}

func (f *fakeStorage) Upload(context.Context, port.UploadInput) (*port.UploadOutput, error) {
	return &port.UploadOutput{}, nil
}

func (f *fakeStorage) Download(_ context.Context, _ string, key string) ([]byte, error) {
	f.downloads = append(f.downloads, key)
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such key %s", key)
	}
	return data, nil
}

func (f *fakeStorage) Delete(context.Context, string, string) error { return nil }

func (f *fakeStorage) List(context.Context, string, string) ([]port.StoredObject, error) {
	return nil, nil
}

func (f *fakeStorage) GetPresignedURL(context.Context, string, string, int64) (string, error) {
	return "", nil
}

func (f *fakeStorage) GetPresignedPutURL(context.Context, string, string, string, int64) (string, error) {
	return "", nil
}

func docxBytes(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var doc strings.Builder
	doc.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	doc.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		doc.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	doc.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(doc.String()))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	templatePath := filepath.Join(t.TempDir(), "template.docx")
	require.NoError(t, os.WriteFile(templatePath, docxBytes(t, "RELAZIONE PERITALE", "Spett.le {{CLIENT}}"), 0o644))

	return &config.Config{
		S3:       config.S3Config{Bucket: "perito-uploads"},
		Pipeline: config.PipelineConfig{ExpansionConcurrency: 2, MaxPromptChars: 200_000},
		Template: config.TemplateConfig{Path: templatePath},
	}
}

func newTestService(t *testing.T, llm port.LLMGateway, storage port.ObjectStorage, cfg *config.Config) service.ReportService {
	t.Helper()
	return service.NewReportService(
		llm,
		pipeline.New(llm, 2),
		extractor.New(nil),
		storage,
		nil,
		style.NewLoader(filepath.Join(t.TempDir(), "no-styles"), 8),
		cfg,
	)
}

func collectEvents(t *testing.T, ch <-chan domain.StreamEvent) []domain.StreamEvent {
	t.Helper()
	var events []domain.StreamEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("timed out waiting for stream events")
		}
	}
}

func terminalEvents(events []domain.StreamEvent) []domain.StreamEvent {
	var out []domain.StreamEvent
	for _, ev := range events {
		switch ev.Type {
		case domain.EventError, domain.EventFinished, domain.EventClarificationNeeded:
			out = append(out, ev)
		}
	}
	return out
}

func TestStreamGenerate_HappyPath(t *testing.T) {
	llm := &scriptedLLM{baseJSON: completeBaseJSON}
	svc := newTestService(t, llm, nil, testConfig(t))

	in := service.GenerateInput{
		Files: []extractor.NamedFile{{Name: "verbale.docx", Data: docxBytes(t, "Verbale di constatazione danni.")}},
		Notes: "urgente",
	}
	events := collectEvents(t, svc.StreamGenerate(context.Background(), "req-1", in))

	var messages []string
	for _, ev := range events {
		messages = append(messages, ev.Message)
	}
	assert.Equal(t, "Stylistic references loaded.", messages[0])
	assert.Contains(t, messages, "Validating inputs and extracting content…")
	assert.Contains(t, messages, "Template excerpt loaded.")
	assert.Contains(t, messages, "Base document context extracted.")
	assert.Contains(t, messages, "No immediate clarifications needed. Starting main report generation pipeline…")
	assert.Contains(t, messages, "Core content generation complete. Finalising report data…")

	terminals := terminalEvents(events)
	require.Len(t, terminals, 1)
	assert.Equal(t, domain.EventFinished, terminals[0].Type)
	assert.Equal(t, "Stream completed successfully.", terminals[0].Message)

	// The data event precedes the finished event and carries the merged
	// report context.
	data := events[len(events)-2]
	require.Equal(t, domain.EventData, data.Type)
	assert.Equal(t, "Report data processing complete. Document download will be initiated by client.", data.Message)

	var reportContext map[string]string
	require.NoError(t, json.Unmarshal(data.Payload, &reportContext))
	assert.Equal(t, "PL-123", reportContext["polizza"])
	assert.Equal(t, "", reportContext["vs_rif"]) // null base field flattened
	assert.Equal(t, "Dinamica armonizzata.", reportContext["dinamica_eventi"])
	assert.Equal(t, "Accertamenti armonizzati.", reportContext["accertamenti"])
}

func TestStreamGenerate_ClarificationNeeded(t *testing.T) {
	// polizza null, cause absent: both trip the clarification gate.
	incomplete := `{"client": "ACME S.p.A.", "assicurato": "Beta S.r.l.", "luogo": "Genova",
		"data_danno": "12/03/2026", "polizza": null}`
	llm := &scriptedLLM{baseJSON: incomplete}
	svc := newTestService(t, llm, nil, testConfig(t))

	in := service.GenerateInput{
		Files: []extractor.NamedFile{{Name: "verbale.docx", Data: docxBytes(t, "Verbale.")}},
		Notes: "note di prova",
	}
	events := collectEvents(t, svc.StreamGenerate(context.Background(), "req-2", in))

	terminals := terminalEvents(events)
	require.Len(t, terminals, 1)
	ev := terminals[0]
	require.Equal(t, domain.EventClarificationNeeded, ev.Type)

	keys := make([]string, 0, len(ev.MissingFields))
	for _, mf := range ev.MissingFields {
		keys = append(keys, mf.Key)
	}
	assert.Contains(t, keys, "polizza")
	assert.Contains(t, keys, "cause")
	assert.NotContains(t, keys, "client")

	require.NotNil(t, ev.RequestArtifacts)
	assert.Contains(t, ev.RequestArtifacts.OriginalCorpus, "Verbale.")
	assert.Equal(t, "note di prova", ev.RequestArtifacts.Notes)
	assert.Contains(t, ev.RequestArtifacts.TemplateExcerpt, "RELAZIONE PERITALE")
	assert.Equal(t, "", ev.RequestArtifacts.InitialLLMBaseFields["polizza"])
	assert.Equal(t, "ACME S.p.A.", ev.RequestArtifacts.InitialLLMBaseFields["client"])

	// The pipeline never ran.
	assert.Equal(t, 1, llm.calls)
}

func TestStreamGenerate_LLMError(t *testing.T) {
	llm := &scriptedLLM{baseErr: fmt.Errorf("%w: status 502", domain.ErrLLM)}
	svc := newTestService(t, llm, nil, testConfig(t))

	in := service.GenerateInput{
		Files: []extractor.NamedFile{{Name: "verbale.docx", Data: docxBytes(t, "Verbale.")}},
	}
	events := collectEvents(t, svc.StreamGenerate(context.Background(), "req-3", in))

	terminals := terminalEvents(events)
	require.Len(t, terminals, 1)
	assert.Equal(t, domain.EventError, terminals[0].Type)
	assert.True(t, strings.HasPrefix(terminals[0].Message, "Language model processing error: "))
	assert.Contains(t, terminals[0].Message, "status 502")
}

func TestStreamGenerate_UnknownErrorDoesNotLeakDetail(t *testing.T) {
	llm := &scriptedLLM{baseErr: errors.New("pq: password authentication failed for user perito")}
	svc := newTestService(t, llm, nil, testConfig(t))

	in := service.GenerateInput{
		Files: []extractor.NamedFile{{Name: "verbale.docx", Data: docxBytes(t, "Verbale.")}},
	}
	events := collectEvents(t, svc.StreamGenerate(context.Background(), "req-10", in))

	terminals := terminalEvents(events)
	require.Len(t, terminals, 1)
	assert.Equal(t, domain.EventError, terminals[0].Type)
	assert.Equal(t, "An unexpected server error occurred (id: req-10)", terminals[0].Message)
	assert.NotContains(t, terminals[0].Message, "password")
}

func TestStreamGenerate_PromptTooLarge(t *testing.T) {
	cfg := testConfig(t)
	// The field-definition table alone exceeds this, regardless of corpus.
	cfg.Pipeline.MaxPromptChars = 50

	llm := &scriptedLLM{baseJSON: completeBaseJSON}
	svc := newTestService(t, llm, nil, cfg)

	in := service.GenerateInput{
		Files: []extractor.NamedFile{{Name: "verbale.docx", Data: docxBytes(t, "Verbale.")}},
	}
	events := collectEvents(t, svc.StreamGenerate(context.Background(), "req-11", in))

	terminals := terminalEvents(events)
	require.Len(t, terminals, 1)
	assert.Equal(t, domain.EventError, terminals[0].Type)
	assert.True(t, strings.HasPrefix(terminals[0].Message, "Pipeline processing error: "))
	assert.Contains(t, terminals[0].Message, "prompt too large or too many attachments")
	assert.Zero(t, llm.calls)
}

func TestStreamGenerate_MissingTemplate(t *testing.T) {
	cfg := testConfig(t)
	cfg.Template.Path = filepath.Join(t.TempDir(), "missing.docx")
	svc := newTestService(t, &scriptedLLM{baseJSON: completeBaseJSON}, nil, cfg)

	in := service.GenerateInput{
		Files: []extractor.NamedFile{{Name: "verbale.docx", Data: docxBytes(t, "Verbale.")}},
	}
	events := collectEvents(t, svc.StreamGenerate(context.Background(), "req-4", in))

	terminals := terminalEvents(events)
	require.Len(t, terminals, 1)
	assert.Equal(t, domain.EventError, terminals[0].Type)
	assert.True(t, strings.HasPrefix(terminals[0].Message, "Configuration error: "))
	assert.Contains(t, terminals[0].Message, "template file not found or invalid")
}

func TestStreamGenerate_S3KeysWithoutStorage(t *testing.T) {
	svc := newTestService(t, &scriptedLLM{baseJSON: completeBaseJSON}, nil, testConfig(t))

	in := service.GenerateInput{S3Keys: []string{"uploads/abc/verbale.docx"}}
	events := collectEvents(t, svc.StreamGenerate(context.Background(), "req-5", in))

	terminals := terminalEvents(events)
	require.Len(t, terminals, 1)
	assert.Equal(t, domain.EventError, terminals[0].Type)
	assert.Contains(t, terminals[0].Message, "object storage is not configured")
}

func TestStreamGenerate_S3Keys(t *testing.T) {
	storage := &fakeStorage{objects: map[string][]byte{
		"uploads/abc/verbale.docx": docxBytes(t, "Verbale scaricato dal bucket."),
	}}
	svc := newTestService(t, &scriptedLLM{baseJSON: completeBaseJSON}, storage, testConfig(t))

	in := service.GenerateInput{S3Keys: []string{"uploads/abc/verbale.docx"}}
	events := collectEvents(t, svc.StreamGenerate(context.Background(), "req-6", in))

	terminals := terminalEvents(events)
	require.Len(t, terminals, 1)
	assert.Equal(t, domain.EventFinished, terminals[0].Type)
	assert.Equal(t, []string{"uploads/abc/verbale.docx"}, storage.downloads)
}

func TestStreamGenerate_ClientGone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := newTestService(t, &scriptedLLM{baseJSON: completeBaseJSON}, nil, testConfig(t))
	in := service.GenerateInput{
		Files: []extractor.NamedFile{{Name: "verbale.docx", Data: docxBytes(t, "Verbale.")}},
	}

	// With the context already gone the stream must still terminate: the
	// channel closes instead of blocking on a reader that left.
	ch := svc.StreamGenerate(ctx, "req-7", in)
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("stream did not terminate after context cancellation")
		}
	}
}

func TestGenerateWithClarifications(t *testing.T) {
	llm := &scriptedLLM{}
	svc := newTestService(t, llm, nil, testConfig(t))

	answer := "PL-999"
	ignored := (*string)(nil)
	out, err := svc.GenerateWithClarifications(context.Background(), "req-8", domain.ClarificationAnswers{
		Clarifications: map[string]*string{
			"polizza":     &answer,
			"sconosciuto": ignored,
		},
		Artifacts: domain.RequestArtifacts{
			OriginalCorpus:       "Verbale di constatazione.",
			Notes:                "urgente",
			TemplateExcerpt:      "RELAZIONE PERITALE",
			ReferenceStyleText:   "stile",
			InitialLLMBaseFields: map[string]string{"polizza": "", "client": "ACME S.p.A."},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "PL-999", out["polizza"])
	assert.Equal(t, "ACME S.p.A.", out["client"])
	assert.Equal(t, "Dinamica armonizzata.", out["dinamica_eventi"])
	assert.Equal(t, "Accertamenti armonizzati.", out["accertamenti"])
	assert.NotContains(t, out, "sconosciuto")
}

func TestGenerateWithClarifications_PipelineError(t *testing.T) {
	llm := &scriptedLLM{}
	svc := newTestService(t, llm, nil, testConfig(t))

	_, err := svc.GenerateWithClarifications(context.Background(), "req-9", domain.ClarificationAnswers{
		Artifacts: domain.RequestArtifacts{OriginalCorpus: "", TemplateExcerpt: "T"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPipeline))
}

func TestBuildDocument_MissingTemplate(t *testing.T) {
	cfg := testConfig(t)
	cfg.Template.Path = filepath.Join(t.TempDir(), "missing.docx")
	svc := newTestService(t, &scriptedLLM{}, nil, cfg)

	_, err := svc.BuildDocument(map[string]any{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}
