package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path"

	"github.com/andreasalomone/bot-perito-sub000/internal/clarification"
	"github.com/andreasalomone/bot-perito-sub000/internal/config"
	"github.com/andreasalomone/bot-perito-sub000/internal/docbuilder"
	"github.com/andreasalomone/bot-perito-sub000/internal/docx"
	"github.com/andreasalomone/bot-perito-sub000/internal/domain"
	"github.com/andreasalomone/bot-perito-sub000/internal/extractor"
	"github.com/andreasalomone/bot-perito-sub000/internal/jsonx"
	"github.com/andreasalomone/bot-perito-sub000/internal/pipeline"
	"github.com/andreasalomone/bot-perito-sub000/internal/port"
	"github.com/andreasalomone/bot-perito-sub000/internal/prompt"
	"github.com/andreasalomone/bot-perito-sub000/internal/rag"
	"github.com/andreasalomone/bot-perito-sub000/internal/style"
)

// templateExcerptParagraphs is how many leading template paragraphs are fed
// to the model as a structural primer.
const templateExcerptParagraphs = 8

// GenerateInput carries the source material for one report generation
// request. Files holds uploads already read into memory; S3Keys references
// objects previously staged through the presigned-upload flow.
type GenerateInput struct {
	Files  []extractor.NamedFile
	S3Keys []string
	Notes  string
}

// ReportService orchestrates end-to-end report generation: content
// extraction, base field identification, the clarification gate, the section
// pipeline and final document assembly.
type ReportService interface {
	// StreamGenerate runs the full generation flow and reports progress as a
	// stream of events. The returned channel is closed after exactly one
	// terminal event (error, clarification_needed or finished).
	StreamGenerate(ctx context.Context, requestID string, in GenerateInput) <-chan domain.StreamEvent

	// GenerateWithClarifications resumes a generation that stopped at the
	// clarification gate, using the artifacts echoed back by the client, and
	// returns the final merged report context.
	GenerateWithClarifications(ctx context.Context, requestID string, answers domain.ClarificationAnswers) (map[string]any, error)

	// BuildDocument renders the report context into the Word template.
	BuildDocument(reportContext map[string]any) ([]byte, error)
}

type reportService struct {
	llm       port.LLMGateway
	pipe      *pipeline.Pipeline
	extractor *extractor.Extractor
	storage   port.ObjectStorage
	retriever *rag.Retriever
	styles    *style.Loader
	cfg       *config.Config
	critical  []domain.CriticalField
}

// NewReportService wires the generation flow. storage and retriever may be
// nil; the S3-key input path and reference-case retrieval are then disabled.
func NewReportService(
	llm port.LLMGateway,
	pipe *pipeline.Pipeline,
	ex *extractor.Extractor,
	storage port.ObjectStorage,
	retriever *rag.Retriever,
	styles *style.Loader,
	cfg *config.Config,
) ReportService {
	return &reportService{
		llm:       llm,
		pipe:      pipe,
		extractor: ex,
		storage:   storage,
		retriever: retriever,
		styles:    styles,
		cfg:       cfg,
		critical:  domain.DefaultCriticalFields,
	}
}

func (s *reportService) StreamGenerate(ctx context.Context, requestID string, in GenerateInput) <-chan domain.StreamEvent {
	ch := make(chan domain.StreamEvent)

	go func() {
		defer close(ch)

		emit := func(ev domain.StreamEvent) error {
			select {
			case ch <- ev:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		terminalSent := false
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[%s] panic during stream generation: %v", requestID, r)
				terminalSent = false
			}
			if !terminalSent {
				log.Printf("[%s] stream exiting without a proper final event, sending generic error", requestID)
				select {
				case ch <- domain.NewErrorEvent("The report generation process terminated unexpectedly on the server. Please try again."):
				case <-ctx.Done():
				}
			}
			log.Printf("[%s] stream generation finished", requestID)
		}()

		err := s.streamGenerate(ctx, requestID, in, emit)
		if err == nil {
			terminalSent = true
			return
		}
		if ctx.Err() != nil {
			// Client went away; nobody is reading the channel anymore.
			terminalSent = true
			return
		}
		log.Printf("[%s] stream generation failed: %v", requestID, err)
		if emit(domain.NewErrorEvent(streamErrorMessage(requestID, err))) == nil {
			terminalSent = true
		}
	}()

	return ch
}

// streamGenerate runs the generation phases, emitting progress events. On
// success it has already emitted the terminal event (clarification_needed or
// data + finished); on failure the caller turns the error into a terminal
// error event.
func (s *reportService) streamGenerate(ctx context.Context, requestID string, in GenerateInput, emit pipeline.EmitFunc) error {
	log.Printf("[%s] initiating streaming report generation: %d files, %d object keys", requestID, len(in.Files), len(in.S3Keys))

	styleText := s.styles.Text()
	if err := emit(domain.NewStatusEvent("Stylistic references loaded.")); err != nil {
		return err
	}

	if err := emit(domain.NewStatusEvent("Validating inputs and extracting content…")); err != nil {
		return err
	}
	files, err := s.resolveFiles(ctx, requestID, in)
	if err != nil {
		return err
	}
	corpus, err := s.extractor.Batch(ctx, files)
	if err != nil {
		return err
	}
	corpus = extractor.GuardCorpus(corpus, s.cfg.Pipeline.MaxPromptChars)
	if err := emit(domain.NewStatusEvent(fmt.Sprintf("Content extracted: %d chars.", len(corpus)))); err != nil {
		return err
	}

	if err := emit(domain.NewStatusEvent("Loading template excerpt…")); err != nil {
		return err
	}
	templateExcerpt, err := s.loadTemplateExcerpt(requestID)
	if err != nil {
		return err
	}
	if err := emit(domain.NewStatusEvent("Template excerpt loaded.")); err != nil {
		return err
	}

	if err := emit(domain.NewStatusEvent("Extracting base document context (LLM)…")); err != nil {
		return err
	}
	baseFields, err := s.extractBaseContext(ctx, requestID, templateExcerpt, corpus, in.Notes, styleText)
	if err != nil {
		return err
	}
	if err := emit(domain.NewStatusEvent("Base document context extracted.")); err != nil {
		return err
	}

	base := clarification.Normalize(baseFields)
	if missing := clarification.IdentifyMissingFields(baseFields, s.critical); len(missing) > 0 {
		log.Printf("[%s] clarification needed for %d fields", requestID, len(missing))
		return emit(domain.StreamEvent{
			Type:          domain.EventClarificationNeeded,
			MissingFields: missing,
			RequestArtifacts: &domain.RequestArtifacts{
				OriginalCorpus:       corpus,
				Notes:                in.Notes,
				TemplateExcerpt:      templateExcerpt,
				ReferenceStyleText:   styleText,
				InitialLLMBaseFields: base,
			},
		})
	}

	if err := emit(domain.NewStatusEvent("No immediate clarifications needed. Starting main report generation pipeline…")); err != nil {
		return err
	}

	sections, err := s.pipe.Run(ctx, requestID, pipeline.Input{
		TemplateExcerpt: templateExcerpt,
		Corpus:          corpus,
		Notes:           in.Notes,
		StyleText:       styleText,
	}, emit)
	if err != nil {
		return err
	}
	if err := emit(domain.NewStatusEvent("Core content generation complete. Finalising report data…")); err != nil {
		return err
	}

	payload, err := json.Marshal(mergeContext(base, sections))
	if err != nil {
		return fmt.Errorf("%w: encoding final report context: %v", domain.ErrJSONParsing, err)
	}
	if err := emit(domain.StreamEvent{
		Type:    domain.EventData,
		Message: "Report data processing complete. Document download will be initiated by client.",
		Payload: payload,
	}); err != nil {
		return err
	}
	return emit(domain.StreamEvent{Type: domain.EventFinished, Message: "Stream completed successfully."})
}

func (s *reportService) GenerateWithClarifications(ctx context.Context, requestID string, answers domain.ClarificationAnswers) (map[string]any, error) {
	log.Printf("[%s] resuming generation with %d clarifications", requestID, len(answers.Clarifications))

	artifacts := answers.Artifacts
	base := clarification.Merge(artifacts.InitialLLMBaseFields, answers.Clarifications)

	emit := func(ev domain.StreamEvent) error {
		log.Printf("[%s] pipeline update: %s", requestID, ev.Message)
		return nil
	}
	sections, err := s.pipe.Run(ctx, requestID, pipeline.Input{
		TemplateExcerpt: artifacts.TemplateExcerpt,
		Corpus:          artifacts.OriginalCorpus,
		Notes:           artifacts.Notes,
		StyleText:       artifacts.ReferenceStyleText,
	}, emit)
	if err != nil {
		return nil, err
	}

	return mergeContext(base, sections), nil
}

func (s *reportService) BuildDocument(reportContext map[string]any) ([]byte, error) {
	template, err := os.ReadFile(s.cfg.Template.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: template file not found or invalid: %s", domain.ErrConfiguration, s.cfg.Template.Path)
	}
	return docbuilder.Inject(template, reportContext)
}

// resolveFiles combines in-memory uploads with objects fetched from storage.
func (s *reportService) resolveFiles(ctx context.Context, requestID string, in GenerateInput) ([]extractor.NamedFile, error) {
	files := in.Files
	if len(in.S3Keys) == 0 {
		return files, nil
	}
	if s.storage == nil {
		return nil, fmt.Errorf("%w: object storage is not configured", domain.ErrConfiguration)
	}
	for _, key := range in.S3Keys {
		data, err := s.storage.Download(ctx, s.cfg.S3.Bucket, key)
		if err != nil {
			return nil, fmt.Errorf("%w: downloading %s: %v", domain.ErrExtractor, key, err)
		}
		log.Printf("[%s] downloaded %s: %d bytes", requestID, key, len(data))
		files = append(files, extractor.NamedFile{Name: path.Base(key), Data: data})
	}
	return files, nil
}

// loadTemplateExcerpt reads the first few paragraphs of the Word template to
// prime the model with the expected document structure.
func (s *reportService) loadTemplateExcerpt(requestID string) (string, error) {
	data, err := os.ReadFile(s.cfg.Template.Path)
	if err != nil {
		return "", fmt.Errorf("%w: template file not found or invalid: %s", domain.ErrConfiguration, s.cfg.Template.Path)
	}
	paragraphs, err := docx.ParagraphTexts(data)
	if err != nil {
		return "", fmt.Errorf("%w: template file not found or invalid: %s", domain.ErrConfiguration, s.cfg.Template.Path)
	}
	if len(paragraphs) > templateExcerptParagraphs {
		paragraphs = paragraphs[:templateExcerptParagraphs]
	}
	excerpt := ""
	for i, p := range paragraphs {
		if i > 0 {
			excerpt += "\n"
		}
		excerpt += p
	}
	log.Printf("[%s] loaded template excerpt: %d chars", requestID, len(excerpt))
	return excerpt, nil
}

// extractBaseContext asks the model for the generic report fields before the
// heavy section pipeline runs. Values come back as pointers so a null field
// (unknown) is distinguishable from an empty one (known to be blank).
func (s *reportService) extractBaseContext(ctx context.Context, requestID, templateExcerpt, corpus, notes, styleText string) (map[string]*string, error) {
	var cases []domain.ReferenceCase
	if s.retriever != nil {
		retrieved, err := s.retriever.Retrieve(ctx, corpus)
		if err != nil {
			log.Printf("[%s] reference case retrieval failed, continuing without: %v", requestID, err)
		} else {
			cases = retrieved
		}
	}

	basePrompt := prompt.BaseContext(templateExcerpt, corpus, notes, styleText, cases)
	if len(basePrompt) > s.cfg.Pipeline.MaxPromptChars {
		log.Printf("[%s] prompt too large: %d chars", requestID, len(basePrompt))
		return nil, fmt.Errorf("%w: prompt too large or too many attachments", domain.ErrPipeline)
	}

	raw, err := s.llm.Complete(ctx, basePrompt)
	if err != nil {
		return nil, err
	}
	fields := map[string]*string{}
	if err := jsonx.Extract(raw, &fields); err != nil {
		return nil, err
	}
	log.Printf("[%s] extracted base context: %d fields", requestID, len(fields))
	return fields, nil
}

// mergeContext overlays the pipeline sections on the base fields; sections
// win on key collisions.
func mergeContext(base map[string]string, sections map[string]string) map[string]any {
	merged := make(map[string]any, len(base)+len(sections))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range sections {
		merged[k] = v
	}
	return merged
}

// streamErrorMessage maps a generation failure to the stable client-facing
// message for the terminal error event. Errors outside the known taxonomy
// must not reach the client verbatim; those get the request id for log
// correlation instead.
func streamErrorMessage(requestID string, err error) string {
	switch {
	case errors.Is(err, domain.ErrConfiguration):
		return "Configuration error: " + err.Error()
	case errors.Is(err, domain.ErrExtractor):
		return "File extraction error: " + err.Error()
	case errors.Is(err, domain.ErrPipeline):
		return "Pipeline processing error: " + err.Error()
	case errors.Is(err, domain.ErrLLM):
		return "Language model processing error: " + err.Error()
	case errors.Is(err, domain.ErrJSONParsing):
		return "Data parsing error: " + err.Error()
	default:
		return fmt.Sprintf("An unexpected server error occurred (id: %s)", requestID)
	}
}
