// Package pipeline runs the three-stage report generation: outline the
// narrative sections, expand each section into prose, then harmonize tone
// across them.
package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/andreasalomone/bot-perito-sub000/internal/domain"
	"github.com/andreasalomone/bot-perito-sub000/internal/port"
)

// EmitFunc receives progress events. Implementations must be safe for
// concurrent use; section expansions report progress from multiple
// goroutines.
type EmitFunc func(domain.StreamEvent) error

// Input carries everything a pipeline run needs.
type Input struct {
	TemplateExcerpt string
	Corpus          string
	Notes           string
	StyleText       string
}

// Pipeline orchestrates the generation stages over an LLM gateway.
type Pipeline struct {
	llm port.LLMGateway
	// concurrency caps parallel section expansions; 0 means unlimited.
	concurrency int
}

// New creates a Pipeline.
func New(llm port.LLMGateway, concurrency int) *Pipeline {
	return &Pipeline{llm: llm, concurrency: concurrency}
}

// Run executes the full pipeline and returns the harmonized section map.
// Progress is reported through emit; the terminal data/error event is the
// caller's responsibility.
func (p *Pipeline) Run(ctx context.Context, requestID string, in Input, emit EmitFunc) (map[string]string, error) {
	log.Printf("[%s] starting pipeline run, corpus length %d", requestID, len(in.Corpus))

	if err := emit(domain.NewStatusEvent("Initializing report generation...")); err != nil {
		return nil, err
	}

	if in.TemplateExcerpt == "" {
		return nil, fmt.Errorf("%w: input validation failed: template excerpt is missing", domain.ErrPipeline)
	}
	if in.Corpus == "" {
		return nil, fmt.Errorf("%w: input validation failed: corpus is missing", domain.ErrPipeline)
	}

	if err := emit(domain.NewStatusEvent("Generating report outline...")); err != nil {
		return nil, err
	}
	outline, err := p.generateOutline(ctx, requestID, in)
	if err != nil {
		return nil, err
	}
	if err := emit(domain.NewStatusEvent(fmt.Sprintf("Outline generated with %d sections.", len(outline)))); err != nil {
		return nil, err
	}

	if err := emit(domain.NewStatusEvent("Expanding report sections...")); err != nil {
		return nil, err
	}
	sections, err := p.expandAll(ctx, requestID, outline, in, emit)
	if err != nil {
		return nil, err
	}

	if err := emit(domain.NewStatusEvent("Harmonizing report content...")); err != nil {
		return nil, err
	}
	harmonized, err := p.harmonize(ctx, requestID, sections, in.StyleText)
	if err != nil {
		return nil, err
	}
	if err := emit(domain.NewStatusEvent("Content harmonization complete.")); err != nil {
		return nil, err
	}

	log.Printf("[%s] pipeline completed successfully", requestID)
	return harmonized, nil
}
