package pipeline

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/andreasalomone/bot-perito-sub000/internal/domain"
	"github.com/andreasalomone/bot-perito-sub000/internal/jsonx"
	"github.com/andreasalomone/bot-perito-sub000/internal/prompt"
)

// expandAll expands every outline item concurrently. Each expansion writes
// its own slot; the first failure cancels the rest.
func (p *Pipeline) expandAll(ctx context.Context, requestID string, outline []domain.OutlineItem, in Input, emit EmitFunc) (map[string]string, error) {
	texts := make([]string, len(outline))

	g, ctx := errgroup.WithContext(ctx)
	if p.concurrency > 0 {
		g.SetLimit(p.concurrency)
	}
	for i, item := range outline {
		g.Go(func() error {
			if err := emit(domain.NewStatusEvent(fmt.Sprintf("Expanding section %d/%d: %s...", i+1, len(outline), item.Title))); err != nil {
				return err
			}
			text, err := p.expandSection(ctx, requestID, item, in)
			if err != nil {
				return err
			}
			texts[i] = text
			return emit(domain.NewStatusEvent(fmt.Sprintf("Section '%s' expanded.", item.Title)))
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sections := make(map[string]string, len(outline))
	for i, item := range outline {
		sections[item.Section] = texts[i]
	}
	return sections, nil
}

// expandSection turns a single outline item into full prose.
func (p *Pipeline) expandSection(ctx context.Context, requestID string, item domain.OutlineItem, in Input) (string, error) {
	log.Printf("[%s] expanding section '%s' with %d bullets", requestID, item.Title, len(item.Bullets))

	raw, err := p.llm.Complete(ctx, prompt.ExpandSection(item, in.TemplateExcerpt, in.Corpus, in.Notes, in.StyleText))
	if err != nil {
		return "", fmt.Errorf("%w: failed to expand section %s: %w", domain.ErrPipeline, item.Title, err)
	}

	var out map[string]string
	if err := jsonx.Extract(raw, &out); err != nil {
		return "", fmt.Errorf("%w: failed to expand section %s: %w", domain.ErrPipeline, item.Title, err)
	}

	content := out[item.Section]
	if content == "" {
		return "", fmt.Errorf("%w: empty content for section %s", domain.ErrPipeline, item.Title)
	}

	log.Printf("[%s] expanded section '%s' to %d chars", requestID, item.Title, len(content))
	return content, nil
}
