package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/andreasalomone/bot-perito-sub000/internal/domain"
	"github.com/andreasalomone/bot-perito-sub000/internal/jsonx"
	"github.com/andreasalomone/bot-perito-sub000/internal/prompt"
)

// generateOutline plans the narrative sections as a validated list of
// outline items.
func (p *Pipeline) generateOutline(ctx context.Context, requestID string, in Input) ([]domain.OutlineItem, error) {
	log.Printf("[%s] generating outline", requestID)

	raw, err := p.llm.Complete(ctx, prompt.Outline(in.TemplateExcerpt, in.Corpus, in.Notes))
	if err != nil {
		return nil, fmt.Errorf("%w: outline generation failed: %w", domain.ErrPipeline, err)
	}

	var outline []domain.OutlineItem
	if err := jsonx.ExtractList(raw, &outline); err != nil {
		return nil, fmt.Errorf("%w: outline generation failed: %w", domain.ErrPipeline, err)
	}

	if len(outline) == 0 {
		return nil, fmt.Errorf("%w: empty outline generated", domain.ErrPipeline)
	}
	known := make(map[string]struct{}, len(prompt.SectionKeys))
	for _, k := range prompt.SectionKeys {
		known[k] = struct{}{}
	}
	for i, item := range outline {
		if item.Section == "" || item.Title == "" {
			return nil, fmt.Errorf("%w: invalid structure for outline item #%d: section and title are required", domain.ErrPipeline, i)
		}
		if len(item.Bullets) == 0 {
			return nil, fmt.Errorf("%w: invalid structure for outline item #%d: bullets are required", domain.ErrPipeline, i)
		}
		if _, ok := known[item.Section]; !ok {
			log.Printf("[%s] outline item #%d has unrecognized section key %q", requestID, i, item.Section)
		}
	}

	log.Printf("[%s] generated outline with %d sections", requestID, len(outline))
	return outline, nil
}
