package pipeline

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/andreasalomone/bot-perito-sub000/internal/domain"
	"github.com/andreasalomone/bot-perito-sub000/internal/jsonx"
	"github.com/andreasalomone/bot-perito-sub000/internal/prompt"
)

// harmonize smooths tone across the expanded sections. The result must keep
// every input key; extra keys from the model are tolerated.
func (p *Pipeline) harmonize(ctx context.Context, requestID string, sections map[string]string, styleText string) (map[string]string, error) {
	log.Printf("[%s] harmonizing %d sections", requestID, len(sections))

	promptText, err := prompt.Harmonize(sections, styleText)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to harmonize sections: %w", domain.ErrPipeline, err)
	}

	raw, err := p.llm.Complete(ctx, promptText)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to harmonize sections: %w", domain.ErrPipeline, err)
	}

	var harmonized map[string]string
	if err := jsonx.Extract(raw, &harmonized); err != nil {
		return nil, fmt.Errorf("%w: failed to harmonize sections: %w", domain.ErrPipeline, err)
	}

	var missing []string
	for key := range sections {
		if _, ok := harmonized[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: harmonization result missed expected sections: %v", domain.ErrPipeline, missing)
	}

	log.Printf("[%s] harmonized sections successfully", requestID)
	return harmonized, nil
}
