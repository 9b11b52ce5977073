package port

import (
	"context"

	"github.com/andreasalomone/bot-perito-sub000/internal/domain"
)

// ReferenceRepository provides access to stored reference reports used for
// style retrieval.
type ReferenceRepository interface {
	ListAll(ctx context.Context) ([]domain.ReferenceReport, error)
	Create(ctx context.Context, report *domain.ReferenceReport) error
}
