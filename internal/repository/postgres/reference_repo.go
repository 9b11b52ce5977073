package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/andreasalomone/bot-perito-sub000/internal/domain"
	"github.com/andreasalomone/bot-perito-sub000/internal/port"
)

type referenceRepo struct {
	db *sqlx.DB
}

// NewReferenceRepo creates a new PostgreSQL-backed ReferenceRepository.
func NewReferenceRepo(db *sqlx.DB) port.ReferenceRepository {
	return &referenceRepo{db: db}
}

func (r *referenceRepo) ListAll(ctx context.Context) ([]domain.ReferenceReport, error) {
	var reports []domain.ReferenceReport
	query := `SELECT id, title, body, embedding, created_at
	          FROM reference_reports
	          ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &reports, query); err != nil {
		return nil, fmt.Errorf("listing reference reports: %w", err)
	}
	return reports, nil
}

func (r *referenceRepo) Create(ctx context.Context, report *domain.ReferenceReport) error {
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO reference_reports (id, title, body, embedding, created_at)
	          VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query,
		report.ID, report.Title, report.Body, report.Embedding, report.CreatedAt); err != nil {
		return fmt.Errorf("inserting reference report: %w", err)
	}
	return nil
}
