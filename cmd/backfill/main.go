// Command backfill computes embeddings for reference reports that were
// seeded without one, in batches.
// Usage: go run ./cmd/backfill
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/andreasalomone/bot-perito-sub000/internal/config"
	"github.com/andreasalomone/bot-perito-sub000/internal/domain"
	"github.com/andreasalomone/bot-perito-sub000/internal/rag"
	"github.com/andreasalomone/bot-perito-sub000/internal/repository/postgres"
)

const batchSize = 20

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !cfg.DB.Enabled() {
		return fmt.Errorf("no database configured; set PERITO_DB_HOST and related variables")
	}

	embedder := rag.NewHFClient(&cfg.RAG)
	if embedder == nil {
		return fmt.Errorf("no HF API key configured; set PERITO_RAG_HF_API_KEY")
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	total := 0

	for {
		var reports []domain.ReferenceReport
		err := db.SelectContext(ctx, &reports,
			`SELECT id, title, body, embedding, created_at
			 FROM reference_reports
			 WHERE embedding IS NULL
			 ORDER BY created_at
			 LIMIT $1`, batchSize)
		if err != nil {
			return fmt.Errorf("querying reference reports: %w", err)
		}
		if len(reports) == 0 {
			break
		}

		for _, report := range reports {
			vec, err := embedder.Embed(ctx, report.Body)
			if err != nil {
				return fmt.Errorf("embedding %s: %w", report.Title, err)
			}
			encoded, err := json.Marshal(vec)
			if err != nil {
				return fmt.Errorf("encoding embedding for %s: %w", report.Title, err)
			}
			if _, err := db.ExecContext(ctx,
				`UPDATE reference_reports SET embedding = $1 WHERE id = $2`,
				encoded, report.ID); err != nil {
				return fmt.Errorf("updating %s: %w", report.Title, err)
			}
			log.Printf("backfilled embedding for %s (%d dims)", report.Title, len(vec))
			total++
		}
	}

	log.Printf("done: %d embeddings backfilled", total)
	return nil
}
