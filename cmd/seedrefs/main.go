// Command seedrefs loads .docx reference reports from a directory into the
// reference_reports table, embedding each body for similarity retrieval.
// Usage: go run ./cmd/seedrefs [dir]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/andreasalomone/bot-perito-sub000/internal/config"
	"github.com/andreasalomone/bot-perito-sub000/internal/docx"
	"github.com/andreasalomone/bot-perito-sub000/internal/domain"
	"github.com/andreasalomone/bot-perito-sub000/internal/rag"
	"github.com/andreasalomone/bot-perito-sub000/internal/repository/postgres"
)

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

	dir := cfg.Template.StyleDir
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	repo := postgres.NewReferenceRepo(db)
	embedder := rag.NewHFClient(&cfg.RAG)
	if embedder == nil {
		log.Println("no HF API key configured, seeding without embeddings")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}

	ctx := context.Background()
	seeded := 0
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".docx") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		body, err := docx.ExtractText(data)
		if err != nil {
			log.Printf("skipping %s: %v", e.Name(), err)
			continue
		}
		if strings.TrimSpace(body) == "" {
			log.Printf("skipping %s: no text content", e.Name())
			continue
		}

		report := &domain.ReferenceReport{
			Title: strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			Body:  body,
		}
		if embedder != nil {
			vec, err := embedder.Embed(ctx, body)
			if err != nil {
				return fmt.Errorf("embedding %s: %w", e.Name(), err)
			}
			report.Embedding, err = json.Marshal(vec)
			if err != nil {
				return fmt.Errorf("encoding embedding for %s: %w", e.Name(), err)
			}
		}

		if err := repo.Create(ctx, report); err != nil {
			return fmt.Errorf("inserting %s: %w", e.Name(), err)
		}
		log.Printf("seeded %s (%d chars)", report.Title, len(body))
		seeded++
	}

	log.Printf("done: %d reference reports seeded from %s", seeded, dir)
	return nil
}
