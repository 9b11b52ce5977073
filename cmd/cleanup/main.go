// Command cleanup runs a single sweep over the staged-upload prefix,
// deleting objects older than the configured age.
// Usage: go run ./cmd/cleanup
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/andreasalomone/bot-perito-sub000/internal/config"
	"github.com/andreasalomone/bot-perito-sub000/internal/service"
	s3storage "github.com/andreasalomone/bot-perito-sub000/internal/storage/s3"
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
	if cfg.S3.Bucket == "" {
		return fmt.Errorf("no S3 bucket configured")
	}

	storage, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("initializing S3 client: %w", err)
	}

	worker := service.NewCleanupWorker(storage, &cfg.S3, cfg.Cleanup)
	if err := worker.RunOnce(context.Background()); err != nil {
		return fmt.Errorf("cleanup sweep failed: %w", err)
	}
	log.Println("cleanup sweep complete")
	return nil
}
