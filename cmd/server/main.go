package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/andreasalomone/bot-perito-sub000/internal/config"
	"github.com/andreasalomone/bot-perito-sub000/internal/extractor"
	"github.com/andreasalomone/bot-perito-sub000/internal/handler"
	"github.com/andreasalomone/bot-perito-sub000/internal/llm/openrouter"
	"github.com/andreasalomone/bot-perito-sub000/internal/ocr"
	"github.com/andreasalomone/bot-perito-sub000/internal/pipeline"
	"github.com/andreasalomone/bot-perito-sub000/internal/port"
	"github.com/andreasalomone/bot-perito-sub000/internal/rag"
	"github.com/andreasalomone/bot-perito-sub000/internal/repository/postgres"
	"github.com/andreasalomone/bot-perito-sub000/internal/router"
	"github.com/andreasalomone/bot-perito-sub000/internal/service"
	s3storage "github.com/andreasalomone/bot-perito-sub000/internal/storage/s3"
	"github.com/andreasalomone/bot-perito-sub000/internal/style"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// .env files are a development convenience; in production everything
	// comes from real environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database is optional: without it the service runs with reference-case
	// retrieval disabled.
	var db *sqlx.DB
	var refRepo port.ReferenceRepository
	if cfg.DB.Enabled() {
		db, err = postgres.NewDB(&cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		refRepo = postgres.NewReferenceRepo(db)
	} else {
		log.Printf("no database configured, reference-case retrieval disabled")
	}

	// Object storage is optional too: without it staged uploads and the
	// presign endpoint are unavailable.
	var storage port.ObjectStorage
	if cfg.S3.Bucket != "" {
		storage, err = s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	} else {
		log.Printf("no S3 bucket configured, staged uploads disabled")
	}

	llmClient := openrouter.NewClient(&cfg.LLM)

	var ocrClient port.OCRClient
	if c := ocr.NewClient(&cfg.OCR); c != nil {
		ocrClient = c
	}

	var retriever *rag.Retriever
	if refRepo != nil {
		if hf := rag.NewHFClient(&cfg.RAG); hf != nil {
			retriever, err = rag.NewRetriever(hf, refRepo, cfg.RAG.TopK, cfg.RAG.CacheSize)
			if err != nil {
				return fmt.Errorf("failed to initialize retriever: %w", err)
			}
		}
	}

	ex := extractor.New(ocrClient)
	styles := style.NewLoader(cfg.Template.StyleDir, cfg.Pipeline.MaxStyleParagraphs)
	pipe := pipeline.New(llmClient, cfg.Pipeline.ExpansionConcurrency)

	reportSvc := service.NewReportService(llmClient, pipe, ex, storage, retriever, styles, cfg)
	uploadSvc := service.NewUploadService(storage, &cfg.S3, &cfg.Upload)

	reportH := handler.NewReportHandler(reportSvc, uploadSvc)
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(cfg, reportH, healthH)

	if storage != nil && cfg.Cleanup.Enabled {
		worker := service.NewCleanupWorker(storage, &cfg.S3, cfg.Cleanup)
		go worker.Start(ctx)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Printf("Server starting on %s", cfg.Server.Port)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		log.Printf("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	}
}
