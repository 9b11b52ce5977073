package service

import (
	"context"
	"log"
	"time"

	"github.com/andreasalomone/bot-perito-sub000/internal/config"
	"github.com/andreasalomone/bot-perito-sub000/internal/port"
)

// CleanupWorker periodically deletes staged upload objects that were never
// consumed by a generation request.
type CleanupWorker struct {
	storage port.ObjectStorage
	bucket  string
	prefix  string
	cfg     config.CleanupConfig
}

// NewCleanupWorker creates a CleanupWorker over the staged-upload prefix.
func NewCleanupWorker(storage port.ObjectStorage, s3cfg *config.S3Config, cfg config.CleanupConfig) *CleanupWorker {
	return &CleanupWorker{
		storage: storage,
		bucket:  s3cfg.Bucket,
		prefix:  s3cfg.UploadPrefix,
		cfg:     cfg,
	}
}

// Start runs the cleanup loop until ctx is canceled.
func (w *CleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	log.Printf("cleanupWorker: started (interval=%s, maxAge=%dh, prefix=%s)",
		w.cfg.Interval, w.cfg.MaxAgeHours, w.prefix)

	for {
		select {
		case <-ctx.Done():
			log.Printf("cleanupWorker: shutdown complete")
			return
		case <-ticker.C:
			if err := w.RunOnce(ctx); err != nil {
				if ctx.Err() != nil {
					continue
				}
				log.Printf("cleanupWorker: sweep failed: %v", err)
			}
		}
	}
}

// RunOnce deletes every staged object older than the configured age.
func (w *CleanupWorker) RunOnce(ctx context.Context) error {
	cutoff := time.Now().Add(-time.Duration(w.cfg.MaxAgeHours) * time.Hour)

	objects, err := w.storage.List(ctx, w.bucket, w.prefix)
	if err != nil {
		return err
	}

	deleted := 0
	for _, obj := range objects {
		if obj.LastModified.After(cutoff) {
			continue
		}
		if err := w.storage.Delete(ctx, w.bucket, obj.Key); err != nil {
			log.Printf("cleanupWorker: deleting %s: %v", obj.Key, err)
			continue
		}
		deleted++
	}

	if deleted > 0 {
		log.Printf("cleanupWorker: deleted %d stale objects (cutoff %s)", deleted, cutoff.Format(time.RFC3339))
	}
	return nil
}
