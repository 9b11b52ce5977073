package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/andreasalomone/bot-perito-sub000/internal/config"
	"github.com/andreasalomone/bot-perito-sub000/internal/domain"
	"github.com/andreasalomone/bot-perito-sub000/internal/extractor"
	"github.com/andreasalomone/bot-perito-sub000/internal/port"
)

// PresignedUpload is the response for a direct-to-storage upload grant.
type PresignedUpload struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// UploadService validates incoming report source files and hands out
// presigned URLs for direct-to-storage uploads of large attachments.
type UploadService interface {
	// ValidateAndRead checks the multipart files against the configured
	// limits and reads them into memory for extraction.
	ValidateAndRead(files []*multipart.FileHeader) ([]extractor.NamedFile, error)

	// PresignUpload returns a short-lived URL the client can PUT a file to,
	// together with the object key to pass back on generation.
	PresignUpload(ctx context.Context, filename, contentType string) (*PresignedUpload, error)
}

type uploadService struct {
	storage port.ObjectStorage
	s3cfg   *config.S3Config
	limits  *config.UploadConfig
}

// NewUploadService creates an UploadService. storage may be nil; presigned
// uploads are then unavailable.
func NewUploadService(storage port.ObjectStorage, s3cfg *config.S3Config, limits *config.UploadConfig) UploadService {
	return &uploadService{storage: storage, s3cfg: s3cfg, limits: limits}
}

func (s *uploadService) ValidateAndRead(files []*multipart.FileHeader) ([]extractor.NamedFile, error) {
	if len(files) > s.limits.MaxFiles {
		return nil, fmt.Errorf("%w: %d files submitted, limit is %d", domain.ErrTooManyFiles, len(files), s.limits.MaxFiles)
	}

	maxFileBytes := s.limits.MaxFileSizeMB * 1024 * 1024
	maxTotalBytes := s.limits.MaxTotalSizeMB * 1024 * 1024

	var totalSize int64
	out := make([]extractor.NamedFile, 0, len(files))
	for _, header := range files {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
		if _, ok := domain.AllowedExtensions[ext]; !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, header.Filename)
		}
		if header.Size == 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrEmptyFile, header.Filename)
		}
		if header.Size > maxFileBytes {
			return nil, fmt.Errorf("%w: %s (%d bytes)", domain.ErrFileTooLarge, header.Filename, header.Size)
		}
		totalSize += header.Size
		if totalSize > maxTotalBytes {
			return nil, fmt.Errorf("%w: limit is %d MB", domain.ErrTotalSizeExceeded, s.limits.MaxTotalSizeMB)
		}

		data, err := readMultipartFile(header)
		if err != nil {
			return nil, err
		}

		// Magic-byte check so a renamed executable does not slip through.
		sniffLen := len(data)
		if sniffLen > 512 {
			sniffLen = 512
		}
		detected := http.DetectContentType(data[:sniffLen])
		if base, _, found := strings.Cut(detected, ";"); found {
			detected = base
		}
		if _, ok := domain.AllowedContentTypes[detected]; !ok {
			log.Printf("uploadService: rejected %s, detected content type %s", header.Filename, detected)
			return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, header.Filename)
		}

		out = append(out, extractor.NamedFile{Name: header.Filename, Data: data})
	}

	log.Printf("uploadService: validated %d files, total %d bytes", len(out), totalSize)
	return out, nil
}

func (s *uploadService) PresignUpload(ctx context.Context, filename, contentType string) (*PresignedUpload, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("%w: object storage is not configured", domain.ErrConfiguration)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	fileType, ok := domain.AllowedExtensions[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, filename)
	}
	if contentType == "" {
		contentType = domain.AllowedFileTypes[fileType]
	}

	key := fmt.Sprintf("%s%s/%s", s.s3cfg.UploadPrefix, uuid.New(), filepath.Base(filename))
	url, err := s.storage.GetPresignedPutURL(ctx, s.s3cfg.Bucket, key, contentType, s.s3cfg.PresignExpiry)
	if err != nil {
		return nil, fmt.Errorf("presigning upload for %s: %w", filename, err)
	}

	return &PresignedUpload{Key: key, URL: url}, nil
}

func readMultipartFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", header.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", header.Filename, err)
	}
	return data, nil
}
