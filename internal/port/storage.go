package port

import (
	"context"
	"io"
	"time"
)

// UploadInput encapsulates the parameters needed to upload an object.
type UploadInput struct {
	Bucket      string
	Key         string
	Body        io.Reader
	ContentType string
	Size        int64
}

// UploadOutput contains the result of a successful upload.
type UploadOutput struct {
	Location string
	ETag     string
}

// StoredObject describes one object found by a listing.
type StoredObject struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStorage abstracts cloud object storage operations.
type ObjectStorage interface {
	Upload(ctx context.Context, input UploadInput) (*UploadOutput, error)
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	Delete(ctx context.Context, bucket, key string) error
	List(ctx context.Context, bucket, prefix string) ([]StoredObject, error)
	GetPresignedURL(ctx context.Context, bucket, key string, expirySeconds int64) (string, error)
	GetPresignedPutURL(ctx context.Context, bucket, key, contentType string, expirySeconds int64) (string, error)
}
