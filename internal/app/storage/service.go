package storage

import (
	"context"
	"time"
)

// ServiceConfig holds the configuration required to connect to the archive bucket.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// ArchiveService is the interface for the optional payload archive.
// Completed chunk transfers are written here so recipients can fetch large
// payloads out of band instead of receiving them inline.
type ArchiveService interface {
	// Upload stores a reassembled payload under the given key.
	Upload(ctx context.Context, key string, contentType string, body []byte) error

	// PresignDownload generates a pre-signed URL for fetching an archived payload.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Delete removes the archived payload specified by the given key.
	Delete(ctx context.Context, key string) error
}

// NewArchiveService is the factory function for ArchiveService.
// Currently only S3-compatible backends are supported.
func NewArchiveService(cfg ServiceConfig) (ArchiveService, error) {
	return newS3Client(cfg)
}
