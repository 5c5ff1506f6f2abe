// Package s3 implements the object store port on any S3-compatible
// backend (AWS S3, MinIO) using presigned URLs only.
package s3

import (
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel"

	"github.com/talentgap/recruitment-evaluator/internal/config"
	"github.com/talentgap/recruitment-evaluator/internal/domain"
)

// Store issues presigned URLs against a single bucket. It never reads or
// writes object bytes itself.
type Store struct {
	client *minio.Client
	bucket string
}

// New builds a Store from configuration. Credentials may be empty when the
// endpoint grants anonymous access (local MinIO in dev).
func New(cfg config.Config) (*Store, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("%w: S3_BUCKET is required", domain.ErrInvalidArgument)
	}
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("op=s3.New: %w", err)
	}
	return &Store{client: client, bucket: cfg.S3Bucket}, nil
}

// PresignPut returns a URL a browser can PUT the object to. The content
// type is pinned so the stored object carries it.
func (s *Store) PresignPut(ctx domain.Context, key, contentType string, expiry time.Duration) (string, error) {
	ctx, span := otel.Tracer("storage.s3").Start(ctx, "PresignPut")
	defer span.End()

	if key == "" {
		return "", fmt.Errorf("%w: empty storage key", domain.ErrInvalidArgument)
	}
	u, err := s.client.Presign(ctx, "PUT", s.bucket, key, expiry, url.Values{
		"Content-Type": []string{contentType},
	})
	if err != nil {
		return "", fmt.Errorf("op=s3.PresignPut: %w: %v", domain.ErrUpstream, err)
	}
	return u.String(), nil
}

// PresignGet returns a URL the pipeline (or the vision model) can read the
// object from.
func (s *Store) PresignGet(ctx domain.Context, key string, expiry time.Duration) (string, error) {
	ctx, span := otel.Tracer("storage.s3").Start(ctx, "PresignGet")
	defer span.End()

	if key == "" {
		return "", fmt.Errorf("%w: empty storage key", domain.ErrInvalidArgument)
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("op=s3.PresignGet: %w: %v", domain.ErrUpstream, err)
	}
	return u.String(), nil
}
