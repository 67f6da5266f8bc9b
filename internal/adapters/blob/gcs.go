package blob

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSConfig holds configuration for the GCS backend.
type GCSConfig struct {
	Bucket string
	Prefix string
	// Endpoint targets an emulator; authentication is skipped when set.
	Endpoint string
}

// GCS stores objects in Google Cloud Storage.
type GCS struct {
	client *gcs.Client
	bucket string
	prefix string
}

// NewGCS creates a GCS-backed Store using Application Default Credentials.
func NewGCS(ctx context.Context, cfg GCSConfig) (*GCS, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs bucket must not be empty")
	}
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCS{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Get implements Store.
func (s *GCS) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(s.prefix + key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("gcs read %s: %w", key, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Put implements Store.
func (s *GCS) Put(ctx context.Context, key string, data []byte) error {
	w := s.client.Bucket(s.bucket).Object(s.prefix + key).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs close %s: %w", key, err)
	}
	return nil
}

// Close releases the client.
func (s *GCS) Close() error {
	return s.client.Close()
}
