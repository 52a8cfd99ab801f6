// Package s3 implements the blob store against S3-compatible object storage.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/applytrack/applytrack-backend/internal/config"
	"github.com/applytrack/applytrack-backend/internal/domain"
)

// Store reads and writes attachment blobs by opaque storage key.
// All failures wrap domain.ErrStorageFailure; callers decide whether a
// failure is fatal (uploads) or tolerated (post-delete cleanup).
type Store struct {
	client *s3.Client
	bucket string
}

// New creates a Store configured for S3-compatible storage. A custom
// endpoint with path-style addressing covers MinIO and Hetzner-style
// providers; leaving Endpoint empty targets AWS proper.
func New(cfg config.StorageConfig) *Store {
	opts := s3.Options{
		Region: cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		),
		UsePathStyle: cfg.UsePathStyle,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	return &Store{
		client: s3.New(opts),
		bucket: cfg.Bucket,
	}
}

// Put uploads a blob under the given key.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object %q: %w: %w", key, domain.ErrStorageFailure, err)
	}
	return nil
}

// Get downloads the blob stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %q: %w: %w", key, domain.ErrStorageFailure, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %q: %w: %w", key, domain.ErrStorageFailure, err)
	}
	return data, nil
}

// Delete removes the blob stored under key. Deleting a key that no longer
// exists is not an error: S3 DeleteObject is idempotent, which is what the
// best-effort cleanup path wants.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %q: %w: %w", key, domain.ErrStorageFailure, err)
	}
	return nil
}
