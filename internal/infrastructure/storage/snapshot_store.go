// Package storage provides object storage for cached dataset snapshots.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	infraconfig "github.com/finops/coa-adapter/internal/infrastructure/config"
)

// SnapshotStore persists one JSON blob per key in an S3-compatible
// bucket. It works against AWS S3, MinIO, RustFS and similar backends.
type SnapshotStore struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

// SnapshotStoreOption is a functional option for configuring SnapshotStore
type SnapshotStoreOption func(*SnapshotStore)

// WithLogger sets a custom logger for SnapshotStore
func WithLogger(logger *zap.Logger) SnapshotStoreOption {
	return func(s *SnapshotStore) {
		s.logger = logger
	}
}

// NewSnapshotStore creates a SnapshotStore from configuration.
func NewSnapshotStore(cfg *infraconfig.CacheConfig, opts ...SnapshotStoreOption) (*SnapshotStore, error) {
	if cfg == nil {
		return nil, errors.New("cache configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("cache bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("cache access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("cache secret key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if endpoint != "" {
		if _, err := url.Parse(endpoint); err != nil {
			return nil, fmt.Errorf("invalid cache endpoint: %w", err)
		}
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	store := &SnapshotStore{
		client: client,
		bucket: cfg.Bucket,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// GetBucket returns the configured bucket name.
func (s *SnapshotStore) GetBucket() string {
	return s.bucket
}

// Read returns the blob stored under key. A missing key is not an
// error; it returns nil so callers treat it as an empty snapshot.
func (s *SnapshotStore) Read(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("storage key is required")
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot body %s: %w", key, err)
	}
	return data, nil
}

// Write stores the blob under key, replacing any previous snapshot.
func (s *SnapshotStore) Write(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return errors.New("storage key is required")
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", key, err)
	}

	s.logger.Info("Snapshot written",
		zap.String("key", key),
		zap.Int("bytes", len(data)))
	return nil
}
