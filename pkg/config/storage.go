package config

import (
	"context"
	"fmt"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/blob"
	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/metrics"
	"github.com/marmos91/dittodrive/pkg/metrics/prometheus"
	"github.com/marmos91/dittodrive/pkg/store"
)

// CreateBlobStore creates a blob store instance from configuration.
//
// The fs backend stores content under a local directory; the s3 backend
// stores content in an S3-compatible bucket that must already exist.
func CreateBlobStore(ctx context.Context, cfg StorageConfig, storageMetrics metrics.StorageMetrics) (blob.Store, error) {
	switch cfg.Backend {
	case "fs", "":
		return createFSBlobStore(cfg.FS, storageMetrics)
	case "s3":
		return createS3BlobStore(ctx, cfg.S3, storageMetrics)
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Backend)
	}
}

// createFSBlobStore creates a filesystem-backed blob store.
func createFSBlobStore(cfg FSStorageConfig, storageMetrics metrics.StorageMetrics) (blob.Store, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("fs storage requires root to be set")
	}

	return blob.NewFSStore(blob.FSConfig{
		Root:    cfg.Root,
		Metrics: storageMetrics,
	})
}

// createS3BlobStore creates an S3-backed blob store.
func createS3BlobStore(ctx context.Context, cfg S3StorageConfig, storageMetrics metrics.StorageMetrics) (blob.Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 storage requires bucket to be set")
	}

	client, err := blob.NewClientFromConfig(
		ctx,
		cfg.Endpoint,
		cfg.Region,
		cfg.AccessKeyID,
		cfg.SecretAccessKey,
		cfg.ForcePathStyle,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	return blob.NewS3Store(ctx, blob.S3Config{
		Client:    client,
		Bucket:    cfg.Bucket,
		KeyPrefix: cfg.KeyPrefix,
		Metrics:   storageMetrics,
	})
}

// InitializeEngine creates a fully configured storage engine from the
// provided configuration.
//
// This function orchestrates the initialization process:
//  1. Creates the blob store from cfg.Storage (fs or s3)
//  2. Wires storage metrics when metrics are enabled
//  3. Builds the engine on top of the metadata store
//
// The resulting engine is ready to serve uploads, downloads, and folder
// operations.
func InitializeEngine(ctx context.Context, cfg *Config, st store.Store) (*drive.Engine, error) {
	logger.Debug("Initializing storage engine", "backend", cfg.Storage.Backend)

	var storageMetrics metrics.StorageMetrics
	if metrics.IsEnabled() {
		storageMetrics = prometheus.NewStorageMetrics()
	}

	blobs, err := CreateBlobStore(ctx, cfg.Storage, storageMetrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob store: %w", err)
	}

	engine, err := drive.New(drive.Config{
		Store:   st,
		Blobs:   blobs,
		Metrics: storageMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage engine: %w", err)
	}

	logger.Info("Storage engine initialized", "backend", cfg.Storage.Backend)
	return engine, nil
}

// InitializeMetrics initializes the global metrics registry and returns a
// metrics server when metrics are enabled.
//
// Returns nil when metrics are disabled: components then receive no-op
// collectors and no metrics server is started.
func InitializeMetrics(cfg MetricsConfig) *metrics.Server {
	if !cfg.Enabled {
		return nil
	}

	metrics.InitRegistry()

	server := metrics.NewServer(metrics.ServerConfig{
		Port: cfg.Port,
	})

	logger.Debug("Metrics registry initialized", "port", server.Port())
	return server
}
