package blob

import (
	"context"
	"fmt"

	"github.com/sem0ark/projecthub/internal/config"
)

// NewStoreFromConfig builds the blob backend named by the configuration.
func NewStoreFromConfig(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageBackend {
	case config.BackendLocal:
		return NewLocalStore(cfg.FileRoot)
	case config.BackendS3:
		return NewS3Store(ctx, S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Prefix:    "files",
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
	}
}
