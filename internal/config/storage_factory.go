package config

import (
	"context"
	"fmt"

	"github.com/rezkam/mono/internal/storage"
	"github.com/rezkam/mono/internal/storage/file"
	"github.com/rezkam/mono/internal/storage/gcs"
	"github.com/rezkam/mono/internal/storage/postgres"
	"github.com/rezkam/mono/internal/storage/sqlite"
)

// NewStorage builds the storage.Storage backend named by c.Backend.
func (c StorageConfig) NewStorage(ctx context.Context) (storage.Storage, error) {
	switch c.Backend {
	case "", "postgres":
		return postgres.New(ctx, postgres.Config{
			DSN:             c.PostgresDSN,
			MaxOpenConns:    c.PostgresMaxOpenConns,
			MaxIdleConns:    c.PostgresMaxIdleConns,
			ConnMaxLifetime: c.PostgresConnMaxLifetime,
			ConnMaxIdleTime: c.PostgresConnMaxIdleTime,
		})
	case "sqlite":
		return sqlite.New(c.SQLitePath)
	case "file":
		return file.New(c.FileDir)
	case "gcs":
		return gcs.New(ctx, c.GCSBucket)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStorageBackend, c.Backend)
	}
}
