// Package storage defines the durable-persistence contract (spec component
// 4.B) and the load-time merge policy that reconciles a partially-populated
// JobCache against it. Concrete backends live in the postgres, file,
// sqlite, and gcs subpackages; the factory that picks one at startup lives
// in internal/config.
package storage

import (
	"context"

	"github.com/rezkam/mono/internal/domain"
)

// Storage is the transactional persistence contract every backend
// implements. LoadAll and Save are mandatory; the query helpers are
// optional conveniences that a backend may implement directly or derive
// from LoadAll plus filtering.
type Storage interface {
	// LoadAll returns every persisted job, keyed by jobID. Missing
	// optional fields materialise as the zero values named in §4.B.
	LoadAll(ctx context.Context) (map[string]domain.Job, error)

	// Save performs the upsert-then-prune step described in §4.B: every
	// job in cache is upserted and every persisted row whose key is absent
	// from cache is deleted. An empty cache deletes every row. The postgres
	// and sqlite backends run it in one database transaction; the file and
	// gcs backends write file by file (or object by object) and do not roll
	// back earlier writes when a later one fails.
	Save(ctx context.Context, cache map[string]domain.Job) error

	// GetByID returns a single job, or ok=false if absent.
	GetByID(ctx context.Context, jobID string) (domain.Job, bool, error)

	// ByStatus returns jobs in the given status, optionally bounded by
	// limit (limit<=0 means unbounded).
	ByStatus(ctx context.Context, status domain.Status, limit int) ([]domain.Job, error)

	// ByAccount returns jobs for the given account, optionally filtered
	// further by status (empty status means any).
	ByAccount(ctx context.Context, accountID string, status domain.Status) ([]domain.Job, error)

	// Close releases any pooled resources the backend holds.
	Close() error
}
