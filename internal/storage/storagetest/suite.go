// Package storagetest runs one behavioral contract against any Storage
// implementation, so every backend (file, sqlite, postgres, gcs) is held to
// the same observable semantics described in §4.B.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/mono/internal/domain"
	"github.com/rezkam/mono/internal/storage"
)

// Run exercises the shared Storage contract against backend, freshly
// constructed and empty.
func Run(t *testing.T, backend storage.Storage) {
	t.Helper()
	ctx := context.Background()

	t.Run("LoadAllEmpty", func(t *testing.T) {
		all, err := backend.LoadAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("SaveThenLoadRoundTrip", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Second)
		jobs := map[string]domain.Job{
			"a": {
				JobID: "a", AccountID: "acct", Content: "hello",
				Scheduled: now, Priority: domain.PriorityHigh, Status: domain.StatusScheduled,
				Platform: domain.PlatformThreads, MaxRetries: 3, CreatedAt: now,
			},
		}
		require.NoError(t, backend.Save(ctx, jobs))

		all, err := backend.LoadAll(ctx)
		require.NoError(t, err)
		require.Contains(t, all, "a")
		got := all["a"]
		assert.Equal(t, "hello", got.Content)
		assert.Equal(t, domain.PriorityHigh, got.Priority)
		assert.Equal(t, domain.StatusScheduled, got.Status)
		assert.WithinDuration(t, now, got.Scheduled, time.Second)
	})

	t.Run("SavePrunesMissingKeys", func(t *testing.T) {
		now := time.Now().UTC()
		require.NoError(t, backend.Save(ctx, map[string]domain.Job{
			"keep": {JobID: "keep", Content: "keep me", Scheduled: now, Status: domain.StatusScheduled, Priority: domain.PriorityNormal, Platform: domain.PlatformThreads, CreatedAt: now},
			"drop": {JobID: "drop", Content: "drop me", Scheduled: now, Status: domain.StatusScheduled, Priority: domain.PriorityNormal, Platform: domain.PlatformThreads, CreatedAt: now},
		}))

		require.NoError(t, backend.Save(ctx, map[string]domain.Job{
			"keep": {JobID: "keep", Content: "keep me", Scheduled: now, Status: domain.StatusScheduled, Priority: domain.PriorityNormal, Platform: domain.PlatformThreads, CreatedAt: now},
		}))

		all, err := backend.LoadAll(ctx)
		require.NoError(t, err)
		assert.Contains(t, all, "keep")
		assert.NotContains(t, all, "drop")
	})

	t.Run("SaveEmptyDeletesAll", func(t *testing.T) {
		now := time.Now().UTC()
		require.NoError(t, backend.Save(ctx, map[string]domain.Job{
			"x": {JobID: "x", Content: "x", Scheduled: now, Status: domain.StatusScheduled, Priority: domain.PriorityNormal, Platform: domain.PlatformThreads, CreatedAt: now},
		}))
		require.NoError(t, backend.Save(ctx, map[string]domain.Job{}))

		all, err := backend.LoadAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("GetByIDMissing", func(t *testing.T) {
		_, ok, err := backend.GetByID(ctx, "does-not-exist")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ByStatusAndByAccount", func(t *testing.T) {
		now := time.Now().UTC()
		require.NoError(t, backend.Save(ctx, map[string]domain.Job{
			"a": {JobID: "a", AccountID: "acct1", Content: "a", Scheduled: now, Status: domain.StatusScheduled, Priority: domain.PriorityNormal, Platform: domain.PlatformThreads, CreatedAt: now},
			"b": {JobID: "b", AccountID: "acct2", Content: "b", Scheduled: now, Status: domain.StatusCompleted, Priority: domain.PriorityNormal, Platform: domain.PlatformThreads, CreatedAt: now, CompletedAt: &now},
		}))

		scheduled, err := backend.ByStatus(ctx, domain.StatusScheduled, 0)
		require.NoError(t, err)
		assert.Len(t, scheduled, 1)
		assert.Equal(t, "a", scheduled[0].JobID)

		acct1, err := backend.ByAccount(ctx, "acct1", "")
		require.NoError(t, err)
		assert.Len(t, acct1, 1)
	})
}
