package file

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/mono/internal/domain"
	"github.com/rezkam/mono/internal/storage/storagetest"
)

func TestFileStoreCompliance(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	storagetest.Run(t, s)
}

func TestFileStoreCrossFilePartitionMove(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	scheduled := time.Now().UTC()
	require.NoError(t, s.Save(ctx, map[string]domain.Job{
		"j1": {JobID: "j1", Content: "hi", Scheduled: scheduled, Status: domain.StatusScheduled, Priority: domain.PriorityNormal, Platform: domain.PlatformThreads, CreatedAt: scheduled},
	}))

	completedAt := scheduled.Add(time.Hour)
	require.NoError(t, s.Save(ctx, map[string]domain.Job{
		"j1": {JobID: "j1", Content: "hi", Scheduled: scheduled, Status: domain.StatusCompleted, Priority: domain.PriorityNormal, Platform: domain.PlatformThreads, CreatedAt: scheduled, CompletedAt: &completedAt},
	}))

	all, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Contains(t, all, "j1")
	assert.Equal(t, domain.StatusCompleted, all["j1"].Status)

	// The old scheduled-partition file should have been cleaned up; LoadAll
	// over every remaining file must report the job exactly once.
	assert.Len(t, all, 1)
}
