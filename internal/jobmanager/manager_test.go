package jobmanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rezkam/mono/internal/domain"
	"github.com/rezkam/mono/internal/jobcache"
)

func noopSave(context.Context) error { return nil }

func TestManagerAddThenList(t *testing.T) {
	cache := jobcache.New()
	m := New(cache, noopSave)

	future := time.Now().UTC().Add(time.Hour)
	id, err := m.Add(context.Background(), "acct-1", "hello world", future, domain.PriorityHigh, domain.PlatformThreads, 3, "")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	jobs := m.List("acct-1", "")
	require.Len(t, jobs, 1)
	require.Equal(t, domain.StatusScheduled, jobs[0].Status)
	require.Contains(t, jobs[0].StatusMessage, "added to scheduler")
}

func TestManagerAddRejectsDuplicate(t *testing.T) {
	cache := jobcache.New()
	m := New(cache, noopSave)
	future := time.Now().UTC().Add(time.Hour)

	_, err := m.Add(context.Background(), "acct-1", "same post", future, domain.PriorityNormal, domain.PlatformThreads, 0, "")
	require.NoError(t, err)

	_, err = m.Add(context.Background(), "acct-1", "SAME   post", future.Add(time.Minute), domain.PriorityNormal, domain.PlatformThreads, 0, "")
	require.Error(t, err)
	var dupErr *domain.DuplicateContentError
	require.True(t, errors.As(err, &dupErr))
}

func TestManagerAddRejectsBadScheduleTime(t *testing.T) {
	cache := jobcache.New()
	m := New(cache, noopSave)

	past := time.Now().UTC().Add(-48 * time.Hour)
	_, err := m.Add(context.Background(), "acct-1", "hello", past, domain.PriorityNormal, domain.PlatformThreads, 0, "")
	require.ErrorIs(t, err, domain.ErrInvalidScheduleTime)
}

func TestManagerRemoveUnknownJob(t *testing.T) {
	cache := jobcache.New()
	m := New(cache, noopSave)
	err := m.Remove(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestManagerRemoveInvokesSave(t *testing.T) {
	cache := jobcache.New()
	saved := false
	m := New(cache, func(context.Context) error {
		saved = true
		return nil
	})
	cache.Set(domain.Job{JobID: "j1", Status: domain.StatusScheduled})

	require.NoError(t, m.Remove(context.Background(), "j1"))
	require.True(t, saved)
	_, ok := cache.Get("j1")
	require.False(t, ok)
}

func TestManagerReadyJobsSortedByPriorityThenSchedule(t *testing.T) {
	cache := jobcache.New()
	m := New(cache, noopSave)
	now := time.Now().UTC()

	cache.Set(domain.Job{JobID: "low", Status: domain.StatusScheduled, Priority: domain.PriorityLow, Scheduled: now.Add(-time.Minute)})
	cache.Set(domain.Job{JobID: "high", Status: domain.StatusScheduled, Priority: domain.PriorityHigh, Scheduled: now.Add(-2 * time.Minute)})
	cache.Set(domain.Job{JobID: "urgent", Status: domain.StatusScheduled, Priority: domain.PriorityUrgent, Scheduled: now.Add(-3 * time.Minute)})

	ready := m.ReadyJobs(now)
	require.Len(t, ready, 3)
	require.Equal(t, "urgent", ready[0].JobID)
	require.Equal(t, "high", ready[1].JobID)
	require.Equal(t, "low", ready[2].JobID)
}

func TestManagerCleanupExpired(t *testing.T) {
	cache := jobcache.New()
	var saveCalls int
	m := New(cache, func(context.Context) error {
		saveCalls++
		return nil
	})
	now := time.Now().UTC()

	cache.Set(domain.Job{JobID: "stale", Status: domain.StatusScheduled, Scheduled: now.Add(-25 * time.Hour)})
	cache.Set(domain.Job{JobID: "fresh", Status: domain.StatusScheduled, Scheduled: now.Add(-time.Hour)})

	n, err := m.CleanupExpired(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, 1, saveCalls)

	stale, _ := cache.Get("stale")
	require.Equal(t, domain.StatusExpired, stale.Status)
	fresh, _ := cache.Get("fresh")
	require.Equal(t, domain.StatusScheduled, fresh.Status)
}

func TestManagerCleanupExpiredNoAffected(t *testing.T) {
	cache := jobcache.New()
	var saveCalls int
	m := New(cache, func(context.Context) error {
		saveCalls++
		return nil
	})
	n, err := m.CleanupExpired(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.Equal(t, 0, saveCalls)
}
