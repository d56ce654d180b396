package executor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rezkam/mono/internal/domain"
	"github.com/rezkam/mono/internal/jobcache"
	"github.com/rezkam/mono/internal/jobmanager"
)

type memStore struct {
	mu   sync.Mutex
	jobs map[string]domain.Job
}

func newMemStore() *memStore { return &memStore{jobs: make(map[string]domain.Job)} }

func (s *memStore) LoadAll(context.Context) (map[string]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.Job, len(s.jobs))
	for k, v := range s.jobs {
		out[k] = v
	}
	return out, nil
}

func (s *memStore) Save(_ context.Context, cache map[string]domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = make(map[string]domain.Job, len(cache))
	for k, v := range cache {
		s.jobs[k] = v
	}
	return nil
}

func (s *memStore) GetByID(_ context.Context, id string) (domain.Job, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	return j, ok, nil
}

func (s *memStore) ByStatus(_ context.Context, status domain.Status, limit int) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Job
	for _, j := range s.jobs {
		if j.Status == status {
			out = append(out, j)
		}
	}
	return out, nil
}

func (s *memStore) ByAccount(_ context.Context, accountID string, status domain.Status) ([]domain.Job, error) {
	return nil, nil
}

func (s *memStore) Close() error { return nil }

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(eventType string, _ any, _ string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

func noopSave(context.Context) error { return nil }

func okCallback(domain.Platform) domain.PostCallback {
	return func(accountID, content string) (domain.PostResult, error) {
		return domain.PostResult{OK: true, ThreadID: "thread-1"}, nil
	}
}

func failingCallback(domain.Platform) domain.PostCallback {
	return func(accountID, content string) (domain.PostResult, error) {
		return domain.PostResult{OK: false, Error: "automation reported failure"}, nil
	}
}

func panicCallback(domain.Platform) domain.PostCallback {
	return func(accountID, content string) (domain.PostResult, error) {
		panic("boom")
	}
}

func TestDispatchSuccessMarksCompleted(t *testing.T) {
	cache := jobcache.New()
	store := newMemStore()
	mgr := jobmanager.New(cache, func(ctx context.Context) error { return store.Save(ctx, cache.SnapshotMap()) })
	pub := &recordingPublisher{}

	now := time.Now().UTC()
	cache.Set(domain.Job{JobID: "j1", Status: domain.StatusScheduled, Scheduled: now.Add(-time.Second), MaxRetries: 2})

	exec := New(cache, store, mgr, okCallback, pub, DefaultConfig())
	dispatched, err := exec.tick(context.Background())
	require.NoError(t, err)
	require.True(t, dispatched)

	j, _ := cache.Get("j1")
	require.Equal(t, domain.StatusCompleted, j.Status)
	require.Equal(t, "thread-1", j.ThreadID)
	require.NotNil(t, j.CompletedAt)
	require.Contains(t, pub.events, "job.updated")
	require.Contains(t, pub.events, "job.completed")
}

func TestDispatchTransientFailureReschedules(t *testing.T) {
	cache := jobcache.New()
	store := newMemStore()
	mgr := jobmanager.New(cache, func(ctx context.Context) error { return store.Save(ctx, cache.SnapshotMap()) })

	now := time.Now().UTC()
	cache.Set(domain.Job{JobID: "j1", Status: domain.StatusScheduled, Scheduled: now.Add(-time.Second), MaxRetries: 2, RetryCount: 0})

	exec := New(cache, store, mgr, failingCallback, nil, DefaultConfig())
	_, err := exec.tick(context.Background())
	require.NoError(t, err)

	j, _ := cache.Get("j1")
	require.Equal(t, domain.StatusScheduled, j.Status)
	require.Equal(t, 1, j.RetryCount)
	require.True(t, j.Scheduled.After(now))
	require.Nil(t, j.StartedAt)
}

func TestDispatchHardFailureAfterRetriesExhausted(t *testing.T) {
	cache := jobcache.New()
	store := newMemStore()
	mgr := jobmanager.New(cache, func(ctx context.Context) error { return store.Save(ctx, cache.SnapshotMap()) })

	now := time.Now().UTC()
	cache.Set(domain.Job{JobID: "j1", Status: domain.StatusScheduled, Scheduled: now.Add(-time.Second), MaxRetries: 0, RetryCount: 0})

	exec := New(cache, store, mgr, failingCallback, nil, DefaultConfig())
	_, err := exec.tick(context.Background())
	require.NoError(t, err)

	j, _ := cache.Get("j1")
	require.Equal(t, domain.StatusFailed, j.Status)
	require.NotEmpty(t, j.Error)
}

func TestDispatchPanicTreatedAsFailure(t *testing.T) {
	cache := jobcache.New()
	store := newMemStore()
	mgr := jobmanager.New(cache, func(ctx context.Context) error { return store.Save(ctx, cache.SnapshotMap()) })

	now := time.Now().UTC()
	cache.Set(domain.Job{JobID: "j1", Status: domain.StatusScheduled, Scheduled: now.Add(-time.Second), MaxRetries: 0})

	exec := New(cache, store, mgr, panicCallback, nil, DefaultConfig())
	_, err := exec.tick(context.Background())
	require.NoError(t, err)

	j, _ := cache.Get("j1")
	require.Equal(t, domain.StatusFailed, j.Status)
	require.Contains(t, j.Error, "panic")
}

func TestTickNoReadyJobsDoesNotDispatch(t *testing.T) {
	cache := jobcache.New()
	store := newMemStore()
	mgr := jobmanager.New(cache, func(ctx context.Context) error { return store.Save(ctx, cache.SnapshotMap()) })

	now := time.Now().UTC()
	cache.Set(domain.Job{JobID: "j1", Status: domain.StatusScheduled, Scheduled: now.Add(time.Hour)})

	exec := New(cache, store, mgr, okCallback, nil, DefaultConfig())
	dispatched, err := exec.tick(context.Background())
	require.NoError(t, err)
	require.False(t, dispatched)
}

func TestOverdueThresholdSkipsStaleJobs(t *testing.T) {
	cache := jobcache.New()
	store := newMemStore()
	mgr := jobmanager.New(cache, func(ctx context.Context) error { return store.Save(ctx, cache.SnapshotMap()) })

	now := time.Now().UTC()
	cache.Set(domain.Job{JobID: "stale", Status: domain.StatusScheduled, Scheduled: now.Add(-2 * time.Hour)})

	threshold := time.Hour
	cfg := DefaultConfig()
	cfg.OverdueThreshold = &threshold

	exec := New(cache, store, mgr, okCallback, nil, cfg)
	dispatched, err := exec.tick(context.Background())
	require.NoError(t, err)
	require.False(t, dispatched)
}
