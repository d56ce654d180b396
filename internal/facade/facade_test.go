package facade

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rezkam/mono/internal/domain"
	"github.com/rezkam/mono/internal/executor"
)

func defaultTestConfig() executor.Config {
	return executor.DefaultConfig()
}

type memStore struct {
	mu   sync.Mutex
	jobs map[string]domain.Job
}

func newMemStore() *memStore { return &memStore{jobs: make(map[string]domain.Job)} }

func (m *memStore) Save(_ context.Context, cache map[string]domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make(map[string]domain.Job, len(cache))
	for k, v := range cache {
		cp[k] = v
	}
	m.jobs = cp
	return nil
}

func (m *memStore) LoadAll(_ context.Context) (map[string]domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make(map[string]domain.Job, len(m.jobs))
	for k, v := range m.jobs {
		cp[k] = v
	}
	return cp, nil
}

func (m *memStore) GetByID(_ context.Context, id string) (domain.Job, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	return j, ok, nil
}

func (m *memStore) ByStatus(_ context.Context, status domain.Status, limit int) ([]domain.Job, error) {
	return nil, nil
}

func (m *memStore) ByAccount(_ context.Context, accountID string, status domain.Status) ([]domain.Job, error) {
	return nil, nil
}

func (m *memStore) Close() error { return nil }

type noopPublisher struct{}

func (noopPublisher) Publish(string, any, string) {}

func resetSingleton() {
	instance = nil
	once = sync.Once{}
}

func TestFacadeIsSingleton(t *testing.T) {
	resetSingleton()
	a := New(newMemStore(), noopPublisher{}, defaultTestConfig())
	b := New(newMemStore(), noopPublisher{}, defaultTestConfig())
	require.Same(t, a, b)
}

func TestFacadeAddListRemove(t *testing.T) {
	resetSingleton()
	f := New(newMemStore(), noopPublisher{}, defaultTestConfig())

	id, err := f.AddJob(context.Background(), "acct-1", "hello world", time.Now().Add(time.Hour), domain.PriorityNormal, domain.PlatformThreads, 3, "")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	jobs := f.ListJobs("acct-1", "")
	require.Len(t, jobs, 1)

	require.NoError(t, f.RemoveJob(context.Background(), id))
	require.Empty(t, f.ListJobs("acct-1", ""))
}

func TestFacadeRemoveUnknownReturnsNotFound(t *testing.T) {
	resetSingleton()
	f := New(newMemStore(), noopPublisher{}, defaultTestConfig())
	err := f.RemoveJob(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestFacadeStatusReflectsActiveJobs(t *testing.T) {
	resetSingleton()
	f := New(newMemStore(), noopPublisher{}, defaultTestConfig())
	_, err := f.AddJob(context.Background(), "acct-1", "hello world", time.Now().Add(time.Hour), domain.PriorityNormal, domain.PlatformThreads, 3, "")
	require.NoError(t, err)

	status := f.StatusSnapshot()
	require.False(t, status.Running)
	require.Equal(t, 1, status.ActiveJobsCount)
}

func TestFacadeReloadJobsThrottled(t *testing.T) {
	resetSingleton()
	store := newMemStore()
	f := New(store, noopPublisher{}, defaultTestConfig())
	f.lastSaveTime = time.Now().UTC()

	store.jobs["ghost"] = domain.Job{JobID: "ghost", Status: domain.StatusScheduled}

	require.NoError(t, f.ReloadJobs(context.Background(), false))
	_, ok := f.GetJob("ghost")
	require.False(t, ok, "non-forced reload within throttle window must be a no-op")

	require.NoError(t, f.ReloadJobs(context.Background(), true))
	_, ok = f.GetJob("ghost")
	require.True(t, ok, "forced reload must bypass the throttle")
}
