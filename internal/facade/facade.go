// Package facade implements SchedulerFacade (spec component 4.H): the
// single entry point every external adapter (HTTP, websocket, cmd/server)
// goes through. It owns the one JobCache and wires JobManager, Executor,
// and Recovery to it by identity, eliminating the cyclic-reference problem
// the source had between those three components (§9).
package facade

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rezkam/mono/internal/domain"
	"github.com/rezkam/mono/internal/executor"
	"github.com/rezkam/mono/internal/jobcache"
	"github.com/rezkam/mono/internal/jobmanager"
	"github.com/rezkam/mono/internal/recovery"
	"github.com/rezkam/mono/internal/storage"
)

// reloadThrottle bounds how often a non-forced reloadJobs call is allowed to
// actually touch the cache, per §4.H.
const reloadThrottle = 2 * time.Second

// Status is the response shape for the scheduler status endpoint.
type Status struct {
	Running         bool `json:"running"`
	ActiveJobsCount int  `json:"activeJobsCount"`
}

var (
	instance *Facade
	once     sync.Once
)

// Facade is the process-wide scheduler singleton.
type Facade struct {
	mu sync.Mutex

	cache   *jobcache.Cache
	store   storage.Storage
	manager *jobmanager.Manager
	pub     executor.Publisher
	execCfg executor.Config

	exec       *executor.Executor
	cancelExec context.CancelFunc
	running    bool

	lastSaveTime time.Time
}

// New constructs the facade. Per §4.H, exactly one Facade exists per
// process: the first call wins and subsequent calls return that same
// instance, regardless of the arguments passed.
func New(store storage.Storage, pub executor.Publisher, execCfg executor.Config) *Facade {
	once.Do(func() {
		cache := jobcache.New()
		instance = &Facade{
			cache:   cache,
			store:   store,
			pub:     pub,
			execCfg: execCfg,
		}
		instance.manager = jobmanager.New(cache, instance.save)
	})
	return instance
}

func (f *Facade) save(ctx context.Context) error {
	if err := f.store.Save(ctx, f.cache.SnapshotMap()); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	f.lastSaveTime = time.Now().UTC()
	return nil
}

// Bootstrap loads storage into the cache and runs the start-up recovery
// sweep. Callers invoke this once before Start.
func (f *Facade) Bootstrap(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, err := f.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("facade: bootstrap load: %w", err)
	}
	f.cache.Replace(stored)

	return recovery.RecoverAllRunning(ctx, f.cache, f.save)
}

// Start launches the Executor exactly once; repeated calls while running
// are no-ops.
func (f *Facade) Start(callbackFactory domain.PostCallbackFactory) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	f.cancelExec = cancel
	f.exec = executor.New(f.cache, f.store, f.manager, callbackFactory, f.pub, f.execCfg)
	f.running = true

	go f.exec.Run(ctx)
}

// Stop signals cancellation, awaits the Executor's exit, and saves. Idempotent.
func (f *Facade) Stop() {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return
	}
	cancel := f.cancelExec
	exec := f.exec
	f.running = false
	f.mu.Unlock()

	cancel()
	<-exec.Done()
}

// StatusSnapshot returns {running, activeJobsCount}.
func (f *Facade) StatusSnapshot() Status {
	f.mu.Lock()
	running := f.running
	f.mu.Unlock()

	var active int
	for _, j := range f.cache.Snapshot() {
		if j.Status == domain.StatusPending || j.Status == domain.StatusScheduled || j.Status == domain.StatusRunning {
			active++
		}
	}
	return Status{Running: running, ActiveJobsCount: active}
}

// AddJob validates and schedules a new job.
func (f *Facade) AddJob(ctx context.Context, accountID, content string, scheduled time.Time, priority domain.Priority, platform domain.Platform, maxRetries int, linkAff string) (string, error) {
	return f.manager.Add(ctx, accountID, content, scheduled, priority, platform, maxRetries, linkAff)
}

// RemoveJob deletes a job by id.
func (f *Facade) RemoveJob(ctx context.Context, jobID string) error {
	return f.manager.Remove(ctx, jobID)
}

// ListJobs filters the live cache by accountID/status.
func (f *Facade) ListJobs(accountID string, status domain.Status) []domain.Job {
	return f.manager.List(accountID, status)
}

// GetActiveJobs returns every job in PENDING, SCHEDULED, or RUNNING.
func (f *Facade) GetActiveJobs() []domain.Job {
	var out []domain.Job
	for _, j := range f.manager.List("", "") {
		if j.Status == domain.StatusPending || j.Status == domain.StatusScheduled || j.Status == domain.StatusRunning {
			out = append(out, j)
		}
	}
	return out
}

// GetJob returns a single job by id.
func (f *Facade) GetJob(jobID string) (domain.Job, bool) {
	return f.cache.Get(jobID)
}

// CleanupExpired runs the expiry sweep on demand.
func (f *Facade) CleanupExpired(ctx context.Context) (int, error) {
	return f.manager.CleanupExpired(ctx, time.Now().UTC())
}

// RecoverStuckJobs runs the periodic stuck-job sweep on demand.
func (f *Facade) RecoverStuckJobs(ctx context.Context) (int, error) {
	return recovery.RecoverStuck(ctx, f.cache, f.execCfg.WithDefaults().MaxRunningMinutes, f.save)
}

// ReloadJobs reconciles storage against the live cache. A non-forced call
// within reloadThrottle of the last save is a no-op.
func (f *Facade) ReloadJobs(ctx context.Context, force bool) error {
	f.mu.Lock()
	if !force && time.Since(f.lastSaveTime) < reloadThrottle {
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()

	stored, err := f.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	merged := storage.Merge(stored, f.cache.SnapshotMap(), force)
	f.cache.Replace(merged)
	return nil
}
