// Package executor runs the single background dispatch loop (spec
// component 4.F): the strict single-writer that reloads from storage,
// sweeps for expired and stuck jobs, selects the next ready job by
// priority, dispatches it through the platform callback, and records the
// outcome. Structured logging and the panic-recovery-around-the-unit-of-work
// pattern are adapted from the teacher's application/worker package; the
// claim/heartbeat/ownership machinery there assumes multiple competing
// workers and has no place in this single-writer design.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/rezkam/mono/internal/domain"
	"github.com/rezkam/mono/internal/jobcache"
	"github.com/rezkam/mono/internal/jobmanager"
	"github.com/rezkam/mono/internal/recovery"
	"github.com/rezkam/mono/internal/storage"
)

// Publisher is the subset of FanOut the executor needs: best-effort event
// broadcast. Defined here (consumer-owned) rather than in the fanout
// package, since the executor only ever needs to publish, never connect.
type Publisher interface {
	Publish(eventType string, payload any, accountID string)
}

// noopPublisher discards every event; used when no Publisher is wired.
type noopPublisher struct{}

func (noopPublisher) Publish(string, any, string) {}

// Executor is the scheduler's single dispatch loop.
type Executor struct {
	cache           *jobcache.Cache
	store           storage.Storage
	manager         *jobmanager.Manager
	callbackFactory domain.PostCallbackFactory
	publisher       Publisher
	cfg             Config

	lastSaveTime time.Time
	lastReload   time.Time

	done chan struct{}
}

// New constructs an Executor. publisher may be nil, in which case events
// are discarded.
func New(cache *jobcache.Cache, store storage.Storage, manager *jobmanager.Manager, callbackFactory domain.PostCallbackFactory, publisher Publisher, cfg Config) *Executor {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &Executor{
		cache:           cache,
		store:           store,
		manager:         manager,
		callbackFactory: callbackFactory,
		publisher:       publisher,
		cfg:             cfg.WithDefaults(),
		done:            make(chan struct{}),
	}
}

// Done returns a channel closed once Run has returned.
func (e *Executor) Done() <-chan struct{} {
	return e.done
}

// Run drives the loop until ctx is cancelled, then performs one final save
// and returns. It never returns an error for ordinary operation; storage
// failures are logged and the loop continues on the next tick, since a
// transient storage outage should not kill the scheduler process.
func (e *Executor) Run(ctx context.Context) error {
	defer close(e.done)

	now := time.Now().UTC()
	e.lastSaveTime = now
	e.lastReload = now

	for {
		dispatched, err := e.tick(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "executor: tick failed", "error", err)
		}

		var sleep time.Duration
		if dispatched {
			sleep = e.cfg.PostProcessingDelay + e.cfg.CheckInterval
		} else {
			sleep = e.cfg.CheckInterval
		}

		select {
		case <-ctx.Done():
			e.finalSave(context.Background())
			return nil
		case <-time.After(sleep):
		}
	}
}

func (e *Executor) finalSave(ctx context.Context) {
	if err := e.save(ctx); err != nil {
		slog.ErrorContext(ctx, "executor: final save on shutdown failed", "error", err)
	}
}

// tick runs one iteration of the §4.F algorithm. It returns dispatched=true
// if a job was picked up, so Run can decide whether to apply
// postProcessingDelay.
func (e *Executor) tick(ctx context.Context) (dispatched bool, err error) {
	now := time.Now().UTC()

	if e.shouldReload(now) {
		if rerr := e.reload(ctx, now); rerr != nil {
			slog.ErrorContext(ctx, "executor: reload failed", "error", rerr)
		}
	}

	if _, cerr := e.manager.CleanupExpired(ctx, now); cerr != nil {
		slog.ErrorContext(ctx, "executor: expiry sweep failed", "error", cerr)
	}

	if _, rerr := recovery.RecoverStuck(ctx, e.cache, e.cfg.MaxRunningMinutes, e.save); rerr != nil {
		slog.ErrorContext(ctx, "executor: stuck recovery failed", "error", rerr)
	}

	job, ok := e.selectReady(now)
	if !ok {
		return false, nil
	}

	if derr := e.dispatch(ctx, job, now); derr != nil {
		return true, derr
	}
	return true, nil
}

func (e *Executor) shouldReload(now time.Time) bool {
	return now.Sub(e.lastSaveTime) >= e.cfg.ReloadCheckDelay && now.Sub(e.lastReload) >= e.cfg.ReloadInterval
}

// reload performs a non-forced loadAll + merge, per §4.B.
func (e *Executor) reload(ctx context.Context, now time.Time) error {
	stored, err := e.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	merged := storage.Merge(stored, e.cache.SnapshotMap(), false)
	e.cache.Replace(merged)
	e.lastReload = now
	return nil
}

// selectReady picks the highest-priority, most-recently-scheduled ready job.
func (e *Executor) selectReady(now time.Time) (domain.Job, bool) {
	ready := e.manager.ReadyJobs(now)
	for _, j := range ready {
		if e.cfg.OverdueThreshold != nil && now.Sub(j.Scheduled) > *e.cfg.OverdueThreshold {
			continue
		}
		return j, true
	}
	return domain.Job{}, false
}

// dispatch transitions job to RUNNING, invokes its platform callback, and
// records the outcome. Each state transition is followed by a save, per the
// spec's visibility rule: callers never observe a transition before its
// save commits.
func (e *Executor) dispatch(ctx context.Context, job domain.Job, now time.Time) error {
	job.Status = domain.StatusRunning
	job.StartedAt = &now
	job.StatusMessage = domain.StatusMessageDispatching()
	e.cache.Set(job)

	if err := e.save(ctx); err != nil {
		return fmt.Errorf("executor: save after dispatch: %w", err)
	}
	e.publisher.Publish("job.updated", job, job.AccountID)

	cb := e.callbackFactory(job.Platform)
	result, cbErr := invokeCallback(cb, job.AccountID, job.Content)

	return e.recordOutcome(ctx, job.JobID, result, cbErr)
}

// recordOutcome applies step 7 of §4.F: success, transient failure, or hard
// failure, each followed by a save and event.
func (e *Executor) recordOutcome(ctx context.Context, jobID string, result domain.PostResult, cbErr error) error {
	now := time.Now().UTC()

	var updated domain.Job
	e.cache.Mutate(jobID, func(j domain.Job) domain.Job {
		switch {
		case cbErr == nil && !result.Failed():
			j.Status = domain.StatusCompleted
			j.CompletedAt = &now
			j.ThreadID = result.ThreadID
			j.StatusMessage = domain.StatusMessageCompleted(result.ThreadID)
			j.Error = ""
		case j.RetryCount < j.MaxRetries:
			j.RetryCount++
			backoff := time.Duration(math.Pow(2, float64(j.RetryCount))) * time.Minute
			j.Scheduled = now.Add(backoff)
			j.Status = domain.StatusScheduled
			j.StartedAt = nil
			j.Error = failureReason(result, cbErr)
			j.StatusMessage = domain.StatusMessageRetryScheduled(j.Error, j.Scheduled)
		default:
			j.Status = domain.StatusFailed
			j.Error = failureReason(result, cbErr)
			j.StatusMessage = domain.StatusMessageHardFailed(j.Error)
		}
		updated = j
		return j
	})

	if err := e.save(ctx); err != nil {
		return fmt.Errorf("executor: save after outcome: %w", err)
	}

	if updated.Status == domain.StatusCompleted {
		e.publisher.Publish("job.completed", updated, updated.AccountID)
	} else {
		e.publisher.Publish("job.updated", updated, updated.AccountID)
	}
	return nil
}

func failureReason(result domain.PostResult, cbErr error) string {
	if cbErr != nil {
		return cbErr.Error()
	}
	if result.ShadowFail {
		return "shadow failure: post did not appear after a reported success"
	}
	if result.Error != "" {
		return result.Error
	}
	return "post callback reported failure"
}

func (e *Executor) save(ctx context.Context) error {
	if err := e.store.Save(ctx, e.cache.SnapshotMap()); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	e.lastSaveTime = time.Now().UTC()
	return nil
}
