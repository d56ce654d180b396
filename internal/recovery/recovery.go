// Package recovery implements the two start-up and periodic stuck-job
// sweeps (spec component 4.E), adapting the teacher's stuck-job / retry
// accounting style from internal/application/worker into the scheduler's
// own backoff rule rather than the worker package's lease-based recovery
// (that machinery assumes multiple competing workers, which this scheduler
// does not have).
package recovery

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/rezkam/mono/internal/domain"
	"github.com/rezkam/mono/internal/jobcache"
)

// SaveFunc persists the current cache contents durably.
type SaveFunc func(ctx context.Context) error

// RecoverAllRunning resets every RUNNING job found in cache, called once
// from Facade.Bootstrap before the executor loop starts. It always persists
// its changes via save, even if no jobs were touched, matching the "both
// operations MUST be followed by a save" rule.
func RecoverAllRunning(ctx context.Context, cache *jobcache.Cache, save SaveFunc) error {
	now := time.Now().UTC()
	var touched int
	for _, j := range cache.Snapshot() {
		if j.Status != domain.StatusRunning {
			continue
		}
		cache.Mutate(j.JobID, func(cur domain.Job) domain.Job {
			return resetStuckJob(cur, now, true)
		})
		touched++
	}
	slog.InfoContext(ctx, "recovery: start-up sweep complete", "running_jobs_recovered", touched)
	if err := save(ctx); err != nil {
		return fmt.Errorf("recovery: save after start-up sweep: %w", err)
	}
	return nil
}

// RecoverStuck resets RUNNING jobs whose startedAt is older than
// maxRunningMinutes (or absent entirely), called periodically from the
// executor loop. Unlike RecoverAllRunning, it persists via save only when
// at least one job was reset; a sweep that changes nothing does not save.
func RecoverStuck(ctx context.Context, cache *jobcache.Cache, maxRunningMinutes int, save SaveFunc) (int, error) {
	now := time.Now().UTC()
	threshold := time.Duration(maxRunningMinutes) * time.Minute

	var touched int
	for _, j := range cache.Snapshot() {
		if j.Status != domain.StatusRunning {
			continue
		}
		if !isStuck(j, now, threshold) {
			continue
		}
		cache.Mutate(j.JobID, func(cur domain.Job) domain.Job {
			return resetStuckJob(cur, now, false)
		})
		touched++
	}
	if touched == 0 {
		return 0, nil
	}
	slog.InfoContext(ctx, "recovery: periodic stuck-job sweep", "jobs_recovered", touched)
	if err := save(ctx); err != nil {
		return touched, fmt.Errorf("recovery: save after stuck-job sweep: %w", err)
	}
	return touched, nil
}

func isStuck(j domain.Job, now time.Time, threshold time.Duration) bool {
	if j.StartedAt == nil {
		return true
	}
	return now.Sub(*j.StartedAt) > threshold
}

// resetStuckJob implements the shared recovery rule: retry with exponential
// backoff if the job has budget left, otherwise fail it permanently. atStartup
// selects which of the two (start-up vs periodic) status messages to stamp.
func resetStuckJob(j domain.Job, now time.Time, atStartup bool) domain.Job {
	if j.RetryCount < j.MaxRetries {
		j.RetryCount++
		backoff := time.Duration(math.Pow(2, float64(j.RetryCount))) * time.Minute
		j.Scheduled = now.Add(backoff)
		j.Status = domain.StatusScheduled
		j.StartedAt = nil
		if atStartup {
			j.StatusMessage = domain.StatusMessageRecoveredAtStartup()
		} else {
			j.StatusMessage = domain.StatusMessageStuckRecovered(0)
		}
		return j
	}
	j.Status = domain.StatusFailed
	if atStartup {
		j.Error = "stuck at start-up, retries exhausted"
		j.StatusMessage = domain.StatusMessageStuckAtStartupExhausted()
	} else {
		j.Error = "stuck mid-run, retries exhausted"
		j.StatusMessage = domain.StatusMessageStuckExhausted()
	}
	return j
}
