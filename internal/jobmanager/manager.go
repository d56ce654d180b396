// Package jobmanager implements the job-lifecycle operations exposed to
// SchedulerFacade (spec component 4.D): add, remove, list, and the two
// sweeps the executor loop drives from. It orchestrates Validator and
// JobCache but never touches Storage directly — persistence happens through
// the injected save callback, mirroring the protocol-agnostic application
// layer the teacher's todo service follows.
package jobmanager

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rezkam/mono/internal/domain"
	"github.com/rezkam/mono/internal/jobcache"
	"github.com/rezkam/mono/internal/validator"
)

// SaveFunc persists the current cache contents durably. Implementations
// typically close over a jobcache.Cache and a storage.Storage.
type SaveFunc func(ctx context.Context) error

// Manager is the job-lifecycle orchestrator.
type Manager struct {
	cache *jobcache.Cache
	save  SaveFunc
}

// New returns a Manager operating against cache, persisting through save.
func New(cache *jobcache.Cache, save SaveFunc) *Manager {
	return &Manager{cache: cache, save: save}
}

// Add validates and inserts a new job, persisting it before returning.
func (m *Manager) Add(ctx context.Context, accountID, content string, scheduled time.Time, priority domain.Priority, platform domain.Platform, maxRetries int, linkAff string) (string, error) {
	now := time.Now().UTC()

	prospective := domain.Job{
		AccountID:  accountID,
		Content:    content,
		Scheduled:  scheduled,
		Priority:   priority,
		Platform:   platform,
		MaxRetries: maxRetries,
		LinkAff:    linkAff,
	}

	existing := m.cache.Snapshot()

	result := validator.ValidateForAdd(prospective, existing, now)
	if !result.OK() {
		return "", newValidationError(result)
	}

	if dup, ok := validator.FindDuplicate(prospective, existing); ok {
		return "", &domain.DuplicateContentError{
			ExistingJobIDPrefix: idPrefix(dup.JobID),
			ExistingStatus:      dup.Status,
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("jobmanager: generate id: %w", err)
	}

	prospective.JobID = id.String()
	prospective.Status = domain.StatusScheduled
	prospective.CreatedAt = now
	prospective.StatusMessage = domain.StatusMessageAdded(scheduled)

	m.cache.Set(prospective)

	if err := m.save(ctx); err != nil {
		return prospective.JobID, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return prospective.JobID, nil
}

// Remove deletes a job by id, persisting the removal. Returns
// domain.ErrJobNotFound if the id is absent.
func (m *Manager) Remove(ctx context.Context, jobID string) error {
	if _, ok := m.cache.Get(jobID); !ok {
		return domain.ErrJobNotFound
	}
	m.cache.Delete(jobID)
	if err := m.save(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return nil
}

// List returns jobs matching the optional accountID/status filters, sorted
// by priority descending then scheduledTime descending.
func (m *Manager) List(accountID string, status domain.Status) []domain.Job {
	var out []domain.Job
	for _, j := range m.cache.Snapshot() {
		if accountID != "" && j.AccountID != accountID {
			continue
		}
		if status != "" && j.Status != status {
			continue
		}
		out = append(out, j)
	}
	sortByPriorityThenSchedule(out)
	return out
}

// ReadyJobs returns the subset of the live cache eligible for dispatch right
// now, per §4.F's selection rule, sorted the same way List is.
func (m *Manager) ReadyJobs(now time.Time) []domain.Job {
	var out []domain.Job
	for _, j := range m.cache.Snapshot() {
		if j.IsReady(now) {
			out = append(out, j)
		}
	}
	sortByPriorityThenSchedule(out)
	return out
}

// CleanupExpired marks every non-terminal job idle more than 24h past its
// scheduledTime as EXPIRED and persists the change, returning the count
// affected.
func (m *Manager) CleanupExpired(ctx context.Context, now time.Time) (int, error) {
	var affected int
	for _, j := range m.cache.Snapshot() {
		if j.Status.IsTerminal() {
			continue
		}
		if !j.IsExpired(now) {
			continue
		}
		m.cache.Mutate(j.JobID, func(cur domain.Job) domain.Job {
			cur.Status = domain.StatusExpired
			cur.StatusMessage = domain.StatusMessageExpired()
			return cur
		})
		affected++
	}
	if affected == 0 {
		return 0, nil
	}
	if err := m.save(ctx); err != nil {
		return affected, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return affected, nil
}

func sortByPriorityThenSchedule(jobs []domain.Job) {
	sort.SliceStable(jobs, func(i, k int) bool {
		wi, wk := jobs[i].Priority.Weight(), jobs[k].Priority.Weight()
		if wi != wk {
			return wi > wk
		}
		return jobs[i].Scheduled.After(jobs[k].Scheduled)
	})
}

func idPrefix(jobID string) string {
	const n = 8
	if len(jobID) <= n {
		return jobID
	}
	return jobID[:n]
}

func newValidationError(r validator.Result) error {
	ve := &domain.ValidationError{}
	for _, f := range r.Errors {
		ve.Errors = append(ve.Errors, domain.FieldIssue{Field: f.Field, Issue: f.Message})
	}
	for _, f := range r.Warnings {
		ve.Warnings = append(ve.Warnings, domain.FieldIssue{Field: f.Field, Issue: f.Message})
	}
	// A schedule-time-specific error surfaces separately so clients can
	// re-prompt for a new time instead of re-submitting the whole form.
	for _, f := range r.Errors {
		if f.Field == "scheduledTime" {
			return fmt.Errorf("%w: %w", domain.ErrInvalidScheduleTime, ve)
		}
	}
	return ve
}
