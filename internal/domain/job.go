package domain

import (
	"strings"
	"time"
)

// MaxContentBytes and MinContentBytes bound a Job's content per invariant 7.
const (
	MaxContentBytes = 500
	MinContentBytes = 1
)

// MaxScheduleHorizon bounds how far scheduledTime may sit from creation time
// per invariant 6.
const MaxScheduleHorizon = 365 * 24 * time.Hour

// Job is the central entity: a scheduled unit of work.
//
// Storage owns the durable truth; JobCache is a short-lived in-memory mirror
// owned by SchedulerFacade for the lifetime of one process (see
// internal/jobcache).
type Job struct {
	JobID      string
	AccountID  string // empty means "any"
	Content    string // 1..500 bytes after normalisation, immutable after create
	Scheduled  time.Time
	Priority   Priority
	Status     Status
	Platform   Platform
	MaxRetries int
	RetryCount int

	CreatedAt time.Time
	StartedAt *time.Time
	// CompletedAt is set on COMPLETED and never cleared afterwards.
	CompletedAt *time.Time

	Error         string
	ThreadID      string
	StatusMessage string
	LinkAff       string
}

// Clone returns a deep copy suitable for handing to a reader outside the
// cache's mutex, so mutation of the original never races with the copy.
func (j Job) Clone() Job {
	out := j
	if j.StartedAt != nil {
		t := *j.StartedAt
		out.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// IsReady reports whether the job satisfies the ready-set selection rule in
// §4.F step 4, excluding the overdue-threshold cap (checked by the caller,
// which has the configured threshold).
func (j Job) IsReady(now time.Time) bool {
	if !j.Status.IsScheduledLike() {
		return false
	}
	if now.Before(j.Scheduled) {
		return false
	}
	return !j.IsExpired(now)
}

// IsExpired reports whether a non-terminal job has been idle for more than
// 24 hours past its scheduled time (invariant checked by the expiry sweep and
// the ready check).
func (j Job) IsExpired(now time.Time) bool {
	return now.Sub(j.Scheduled) > 24*time.Hour
}

// NormalizeContent implements the normalisation used by invariant 5's
// uniqueness key and invariant 7's length check: trim, lowercase, collapse
// internal whitespace runs to a single space.
func NormalizeContent(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// DuplicateKey is the uniqueness key from invariant 5:
// (accountID, platform, normalised(content)). Empty accountID is a first-class
// value — it matches other jobs with an equally empty accountID (§9 open
// question 2).
type DuplicateKey struct {
	AccountID string
	Platform  Platform
	Content   string
}

// Key returns j's duplicate-detection key.
func (j Job) Key() DuplicateKey {
	return DuplicateKey{
		AccountID: j.AccountID,
		Platform:  j.Platform,
		Content:   NormalizeContent(j.Content),
	}
}

// PostResult is returned by the external browser-automation callback
// (§6.4). The callback itself is out of scope; only this contract is core.
type PostResult struct {
	OK         bool
	ThreadID   string
	Error      string
	ShadowFail bool
}

// Failed reports whether the outcome should be treated as a retryable
// failure by the Executor: ok=false, or a shadow-fail (the callback
// succeeded-as-click but the post never appeared).
func (r PostResult) Failed() bool {
	return !r.OK || r.ShadowFail
}

// PostCallback performs the actual post for one job and returns its outcome.
// Implementations are provided by the browser-automation layer; the
// scheduler only ever calls through this contract.
type PostCallback func(accountID, content string) (PostResult, error)

// PostCallbackFactory resolves the callback to use for a given platform.
type PostCallbackFactory func(platform Platform) PostCallback
