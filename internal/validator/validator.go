// Package validator implements the pure, stateless business-rule checks
// against prospective and loaded jobs (spec component 4.A). Nothing here
// touches storage or the cache; both entry points are plain functions of
// their arguments.
package validator

import (
	"strings"
	"time"
	"unicode"

	"github.com/rezkam/mono/internal/domain"
)

// Severity distinguishes blocking findings from advisory ones.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Finding is one accumulated validation result.
type Finding struct {
	Field    string
	Message  string
	Severity Severity
}

// Result is the accumulated outcome of a validation pass.
type Result struct {
	Errors   []Finding
	Warnings []Finding
}

// OK reports whether the result contains no blocking errors.
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

func (r *Result) add(f Finding) {
	if f.Severity == SeverityError {
		r.Errors = append(r.Errors, f)
	} else {
		r.Warnings = append(r.Warnings, f)
	}
}

// Thresholds used by the checks below: scheduledTime bounds and windows
// relative to "now", and field limits.
const (
	minPastAllowance = -24 * time.Hour
	soonWarnWindow   = 10 * time.Second
	conflictWindow   = 5 * time.Second
	maxAccountIDLen  = 100
	maxRetriesWarn   = 10
)

// ValidateForAdd checks a prospective job against the business rules in
// §4.A, given the set of currently live jobs (for duplicate/conflict
// detection). It never mutates prospective or existingJobs.
func ValidateForAdd(prospective domain.Job, existingJobs []domain.Job, now time.Time) Result {
	var res Result

	checkAccountID(&res, prospective.AccountID)
	checkContent(&res, prospective.Content)
	checkScheduledTime(&res, prospective.Scheduled, now)
	checkPriority(&res, prospective.Priority)
	checkPlatform(&res, prospective.Platform)
	checkMaxRetries(&res, prospective.MaxRetries)
	checkScheduleConflict(&res, prospective, existingJobs)

	return res
}

// ValidateState checks a job that has just been loaded from storage,
// re-running the rules that are cheap and meaningful to re-check (content
// bounds, retry bounds). Duplicate/conflict checks are intentionally
// skipped here — they are add-time only concerns.
func ValidateState(job domain.Job) Result {
	var res Result
	checkAccountID(&res, job.AccountID)
	checkContent(&res, job.Content)
	checkPriority(&res, job.Priority)
	checkPlatform(&res, job.Platform)
	checkMaxRetries(&res, job.MaxRetries)

	if job.RetryCount < 0 || job.RetryCount > job.MaxRetries {
		res.add(Finding{Field: "retryCount", Message: "retryCount out of [0, maxRetries] bounds", Severity: SeverityError})
	}
	return res
}

func checkAccountID(res *Result, accountID string) {
	if len(accountID) > maxAccountIDLen {
		res.add(Finding{Field: "accountID", Message: "longer than 100 characters", Severity: SeverityWarning})
	}
}

func checkContent(res *Result, content string) {
	normalized := domain.NormalizeContent(content)
	n := len([]byte(normalized))
	if n < domain.MinContentBytes || n > domain.MaxContentBytes {
		res.add(Finding{Field: "content", Message: "must be between 1 and 500 bytes after normalisation", Severity: SeverityError})
		return
	}
	if isSuspicious(normalized) {
		res.add(Finding{Field: "content", Message: "content looks suspicious", Severity: SeverityWarning})
	}
}

// isSuspicious implements §4.A's heuristic: empty after trim (already caught
// by length check, but defensive here too), more than half non-alphanumeric,
// a run of 20+ spaces, or no letters/digits at all in a string longer than
// 10 characters.
func isSuspicious(normalized string) bool {
	if normalized == "" {
		return true
	}
	if strings.Contains(normalized, strings.Repeat(" ", 20)) {
		return true
	}

	var alnum, other int
	hasLetterOrDigit := false
	for _, r := range normalized {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
			hasLetterOrDigit = true
		} else if !unicode.IsSpace(r) {
			other++
		}
	}
	total := alnum + other
	if total > 0 && float64(other)/float64(total) > 0.5 {
		return true
	}
	if len(normalized) > 10 && !hasLetterOrDigit {
		return true
	}
	return false
}

func checkScheduledTime(res *Result, scheduled time.Time, now time.Time) {
	if scheduled.Before(now.Add(minPastAllowance)) {
		res.add(Finding{Field: "scheduledTime", Message: "more than 1 day in the past", Severity: SeverityError})
		return
	}
	if scheduled.After(now.Add(domain.MaxScheduleHorizon)) {
		res.add(Finding{Field: "scheduledTime", Message: "more than 365 days ahead", Severity: SeverityError})
		return
	}
	if scheduled.After(now) && scheduled.Before(now.Add(soonWarnWindow)) {
		res.add(Finding{Field: "scheduledTime", Message: "scheduled within the next 10 seconds", Severity: SeverityWarning})
	}
}

func checkPriority(res *Result, p domain.Priority) {
	if _, err := domain.NewPriority(string(p)); err != nil {
		res.add(Finding{Field: "priority", Message: "not a recognised priority", Severity: SeverityError})
	}
}

func checkPlatform(res *Result, p domain.Platform) {
	if _, err := domain.NewPlatform(string(p)); err != nil {
		res.add(Finding{Field: "platform", Message: "not a recognised platform", Severity: SeverityError})
	}
}

func checkMaxRetries(res *Result, maxRetries int) {
	if maxRetries < 0 {
		res.add(Finding{Field: "maxRetries", Message: "must be >= 0", Severity: SeverityError})
		return
	}
	if maxRetries > maxRetriesWarn {
		res.add(Finding{Field: "maxRetries", Message: "unusually high retry budget", Severity: SeverityWarning})
	}
}

// checkScheduleConflict flags another non-terminal job on the same
// (accountID, platform) whose scheduledTime sits within 5 seconds of the
// prospective job's.
func checkScheduleConflict(res *Result, prospective domain.Job, existingJobs []domain.Job) {
	for _, other := range existingJobs {
		if other.Status.IsTerminal() {
			continue
		}
		if other.AccountID != prospective.AccountID || other.Platform != prospective.Platform {
			continue
		}
		delta := other.Scheduled.Sub(prospective.Scheduled)
		if delta < 0 {
			delta = -delta
		}
		if delta <= conflictWindow {
			res.add(Finding{Field: "scheduledTime", Message: "conflicts with another job scheduled within 5 seconds", Severity: SeverityWarning})
			return
		}
	}
}

// FindDuplicate returns the existing non-terminal job matching invariant
// 5's uniqueness key, if any.
func FindDuplicate(prospective domain.Job, existingJobs []domain.Job) (domain.Job, bool) {
	key := prospective.Key()
	for _, other := range existingJobs {
		if other.Status.IsTerminal() {
			continue
		}
		if other.Key() == key {
			return other, true
		}
	}
	return domain.Job{}, false
}
