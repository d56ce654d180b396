package domain

import "time"

// DisplayLocation is the fixed display timezone for human-readable status
// messages and API responses (§6.6). Storage itself is always UTC.
var DisplayLocation = mustLoadLocation("Asia/Ho_Chi_Minh")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone(name, 7*60*60)
	}
	return loc
}

const displayLayout = "02/01/2006 15:04:05"

// FormatDisplayTime renders t in the UTC+7 display convention.
func FormatDisplayTime(t time.Time) string {
	return t.In(DisplayLocation).Format(displayLayout)
}

// StatusMessageAdded is the message stamped on a freshly added job.
func StatusMessageAdded(scheduled time.Time) string {
	return "added to scheduler, will run at " + FormatDisplayTime(scheduled)
}

// StatusMessageDispatching is stamped when a job transitions to RUNNING.
func StatusMessageDispatching() string {
	return "dispatching now"
}

// StatusMessageCompleted is stamped on successful completion.
func StatusMessageCompleted(threadID string) string {
	if threadID == "" {
		return "posted successfully"
	}
	return "posted successfully, thread " + threadID
}

// StatusMessageRetryScheduled is stamped when a transient failure schedules a retry.
func StatusMessageRetryScheduled(reason string, next time.Time) string {
	msg := "retry scheduled after " + reason + ", next attempt at " + FormatDisplayTime(next)
	return msg
}

// StatusMessageHardFailed is stamped when retries are exhausted.
func StatusMessageHardFailed(reason string) string {
	return "failed permanently: " + reason
}

// StatusMessageExpired is stamped by the expiry sweep.
func StatusMessageExpired() string {
	return "expired: idle more than 24h past scheduled time"
}

// StatusMessageRecoveredAtStartup is stamped by RecoverAllRunning when a
// RUNNING job is reset at process start.
func StatusMessageRecoveredAtStartup() string {
	return "reset at start-up after being found RUNNING from a previous process"
}

// StatusMessageStuckAtStartupExhausted is stamped when a RUNNING job found
// at start-up has no retries left.
func StatusMessageStuckAtStartupExhausted() string {
	return "stuck at start-up, retries exhausted"
}

// StatusMessageStuckRecovered is stamped by the periodic stuck-job sweep.
func StatusMessageStuckRecovered(maxRunningMinutes int) string {
	return "reset after exceeding max running time of configured minutes"
}

// StatusMessageStuckExhausted is stamped when a stuck job has no retries left.
func StatusMessageStuckExhausted() string {
	return "stuck mid-run, retries exhausted"
}

// StatusMessageCancelled is stamped on an explicit cancellation.
func StatusMessageCancelled() string {
	return "cancelled"
}
