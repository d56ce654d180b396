package storage

import "github.com/rezkam/mono/internal/domain"

// Merge reconciles freshly loaded storage rows against the live cache,
// implementing the load-time merge policy in §4.B. The returned map
// becomes the JobCache's new contents.
//
// Rules, in order:
//  1. Storage COMPLETED wins over any other cache status (sticky).
//  2. Cache RUNNING is preserved, never overwritten by storage.
//  3. Cache COMPLETED is preserved if storage disagrees.
//  4. A cache-only job (no storage row) is kept iff it is RUNNING, or
//     (non-forced load AND status is SCHEDULED/PENDING). Under a forced
//     reload, non-RUNNING cache-only jobs are dropped so user deletions
//     propagate.
//  5. Otherwise storage overwrites cache.
func Merge(stored map[string]domain.Job, live map[string]domain.Job, forced bool) map[string]domain.Job {
	out := make(map[string]domain.Job, len(stored)+len(live))

	for id, storedJob := range stored {
		liveJob, inCache := live[id]
		if !inCache {
			out[id] = storedJob
			continue
		}

		switch {
		case storedJob.Status == domain.StatusCompleted:
			out[id] = storedJob
		case liveJob.Status == domain.StatusRunning:
			out[id] = liveJob
		case liveJob.Status == domain.StatusCompleted:
			out[id] = liveJob
		default:
			out[id] = storedJob
		}
	}

	for id, liveJob := range live {
		if _, inStorage := stored[id]; inStorage {
			continue
		}
		if liveJob.Status == domain.StatusRunning {
			out[id] = liveJob
			continue
		}
		if !forced && liveJob.Status.IsScheduledLike() {
			out[id] = liveJob
			continue
		}
		// forced reload, or a terminal/expired cache-only job: drop it.
	}

	return out
}
