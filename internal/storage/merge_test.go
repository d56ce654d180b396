package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rezkam/mono/internal/domain"
)

func TestMerge_CompletedIsSticky(t *testing.T) {
	stored := map[string]domain.Job{"1": {JobID: "1", Status: domain.StatusCompleted}}
	live := map[string]domain.Job{"1": {JobID: "1", Status: domain.StatusRunning}}

	out := Merge(stored, live, false)
	assert.Equal(t, domain.StatusCompleted, out["1"].Status)
}

func TestMerge_CacheRunningPreserved(t *testing.T) {
	stored := map[string]domain.Job{"1": {JobID: "1", Status: domain.StatusScheduled}}
	live := map[string]domain.Job{"1": {JobID: "1", Status: domain.StatusRunning}}

	out := Merge(stored, live, false)
	assert.Equal(t, domain.StatusRunning, out["1"].Status)
}

func TestMerge_CacheCompletedPreservedOverDisagreeingStorage(t *testing.T) {
	stored := map[string]domain.Job{"1": {JobID: "1", Status: domain.StatusScheduled}}
	live := map[string]domain.Job{"1": {JobID: "1", Status: domain.StatusCompleted}}

	out := Merge(stored, live, false)
	assert.Equal(t, domain.StatusCompleted, out["1"].Status)
}

func TestMerge_StorageOverwritesOtherwise(t *testing.T) {
	stored := map[string]domain.Job{"1": {JobID: "1", Status: domain.StatusFailed}}
	live := map[string]domain.Job{"1": {JobID: "1", Status: domain.StatusScheduled}}

	out := Merge(stored, live, false)
	assert.Equal(t, domain.StatusFailed, out["1"].Status)
}

func TestMerge_CacheOnlyRunningKeptRegardlessOfForce(t *testing.T) {
	live := map[string]domain.Job{"1": {JobID: "1", Status: domain.StatusRunning}}

	out := Merge(nil, live, false)
	assert.Contains(t, out, "1")

	out = Merge(nil, live, true)
	assert.Contains(t, out, "1")
}

func TestMerge_CacheOnlyScheduledKeptOnlyWhenNotForced(t *testing.T) {
	live := map[string]domain.Job{"1": {JobID: "1", Status: domain.StatusScheduled}}

	out := Merge(nil, live, false)
	assert.Contains(t, out, "1")

	out = Merge(nil, live, true)
	assert.NotContains(t, out, "1")
}

func TestMerge_CacheOnlyTerminalDropped(t *testing.T) {
	live := map[string]domain.Job{"1": {JobID: "1", Status: domain.StatusCompleted}}
	out := Merge(nil, live, false)
	assert.NotContains(t, out, "1")
}

func TestMerge_DeleteAllPropagatesUnderForcedEmptyStorage(t *testing.T) {
	live := map[string]domain.Job{
		"1": {JobID: "1", Status: domain.StatusScheduled},
		"2": {JobID: "2", Status: domain.StatusRunning},
	}
	out := Merge(map[string]domain.Job{}, live, true)
	assert.NotContains(t, out, "1")
	assert.Contains(t, out, "2")
}
