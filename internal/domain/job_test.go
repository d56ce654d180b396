package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeContent(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"  Hello   World  ", "hello world"},
		{"Same text ", "same text"},
		{"ALREADY lower", "already lower"},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizeContent(c.in))
	}
}

func TestJobIsReady(t *testing.T) {
	now := time.Now().UTC()

	scheduled := Job{Status: StatusScheduled, Scheduled: now.Add(-time.Minute)}
	assert.True(t, scheduled.IsReady(now))

	future := Job{Status: StatusScheduled, Scheduled: now.Add(time.Minute)}
	assert.False(t, future.IsReady(now))

	running := Job{Status: StatusRunning, Scheduled: now.Add(-time.Minute)}
	assert.False(t, running.IsReady(now))

	pending := Job{Status: StatusPending, Scheduled: now.Add(-time.Minute)}
	assert.True(t, pending.IsReady(now))

	expired := Job{Status: StatusScheduled, Scheduled: now.Add(-25 * time.Hour)}
	assert.False(t, expired.IsReady(now))
}

func TestDuplicateKeyMatchesEmptyAccount(t *testing.T) {
	a := Job{AccountID: "", Platform: PlatformThreads, Content: "Hello world"}
	b := Job{AccountID: "", Platform: PlatformThreads, Content: "  hello   world "}
	assert.Equal(t, a.Key(), b.Key())
}

func TestPriorityWeightOrdering(t *testing.T) {
	assert.Less(t, PriorityLow.Weight(), PriorityNormal.Weight())
	assert.Less(t, PriorityNormal.Weight(), PriorityHigh.Weight())
	assert.Less(t, PriorityHigh.Weight(), PriorityUrgent.Weight())
}

func TestNewPlatformDefaultsToThreads(t *testing.T) {
	p, err := NewPlatform("")
	require.NoError(t, err)
	assert.Equal(t, PlatformThreads, p)

	_, err = NewPlatform("bluesky")
	assert.ErrorIs(t, err, ErrInvalidPlatform)
}

func TestPostResultFailed(t *testing.T) {
	assert.False(t, PostResult{OK: true}.Failed())
	assert.True(t, PostResult{OK: false}.Failed())
	assert.True(t, PostResult{OK: true, ShadowFail: true}.Failed())
}
