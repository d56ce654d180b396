package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rezkam/mono/internal/domain"
)

func baseJob(now time.Time) domain.Job {
	return domain.Job{
		AccountID:  "acct-1",
		Content:    "hello world",
		Scheduled:  now.Add(time.Hour),
		Priority:   domain.PriorityNormal,
		Platform:   domain.PlatformThreads,
		MaxRetries: 3,
	}
}

func TestValidateForAdd_Happy(t *testing.T) {
	now := time.Now().UTC()
	res := ValidateForAdd(baseJob(now), nil, now)
	assert.True(t, res.OK())
	assert.Empty(t, res.Warnings)
}

func TestValidateForAdd_ContentBounds(t *testing.T) {
	now := time.Now().UTC()
	j := baseJob(now)
	j.Content = ""
	res := ValidateForAdd(j, nil, now)
	assert.False(t, res.OK())

	j.Content = string(make([]byte, 600))
	res = ValidateForAdd(j, nil, now)
	assert.False(t, res.OK())
}

func TestValidateForAdd_SuspiciousContent(t *testing.T) {
	now := time.Now().UTC()
	j := baseJob(now)
	j.Content = "!!!@@@###$$$%%%^^^&&&"
	res := ValidateForAdd(j, nil, now)
	assert.True(t, res.OK())
	assert.NotEmpty(t, res.Warnings)
}

func TestValidateForAdd_ScheduleBounds(t *testing.T) {
	now := time.Now().UTC()

	tooOld := baseJob(now)
	tooOld.Scheduled = now.Add(-48 * time.Hour)
	assert.False(t, ValidateForAdd(tooOld, nil, now).OK())

	tooFar := baseJob(now)
	tooFar.Scheduled = now.Add(400 * 24 * time.Hour)
	assert.False(t, ValidateForAdd(tooFar, nil, now).OK())

	soon := baseJob(now)
	soon.Scheduled = now.Add(5 * time.Second)
	res := ValidateForAdd(soon, nil, now)
	assert.True(t, res.OK())
	assert.NotEmpty(t, res.Warnings)
}

func TestValidateForAdd_EnumErrors(t *testing.T) {
	now := time.Now().UTC()

	badPriority := baseJob(now)
	badPriority.Priority = "EXTREME"
	assert.False(t, ValidateForAdd(badPriority, nil, now).OK())

	badPlatform := baseJob(now)
	badPlatform.Platform = "BLUESKY"
	assert.False(t, ValidateForAdd(badPlatform, nil, now).OK())
}

func TestValidateForAdd_MaxRetries(t *testing.T) {
	now := time.Now().UTC()

	negative := baseJob(now)
	negative.MaxRetries = -1
	assert.False(t, ValidateForAdd(negative, nil, now).OK())

	high := baseJob(now)
	high.MaxRetries = 20
	res := ValidateForAdd(high, nil, now)
	assert.True(t, res.OK())
	assert.NotEmpty(t, res.Warnings)
}

func TestValidateForAdd_ScheduleConflictWarning(t *testing.T) {
	now := time.Now().UTC()
	prospective := baseJob(now)
	existing := domain.Job{
		AccountID: prospective.AccountID,
		Platform:  prospective.Platform,
		Status:    domain.StatusScheduled,
		Scheduled: prospective.Scheduled.Add(2 * time.Second),
	}
	res := ValidateForAdd(prospective, []domain.Job{existing}, now)
	assert.True(t, res.OK())
	assert.NotEmpty(t, res.Warnings)
}

func TestFindDuplicate(t *testing.T) {
	now := time.Now().UTC()
	prospective := baseJob(now)
	prospective.Content = "Same text "

	dup := domain.Job{
		JobID:     "existing-1",
		AccountID: prospective.AccountID,
		Platform:  prospective.Platform,
		Content:   "same   text",
		Status:    domain.StatusScheduled,
	}

	found, ok := FindDuplicate(prospective, []domain.Job{dup})
	assert.True(t, ok)
	assert.Equal(t, "existing-1", found.JobID)

	terminal := dup
	terminal.Status = domain.StatusCompleted
	_, ok = FindDuplicate(prospective, []domain.Job{terminal})
	assert.False(t, ok)
}

func TestValidateState_RetryBounds(t *testing.T) {
	j := domain.Job{
		Content:    "hello",
		Priority:   domain.PriorityNormal,
		Platform:   domain.PlatformThreads,
		MaxRetries: 3,
		RetryCount: 5,
	}
	res := ValidateState(j)
	assert.False(t, res.OK())
}
