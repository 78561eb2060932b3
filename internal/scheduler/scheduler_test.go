package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunNowRecordsStatistics(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	defer s.Stop() //nolint:errcheck

	var calls atomic.Int32
	require.NoError(t, s.AddCronJob("ok", "OK", "succeeds", "0 4 * * *", func(context.Context) error {
		calls.Add(1)
		return nil
	}))
	require.NoError(t, s.AddCronJob("bad", "Bad", "fails", "0 4 * * *", func(context.Context) error {
		return errors.New("boom")
	}))
	s.Start()

	require.NoError(t, s.RunNow("ok"))
	require.NoError(t, s.RunNow("bad"))

	assert.Eventually(t, func() bool {
		jobs := s.Jobs()
		return len(jobs) == 2 && jobs[0].RunCount == 1 && jobs[1].RunCount == 1
	}, 5*time.Second, 20*time.Millisecond)

	jobs := s.Jobs()
	assert.Equal(t, "bad", jobs[0].ID)
	assert.Equal(t, JobStatusFailed, jobs[0].Status)
	assert.Equal(t, "boom", jobs[0].LastError)
	assert.Equal(t, JobStatusCompleted, jobs[1].Status)
	assert.False(t, jobs[1].NextRun.IsZero())
	assert.Equal(t, int32(1), calls.Load())
}

func TestRunNowUnknownJob(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	defer s.Stop() //nolint:errcheck

	assert.Error(t, s.RunNow("missing"))
}

func TestAddCronJobRejectsBadSchedule(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	defer s.Stop() //nolint:errcheck

	assert.Error(t, s.AddCronJob("x", "X", "", "not a cron", func(context.Context) error { return nil }))
	assert.Empty(t, s.Jobs())
}
