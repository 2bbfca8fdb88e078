package scheduler

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/courtside/internal/decision"
)

type fakeRunner struct {
	mu         sync.Mutex
	scans      []time.Time
	refreshes  int
	scanErr    error
	refreshErr error
	deadline   bool
}

func (f *fakeRunner) Scan(ctx context.Context, date time.Time) (*decision.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, f.deadline = ctx.Deadline()
	f.scans = append(f.scans, date)
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	return &decision.Report{Date: date, Signals: 1}, nil
}

func (f *fakeRunner) Refresh(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return f.refreshErr
}

func newTestScheduler(runner ScanRunner) (*Scheduler, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	return NewScheduler(runner, log), buf
}

func TestScheduleScanRejectsBadInput(t *testing.T) {
	s, _ := newTestScheduler(&fakeRunner{})

	assert.Error(t, s.ScheduleScan("not a cron", time.Minute))
	assert.Error(t, s.ScheduleScan("*/30 * * * *", 0))
	assert.Empty(t, s.Entries())
}

func TestStartWithoutJobs(t *testing.T) {
	s, _ := newTestScheduler(&fakeRunner{})
	assert.Error(t, s.Start())
	assert.False(t, s.IsRunning())
}

func TestStartStopLifecycle(t *testing.T) {
	s, _ := newTestScheduler(&fakeRunner{})
	require.NoError(t, s.ScheduleScan("*/30 * * * *", time.Minute))
	require.NoError(t, s.ScheduleRefresh(6*time.Hour))
	assert.Len(t, s.Entries(), 2)
	assert.True(t, s.GetNextRun().IsZero())

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start())
	assert.False(t, s.GetNextRun().IsZero())
	assert.Error(t, s.ScheduleScan("0 * * * *", time.Minute))

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.NoError(t, s.Stop())
}

func TestRemoveJob(t *testing.T) {
	s, _ := newTestScheduler(&fakeRunner{})
	require.NoError(t, s.ScheduleScan("*/30 * * * *", time.Minute))
	entries := s.Entries()
	require.Len(t, entries, 1)

	require.NoError(t, s.RemoveJob(entries[0].ID))
	assert.Empty(t, s.Entries())
	assert.Error(t, s.Start())
}

func TestRunScanUsesTodayAndTimeout(t *testing.T) {
	runner := &fakeRunner{}
	s, buf := newTestScheduler(runner)
	s.now = func() time.Time { return time.Date(2025, 1, 10, 23, 45, 0, 0, time.UTC) }

	s.runScan(time.Minute)

	require.Len(t, runner.scans, 1)
	assert.Equal(t, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), runner.scans[0])
	assert.True(t, runner.deadline)
	assert.Contains(t, buf.String(), "Scheduled scan completed")
}

func TestRunScanFailureIsLogged(t *testing.T) {
	runner := &fakeRunner{scanErr: errors.New("schedule unavailable")}
	s, buf := newTestScheduler(runner)

	s.runScan(time.Minute)

	assert.Contains(t, buf.String(), "Scheduled scan failed")
	assert.Contains(t, buf.String(), "schedule unavailable")
}

func TestRunRefreshFailureIsWarned(t *testing.T) {
	runner := &fakeRunner{refreshErr: errors.New("stats api down")}
	s, buf := newTestScheduler(runner)

	s.runRefresh(time.Minute)

	assert.Equal(t, 1, runner.refreshes)
	assert.Contains(t, buf.String(), "keeping previous snapshot")
}
