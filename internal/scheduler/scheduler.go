// Package scheduler runs scan cycles and history refreshes on a cron cadence.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/courtside/internal/decision"
	"github.com/yourusername/courtside/internal/models"
)

// ScanRunner is the part of the scanner the scheduler drives
type ScanRunner interface {
	Scan(ctx context.Context, date time.Time) (*decision.Report, error)
	Refresh(ctx context.Context) error
}

// Scheduler manages scheduled scan jobs
type Scheduler struct {
	cron            *cron.Cron
	runner          ScanRunner
	logger          *logrus.Entry
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	gracefulTimeout time.Duration
	now             func() time.Time
}

// NewScheduler creates a new scheduler
func NewScheduler(runner ScanRunner, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:            cron.New(cron.WithLocation(time.UTC)),
		runner:          runner,
		logger:          logger.WithField("component", "scheduler"),
		jobIDs:          make([]cron.EntryID, 0),
		gracefulTimeout: 30 * time.Second,
		now:             time.Now,
	}
}

// ScheduleScan schedules a scan of the current day's slate. Each run is
// bounded by timeout.
func (s *Scheduler) ScheduleScan(cronExpression string, timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("scan timeout must be positive, got %s", timeout)
	}
	return s.add(cronExpression, "scan", func() { s.runScan(timeout) })
}

// ScheduleRefresh schedules a rebuild of the history snapshot every interval
func (s *Scheduler) ScheduleRefresh(interval time.Duration) error {
	if interval < time.Minute {
		interval = time.Minute
	}
	expr := fmt.Sprintf("@every %s", interval)
	return s.add(expr, "refresh", func() { s.runRefresh(interval / 2) })
}

func (s *Scheduler) add(expr, name string, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(expr, job)
	if err != nil {
		return fmt.Errorf("failed to add %s job: %w", name, err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithFields(logrus.Fields{
		"job":      name,
		"schedule": expr,
	}).Info("Scheduled job")

	return nil
}

func (s *Scheduler) runScan(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	date := models.NormalizeDate(s.now().UTC())
	report, err := s.runner.Scan(ctx, date)
	if err != nil {
		s.logger.WithError(err).WithField("date", date.Format(models.DateLayout)).Error("Scheduled scan failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"date":    date.Format(models.DateLayout),
		"signals": report.Signals,
		"failed":  report.Failures,
	}).Info("Scheduled scan completed")
}

func (s *Scheduler) runRefresh(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.runner.Refresh(ctx); err != nil {
		s.logger.WithError(err).Warn("Scheduled history refresh failed, keeping previous snapshot")
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop stops the scheduler and waits for running jobs up to the graceful timeout
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.isRunning = false
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-time.After(s.gracefulTimeout):
		return fmt.Errorf("scheduler stop timed out after %s", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			if nextRun.IsZero() || entry.Next.Before(nextRun) {
				nextRun = entry.Next
			}
		}
	}

	return nextRun
}

// Entries returns information about scheduled entries
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]cron.Entry, 0, len(s.jobIDs))
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			entries = append(entries, entry)
		}
	}

	return entries
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(jobID cron.EntryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot remove job while scheduler is running")
	}

	s.cron.Remove(jobID)
	for i, id := range s.jobIDs {
		if id == jobID {
			s.jobIDs = append(s.jobIDs[:i], s.jobIDs[i+1:]...)
			break
		}
	}
	s.logger.WithField("job_id", jobID).Info("Removed job")

	return nil
}
