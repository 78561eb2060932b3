// Package scheduler runs the periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
)

// JobStatus represents the status of a job.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusScheduled JobStatus = "scheduled"
)

// JobInfo describes a registered job.
type JobInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Schedule    string    `json:"schedule"`
	Status      JobStatus `json:"status"`
	LastRun     time.Time `json:"lastRun"`
	NextRun     time.Time `json:"nextRun"`
	RunCount    int       `json:"runCount"`
	ErrorCount  int       `json:"errorCount"`
	LastError   string    `json:"lastError,omitempty"`

	job gocron.Job
}

// JobFunc is the body of a scheduled job.
type JobFunc func(ctx context.Context) error

// Scheduler wraps gocron and keeps per-job run statistics.
type Scheduler struct {
	gocron gocron.Scheduler
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.RWMutex
	jobs map[string]*JobInfo
}

// New creates a scheduler. Jobs do not run before Start.
func New() (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLogger(newLogger()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		gocron: s,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]*JobInfo),
	}, nil
}

// AddCronJob registers a singleton job on a five field cron schedule.
func (s *Scheduler) AddCronJob(id, name, description, schedule string, fn JobFunc) error {
	info := &JobInfo{
		ID:          id,
		Name:        name,
		Description: description,
		Schedule:    schedule,
		Status:      JobStatusScheduled,
	}

	job, err := s.gocron.NewJob(
		gocron.CronJob(schedule, false),
		gocron.NewTask(s.wrap(info, fn)),
		gocron.WithName(id),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", id, err)
	}
	info.job = job

	s.mu.Lock()
	s.jobs[id] = info
	s.mu.Unlock()

	log.Info("added job to scheduler", "id", id, "schedule", schedule)
	return nil
}

func (s *Scheduler) wrap(info *JobInfo, fn JobFunc) func() {
	return func() {
		s.mu.Lock()
		info.Status = JobStatusRunning
		info.LastRun = time.Now()
		s.mu.Unlock()

		start := time.Now()
		err := fn(s.ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		info.RunCount++
		if err != nil {
			info.Status = JobStatusFailed
			info.ErrorCount++
			info.LastError = err.Error()
			log.Error("job failed", "id", info.ID, "duration", time.Since(start), "error", err)
		} else {
			info.Status = JobStatusCompleted
			info.LastError = ""
			log.Info("job completed", "id", info.ID, "duration", time.Since(start))
		}
		if next, err := info.job.NextRun(); err == nil {
			info.NextRun = next
		}
	}
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.gocron.Start()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, info := range s.jobs {
		if next, err := info.job.NextRun(); err == nil {
			info.NextRun = next
		}
	}
	log.Info("job scheduler started", "jobs", len(s.jobs))
}

// Stop cancels running jobs and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	s.cancel()
	return s.gocron.Shutdown()
}

// RunNow triggers a job outside its schedule.
func (s *Scheduler) RunNow(id string) error {
	s.mu.RLock()
	info, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job %s not found", id)
	}
	log.Info("manually triggering job", "id", id)
	return info.job.RunNow()
}

// Jobs returns a snapshot of all jobs ordered by id.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for _, id := range slices.Sorted(maps.Keys(s.jobs)) {
		out = append(out, *s.jobs[id])
	}
	return out
}
