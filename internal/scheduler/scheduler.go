// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the background cron jobs: published-page cache
// warm-up and the scheduled content export.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/blockcms/internal/metrics"
)

// DefaultJobTimeout bounds a single job run.
const DefaultJobTimeout = 5 * time.Minute

// JobFunc is the work done by a scheduled job.
type JobFunc func(ctx context.Context) error

type job struct {
	name        string
	description string
	schedule    string
	entryID     cron.EntryID
	fn          JobFunc
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Schedule    string    `json:"schedule"`
	LastRun     time.Time `json:"last_run"`
	NextRun     time.Time `json:"next_run"`
	LastError   string    `json:"last_error,omitempty"`
}

// Scheduler handles the scheduled jobs.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration

	mu      sync.RWMutex
	jobs    map[string]*job
	lastErr map[string]string
	running sync.WaitGroup
}

// New creates a new scheduler instance. m may be nil.
func New(logger *slog.Logger, m *metrics.Metrics) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithParser(parser)),
		logger:  logger,
		metrics: m,
		timeout: DefaultJobTimeout,
		jobs:    make(map[string]*job),
		lastErr: make(map[string]string),
	}
}

// Add registers a job under name. An empty schedule leaves the job
// disabled and returns nil.
func (s *Scheduler) Add(name, description, schedule string, fn JobFunc) error {
	if schedule == "" {
		s.logger.Info("scheduled job disabled", "job", name)
		return nil
	}
	if err := ValidateSchedule(schedule); err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("job %s already registered", name)
	}

	j := &job{name: name, description: description, schedule: schedule, fn: fn}
	id, err := s.cron.AddFunc(schedule, func() { _ = s.run(j) })
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}
	j.entryID = id
	s.jobs[name] = j

	s.logger.Debug("registered scheduled job", "job", name, "schedule", schedule)
	return nil
}

// Start begins running the registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop stops the cron loop and waits for running jobs, manual triggers
// included, until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	cronCtx := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronCtx.Done()
		s.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out with jobs still running")
	}
}

// List returns all registered jobs sorted by name.
func (s *Scheduler) List() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		entry := s.cron.Entry(j.entryID)
		result = append(result, JobInfo{
			Name:        j.name,
			Description: j.description,
			Schedule:    j.schedule,
			LastRun:     entry.Prev,
			NextRun:     entry.Next,
			LastError:   s.lastErr[j.name],
		})
	}

	sort.Slice(result, func(i, k int) bool { return result[i].Name < result[k].Name })
	return result
}

// TriggerNow runs a job immediately and returns its error.
func (s *Scheduler) TriggerNow(name string) error {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("job not found: %s", name)
	}

	s.logger.Info("manually triggering job", "job", name)
	return s.run(j)
}

// run executes one job with a timeout and records the result.
func (s *Scheduler) run(j *job) error {
	s.running.Add(1)
	defer s.running.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	err := j.fn(ctx)
	elapsed := time.Since(start)

	result := metrics.ResultOK
	s.mu.Lock()
	if err != nil {
		result = metrics.ResultError
		s.lastErr[j.name] = err.Error()
	} else {
		delete(s.lastErr, j.name)
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.JobRunsTotal.WithLabelValues(j.name, result).Inc()
		s.metrics.JobDuration.WithLabelValues(j.name).Observe(elapsed.Seconds())
	}

	if err != nil {
		s.logger.Error("scheduled job failed", "job", j.name, "error", err, "duration", elapsed)
		return err
	}
	s.logger.Debug("scheduled job finished", "job", j.name, "duration", elapsed)
	return nil
}
