package jobs

import (
	"sync"
	"time"

	"bitbucket.org/mmdatafocus/records_backend/config"
	"github.com/sirupsen/logrus"
)

type JobState string

const (
	JobStatePending   JobState = "PENDING"
	JobStateRunning   JobState = "RUNNING"
	JobStateSucceeded JobState = "SUCCEEDED"
	JobStateFailed    JobState = "FAILED"
)

func (s JobState) Finished() bool {
	return s == JobStateSucceeded || s == JobStateFailed
}

// Job is the pollable status record of one submitted task.
type Job struct {
	ID         string      `json:"id"`
	Kind       string      `json:"kind"`
	BusinessId string      `json:"-"`
	State      JobState    `json:"state"`
	Result     interface{} `json:"result,omitempty"`
	Error      string      `json:"error,omitempty"`
	RetryCount int         `json:"retry_count"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
}

// Store keeps job records in memory. Finished jobs are janitored away after
// the retention window, so Poll returns not-found for anything older.
type Store struct {
	mu        sync.RWMutex
	jobs      map[string]*Job
	retention time.Duration
	stop      chan struct{}
	stopOnce  sync.Once
}

func NewStore(retention time.Duration) *Store {
	if retention <= 0 {
		retention = time.Hour
	}
	return &Store{
		jobs:      make(map[string]*Job),
		retention: retention,
		stop:      make(chan struct{}),
	}
}

func (s *Store) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

// Get returns a copy so callers never race with state transitions.
func (s *Store) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

func (s *Store) update(id string, apply func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return
	}
	apply(job)
	job.UpdatedAt = time.Now()
}

// StartJanitor sweeps finished jobs past the retention window once a minute.
func (s *Store) StartJanitor() {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case now := <-ticker.C:
				if removed := s.Sweep(now); removed > 0 {
					config.GetLogger().WithFields(logrus.Fields{
						"module":  "jobs",
						"removed": removed,
					}).Debug("swept expired job records")
				}
			}
		}
	}()
}

// Sweep removes finished jobs whose completion is older than the retention
// window and returns how many were removed.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, job := range s.jobs {
		if job.FinishedAt != nil && now.Sub(*job.FinishedAt) > s.retention {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

func (s *Store) StopJanitor() {
	s.stopOnce.Do(func() { close(s.stop) })
}
