package store

import (
	"errors"
	"sync"
	"time"

	"ytmp3/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no job exists for the given id.
	ErrNotFound = errors.New("job not found")

	// ErrCapacityExceeded is returned by Create when the number of active
	// (queued or downloading) jobs is already at the configured limit.
	ErrCapacityExceeded = errors.New("maximum concurrent downloads reached")

	// ErrInvalidTransition is returned when an update would move a finished
	// job back to a non-terminal status. Correct callers never trigger it.
	ErrInvalidTransition = errors.New("job already finished")
)

// Update carries a partial job update. Nil fields are left unchanged.
type Update struct {
	Status     *models.Status
	Title      *string
	Progress   *int
	Error      *string
	OutputPath *string
}

// Store is the authoritative in-memory registry of download jobs.
// All access goes through its methods so the job invariants are
// enforced in one place.
type Store struct {
	mu        sync.RWMutex
	jobs      map[string]*models.Job
	maxActive int
}

// New creates a Store admitting at most maxActive concurrent jobs.
func New(maxActive int) *Store {
	if maxActive < 1 {
		maxActive = 1
	}
	return &Store{
		jobs:      make(map[string]*models.Job),
		maxActive: maxActive,
	}
}

// SetMaxActive changes the admission limit. Jobs already admitted are
// not affected.
func (s *Store) SetMaxActive(n int) {
	if n < 1 {
		return
	}
	s.mu.Lock()
	s.maxActive = n
	s.mu.Unlock()
}

// Create admits and registers a new job in queued state.
func (s *Store) Create(url, customName string) (models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := 0
	for _, job := range s.jobs {
		if job.Status.IsActive() {
			active++
		}
	}
	if active >= s.maxActive {
		return models.Job{}, ErrCapacityExceeded
	}

	job := &models.Job{
		ID:         uuid.New().String(),
		URL:        url,
		CustomName: customName,
		Status:     models.StatusQueued,
		Progress:   0,
		CreatedAt:  time.Now(),
	}
	s.jobs[job.ID] = job
	return *job, nil
}

// Get returns a copy of the job.
func (s *Store) Get(id string) (models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return models.Job{}, ErrNotFound
	}
	return *job, nil
}

// List returns a consistent snapshot of all jobs keyed by id.
func (s *Store) List() map[string]models.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]models.Job, len(s.jobs))
	for id, job := range s.jobs {
		out[id] = *job
	}
	return out
}

// Update applies the set fields of u atomically and returns the
// resulting job. A finished job cannot be moved back to a non-terminal
// status, and progress never decreases: a regressive value is dropped,
// not applied.
func (s *Store) Update(id string, u Update) (models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return models.Job{}, ErrNotFound
	}

	if u.Status != nil && job.Status.IsTerminal() && !u.Status.IsTerminal() {
		return models.Job{}, ErrInvalidTransition
	}

	if u.Title != nil {
		job.Title = *u.Title
	}
	if u.Progress != nil {
		p := *u.Progress
		if p < 0 {
			p = 0
		}
		if p > 100 {
			p = 100
		}
		if p > job.Progress {
			job.Progress = p
		}
	}
	if u.OutputPath != nil {
		job.OutputPath = *u.OutputPath
	}
	if u.Error != nil {
		job.Error = *u.Error
	}
	if u.Status != nil {
		job.Status = *u.Status
		switch job.Status {
		case models.StatusCompleted:
			job.Progress = 100
			job.Error = ""
		case models.StatusError:
			if job.Error == "" {
				job.Error = "download failed"
			}
		default:
			job.Error = ""
		}
	}

	return *job, nil
}

// Delete removes the job. Deleting an unknown id returns ErrNotFound so
// callers can tell "already gone" apart from success.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(s.jobs, id)
	return nil
}
