package job

import (
	"context"
	"sync"
	"time"

	"github.com/tripforge/tripforge/internal/itinerary"
)

// MemoryStore keeps jobs in process memory. Jobs are lost on restart and
// are not visible to other instances.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	ttl  time.Duration
	now  func() time.Time
}

// NewMemoryStore creates an in-memory store. Finished jobs older than ttl are
// dropped when new jobs are created; a zero ttl keeps them forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Create stores a new job.
func (s *MemoryStore) Create(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictLocked()
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

// Get retrieves a copy of a job.
func (s *MemoryStore) Get(_ context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	cp := *j
	return &cp, nil
}

// Complete marks a pending job completed.
func (s *MemoryStore) Complete(_ context.Context, id string, it *itinerary.Itinerary) error {
	return s.finish(id, func(j *Job) {
		j.Status = StatusCompleted
		j.Itinerary = it
	})
}

// Fail marks a pending job failed.
func (s *MemoryStore) Fail(_ context.Context, id string, message string) error {
	return s.finish(id, func(j *Job) {
		j.Status = StatusFailed
		j.Error = message
	})
}

// Len returns the number of stored jobs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

func (s *MemoryStore) finish(id string, apply func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if j.Status.Terminal() {
		return ErrAlreadyFinished
	}
	apply(j)
	j.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) evictLocked() {
	if s.ttl <= 0 {
		return
	}
	cutoff := s.now().Add(-s.ttl)
	for id, j := range s.jobs {
		if j.Status.Terminal() && j.UpdatedAt.Before(cutoff) {
			delete(s.jobs, id)
		}
	}
}

var _ Store = (*MemoryStore)(nil)
