// Package job tracks asynchronous itinerary generation requests.
package job

import (
	"errors"
	"time"

	"github.com/tripforge/tripforge/internal/itinerary"
)

// Errors.
var (
	ErrJobNotFound     = errors.New("job not found")
	ErrQueueFull       = errors.New("job queue is full")
	ErrAlreadyFinished = errors.New("job already finished")
	ErrStopped         = errors.New("job service stopped")
)

// Status is the lifecycle state of a job.
type Status string

// Job statuses. A job moves from pending to exactly one terminal status.
const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one asynchronous generation request.
type Job struct {
	ID        string
	UserID    string
	Status    Status
	Itinerary *itinerary.Itinerary
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
