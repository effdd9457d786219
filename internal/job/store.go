package job

import (
	"context"

	"github.com/tripforge/tripforge/internal/itinerary"
)

// Store persists jobs. Complete and Fail only succeed on a pending job and
// return ErrAlreadyFinished otherwise.
type Store interface {
	// Create stores a new pending job.
	Create(ctx context.Context, job *Job) error

	// Get retrieves a job by ID.
	Get(ctx context.Context, id string) (*Job, error)

	// Complete marks a pending job completed with its itinerary.
	Complete(ctx context.Context, id string, it *itinerary.Itinerary) error

	// Fail marks a pending job failed with a caller-facing message.
	Fail(ctx context.Context, id string, message string) error
}
