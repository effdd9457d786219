package trip

import (
	"context"
	"time"
)

// ListOptions filters and paginates trips.
type ListOptions struct {
	// UserID restricts results to one owner. Empty lists every user's trips.
	UserID string
	// Search matches title, summary and destination case-insensitively.
	Search string
	// Since excludes trips created before it when non-zero.
	Since time.Time
	Page  int
	Limit int
}

// ListResult contains a page of trips and the number of matching trips.
type ListResult struct {
	Items []*Trip
	Total int
}

// Repository defines the interface for trip persistence.
type Repository interface {
	// Get retrieves a trip by ID.
	Get(ctx context.Context, id string) (*Trip, error)

	// GetByUserAndID retrieves a trip only if userID owns it.
	GetByUserAndID(ctx context.Context, userID, id string) (*Trip, error)

	// List returns trips newest first.
	List(ctx context.Context, opts ListOptions) (*ListResult, error)

	Create(ctx context.Context, t *Trip) error

	// UpdateStatus changes the status of a trip.
	UpdateStatus(ctx context.Context, id string, status Status, at time.Time) error

	Delete(ctx context.Context, id string) error

	// Summarize counts trips by status. Empty userID covers all users.
	Summarize(ctx context.Context, userID string) (*Summary, error)

	// TopUsers returns the users with the most trips.
	TopUsers(ctx context.Context, limit int) ([]UserTotal, error)
}

func (o ListOptions) offset() int {
	return (o.Page - 1) * o.Limit
}
