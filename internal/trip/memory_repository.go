package trip

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// InMemoryRepository is an in-memory implementation of Repository.
// It is used in tests and when no database is configured.
type InMemoryRepository struct {
	mu    sync.RWMutex
	trips map[string]*Trip
}

// NewInMemoryRepository creates a new in-memory trip repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		trips: make(map[string]*Trip),
	}
}

// Get retrieves a trip by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.trips[id]
	if !ok {
		return nil, ErrTripNotFound
	}
	cpy := *t
	return &cpy, nil
}

// GetByUserAndID retrieves a trip only if userID owns it.
func (r *InMemoryRepository) GetByUserAndID(ctx context.Context, userID, id string) (*Trip, error) {
	t, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, ErrTripNotFound
	}
	return t, nil
}

// List returns trips newest first.
func (r *InMemoryRepository) List(_ context.Context, opts ListOptions) (*ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(opts.Search)
	var matched []*Trip
	for _, t := range r.trips {
		if opts.UserID != "" && t.UserID != opts.UserID {
			continue
		}
		if !opts.Since.IsZero() && t.CreatedAt.Before(opts.Since) {
			continue
		}
		if search != "" && !matches(t, search) {
			continue
		}
		cpy := *t
		matched = append(matched, &cpy)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	result := &ListResult{Items: []*Trip{}, Total: len(matched)}
	start := opts.offset()
	if start < 0 {
		start = 0
	}
	if start >= len(matched) {
		return result, nil
	}
	end := start + opts.Limit
	if opts.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	result.Items = matched[start:end]
	return result, nil
}

func matches(t *Trip, search string) bool {
	return strings.Contains(strings.ToLower(t.Title), search) ||
		strings.Contains(strings.ToLower(t.Summary), search) ||
		strings.Contains(strings.ToLower(t.Destination), search)
}

// Create stores a new trip.
func (r *InMemoryRepository) Create(_ context.Context, t *Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *t
	r.trips[t.ID] = &cpy
	return nil
}

// UpdateStatus changes the status of a trip.
func (r *InMemoryRepository) UpdateStatus(_ context.Context, id string, status Status, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trips[id]
	if !ok {
		return ErrTripNotFound
	}
	t.Status = status
	t.UpdatedAt = at
	return nil
}

// Delete removes a trip.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.trips[id]; !ok {
		return ErrTripNotFound
	}
	delete(r.trips, id)
	return nil
}

// Summarize counts trips by status.
func (r *InMemoryRepository) Summarize(_ context.Context, userID string) (*Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := &Summary{ByStatus: make(map[Status]int)}
	total := decimal.Zero
	for _, t := range r.trips {
		if userID != "" && t.UserID != userID {
			continue
		}
		s.Total++
		s.ByStatus[t.Status]++
		total = total.Add(decimal.NewFromFloat(t.Budget))
	}
	s.TotalBudget = total.InexactFloat64()
	return s, nil
}

// TopUsers returns the users with the most trips, ties broken by spend.
func (r *InMemoryRepository) TopUsers(_ context.Context, limit int) ([]UserTotal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int)
	spent := make(map[string]decimal.Decimal)
	for _, t := range r.trips {
		counts[t.UserID]++
		spent[t.UserID] = spent[t.UserID].Add(decimal.NewFromFloat(t.Budget))
	}

	out := make([]UserTotal, 0, len(counts))
	for id, n := range counts {
		out = append(out, UserTotal{UserID: id, Trips: n, Spent: spent[id].InexactFloat64()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Trips != out[j].Trips {
			return out[i].Trips > out[j].Trips
		}
		if out[i].Spent != out[j].Spent {
			return out[i].Spent > out[j].Spent
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
