package user

import (
	"context"
	"sync"
)

// Repository defines the interface for profile persistence.
type Repository interface {
	// Get retrieves the profile of a user.
	Get(ctx context.Context, userID string) (*Profile, error)

	// Upsert creates or replaces a profile.
	Upsert(ctx context.Context, p *Profile) error

	// Delete removes a profile.
	Delete(ctx context.Context, userID string) error
}

// InMemoryRepository is an in-memory implementation of Repository.
type InMemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewInMemoryRepository creates a new in-memory profile repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		profiles: make(map[string]*Profile),
	}
}

// Get retrieves the profile of a user.
func (r *InMemoryRepository) Get(_ context.Context, userID string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	cpy := *p
	return &cpy, nil
}

// Upsert creates or replaces a profile. CreatedAt of an existing profile is kept.
func (r *InMemoryRepository) Upsert(_ context.Context, p *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *p
	if existing, ok := r.profiles[p.UserID]; ok {
		cpy.CreatedAt = existing.CreatedAt
	}
	r.profiles[p.UserID] = &cpy
	return nil
}

// Delete removes a profile.
func (r *InMemoryRepository) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.profiles, userID)
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
