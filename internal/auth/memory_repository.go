package auth

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// InMemoryUserRepository is an in-memory implementation of UserRepository.
// It is used in tests and when no database is configured.
type InMemoryUserRepository struct {
	mu      sync.RWMutex
	users   map[string]*User  // keyed by user ID
	byEmail map[string]string // lower(email) -> userID
}

// NewInMemoryUserRepository creates a new in-memory user repository.
func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users:   make(map[string]*User),
		byEmail: make(map[string]string),
	}
}

// Create creates a new user.
func (r *InMemoryUserRepository) Create(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, ok := r.byEmail[key]; ok {
		return ErrEmailTaken
	}

	userCopy := *user
	r.users[user.ID] = &userCopy
	r.byEmail[key] = user.ID
	return nil
}

// FindByID finds a user by their internal ID.
func (r *InMemoryUserRepository) FindByID(_ context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	userCopy := *user
	return &userCopy, nil
}

// FindByEmail finds a user by email, ignoring case.
func (r *InMemoryUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	id, ok := r.byEmail[strings.ToLower(email)]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrUserNotFound
	}
	return r.FindByID(ctx, id)
}

// Update replaces the mutable fields of a user.
func (r *InMemoryUserRepository) Update(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.ID]
	if !ok {
		return ErrUserNotFound
	}
	existing.PasswordHash = user.PasswordHash
	existing.Role = user.Role
	existing.Status = user.Status
	existing.UpdatedAt = user.UpdatedAt
	return nil
}

// List returns accounts newest first.
func (r *InMemoryUserRepository) List(_ context.Context, opts UserListOptions) (*UserListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(opts.Search)
	var matched []*User
	for _, u := range r.users {
		if search != "" && !strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		userCopy := *u
		matched = append(matched, &userCopy)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	result := &UserListResult{Items: []*User{}, Total: len(matched)}
	start := (opts.Page - 1) * opts.Limit
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

// Counts summarizes accounts.
func (r *InMemoryUserRepository) Counts(_ context.Context, since time.Time) (*UserCounts, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := &UserCounts{}
	for _, u := range r.users {
		c.Total++
		switch u.Status {
		case StatusActive:
			c.Active++
		case StatusSuspended:
			c.Suspended++
		}
		if u.Role == RoleAdmin {
			c.Admins++
		}
		if !u.CreatedAt.Before(since) {
			c.NewSince++
		}
	}
	return c, nil
}

// InMemoryRefreshTokenRepository is an in-memory implementation of RefreshTokenRepository.
type InMemoryRefreshTokenRepository struct {
	mu     sync.RWMutex
	tokens map[string]*RefreshToken // keyed by token hash
	byUser map[string][]string      // userID -> token hashes
}

// NewInMemoryRefreshTokenRepository creates a new in-memory refresh token repository.
func NewInMemoryRefreshTokenRepository() *InMemoryRefreshTokenRepository {
	return &InMemoryRefreshTokenRepository{
		tokens: make(map[string]*RefreshToken),
		byUser: make(map[string][]string),
	}
}

// Create stores a new refresh token.
func (r *InMemoryRefreshTokenRepository) Create(_ context.Context, token *RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tokenCopy := *token
	r.tokens[token.TokenHash] = &tokenCopy
	r.byUser[token.UserID] = append(r.byUser[token.UserID], token.TokenHash)
	return nil
}

// FindByHash finds a refresh token by its digest.
func (r *InMemoryRefreshTokenRepository) FindByHash(_ context.Context, hash string) (*RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token, ok := r.tokens[hash]
	if !ok {
		return nil, ErrInvalidRefreshToken
	}

	tokenCopy := *token
	return &tokenCopy, nil
}

// Revoke marks a refresh token as revoked.
func (r *InMemoryRefreshTokenRepository) Revoke(_ context.Context, hash string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[hash]
	if !ok || token.RevokedAt != nil {
		return false, nil
	}
	token.RevokedAt = &at
	return true, nil
}

// RevokeAllForUser revokes all refresh tokens for a user.
func (r *InMemoryRefreshTokenRepository) RevokeAllForUser(_ context.Context, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, hash := range r.byUser[userID] {
		if token, ok := r.tokens[hash]; ok && token.RevokedAt == nil {
			revokedAt := at
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

var (
	_ UserRepository         = (*InMemoryUserRepository)(nil)
	_ RefreshTokenRepository = (*InMemoryRefreshTokenRepository)(nil)
)
