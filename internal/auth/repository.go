package auth

import (
	"context"
	"time"
)

// UserListOptions filters and paginates accounts.
type UserListOptions struct {
	// Search matches the email case-insensitively.
	Search string
	Page   int
	Limit  int
}

// UserListResult contains a page of accounts and the number of matches.
type UserListResult struct {
	Items []*User
	Total int
}

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	// Create creates a new user. Returns ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, user *User) error

	// FindByID finds a user by their internal ID.
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByEmail finds a user by email, ignoring case.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Update replaces the mutable fields of a user.
	Update(ctx context.Context, user *User) error

	// List returns accounts newest first.
	List(ctx context.Context, opts UserListOptions) (*UserListResult, error)

	// Counts summarizes accounts; NewSince counts users created at or after since.
	Counts(ctx context.Context, since time.Time) (*UserCounts, error)
}

// RefreshTokenRepository defines the interface for refresh token operations.
type RefreshTokenRepository interface {
	// Create stores a new refresh token.
	Create(ctx context.Context, token *RefreshToken) error

	// FindByHash finds a refresh token by its digest.
	FindByHash(ctx context.Context, hash string) (*RefreshToken, error)

	// Revoke marks a refresh token as revoked. It reports whether a live token was revoked.
	Revoke(ctx context.Context, hash string, at time.Time) (bool, error)

	// RevokeAllForUser revokes all refresh tokens for a user.
	RevokeAllForUser(ctx context.Context, userID string, at time.Time) error
}
