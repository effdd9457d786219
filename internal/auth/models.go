// Package auth provides accounts and token-based authentication for TripForge.
package auth

import (
	"errors"
	"time"
)

// Predefined service errors.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountSuspended   = errors.New("account is suspended")
	ErrInvalidStatus      = errors.New("invalid status")
)

// Role grants access to parts of the API.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Status is the account state.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// User is an account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// RefreshToken represents a stored refresh token. The token itself is never stored.
type RefreshToken struct {
	ID        string
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// Identity is what a validated access token proves.
type Identity struct {
	UserID string
	Role   Role
}

// UserCounts summarizes accounts for dashboards.
type UserCounts struct {
	Total     int
	Active    int
	Suspended int
	Admins    int
	NewSince  int
}
