// Package user manages public user profiles.
package user

import (
	"errors"
	"strings"
	"time"
)

// Repository errors.
var (
	ErrProfileNotFound = errors.New("profile not found")
)

// Profile is the public face of an account.
type Profile struct {
	UserID    string
	Name      string
	Bio       string
	Location  string
	AvatarURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultProfile returns the profile created for an account on first access.
// The name is taken from the local part of the email address.
func DefaultProfile(userID, email string) *Profile {
	now := time.Now().UTC()
	return &Profile{
		UserID:    userID,
		Name:      displayName(email),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func displayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
