package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tripforge/tripforge/internal/api/models"
	"github.com/tripforge/tripforge/internal/auth"
	"github.com/tripforge/tripforge/internal/validation"
)

// Accounts looks up the account a profile belongs to.
type Accounts interface {
	GetUser(ctx context.Context, userID string) (*auth.User, error)
}

// Service provides profile operations.
type Service struct {
	repo     Repository
	accounts Accounts
}

// NewService creates a new profile service.
func NewService(repo Repository, accounts Accounts) *Service {
	return &Service{repo: repo, accounts: accounts}
}

// Get returns the user's profile, creating the default one on first access.
func (s *Service) Get(ctx context.Context, userID string) (*models.Profile, error) {
	p, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ToAPI(p), nil
}

// Create stores the profile of a new account. An empty name falls back to
// the local part of email.
func (s *Service) Create(ctx context.Context, userID, email, name string) (*models.Profile, error) {
	p := DefaultProfile(userID, email)
	if name = strings.TrimSpace(name); name != "" {
		p.Name = name
	}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return ToAPI(p), nil
}

// Update applies the fields present in input.
func (s *Service) Update(ctx context.Context, userID string, input *models.ProfileInput) (*models.Profile, error) {
	if errs := validation.Struct(input); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	p, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		p.Name = strings.TrimSpace(*input.Name)
	}
	if input.Bio != nil {
		p.Bio = strings.TrimSpace(*input.Bio)
	}
	if input.Location != nil {
		p.Location = strings.TrimSpace(*input.Location)
	}
	if input.AvatarURL != nil {
		p.AvatarURL = strings.TrimSpace(*input.AvatarURL)
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return ToAPI(p), nil
}

// Find returns the stored profile without creating one.
func (s *Service) Find(ctx context.Context, userID string) (*models.Profile, error) {
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ToAPI(p), nil
}

func (s *Service) load(ctx context.Context, userID string) (*Profile, error) {
	p, err := s.repo.Get(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	account, err := s.accounts.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	p = DefaultProfile(userID, account.Email)
	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ToAPI converts a domain Profile to an API Profile.
func ToAPI(p *Profile) *models.Profile {
	return &models.Profile{
		UserID:    p.UserID,
		Name:      p.Name,
		Bio:       p.Bio,
		Location:  p.Location,
		AvatarURL: p.AvatarURL,
		CreatedAt: models.Timestamp(p.CreatedAt),
		UpdatedAt: models.Timestamp(p.UpdatedAt),
	}
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
