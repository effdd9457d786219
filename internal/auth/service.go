package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/tripforge/tripforge/internal/api/models"
	"github.com/tripforge/tripforge/internal/validation"
)

// Service provides authentication operations.
type Service struct {
	jwtService  *JWTService
	userRepo    UserRepository
	refreshRepo RefreshTokenRepository
	refreshTTL  time.Duration
	bcryptCost  int
	logger      zerolog.Logger
	now         func() time.Time
}

// ServiceConfig holds configuration for the auth service.
type ServiceConfig struct {
	JWTService  *JWTService
	UserRepo    UserRepository
	RefreshRepo RefreshTokenRepository

	// RefreshTokenTTL defaults to DefaultRefreshTokenTTL.
	RefreshTokenTTL time.Duration

	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int

	Logger zerolog.Logger
}

// NewService creates a new auth service.
func NewService(cfg ServiceConfig) *Service {
	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	return &Service{
		jwtService:  cfg.JWTService,
		userRepo:    cfg.UserRepo,
		refreshRepo: cfg.RefreshRepo,
		refreshTTL:  refreshTTL,
		bcryptCost:  cost,
		logger:      cfg.Logger,
		now:         time.Now,
	}
}

// SignUp creates a user account and signs it in.
func (s *Service) SignUp(ctx context.Context, req *models.SignUpRequest) (*models.AuthTokens, *User, error) {
	req.Email = normalizeEmail(req.Email)
	if errs := validation.Struct(req); len(errs) > 0 {
		return nil, nil, &ValidationError{Errors: errs}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hashing password: %w", err)
	}

	now := s.now().UTC()
	user := &User{
		ID:           generateUserID(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         RoleUser,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("account created")
	tokens, err := s.generateTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return tokens, user, nil
}

// SignIn verifies an email and password and returns a new session.
func (s *Service) SignIn(ctx context.Context, req *models.SignInRequest) (*models.AuthTokens, error) {
	req.Email = normalizeEmail(req.Email)
	if errs := validation.Struct(req); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Status == StatusSuspended {
		return nil, ErrAccountSuspended
	}

	return s.generateTokens(ctx, user)
}

// Refresh rotates a refresh token and returns a new session.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	hash := HashRefreshToken(refreshToken)
	stored, err := s.refreshRepo.FindByHash(ctx, hash)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	if stored.RevokedAt != nil {
		return nil, ErrInvalidRefreshToken
	}
	if s.now().After(stored.ExpiresAt) {
		return nil, ErrRefreshTokenExpired
	}

	user, err := s.userRepo.FindByID(ctx, stored.UserID)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	if user.Status == StatusSuspended {
		return nil, ErrAccountSuspended
	}

	// A concurrent refresh may have won the race for this token.
	revoked, err := s.refreshRepo.Revoke(ctx, hash, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("revoking old refresh token: %w", err)
	}
	if !revoked {
		return nil, ErrInvalidRefreshToken
	}

	return s.generateTokens(ctx, user)
}

// Logout revokes one of userID's refresh tokens. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, userID, refreshToken string) error {
	hash := HashRefreshToken(refreshToken)
	stored, err := s.refreshRepo.FindByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			return nil
		}
		return err
	}
	if stored.UserID != userID {
		return nil
	}
	_, err = s.refreshRepo.Revoke(ctx, hash, s.now().UTC())
	return err
}

// LogoutAll revokes every refresh token of userID.
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	return s.refreshRepo.RevokeAllForUser(ctx, userID, s.now().UTC())
}

// ValidateAccessToken validates an access token and returns who it identifies.
func (s *Service) ValidateAccessToken(tokenString string) (*Identity, error) {
	claims, err := s.jwtService.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &Identity{UserID: claims.UserID, Role: claims.Role}, nil
}

// GetUser retrieves a user by ID.
func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

// ListUsers returns one page of accounts.
func (s *Service) ListUsers(ctx context.Context, opts UserListOptions) (*UserListResult, error) {
	return s.userRepo.List(ctx, opts)
}

// Counts summarizes accounts, counting those created at or after since as new.
func (s *Service) Counts(ctx context.Context, since time.Time) (*UserCounts, error) {
	return s.userRepo.Counts(ctx, since)
}

// SetStatus suspends or reactivates a user. Suspension ends all sessions.
func (s *Service) SetStatus(ctx context.Context, userID string, status Status) (*User, error) {
	if status != StatusActive && status != StatusSuspended {
		return nil, ErrInvalidStatus
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Status = status
	user.UpdatedAt = s.now().UTC()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	if status == StatusSuspended {
		if err := s.LogoutAll(ctx, userID); err != nil {
			return nil, fmt.Errorf("revoking sessions: %w", err)
		}
	}
	s.logger.Info().Str("user_id", userID).Str("status", string(status)).Msg("account status changed")
	return user, nil
}

// EnsureAdmin makes sure an active admin account with the given credentials
// exists. It does nothing when email is empty.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}
	if password == "" {
		return fmt.Errorf("admin password is required for %s", email)
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return err
	}

	if user == nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}
		now := s.now().UTC()
		user = &User{
			ID:           generateUserID(),
			Email:        email,
			PasswordHash: string(hash),
			Role:         RoleAdmin,
			Status:       StatusActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("creating admin: %w", err)
		}
		s.logger.Info().Str("user_id", user.ID).Msg("admin account created")
		return nil
	}

	changed := false
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}
		user.PasswordHash = string(hash)
		changed = true
	}
	if user.Role != RoleAdmin || user.Status != StatusActive {
		user.Role = RoleAdmin
		user.Status = StatusActive
		changed = true
	}
	if !changed {
		return nil
	}
	user.UpdatedAt = s.now().UTC()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("updating admin: %w", err)
	}
	s.logger.Info().Str("user_id", user.ID).Msg("admin account updated")
	return nil
}

// generateTokens generates both access and refresh tokens for a user.
func (s *Service) generateTokens(ctx context.Context, user *User) (*models.AuthTokens, error) {
	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generating access token: %w", err)
	}

	refreshTokenStr, err := GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generating refresh token: %w", err)
	}

	now := s.now().UTC()
	refreshToken := &RefreshToken{
		ID:        uuid.New().String(),
		TokenHash: HashRefreshToken(refreshTokenStr),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}
	if err := s.refreshRepo.Create(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("storing refresh token: %w", err)
	}

	return &models.AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshTokenStr,
		TokenType:    "Bearer",
		ExpiresIn:    int(time.Until(expiresAt).Seconds()),
		User:         ToAccount(user),
	}, nil
}

// ToAccount converts a domain User to an API Account.
func ToAccount(u *User) models.Account {
	return models.Account{
		ID:        u.ID,
		Email:     u.Email,
		Role:      string(u.Role),
		Status:    string(u.Status),
		CreatedAt: models.Timestamp(u.CreatedAt),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateUserID generates a unique user ID with prefix.
func generateUserID() string {
	return "usr_" + uuid.New().String()[:22]
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
