// Package admin aggregates platform data for moderators.
package admin

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tripforge/tripforge/internal/api/models"
	"github.com/tripforge/tripforge/internal/auth"
	"github.com/tripforge/tripforge/internal/trip"
	"github.com/tripforge/tripforge/internal/user"
)

// Dashboard sizes.
const (
	RecentWindow   = 30 * 24 * time.Hour
	RecentLimit    = 10
	TopUsersLimit  = 10
	UserTripsLimit = trip.MaxLimit
)

// Config holds the services the admin service reads from.
type Config struct {
	Auth     *auth.Service
	Trips    *trip.Service
	Profiles *user.Service
	Logger   zerolog.Logger
}

// Service provides moderation operations.
type Service struct {
	auth     *auth.Service
	trips    *trip.Service
	profiles *user.Service
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService creates a new admin service.
func NewService(cfg Config) *Service {
	return &Service{
		auth:     cfg.Auth,
		trips:    cfg.Trips,
		profiles: cfg.Profiles,
		logger:   cfg.Logger,
		now:      time.Now,
	}
}

// Dashboard returns platform-wide statistics.
func (s *Service) Dashboard(ctx context.Context) (*models.AdminDashboard, error) {
	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	counts, err := s.auth.Counts(ctx, monthStart)
	if err != nil {
		return nil, err
	}

	overview, err := s.trips.Overview(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := s.trips.CreatedSince(ctx, now.Add(-RecentWindow), RecentLimit)
	if err != nil {
		return nil, err
	}

	totals, err := s.trips.TopUsers(ctx, TopUsersLimit)
	if err != nil {
		return nil, err
	}

	top := make([]models.TopUser, 0, len(totals))
	for _, t := range totals {
		entry := models.TopUser{
			UserID:     t.UserID,
			TotalTrips: t.Trips,
			TotalSpent: t.Spent,
		}
		u, err := s.auth.GetUser(ctx, t.UserID)
		switch {
		case err == nil:
			entry.Email = u.Email
		case errors.Is(err, auth.ErrUserNotFound):
			s.logger.Debug().Str("user_id", t.UserID).Msg("top user has no account")
		default:
			return nil, err
		}
		top = append(top, entry)
	}

	return &models.AdminDashboard{
		Users: models.UserCounts{
			Total:        counts.Total,
			Active:       counts.Active,
			Suspended:    counts.Suspended,
			Admins:       counts.Admins,
			NewThisMonth: counts.NewSince,
		},
		Itineraries: models.ItineraryCounts{
			Total:       overview.Total,
			Draft:       overview.ByStatus[trip.StatusDraft],
			Active:      overview.ByStatus[trip.StatusActive],
			Upcoming:    overview.ByStatus[trip.StatusUpcoming],
			Completed:   overview.ByStatus[trip.StatusCompleted],
			Flagged:     overview.ByStatus[trip.StatusFlagged],
			TotalBudget: overview.TotalBudget,
			AvgBudget:   average(overview.TotalBudget, overview.Total),
		},
		RecentActivity: recent,
		TopUsers:       top,
	}, nil
}

func average(total float64, n int) float64 {
	if n == 0 {
		return 0
	}
	avg, _ := decimal.NewFromFloat(total).
		Div(decimal.NewFromInt(int64(n))).
		Round(2).
		Float64()
	return avg
}

// ListUsers returns one page of accounts with their profiles.
func (s *Service) ListUsers(ctx context.Context, opts auth.UserListOptions) (*models.PagedUsers, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 || opts.Limit > trip.MaxLimit {
		opts.Limit = trip.DefaultLimit
	}

	result, err := s.auth.ListUsers(ctx, opts)
	if err != nil {
		return nil, err
	}

	items := make([]models.AdminUser, 0, len(result.Items))
	for _, u := range result.Items {
		au, err := s.adminUser(ctx, u)
		if err != nil {
			return nil, err
		}
		items = append(items, *au)
	}

	return &models.PagedUsers{
		Items: items,
		Meta: models.PageMeta{
			Page:  opts.Page,
			Limit: opts.Limit,
			Total: result.Total,
		},
	}, nil
}

// GetUser returns an account with its profile, trips and trip statistics.
func (s *Service) GetUser(ctx context.Context, userID string) (*models.AdminUserDetail, error) {
	u, err := s.auth.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	au, err := s.adminUser(ctx, u)
	if err != nil {
		return nil, err
	}

	trips, err := s.trips.List(ctx, userID, trip.ListOptions{Page: 1, Limit: UserTripsLimit})
	if err != nil {
		return nil, err
	}
	stats, err := s.trips.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.AdminUserDetail{
		User:  *au,
		Trips: trips.Items,
		Stats: *stats,
	}, nil
}

// SetUserStatus suspends or reactivates an account.
func (s *Service) SetUserStatus(ctx context.Context, userID, status string) (*models.AdminUser, error) {
	st := auth.Status(status)
	if st != auth.StatusActive && st != auth.StatusSuspended {
		return nil, auth.ErrInvalidStatus
	}

	u, err := s.auth.SetStatus(ctx, userID, st)
	if err != nil {
		return nil, err
	}
	return s.adminUser(ctx, u)
}

// ListItineraries returns one page of every user's trips.
func (s *Service) ListItineraries(ctx context.Context, opts trip.ListOptions) (*models.PagedTrips, error) {
	return s.trips.ListAll(ctx, opts)
}

// GetItinerary returns any trip with its itinerary.
func (s *Service) GetItinerary(ctx context.Context, id string) (*models.Trip, error) {
	return s.trips.AdminGet(ctx, id)
}

// FlagItinerary marks a trip for moderation.
func (s *Service) FlagItinerary(ctx context.Context, id string) (*models.Trip, error) {
	t, err := s.trips.Flag(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("trip_id", id).Str("user_id", t.UserID).Msg("itinerary flagged")
	return t, nil
}

func (s *Service) adminUser(ctx context.Context, u *auth.User) (*models.AdminUser, error) {
	out := &models.AdminUser{Account: auth.ToAccount(u)}
	p, err := s.profiles.Find(ctx, u.ID)
	switch {
	case err == nil:
		out.Profile = p
	case !errors.Is(err, user.ErrProfileNotFound):
		return nil, err
	}
	return out, nil
}
