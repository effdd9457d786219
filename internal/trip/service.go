package trip

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tripforge/tripforge/internal/api/models"
	"github.com/tripforge/tripforge/internal/itinerary"
	"github.com/tripforge/tripforge/internal/validation"
)

// Pagination defaults.
const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// Service provides trip operations.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new trip service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Save normalizes the submitted itinerary and stores it for userID.
func (s *Service) Save(ctx context.Context, userID string, input *models.TripCreateRequest) (*models.Trip, error) {
	if errs := validation.Struct(input); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	it, err := itinerary.Normalize(input.Itinerary, itinerary.Fallback{
		Destination: strings.TrimSpace(input.Destination),
		Duration:    input.Duration,
		Budget:      input.Budget,
	})
	if err != nil {
		return nil, &ValidationError{Errors: []models.FieldError{
			{Field: "itinerary", Message: "must be an itinerary document", Code: "invalid"},
		}}
	}
	if err := it.Validate(); err != nil {
		return nil, &ValidationError{Errors: []models.FieldError{
			{Field: "itinerary", Message: err.Error(), Code: "invalid"},
		}}
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = defaultTitle(it)
	}
	source := strings.TrimSpace(input.Source)
	if source == "" {
		source = DefaultSource
	}
	status := Status(input.Status)
	if status == "" {
		status = StatusDraft
	}
	budget := it.TotalBudget
	if input.Budget != nil {
		budget = *input.Budget
	}

	now := s.now().UTC()
	t := &Trip{
		ID:          "trp_" + uuid.New().String()[:22],
		UserID:      userID,
		Title:       title,
		Summary:     strings.TrimSpace(input.Summary),
		Destination: it.Destination,
		Source:      source,
		Duration:    it.Duration,
		Budget:      budget,
		Itinerary:   it,
		Payload:     input.Itinerary,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	result := ToAPI(t, true)
	return &result, nil
}

func defaultTitle(it *itinerary.Itinerary) string {
	if it.Duration <= 0 {
		return "Trip to " + it.Destination
	}
	return fmt.Sprintf("%d-day trip to %s", it.Duration, it.Destination)
}

// List returns one page of userID's trips.
func (s *Service) List(ctx context.Context, userID string, opts ListOptions) (*models.PagedTrips, error) {
	opts.UserID = userID
	return s.list(ctx, opts)
}

// ListAll returns one page of every user's trips.
func (s *Service) ListAll(ctx context.Context, opts ListOptions) (*models.PagedTrips, error) {
	opts.UserID = ""
	return s.list(ctx, opts)
}

func (s *Service) list(ctx context.Context, opts ListOptions) (*models.PagedTrips, error) {
	opts = clampPage(opts)
	opts.Search = strings.TrimSpace(opts.Search)

	result, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, err
	}

	return &models.PagedTrips{
		Items: toAPIList(result.Items),
		Meta: models.PageMeta{
			Page:  opts.Page,
			Limit: opts.Limit,
			Total: result.Total,
		},
	}, nil
}

func clampPage(opts ListOptions) ListOptions {
	if opts.Page < 1 {
		opts.Page = 1
	}
	switch {
	case opts.Limit <= 0:
		opts.Limit = DefaultLimit
	case opts.Limit > MaxLimit:
		opts.Limit = MaxLimit
	}
	return opts
}

// Recent returns up to n of the user's newest trips.
func (s *Service) Recent(ctx context.Context, userID string, n int) ([]models.Trip, error) {
	result, err := s.repo.List(ctx, ListOptions{UserID: userID, Page: 1, Limit: n})
	if err != nil {
		return nil, err
	}
	return toAPIList(result.Items), nil
}

// Get retrieves one of userID's trips.
func (s *Service) Get(ctx context.Context, userID, id string) (*models.Trip, error) {
	t, err := s.repo.GetByUserAndID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	result := ToAPI(t, true)
	return &result, nil
}

// AdminGet retrieves any trip.
func (s *Service) AdminGet(ctx context.Context, id string) (*models.Trip, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	result := ToAPI(t, true)
	return &result, nil
}

// Delete removes one of userID's trips.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	// Verify ownership
	if _, err := s.repo.GetByUserAndID(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// UpdateStatus changes the status of one of userID's trips.
// Flagged trips stay flagged until a moderator acts.
func (s *Service) UpdateStatus(ctx context.Context, userID, id string, input *models.TripStatusRequest) (*models.Trip, error) {
	if errs := validation.Struct(input); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	t, err := s.repo.GetByUserAndID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if t.Status == StatusFlagged {
		return nil, ErrFlagged
	}
	return s.setStatus(ctx, t, Status(input.Status))
}

// Flag marks any trip for moderation.
func (s *Service) Flag(ctx context.Context, id string) (*models.Trip, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.setStatus(ctx, t, StatusFlagged)
}

func (s *Service) setStatus(ctx context.Context, t *Trip, status Status) (*models.Trip, error) {
	now := s.now().UTC()
	if err := s.repo.UpdateStatus(ctx, t.ID, status, now); err != nil {
		return nil, err
	}
	t.Status = status
	t.UpdatedAt = now

	result := ToAPI(t, true)
	return &result, nil
}

// Stats summarizes userID's trips.
func (s *Service) Stats(ctx context.Context, userID string) (*models.TripStats, error) {
	sum, err := s.repo.Summarize(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.TripStats{
		TotalTrips:     sum.Total,
		TotalSpent:     sum.TotalBudget,
		CompletedTrips: sum.ByStatus[StatusCompleted],
		UpcomingTrips:  sum.ByStatus[StatusUpcoming],
		DraftTrips:     sum.ByStatus[StatusDraft],
	}, nil
}

// Overview summarizes every user's trips.
func (s *Service) Overview(ctx context.Context) (*Summary, error) {
	return s.repo.Summarize(ctx, "")
}

// TopUsers returns the n users with the most trips.
func (s *Service) TopUsers(ctx context.Context, n int) ([]UserTotal, error) {
	return s.repo.TopUsers(ctx, n)
}

// CreatedSince returns up to n trips of any user created at or after since, newest first.
func (s *Service) CreatedSince(ctx context.Context, since time.Time, n int) ([]models.Trip, error) {
	result, err := s.repo.List(ctx, ListOptions{Since: since, Page: 1, Limit: n})
	if err != nil {
		return nil, err
	}
	return toAPIList(result.Items), nil
}

// ToAPI converts a domain Trip to an API Trip.
// The itinerary body is included only when withItinerary is set.
func ToAPI(t *Trip, withItinerary bool) models.Trip {
	out := models.Trip{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Summary:     t.Summary,
		Destination: t.Destination,
		Source:      t.Source,
		Duration:    t.Duration,
		Budget:      t.Budget,
		Status:      string(t.Status),
		CreatedAt:   models.Timestamp(t.CreatedAt),
		UpdatedAt:   models.Timestamp(t.UpdatedAt),
	}
	if withItinerary {
		out.Itinerary = t.Itinerary
	}
	return out
}

func toAPIList(trips []*Trip) []models.Trip {
	items := make([]models.Trip, 0, len(trips))
	for _, t := range trips {
		items = append(items, ToAPI(t, false))
	}
	return items
}

// ErrFlagged is returned when a user edits a trip held for moderation.
var ErrFlagged = errors.New("trip is flagged for review")

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
