package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/tripforge/tripforge/internal/api/models"
	"github.com/tripforge/tripforge/internal/api/response"
	"github.com/tripforge/tripforge/internal/auth"
	"github.com/tripforge/tripforge/internal/trip"
	"github.com/tripforge/tripforge/internal/user"
)

// DashboardRecentTrips is the number of trips shown on the user dashboard.
const DashboardRecentTrips = 5

// MeHandler handles the signed-in user's own account endpoints.
type MeHandler struct {
	profiles *user.Service
	trips    *trip.Service
	logger   zerolog.Logger
}

// NewMeHandler creates a new MeHandler.
func NewMeHandler(profiles *user.Service, trips *trip.Service, logger zerolog.Logger) *MeHandler {
	return &MeHandler{profiles: profiles, trips: trips, logger: logger}
}

// Dashboard handles GET /v1/me/dashboard - profile, trip stats and recent trips.
func (h *MeHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := GetUserID(ctx)

	profile, err := h.profiles.Get(ctx, userID)
	if err != nil {
		h.writeProfileError(w, r, err)
		return
	}
	stats, err := h.trips.Stats(ctx, userID)
	if err != nil {
		writeTripError(w, r, h.logger, err)
		return
	}
	recent, err := h.trips.Recent(ctx, userID, DashboardRecentTrips)
	if err != nil {
		writeTripError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.Dashboard{
		Profile:     *profile,
		Stats:       *stats,
		RecentTrips: recent,
	})
}

// GetProfile handles GET /v1/me/profile.
func (h *MeHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Get(r.Context(), GetUserID(r.Context()))
	if err != nil {
		h.writeProfileError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, profile)
}

// UpdateProfile handles PATCH /v1/me/profile - partial update.
func (h *MeHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var input models.ProfileInput
	if !decodeBody(w, r, &input) {
		return
	}

	profile, err := h.profiles.Update(r.Context(), GetUserID(r.Context()), &input)
	if err != nil {
		h.writeProfileError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, profile)
}

func (h *MeHandler) writeProfileError(w http.ResponseWriter, r *http.Request, err error) {
	if errs, ok := fieldErrors(err); ok {
		response.BadRequest(w, r, "validation failed", errs)
		return
	}
	if errors.Is(err, auth.ErrUserNotFound) {
		response.NotFound(w, r, "User not found")
		return
	}
	h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("profile operation failed")
	response.InternalError(w, r, "internal server error")
}
