package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tripforge/tripforge/internal/api/models"
	"github.com/tripforge/tripforge/internal/api/response"
	"github.com/tripforge/tripforge/internal/trip"
)

// TripHandler handles the signed-in user's saved itineraries.
type TripHandler struct {
	trips  *trip.Service
	logger zerolog.Logger
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(trips *trip.Service, logger zerolog.Logger) *TripHandler {
	return &TripHandler{trips: trips, logger: logger}
}

// ListTrips handles GET /v1/me/trips?page=&limit=&search=.
func (h *TripHandler) ListTrips(w http.ResponseWriter, r *http.Request) {
	params, errs := parsePageParams(r)
	if len(errs) > 0 {
		response.BadRequest(w, r, "invalid query parameters", errs)
		return
	}

	page, err := h.trips.List(r.Context(), GetUserID(r.Context()), trip.ListOptions{
		Search: params.Search,
		Page:   params.Page,
		Limit:  params.Limit,
	})
	if err != nil {
		writeTripError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, page)
}

// SaveTrip handles POST /v1/me/trips - save a generated itinerary.
func (h *TripHandler) SaveTrip(w http.ResponseWriter, r *http.Request) {
	var input models.TripCreateRequest
	if !decodeBody(w, r, &input) {
		return
	}

	t, err := h.trips.Save(r.Context(), GetUserID(r.Context()), &input)
	if err != nil {
		writeTripError(w, r, h.logger, err)
		return
	}
	response.Created(w, r, "/v1/me/trips/"+t.ID, t)
}

// GetTrip handles GET /v1/me/trips/{tripId}.
func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	t, err := h.trips.Get(r.Context(), GetUserID(r.Context()), chi.URLParam(r, "tripId"))
	if err != nil {
		writeTripError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, t)
}

// DeleteTrip handles DELETE /v1/me/trips/{tripId}.
func (h *TripHandler) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	if err := h.trips.Delete(r.Context(), GetUserID(r.Context()), chi.URLParam(r, "tripId")); err != nil {
		writeTripError(w, r, h.logger, err)
		return
	}
	response.NoContent(w, r)
}

// UpdateTripStatus handles PATCH /v1/me/trips/{tripId}/status.
func (h *TripHandler) UpdateTripStatus(w http.ResponseWriter, r *http.Request) {
	var input models.TripStatusRequest
	if !decodeBody(w, r, &input) {
		return
	}

	t, err := h.trips.UpdateStatus(r.Context(), GetUserID(r.Context()), chi.URLParam(r, "tripId"), &input)
	if err != nil {
		writeTripError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, t)
}
