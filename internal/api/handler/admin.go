package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tripforge/tripforge/internal/admin"
	"github.com/tripforge/tripforge/internal/api/models"
	"github.com/tripforge/tripforge/internal/api/response"
	"github.com/tripforge/tripforge/internal/auth"
	"github.com/tripforge/tripforge/internal/trip"
)

// AdminHandler handles moderation endpoints. Routes are gated by RequireAdmin.
type AdminHandler struct {
	admin  *admin.Service
	logger zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(svc *admin.Service, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{admin: svc, logger: logger}
}

// Dashboard handles GET /v1/admin/dashboard.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.admin.Dashboard(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, d)
}

// ListUsers handles GET /v1/admin/users?page=&limit=&search=.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params, errs := parsePageParams(r)
	if len(errs) > 0 {
		response.BadRequest(w, r, "invalid query parameters", errs)
		return
	}

	users, err := h.admin.ListUsers(r.Context(), auth.UserListOptions{
		Search: params.Search,
		Page:   params.Page,
		Limit:  params.Limit,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, users)
}

// GetUser handles GET /v1/admin/users/{userId}.
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	detail, err := h.admin.GetUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, detail)
}

// SetUserStatus handles PATCH /v1/admin/users/{userId}/status.
func (h *AdminHandler) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	var input models.UserStatusRequest
	if !decodeBody(w, r, &input) {
		return
	}

	u, err := h.admin.SetUserStatus(r.Context(), chi.URLParam(r, "userId"), input.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, u)
}

// ListItineraries handles GET /v1/admin/itineraries?page=&limit=&search=.
func (h *AdminHandler) ListItineraries(w http.ResponseWriter, r *http.Request) {
	params, errs := parsePageParams(r)
	if len(errs) > 0 {
		response.BadRequest(w, r, "invalid query parameters", errs)
		return
	}

	page, err := h.admin.ListItineraries(r.Context(), trip.ListOptions{
		Search: params.Search,
		Page:   params.Page,
		Limit:  params.Limit,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, page)
}

// GetItinerary handles GET /v1/admin/itineraries/{tripId}.
func (h *AdminHandler) GetItinerary(w http.ResponseWriter, r *http.Request) {
	t, err := h.admin.GetItinerary(r.Context(), chi.URLParam(r, "tripId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, t)
}

// FlagItinerary handles POST /v1/admin/itineraries/{tripId}/flag.
func (h *AdminHandler) FlagItinerary(w http.ResponseWriter, r *http.Request) {
	t, err := h.admin.FlagItinerary(r.Context(), chi.URLParam(r, "tripId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, t)
}

func (h *AdminHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidStatus):
		response.BadRequest(w, r, "Invalid status", []models.FieldError{
			{Field: "status", Message: "must be one of: active, suspended", Code: "oneof"},
		})
	case errors.Is(err, auth.ErrUserNotFound):
		response.NotFound(w, r, "User not found")
	case errors.Is(err, trip.ErrTripNotFound):
		response.NotFound(w, r, "Itinerary not found")
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("admin operation failed")
		response.InternalError(w, r, "internal server error")
	}
}
