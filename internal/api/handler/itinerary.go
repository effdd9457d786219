package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tripforge/tripforge/internal/api/models"
	"github.com/tripforge/tripforge/internal/api/response"
	"github.com/tripforge/tripforge/internal/generator"
	"github.com/tripforge/tripforge/internal/job"
)

// ItineraryHandler handles itinerary generation endpoints.
type ItineraryHandler struct {
	generator *generator.Service
	jobs      *job.Service
	logger    zerolog.Logger
}

// NewItineraryHandler creates a new ItineraryHandler.
func NewItineraryHandler(gen *generator.Service, jobs *job.Service, logger zerolog.Logger) *ItineraryHandler {
	return &ItineraryHandler{generator: gen, jobs: jobs, logger: logger}
}

// Generate handles POST /v1/itineraries/generate - synchronous generation.
func (h *ItineraryHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var prefs generator.Preferences
	if !decodeBody(w, r, &prefs) {
		return
	}

	it, err := h.generator.Generate(r.Context(), &prefs)
	if err != nil {
		writeGenerationError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.GenerateResponse{Itinerary: it})
}

// SubmitJob handles POST /v1/itineraries/jobs - queue a generation and return its job ID.
func (h *ItineraryHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var prefs generator.Preferences
	if !decodeBody(w, r, &prefs) {
		return
	}

	j, err := h.jobs.Submit(r.Context(), GetUserID(r.Context()), &prefs)
	if err != nil {
		if _, ok := fieldErrors(err); !ok && !errors.Is(err, job.ErrQueueFull) && !errors.Is(err, job.ErrStopped) {
			h.logger.Error().Err(err).Msg("failed to submit job")
		}
		writeGenerationError(w, r, err)
		return
	}

	response.Accepted(w, r, "/v1/itineraries/jobs/"+j.ID, models.JobAccepted{
		JobID:  j.ID,
		Status: string(j.Status),
	})
}

// GetJob handles GET /v1/itineraries/jobs/{jobId} - poll a generation job.
func (h *ItineraryHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobs.Get(r.Context(), chi.URLParam(r, "jobId"))
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			response.NotFound(w, r, "Job not found")
			return
		}
		h.logger.Error().Err(err).Msg("failed to load job")
		response.InternalError(w, r, "internal server error")
		return
	}

	response.JSON(w, r, http.StatusOK, models.JobStatus{
		JobID:     j.ID,
		Status:    string(j.Status),
		Itinerary: j.Itinerary,
		Error:     j.Error,
		CreatedAt: models.Timestamp(j.CreatedAt),
		UpdatedAt: models.Timestamp(j.UpdatedAt),
	})
}
