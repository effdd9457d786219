package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/tripforge/tripforge/internal/api/models"
	"github.com/tripforge/tripforge/internal/api/response"
	"github.com/tripforge/tripforge/internal/auth"
	"github.com/tripforge/tripforge/internal/generator"
	"github.com/tripforge/tripforge/internal/itinerary"
	"github.com/tripforge/tripforge/internal/job"
	"github.com/tripforge/tripforge/internal/provider/resilience"
	"github.com/tripforge/tripforge/internal/trip"
	"github.com/tripforge/tripforge/internal/user"
)

// decodeBody decodes a JSON request body, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := response.Decode(r, v); err != nil {
		if errors.Is(err, response.ErrBodyTooLarge) {
			response.BadRequest(w, r, "request body too large", nil)
			return false
		}
		response.BadRequest(w, r, "invalid JSON body", nil)
		return false
	}
	return true
}

// fieldErrors extracts field errors from any of the service validation errors.
func fieldErrors(err error) ([]models.FieldError, bool) {
	var (
		authErr *auth.ValidationError
		genErr  *generator.ValidationError
		tripErr *trip.ValidationError
		userErr *user.ValidationError
	)
	switch {
	case errors.As(err, &authErr):
		return authErr.Errors, true
	case errors.As(err, &genErr):
		return genErr.Errors, true
	case errors.As(err, &tripErr):
		return tripErr.Errors, true
	case errors.As(err, &userErr):
		return userErr.Errors, true
	}
	return nil, false
}

// writeGenerationError maps a failed generation to a Problem with a single detail string.
func writeGenerationError(w http.ResponseWriter, r *http.Request, err error) {
	if errs, ok := fieldErrors(err); ok {
		response.BadRequest(w, r, "validation failed", errs)
		return
	}

	detail := generator.UserMessage(err)
	switch {
	case errors.Is(err, itinerary.ErrUpstreamTimeout):
		response.GatewayTimeout(w, r, detail)
	case errors.Is(err, resilience.ErrCircuitOpen):
		response.ServiceUnavailable(w, r, detail)
	case errors.Is(err, itinerary.ErrUpstreamUnavailable),
		errors.Is(err, itinerary.ErrMalformedUpstreamResponse):
		response.BadGateway(w, r, detail)
	case errors.Is(err, job.ErrQueueFull), errors.Is(err, job.ErrStopped):
		response.ServiceUnavailable(w, r, "Too many itinerary requests are in progress. Please try again shortly.")
	default:
		response.InternalError(w, r, detail)
	}
}

// writeTripError maps trip service errors.
func writeTripError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	if errs, ok := fieldErrors(err); ok {
		response.BadRequest(w, r, "validation failed", errs)
		return
	}
	switch {
	case errors.Is(err, trip.ErrTripNotFound):
		response.NotFound(w, r, "Itinerary not found or unauthorized")
	case errors.Is(err, trip.ErrFlagged):
		response.Conflict(w, r, "Itinerary is flagged for review")
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("trip operation failed")
		response.InternalError(w, r, "internal server error")
	}
}
