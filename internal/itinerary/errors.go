package itinerary

import (
	"errors"
	"fmt"
	"net/http"
)

// Errors surfaced at the generation boundary. Field-level defects are never
// reported; they are defaulted during normalization.
var (
	// ErrMalformedUpstreamResponse means the producer answered but the body
	// could not be turned into an itinerary object.
	ErrMalformedUpstreamResponse = errors.New("malformed upstream response")

	// ErrUpstreamTimeout means the producer did not answer within the deadline.
	ErrUpstreamTimeout = errors.New("upstream timed out")

	// ErrUpstreamUnavailable means the producer answered with a non-success status
	// or could not be reached.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// UpstreamStatusError records the status code of a failed producer call.
type UpstreamStatusError struct {
	StatusCode int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("upstream request failed. status: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Unwrap lets errors.Is match ErrUpstreamUnavailable.
func (e *UpstreamStatusError) Unwrap() error {
	return ErrUpstreamUnavailable
}

func malformed(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedUpstreamResponse, reason)
}
