package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/tripforge/tripforge/internal/itinerary"
	"github.com/tripforge/tripforge/internal/provider/resilience"
)

// Producer returns the raw itinerary document for a set of preferences.
//
// Implementations classify failures with the itinerary package errors:
// ErrUpstreamTimeout when ctx expires, ErrUpstreamUnavailable on transport
// or status failures and ErrMalformedUpstreamResponse for an empty answer.
type Producer interface {
	Name() string
	Generate(ctx context.Context, prefs *Preferences) ([]byte, error)
}

// ProducerFunc adapts a function to the Producer interface.
type ProducerFunc struct {
	ProducerName string
	Fn           func(ctx context.Context, prefs *Preferences) ([]byte, error)
}

// Name returns the producer name.
func (f ProducerFunc) Name() string { return f.ProducerName }

// Generate calls Fn.
func (f ProducerFunc) Generate(ctx context.Context, prefs *Preferences) ([]byte, error) {
	return f.Fn(ctx, prefs)
}

// UserMessage returns the single error string shown to callers for a failed generation.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, itinerary.ErrUpstreamTimeout):
		return "Itinerary generation timed out. Please try again."
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "Itinerary generation is temporarily unavailable. Please try again later."
	case errors.Is(err, itinerary.ErrMalformedUpstreamResponse):
		return "The itinerary service returned an invalid response."
	case errors.Is(err, itinerary.ErrUpstreamUnavailable):
		var statusErr *itinerary.UpstreamStatusError
		if errors.As(err, &statusErr) {
			return fmt.Sprintf("Itinerary service request failed. Status: %d", statusErr.StatusCode)
		}
		return "The itinerary service is unavailable."
	default:
		return "Failed to generate itinerary."
	}
}
