// Package resilience wraps calls to itinerary producers with a per-call
// timeout, a circuit breaker and optional retry, and tracks producer health.
package resilience

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// CircuitBreakerConfig configures the breaker guarding one producer.
type CircuitBreakerConfig struct {
	Name string

	// MaxRequests is the number of trial calls let through while half-open.
	// Default: 1
	MaxRequests uint32

	// Interval clears the closed-state counts periodically. Zero never clears.
	Interval time.Duration

	// Timeout is how long the circuit stays open before a trial call.
	// Default: 60 seconds
	Timeout time.Duration

	// ReadyToTrip decides when to open the circuit. Nil uses DefaultReadyToTrip.
	ReadyToTrip func(counts gobreaker.Counts) bool

	// OnStateChange is called after the client has logged and recorded a transition.
	OnStateChange func(name string, from gobreaker.State, to gobreaker.State)
}

// DefaultCircuitBreakerConfig returns the breaker settings used for producers.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:        name,
		MaxRequests: 1,
		Timeout:     60 * time.Second,
		ReadyToTrip: DefaultReadyToTrip,
	}
}

// DefaultReadyToTrip opens the circuit after 3 consecutive failures, or once
// at least 5 calls were made and half of them failed. Generation calls are
// slow, so a short run of timeouts is enough to stop queueing more.
func DefaultReadyToTrip(counts gobreaker.Counts) bool {
	if counts.ConsecutiveFailures >= 3 {
		return true
	}
	if counts.Requests < 5 {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
}

// newCircuitBreaker builds the breaker for a producer client. Every transition
// is logged and recorded on registry before the caller's own hook runs.
func newCircuitBreaker(cfg CircuitBreakerConfig, registry *Registry, logger zerolog.Logger) *gobreaker.CircuitBreaker[*http.Response] {
	readyToTrip := cfg.ReadyToTrip
	if readyToTrip == nil {
		readyToTrip = DefaultReadyToTrip
	}
	hook := cfg.OnStateChange

	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: readyToTrip,
		OnStateChange: func(name string, from, to gobreaker.State) {
			event := logger.Info()
			if to == gobreaker.StateOpen {
				event = logger.Warn()
			}
			event.Str("producer", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("producer circuit state changed")

			if registry != nil {
				registry.RecordStateChange(name, to)
			}
			if hook != nil {
				hook(name, from, to)
			}
		},
	})
}
