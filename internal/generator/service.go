package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tripforge/tripforge/internal/itinerary"
	"github.com/tripforge/tripforge/internal/provider/resilience"
	"github.com/tripforge/tripforge/internal/telemetry"
	"github.com/tripforge/tripforge/internal/validation"
)

// DefaultTimeout bounds one generation call.
const DefaultTimeout = 60 * time.Second

// Config holds generator service dependencies.
type Config struct {
	Producer Producer
	Timeout  time.Duration
	Registry *resilience.Registry
	Metrics  *telemetry.ProducerMetrics
	Logger   zerolog.Logger
}

// Service calls the configured producer and normalizes its answer.
// It never retries; a failed call is reported to the caller as is.
type Service struct {
	producer Producer
	timeout  time.Duration
	registry *resilience.Registry
	metrics  *telemetry.ProducerMetrics
	tracer   trace.Tracer
	logger   zerolog.Logger
}

// NewService creates a generator service.
func NewService(cfg Config) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		producer: cfg.Producer,
		timeout:  timeout,
		registry: cfg.Registry,
		metrics:  cfg.Metrics,
		tracer:   telemetry.Tracer("github.com/tripforge/tripforge/internal/generator"),
		logger:   cfg.Logger.With().Str("producer", cfg.Producer.Name()).Logger(),
	}
}

// ProducerName returns the name of the configured producer.
func (s *Service) ProducerName() string {
	return s.producer.Name()
}

// Validate cleans and validates preferences without calling the producer.
func (s *Service) Validate(prefs *Preferences) error {
	prefs.Clean()
	if errs := validation.Struct(prefs); len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// Generate produces one canonical itinerary for prefs.
func (s *Service) Generate(ctx context.Context, prefs *Preferences) (*itinerary.Itinerary, error) {
	if err := s.Validate(prefs); err != nil {
		return nil, err
	}

	name := s.producer.Name()
	ctx, span := s.tracer.Start(ctx, "generator.Generate", trace.WithAttributes(
		attribute.String("producer.name", name),
		attribute.String("trip.destination", prefs.Destination),
		attribute.Int("trip.duration", prefs.Duration),
	))
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	raw, err := s.producer.Generate(callCtx, prefs)
	if err != nil && !isClassified(err) {
		err = classify(callCtx, err)
	}

	var it *itinerary.Itinerary
	if err == nil {
		it, err = itinerary.Normalize(raw, prefs.Fallback())
	}
	elapsed := time.Since(start)
	s.metrics.RecordRequest(name, elapsed, outcome(err))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome(err))
		if s.registry != nil {
			s.registry.RecordFailure(name, err)
		}
		s.logger.Warn().Err(err).Dur("elapsed", elapsed).Str("destination", prefs.Destination).Msg("itinerary generation failed")
		return nil, err
	}

	if s.registry != nil {
		s.registry.RecordSuccess(name)
	}
	span.SetAttributes(attribute.Int("itinerary.days", len(it.DailyItinerary)))
	s.logger.Info().
		Dur("elapsed", elapsed).
		Str("destination", it.Destination).
		Int("days", len(it.DailyItinerary)).
		Int("activities", it.ActivityCount()).
		Msg("itinerary generated")
	return it, nil
}

func isClassified(err error) bool {
	return errors.Is(err, itinerary.ErrUpstreamTimeout) ||
		errors.Is(err, itinerary.ErrUpstreamUnavailable) ||
		errors.Is(err, itinerary.ErrMalformedUpstreamResponse)
}

func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || resilience.IsTimeout(err) {
		return fmt.Errorf("%w: %v", itinerary.ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %v", itinerary.ErrUpstreamUnavailable, err)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, itinerary.ErrUpstreamTimeout):
		return "timeout"
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, itinerary.ErrUpstreamUnavailable):
		return "unavailable"
	case errors.Is(err, itinerary.ErrMalformedUpstreamResponse):
		return "malformed"
	default:
		return "error"
	}
}
