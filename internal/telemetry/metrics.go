package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/tripforge/tripforge/internal/telemetry"

// ProducerMetrics records calls to upstream itinerary producers.
type ProducerMetrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
}

// NewProducerMetrics creates the producer instruments on the global meter.
func NewProducerMetrics() (*ProducerMetrics, error) {
	meter := otel.Meter(meterName)

	requestDuration, err := meter.Float64Histogram(
		"producer.request.duration",
		metric.WithDescription("Duration of itinerary producer calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"producer.request.total",
		metric.WithDescription("Total number of itinerary producer calls"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &ProducerMetrics{
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
	}, nil
}

// RecordRequest records one producer call. outcome is a short error class
// such as "timeout" or "malformed", empty on success.
func (m *ProducerMetrics) RecordRequest(producer string, duration time.Duration, outcome string) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("producer.name", producer),
	}
	if outcome != "" {
		attrs = append(attrs, attribute.Bool("error", true), attribute.String("error.type", outcome))
	}

	// Background context so a cancelled request still gets recorded.
	ctx := context.TODO()
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// JobMetrics records asynchronous generation job transitions.
type JobMetrics struct {
	transitions metric.Int64Counter
	queueDepth  metric.Int64UpDownCounter
}

// NewJobMetrics creates the job instruments on the global meter.
func NewJobMetrics() (*JobMetrics, error) {
	meter := otel.Meter(meterName)

	transitions, err := meter.Int64Counter(
		"job.transition.total",
		metric.WithDescription("Generation job status transitions"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, err
	}

	queueDepth, err := meter.Int64UpDownCounter(
		"job.queue.depth",
		metric.WithDescription("Generation jobs waiting for a worker"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, err
	}

	return &JobMetrics{transitions: transitions, queueDepth: queueDepth}, nil
}

// RecordTransition counts a job entering status.
func (m *JobMetrics) RecordTransition(status string) {
	if m == nil {
		return
	}
	m.transitions.Add(context.TODO(), 1, metric.WithAttributes(attribute.String("job.status", status)))
}

// QueueDelta adjusts the queued job gauge.
func (m *JobMetrics) QueueDelta(n int64) {
	if m == nil {
		return
	}
	m.queueDepth.Add(context.TODO(), n)
}
