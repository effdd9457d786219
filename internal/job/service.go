package job

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tripforge/tripforge/internal/generator"
	"github.com/tripforge/tripforge/internal/itinerary"
	"github.com/tripforge/tripforge/internal/telemetry"
)

// Generator produces itineraries for queued jobs.
type Generator interface {
	Validate(prefs *generator.Preferences) error
	Generate(ctx context.Context, prefs *generator.Preferences) (*itinerary.Itinerary, error)
}

// Config holds configuration for the job service.
type Config struct {
	Store     Store
	Generator Generator

	// Workers is the number of concurrent generations.
	// Default: 4
	Workers int

	// QueueSize bounds the jobs waiting for a worker.
	// Default: 100
	QueueSize int

	Metrics *telemetry.JobMetrics
	Logger  zerolog.Logger
}

type task struct {
	id    string
	prefs generator.Preferences
}

// Service accepts generation jobs and runs them on a bounded worker pool.
// Callers cannot cancel a job once it is accepted; they can only poll it.
type Service struct {
	store   Store
	gen     Generator
	workers int
	metrics *telemetry.JobMetrics
	logger  zerolog.Logger

	queue chan task
	wg    sync.WaitGroup

	mu      sync.RWMutex
	started bool
	stopped bool
	cancel  context.CancelFunc
}

// NewService creates a job service. Call Start before submitting jobs.
func NewService(cfg Config) *Service {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}
	return &Service{
		store:   cfg.Store,
		gen:     cfg.Generator,
		workers: workers,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		queue:   make(chan task, queueSize),
	}
}

// Start launches the workers. Jobs run under ctx, which should live as long
// as the process; request contexts are never used.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go func(workerID int) {
			defer s.wg.Done()
			s.work(ctx, workerID)
		}(i)
	}

	s.logger.Info().Int("workers", s.workers).Int("queue_size", cap(s.queue)).Msg("job workers started")
}

// Stop stops accepting jobs, lets queued jobs drain and waits for the workers.
// If ctx expires first, in-flight generations are cancelled.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	close(s.queue)
	cancel := s.cancel
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		if cancel != nil {
			cancel()
		}
		<-done
	}
	if cancel != nil {
		cancel()
	}
	return ctx.Err()
}

// Submit validates prefs, records a pending job and queues it.
func (s *Service) Submit(ctx context.Context, userID string, prefs *generator.Preferences) (*Job, error) {
	if err := s.gen.Validate(prefs); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	j := &Job{
		ID:        "job_" + uuid.New().String()[:22],
		UserID:    userID,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return nil, ErrStopped
	}

	if err := s.store.Create(ctx, j); err != nil {
		return nil, err
	}

	select {
	case s.queue <- task{id: j.ID, prefs: *prefs}:
		s.metrics.QueueDelta(1)
		s.metrics.RecordTransition(string(StatusPending))
	default:
		if err := s.store.Fail(ctx, j.ID, "Too many itinerary requests are in progress. Please try again shortly."); err != nil {
			s.logger.Error().Err(err).Str("job_id", j.ID).Msg("failed to mark rejected job")
		}
		return nil, ErrQueueFull
	}

	s.logger.Info().Str("job_id", j.ID).Str("destination", prefs.Destination).Msg("job queued")
	return j, nil
}

// Get retrieves a job by ID.
func (s *Service) Get(ctx context.Context, id string) (*Job, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) work(ctx context.Context, workerID int) {
	logger := s.logger.With().Int("worker_id", workerID).Logger()
	for t := range s.queue {
		s.metrics.QueueDelta(-1)
		s.run(ctx, logger, t)
	}
}

func (s *Service) run(ctx context.Context, logger zerolog.Logger, t task) {
	start := time.Now()
	it, err := s.gen.Generate(ctx, &t.prefs)

	// Store writes use a fresh context so a shutdown still records the outcome.
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err != nil {
		if ferr := s.store.Fail(storeCtx, t.id, generator.UserMessage(err)); ferr != nil && !errors.Is(ferr, ErrAlreadyFinished) {
			logger.Error().Err(ferr).Str("job_id", t.id).Msg("failed to record job failure")
		}
		s.metrics.RecordTransition(string(StatusFailed))
		logger.Warn().Err(err).Str("job_id", t.id).Dur("elapsed", time.Since(start)).Msg("job failed")
		return
	}

	if cerr := s.store.Complete(storeCtx, t.id, it); cerr != nil && !errors.Is(cerr, ErrAlreadyFinished) {
		logger.Error().Err(cerr).Str("job_id", t.id).Msg("failed to record job result")
		return
	}
	s.metrics.RecordTransition(string(StatusCompleted))
	logger.Info().Str("job_id", t.id).Dur("elapsed", time.Since(start)).Msg("job completed")
}
