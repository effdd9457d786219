package job_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripforge/tripforge/internal/generator"
	"github.com/tripforge/tripforge/internal/itinerary"
	"github.com/tripforge/tripforge/internal/job"
)

type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	result  *itinerary.Itinerary
	err     error
}

func (g *fakeGenerator) Validate(prefs *generator.Preferences) error {
	if prefs.Destination == "" {
		return &generator.ValidationError{}
	}
	return nil
}

func (g *fakeGenerator) Generate(ctx context.Context, _ *generator.Preferences) (*itinerary.Itinerary, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.release != nil {
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.result, g.err
}

var goa = &generator.Preferences{Destination: "Goa", Budget: 15000, Duration: 3}

func waitForStatus(t *testing.T, svc *job.Service, id string, want job.Status) *job.Job {
	t.Helper()
	var got *job.Job
	require.Eventually(t, func() bool {
		j, err := svc.Get(context.Background(), id)
		if err != nil {
			return false
		}
		got = j
		return j.Status == want
	}, 2*time.Second, 10*time.Millisecond)
	return got
}

func TestService_SubmitCompletes(t *testing.T) {
	gen := &fakeGenerator{result: sampleItinerary(t)}
	svc := job.NewService(job.Config{Store: job.NewMemoryStore(0), Generator: gen, Workers: 2, Logger: zerolog.Nop()})
	svc.Start(context.Background())
	defer func() { _ = svc.Stop(context.Background()) }()

	j, err := svc.Submit(context.Background(), "usr_1", goa)
	require.NoError(t, err)
	assert.Equal(t, job.StatusPending, j.Status)
	assert.Contains(t, j.ID, "job_")

	done := waitForStatus(t, svc, j.ID, job.StatusCompleted)
	require.NotNil(t, done.Itinerary)
	assert.Equal(t, "Goa", done.Itinerary.Destination)
	assert.Equal(t, "usr_1", done.UserID)
}

func TestService_SubmitFails(t *testing.T) {
	gen := &fakeGenerator{err: &itinerary.UpstreamStatusError{StatusCode: 500}}
	svc := job.NewService(job.Config{Store: job.NewMemoryStore(0), Generator: gen, Logger: zerolog.Nop()})
	svc.Start(context.Background())
	defer func() { _ = svc.Stop(context.Background()) }()

	j, err := svc.Submit(context.Background(), "", goa)
	require.NoError(t, err)

	failed := waitForStatus(t, svc, j.ID, job.StatusFailed)
	assert.Equal(t, "Itinerary service request failed. Status: 500", failed.Error)
	assert.Nil(t, failed.Itinerary)
}

func TestService_SubmitValidates(t *testing.T) {
	store := job.NewMemoryStore(0)
	svc := job.NewService(job.Config{Store: store, Generator: &fakeGenerator{}, Logger: zerolog.Nop()})

	_, err := svc.Submit(context.Background(), "", &generator.Preferences{})
	var verr *generator.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Zero(t, store.Len())
}

func TestService_QueueFull(t *testing.T) {
	store := job.NewMemoryStore(0)
	svc := job.NewService(job.Config{Store: store, Generator: &fakeGenerator{}, QueueSize: 1, Logger: zerolog.Nop()})

	_, err := svc.Submit(context.Background(), "", goa)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), "", goa)
	assert.ErrorIs(t, err, job.ErrQueueFull)
}

func TestService_RequestContextDoesNotCancelJob(t *testing.T) {
	gen := &fakeGenerator{release: make(chan struct{}), result: sampleItinerary(t)}
	svc := job.NewService(job.Config{Store: job.NewMemoryStore(0), Generator: gen, Logger: zerolog.Nop()})
	svc.Start(context.Background())
	defer func() { _ = svc.Stop(context.Background()) }()

	reqCtx, cancel := context.WithCancel(context.Background())
	j, err := svc.Submit(reqCtx, "", goa)
	require.NoError(t, err)
	cancel()

	close(gen.release)
	waitForStatus(t, svc, j.ID, job.StatusCompleted)
}

func TestService_StopDrainsQueue(t *testing.T) {
	gen := &fakeGenerator{result: sampleItinerary(t)}
	svc := job.NewService(job.Config{Store: job.NewMemoryStore(0), Generator: gen, Workers: 1, Logger: zerolog.Nop()})

	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		j, err := svc.Submit(context.Background(), "", goa)
		require.NoError(t, err)
		ids = append(ids, j.ID)
	}

	svc.Start(context.Background())
	require.NoError(t, svc.Stop(context.Background()))

	for _, id := range ids {
		j, err := svc.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, job.StatusCompleted, j.Status)
	}

	_, err := svc.Submit(context.Background(), "", goa)
	assert.ErrorIs(t, err, job.ErrStopped)
}
