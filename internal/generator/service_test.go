package generator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripforge/tripforge/internal/generator"
	"github.com/tripforge/tripforge/internal/itinerary"
	"github.com/tripforge/tripforge/internal/provider/resilience"
)

func validPrefs() *generator.Preferences {
	return &generator.Preferences{
		Destination:   "  Goa ",
		Budget:        15000,
		Duration:      3,
		StartLocation: "Mumbai",
		Interests:     []string{"beaches", " ", "food"},
		TravelStyle:   "Budget",
	}
}

func newService(t *testing.T, fn func(ctx context.Context, prefs *generator.Preferences) ([]byte, error)) (*generator.Service, *resilience.Registry) {
	t.Helper()
	registry := resilience.NewRegistry()
	registry.Register("fake", resilience.NewClient(resilience.DefaultClientConfig("fake")))
	svc := generator.NewService(generator.Config{
		Producer: generator.ProducerFunc{ProducerName: "fake", Fn: fn},
		Timeout:  200 * time.Millisecond,
		Registry: registry,
		Logger:   zerolog.Nop(),
	})
	return svc, registry
}

func TestService_Generate(t *testing.T) {
	var received *generator.Preferences
	svc, registry := newService(t, func(_ context.Context, prefs *generator.Preferences) ([]byte, error) {
		received = prefs
		return []byte(`[{"output": {"totalBudget": "₹14,500", "dailyItinerary": [{"day": 1, "activities": [{"activity": "Beach", "cost": "500"}]}]}}]`), nil
	})

	it, err := svc.Generate(context.Background(), validPrefs())
	require.NoError(t, err)

	assert.Equal(t, "Goa", received.Destination, "preferences are cleaned before forwarding")
	assert.Equal(t, []string{"beaches", "food"}, received.Interests)
	assert.Equal(t, "budget", received.TravelStyle)

	assert.Equal(t, "Goa", it.Destination, "destination falls back to the form")
	assert.Equal(t, 3, it.Duration)
	assert.Equal(t, 14500.0, it.TotalBudget)
	assert.Equal(t, "Mumbai", it.StartLocation)
	require.Len(t, it.DailyItinerary, 1)
	assert.Equal(t, 500.0, it.DailyItinerary[0].Activities[0].Cost)

	health := registry.Health("fake")
	require.NotNil(t, health)
	assert.NotNil(t, health.LastSuccessAt)
}

func TestService_GenerateValidation(t *testing.T) {
	called := false
	svc, _ := newService(t, func(context.Context, *generator.Preferences) ([]byte, error) {
		called = true
		return nil, nil
	})

	_, err := svc.Generate(context.Background(), &generator.Preferences{Duration: 0, TravelStyle: "glamping"})

	var verr *generator.ValidationError
	require.ErrorAs(t, err, &verr)
	fields := make([]string, 0, len(verr.Errors))
	for _, fe := range verr.Errors {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"destination", "budget", "duration", "travelStyle"}, fields)
	assert.False(t, called)
}

func TestService_GenerateErrors(t *testing.T) {
	tests := []struct {
		name string
		fn   func(ctx context.Context, prefs *generator.Preferences) ([]byte, error)
		want error
	}{
		{
			name: "empty body",
			fn: func(context.Context, *generator.Preferences) ([]byte, error) {
				return []byte(""), nil
			},
			want: itinerary.ErrMalformedUpstreamResponse,
		},
		{
			name: "invalid json",
			fn: func(context.Context, *generator.Preferences) ([]byte, error) {
				return []byte("<html>oops</html>"), nil
			},
			want: itinerary.ErrMalformedUpstreamResponse,
		},
		{
			name: "producer exceeds deadline",
			fn: func(ctx context.Context, _ *generator.Preferences) ([]byte, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
			want: itinerary.ErrUpstreamTimeout,
		},
		{
			name: "non-success status",
			fn: func(context.Context, *generator.Preferences) ([]byte, error) {
				return nil, &itinerary.UpstreamStatusError{StatusCode: 502}
			},
			want: itinerary.ErrUpstreamUnavailable,
		},
		{
			name: "unclassified failure",
			fn: func(context.Context, *generator.Preferences) ([]byte, error) {
				return nil, errors.New("connection refused")
			},
			want: itinerary.ErrUpstreamUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, registry := newService(t, tt.fn)

			it, err := svc.Generate(context.Background(), validPrefs())
			assert.Nil(t, it)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			health := registry.Health("fake")
			require.NotNil(t, health)
			assert.NotNil(t, health.LastFailureAt)
		})
	}
}

func TestPreferences_Fallback(t *testing.T) {
	prefs := validPrefs()
	prefs.Clean()
	fb := prefs.Fallback()

	assert.Equal(t, "Goa", fb.Destination)
	require.NotNil(t, fb.Duration)
	assert.Equal(t, 3, *fb.Duration)
	require.NotNil(t, fb.Budget)
	assert.Equal(t, 15000.0, *fb.Budget)
}

func TestUserMessage(t *testing.T) {
	assert.Contains(t, generator.UserMessage(itinerary.ErrUpstreamTimeout), "timed out")
	assert.Equal(t, "Itinerary service request failed. Status: 503",
		generator.UserMessage(&itinerary.UpstreamStatusError{StatusCode: 503}))
	assert.Contains(t, generator.UserMessage(itinerary.ErrMalformedUpstreamResponse), "invalid response")
	assert.Equal(t, "Failed to generate itinerary.", generator.UserMessage(errors.New("boom")))
}
