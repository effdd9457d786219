package trip_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripforge/tripforge/internal/trip"
)

var tripCols = []string{
	"id", "user_id", "title", "summary", "destination", "source",
	"duration", "budget", "itinerary", "payload", "status",
	"created_at", "updated_at",
}

const goaCanonical = `{"destination":"Goa","duration":3,"totalBudget":15000,"startLocation":"","travelStyle":"","interests":[],"dailyItinerary":[],"accommodations":[],"transportation":[],"budgetBreakdown":{"accommodation":0,"transportation":0,"activities":0,"food":0,"miscellaneous":0},"tips":[]}`

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestPostgresRepository_GetByUserAndID(t *testing.T) {
	mock := newMockPool(t)
	repo := trip.NewPostgresRepository(mock)
	now := time.Now().UTC()

	rows := mock.NewRows(tripCols).AddRow(
		"trp_1", "usr_1", "3-day trip to Goa", "", "Goa", trip.DefaultSource,
		3, 15000.0, []byte(goaCanonical), []byte(`{"output":{}}`), "draft",
		now, now,
	)
	mock.ExpectQuery(`SELECT (.+) FROM trips\s+WHERE id = \$1 AND user_id = \$2`).
		WithArgs("trp_1", "usr_1").
		WillReturnRows(rows)

	got, err := repo.GetByUserAndID(context.Background(), "usr_1", "trp_1")
	require.NoError(t, err)
	assert.Equal(t, "Goa", got.Destination)
	assert.Equal(t, trip.StatusDraft, got.Status)
	require.NotNil(t, got.Itinerary)
	assert.Equal(t, 15000.0, got.Itinerary.TotalBudget)
	assert.JSONEq(t, `{"output":{}}`, string(got.Payload))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetNotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := trip.NewPostgresRepository(mock)

	mock.ExpectQuery(`SELECT (.+) FROM trips\s+WHERE id = \$1`).
		WithArgs("trp_missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Get(context.Background(), "trp_missing")
	assert.ErrorIs(t, err, trip.ErrTripNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Create(t *testing.T) {
	mock := newMockPool(t)
	repo := trip.NewPostgresRepository(mock)
	now := time.Now().UTC()

	tr := &trip.Trip{
		ID: "trp_1", UserID: "usr_1", Title: "Goa", Destination: "Goa",
		Source: trip.DefaultSource, Duration: 3, Budget: 15000,
		Itinerary: mustItinerary(t, goaCanonical),
		Payload:   json.RawMessage(`{"raw":true}`),
		Status:    trip.StatusDraft, CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectExec(`INSERT INTO trips`).
		WithArgs(
			"trp_1", "usr_1", "Goa", "", "Goa", trip.DefaultSource,
			3, 15000.0,
			pgxmock.AnyArg(), // itinerary
			[]byte(`{"raw":true}`),
			"draft", now, now,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), tr))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ListWithSearch(t *testing.T) {
	mock := newMockPool(t)
	repo := trip.NewPostgresRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT count\(\*\) FROM trips\s+WHERE user_id = \$1 AND \(title ILIKE \$2 OR summary ILIKE \$2 OR destination ILIKE \$2\)`).
		WithArgs("usr_1", `%50\% off%`).
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(3))

	rows := mock.NewRows(tripCols).AddRow(
		"trp_3", "usr_1", "Goa 50% off", "", "Goa", trip.DefaultSource,
		3, 100.0, []byte(goaCanonical), []byte(`{}`), "upcoming", now, now,
	)
	mock.ExpectQuery(`SELECT (.+) FROM trips\s+WHERE user_id = \$1 (.+) ORDER BY created_at DESC, id DESC\s+LIMIT \$3 OFFSET \$4`).
		WithArgs("usr_1", `%50\% off%`, 2, 2).
		WillReturnRows(rows)

	result, err := repo.List(context.Background(), trip.ListOptions{UserID: "usr_1", Search: "50% off", Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	require.Len(t, result.Items, 1)
	assert.Equal(t, trip.StatusUpcoming, result.Items[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_UpdateStatusNotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := trip.NewPostgresRepository(mock)
	now := time.Now().UTC()

	mock.ExpectExec(`UPDATE trips SET status = \$2, updated_at = \$3 WHERE id = \$1`).
		WithArgs("trp_x", "flagged", now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateStatus(context.Background(), "trp_x", trip.StatusFlagged, now)
	assert.ErrorIs(t, err, trip.ErrTripNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Summarize(t *testing.T) {
	mock := newMockPool(t)
	repo := trip.NewPostgresRepository(mock)

	mock.ExpectQuery(`SELECT status, count\(\*\), (.+) FROM trips WHERE user_id = \$1 GROUP BY status`).
		WithArgs("usr_1").
		WillReturnRows(mock.NewRows([]string{"status", "count", "sum"}).
			AddRow("draft", 2, 300.0).
			AddRow("completed", 1, 1200.5))

	s, err := repo.Summarize(context.Background(), "usr_1")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.ByStatus[trip.StatusDraft])
	assert.Equal(t, 1, s.ByStatus[trip.StatusCompleted])
	assert.InDelta(t, 1500.5, s.TotalBudget, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_TopUsers(t *testing.T) {
	mock := newMockPool(t)
	repo := trip.NewPostgresRepository(mock)

	mock.ExpectQuery(`SELECT user_id, count\(\*\)`).
		WithArgs(5).
		WillReturnRows(mock.NewRows([]string{"user_id", "count", "spent"}).
			AddRow("usr_2", 4, 900.0).
			AddRow("usr_1", 1, 50.0))

	top, err := repo.TopUsers(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, trip.UserTotal{UserID: "usr_2", Trips: 4, Spent: 900}, top[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}
