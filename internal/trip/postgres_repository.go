package trip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tripforge/tripforge/internal/database"
	"github.com/tripforge/tripforge/internal/itinerary"
)

const tripColumns = `
	id, user_id, title, summary, destination, source,
	duration, budget, itinerary, payload, status,
	created_at, updated_at`

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	db database.DB
}

// NewPostgresRepository creates a new PostgreSQL trip repository.
func NewPostgresRepository(db database.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get retrieves a trip by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Trip, error) {
	query := `SELECT` + tripColumns + `
		FROM trips
		WHERE id = $1
	`
	return scanTrip(r.db.QueryRow(ctx, query, id))
}

// GetByUserAndID retrieves a trip only if userID owns it.
func (r *PostgresRepository) GetByUserAndID(ctx context.Context, userID, id string) (*Trip, error) {
	query := `SELECT` + tripColumns + `
		FROM trips
		WHERE id = $1 AND user_id = $2
	`
	return scanTrip(r.db.QueryRow(ctx, query, id, userID))
}

// List returns trips newest first with the total number of matches.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	where, args := listFilter(opts)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM trips`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting trips: %w", err)
	}

	query := `SELECT` + tripColumns + `
		FROM trips` + where + fmt.Sprintf(`
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, opts.Limit, opts.offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := &ListResult{Items: []*Trip{}, Total: total}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		result.Items = append(result.Items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func listFilter(opts ListOptions) (string, []any) {
	var conds []string
	var args []any
	if opts.UserID != "" {
		args = append(args, opts.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if !opts.Since.IsZero() {
		args = append(args, opts.Since)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if opts.Search != "" {
		args = append(args, "%"+escapeLike(opts.Search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR summary ILIKE $%d OR destination ILIKE $%d)", n, n, n))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "\n\t\tWHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Create stores a new trip.
func (r *PostgresRepository) Create(ctx context.Context, t *Trip) error {
	content, err := json.Marshal(t.Itinerary)
	if err != nil {
		return fmt.Errorf("encoding itinerary: %w", err)
	}
	var payload []byte
	if len(t.Payload) > 0 {
		payload = t.Payload
	}

	query := `
		INSERT INTO trips (` + tripColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = r.db.Exec(ctx, query,
		t.ID,
		t.UserID,
		t.Title,
		t.Summary,
		t.Destination,
		t.Source,
		t.Duration,
		t.Budget,
		content,
		payload,
		string(t.Status),
		t.CreatedAt,
		t.UpdatedAt,
	)
	return err
}

// UpdateStatus changes the status of a trip.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE trips SET status = $2, updated_at = $3 WHERE id = $1`, id, string(status), at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTripNotFound
	}
	return nil
}

// Delete removes a trip.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM trips WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTripNotFound
	}
	return nil
}

// Summarize counts trips by status.
func (r *PostgresRepository) Summarize(ctx context.Context, userID string) (*Summary, error) {
	query := `SELECT status, count(*), COALESCE(sum(budget), 0)::float8 FROM trips`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = $1`
		args = append(args, userID)
	}
	query += ` GROUP BY status`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	s := &Summary{ByStatus: make(map[Status]int)}
	for rows.Next() {
		var (
			status string
			count  int
			budget float64
		)
		if err := rows.Scan(&status, &count, &budget); err != nil {
			return nil, err
		}
		s.ByStatus[Status(status)] = count
		s.Total += count
		s.TotalBudget += budget
	}
	return s, rows.Err()
}

// TopUsers returns the users with the most trips, ties broken by spend.
func (r *PostgresRepository) TopUsers(ctx context.Context, limit int) ([]UserTotal, error) {
	query := `
		SELECT user_id, count(*), COALESCE(sum(budget), 0)::float8 AS spent
		FROM trips
		GROUP BY user_id
		ORDER BY count(*) DESC, spent DESC, user_id
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []UserTotal{}
	for rows.Next() {
		var u UserTotal
		if err := rows.Scan(&u.UserID, &u.Trips, &u.Spent); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanTrip(row pgx.Row) (*Trip, error) {
	var (
		t       Trip
		status  string
		content []byte
		payload []byte
	)
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Summary,
		&t.Destination,
		&t.Source,
		&t.Duration,
		&t.Budget,
		&content,
		&payload,
		&status,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}

	t.Status = Status(status)
	if len(payload) > 0 {
		t.Payload = payload
	}
	var it itinerary.Itinerary
	if err := json.Unmarshal(content, &it); err != nil {
		return nil, fmt.Errorf("decoding trip %s itinerary: %w", t.ID, err)
	}
	t.Itinerary = &it
	return &t, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
