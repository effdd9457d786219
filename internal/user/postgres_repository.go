package user

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/tripforge/tripforge/internal/database"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	db database.DB
}

// NewPostgresRepository creates a new PostgreSQL profile repository.
func NewPostgresRepository(db database.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get retrieves the profile of a user.
func (r *PostgresRepository) Get(ctx context.Context, userID string) (*Profile, error) {
	query := `
		SELECT user_id, name, bio, location, avatar_url, created_at, updated_at
		FROM user_profiles
		WHERE user_id = $1
	`

	var p Profile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.Name,
		&p.Bio,
		&p.Location,
		&p.AvatarURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Upsert creates a profile if it doesn't exist, or updates it if it does.
func (r *PostgresRepository) Upsert(ctx context.Context, p *Profile) error {
	query := `
		INSERT INTO user_profiles (
			user_id, name, bio, location, avatar_url, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			bio = EXCLUDED.bio,
			location = EXCLUDED.location,
			avatar_url = EXCLUDED.avatar_url,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.Exec(ctx, query,
		p.UserID,
		p.Name,
		p.Bio,
		p.Location,
		p.AvatarURL,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

// Delete removes a profile.
func (r *PostgresRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM user_profiles WHERE user_id = $1`, userID)
	return err
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
