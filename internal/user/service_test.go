package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripforge/tripforge/internal/api/models"
	"github.com/tripforge/tripforge/internal/auth"
	"github.com/tripforge/tripforge/internal/user"
)

type fakeAccounts map[string]string

func (f fakeAccounts) GetUser(_ context.Context, id string) (*auth.User, error) {
	email, ok := f[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return &auth.User{ID: id, Email: email}, nil
}

func ptr(s string) *string { return &s }

func TestService_GetCreatesDefault(t *testing.T) {
	repo := user.NewInMemoryRepository()
	svc := user.NewService(repo, fakeAccounts{"usr_1": "ana.silva@example.com"})
	ctx := context.Background()

	_, err := svc.Find(ctx, "usr_1")
	assert.ErrorIs(t, err, user.ErrProfileNotFound)

	p, err := svc.Get(ctx, "usr_1")
	require.NoError(t, err)
	assert.Equal(t, "usr_1", p.UserID)
	assert.Equal(t, "ana.silva", p.Name)
	assert.Empty(t, p.Bio)

	_, err = svc.Find(ctx, "usr_1")
	assert.NoError(t, err, "the default profile is persisted")

	_, err = svc.Get(ctx, "usr_unknown")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestService_UpdatePartial(t *testing.T) {
	svc := user.NewService(user.NewInMemoryRepository(), fakeAccounts{"usr_1": "ana@example.com"})
	ctx := context.Background()

	p, err := svc.Update(ctx, "usr_1", &models.ProfileInput{Bio: ptr("  Slow traveller ")})
	require.NoError(t, err)
	assert.Equal(t, "ana", p.Name)
	assert.Equal(t, "Slow traveller", p.Bio)

	p, err = svc.Update(ctx, "usr_1", &models.ProfileInput{Name: ptr("Ana"), Location: ptr("Porto")})
	require.NoError(t, err)
	assert.Equal(t, "Ana", p.Name)
	assert.Equal(t, "Slow traveller", p.Bio)
	assert.Equal(t, "Porto", p.Location)

	_, err = svc.Update(ctx, "usr_1", &models.ProfileInput{AvatarURL: ptr("not a url")})
	var verr *user.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "avatarUrl", verr.Errors[0].Field)
}

func TestPostgresRepository_Upsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := user.NewPostgresRepository(mock)
	now := time.Now().UTC()
	p := &user.Profile{UserID: "usr_1", Name: "Ana", CreatedAt: now, UpdatedAt: now}

	mock.ExpectExec(`INSERT INTO user_profiles (.+) ON CONFLICT \(user_id\) DO UPDATE`).
		WithArgs("usr_1", "Ana", "", "", "", now, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectQuery(`SELECT (.+) FROM user_profiles WHERE user_id = \$1`).
		WithArgs("usr_1").
		WillReturnRows(mock.NewRows([]string{"user_id", "name", "bio", "location", "avatar_url", "created_at", "updated_at"}).
			AddRow("usr_1", "Ana", "", "", "", now, now))

	require.NoError(t, repo.Upsert(context.Background(), p))
	got, err := repo.Get(context.Background(), "usr_1")
	require.NoError(t, err)
	assert.Equal(t, p, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Create(t *testing.T) {
	svc := user.NewService(user.NewInMemoryRepository(), fakeAccounts{})
	ctx := context.Background()

	p, err := svc.Create(ctx, "usr_2", "li@example.com", "  Li Wei ")
	require.NoError(t, err)
	assert.Equal(t, "Li Wei", p.Name)

	p, err = svc.Create(ctx, "usr_3", "max@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "max", p.Name)

	got, err := svc.Get(ctx, "usr_2")
	require.NoError(t, err, "stored profiles do not need an account lookup")
	assert.Equal(t, "Li Wei", got.Name)
}
