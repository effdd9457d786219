package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tripforge/tripforge/internal/api/models"
	"github.com/tripforge/tripforge/internal/auth"
)

type testEnv struct {
	svc    *auth.Service
	users  *auth.InMemoryUserRepository
	tokens *auth.InMemoryRefreshTokenRepository
}

func newTestService() testEnv {
	users := auth.NewInMemoryUserRepository()
	tokens := auth.NewInMemoryRefreshTokenRepository()
	svc := auth.NewService(auth.ServiceConfig{
		JWTService: auth.NewJWTService(auth.JWTConfig{
			SigningKey: "test-secret",
			Issuer:     "https://api.tripforge.app",
			Audience:   "tripforge-api",
		}),
		UserRepo:    users,
		RefreshRepo: tokens,
		BcryptCost:  bcrypt.MinCost,
		Logger:      zerolog.Nop(),
	})
	return testEnv{svc: svc, users: users, tokens: tokens}
}

func signUp(t *testing.T, env testEnv, email string) (*models.AuthTokens, *auth.User) {
	t.Helper()
	tokens, user, err := env.svc.SignUp(context.Background(), &models.SignUpRequest{Email: email, Password: "correct horse"})
	require.NoError(t, err)
	return tokens, user
}

func TestService_SignUpAndSignIn(t *testing.T) {
	env := newTestService()
	ctx := context.Background()

	tokens, user := signUp(t, env, "  Ana@Example.com ")
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, auth.RoleUser, user.Role)
	assert.Equal(t, auth.StatusActive, user.Status)
	assert.NotEqual(t, "correct horse", user.PasswordHash)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.Positive(t, tokens.ExpiresIn)
	assert.Equal(t, user.ID, tokens.User.ID)

	identity, err := env.svc.ValidateAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, &auth.Identity{UserID: user.ID, Role: auth.RoleUser}, identity)

	_, _, err = env.svc.SignUp(ctx, &models.SignUpRequest{Email: "ANA@example.com", Password: "another pass"})
	assert.ErrorIs(t, err, auth.ErrEmailTaken)

	signedIn, err := env.svc.SignIn(ctx, &models.SignInRequest{Email: "ana@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, signedIn.RefreshToken)

	_, err = env.svc.SignIn(ctx, &models.SignInRequest{Email: "ana@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = env.svc.SignIn(ctx, &models.SignInRequest{Email: "nobody@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestService_SignUpValidation(t *testing.T) {
	env := newTestService()

	_, _, err := env.svc.SignUp(context.Background(), &models.SignUpRequest{Email: "not-an-email", Password: "short"})
	var verr *auth.ValidationError
	require.ErrorAs(t, err, &verr)

	fields := map[string]bool{}
	for _, fe := range verr.Errors {
		fields[fe.Field] = true
	}
	assert.True(t, fields["email"])
	assert.True(t, fields["password"])
}

func TestService_RefreshRotates(t *testing.T) {
	env := newTestService()
	ctx := context.Background()
	first, _ := signUp(t, env, "ana@example.com")

	second, err := env.svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = env.svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken, "a rotated token cannot be reused")

	_, err = env.svc.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)

	stored, err := env.tokens.FindByHash(ctx, auth.HashRefreshToken(second.RefreshToken))
	require.NoError(t, err)
	assert.Nil(t, stored.RevokedAt)
}

func TestService_Logout(t *testing.T) {
	env := newTestService()
	ctx := context.Background()
	tokens, user := signUp(t, env, "ana@example.com")
	_, other := signUp(t, env, "bo@example.com")

	// Another user's token is left alone.
	require.NoError(t, env.svc.Logout(ctx, other.ID, tokens.RefreshToken))
	_, err := env.svc.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)

	again, err := env.svc.SignIn(ctx, &models.SignInRequest{Email: "ana@example.com", Password: "correct horse"})
	require.NoError(t, err)
	require.NoError(t, env.svc.Logout(ctx, user.ID, again.RefreshToken))
	_, err = env.svc.Refresh(ctx, again.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)

	require.NoError(t, env.svc.Logout(ctx, user.ID, "unknown"))
}

func TestService_LogoutAll(t *testing.T) {
	env := newTestService()
	ctx := context.Background()
	a, user := signUp(t, env, "ana@example.com")
	b, err := env.svc.SignIn(ctx, &models.SignInRequest{Email: "ana@example.com", Password: "correct horse"})
	require.NoError(t, err)

	require.NoError(t, env.svc.LogoutAll(ctx, user.ID))

	for _, tok := range []string{a.RefreshToken, b.RefreshToken} {
		_, err := env.svc.Refresh(ctx, tok)
		assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
	}
}

func TestService_SetStatus(t *testing.T) {
	env := newTestService()
	ctx := context.Background()
	tokens, user := signUp(t, env, "ana@example.com")

	_, err := env.svc.SetStatus(ctx, user.ID, auth.Status("banned"))
	assert.ErrorIs(t, err, auth.ErrInvalidStatus)

	_, err = env.svc.SetStatus(ctx, "usr_missing", auth.StatusSuspended)
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	updated, err := env.svc.SetStatus(ctx, user.ID, auth.StatusSuspended)
	require.NoError(t, err)
	assert.Equal(t, auth.StatusSuspended, updated.Status)

	_, err = env.svc.SignIn(ctx, &models.SignInRequest{Email: "ana@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, auth.ErrAccountSuspended)
	_, err = env.svc.Refresh(ctx, tokens.RefreshToken)
	assert.Error(t, err)

	_, err = env.svc.SetStatus(ctx, user.ID, auth.StatusActive)
	require.NoError(t, err)
	_, err = env.svc.SignIn(ctx, &models.SignInRequest{Email: "ana@example.com", Password: "correct horse"})
	assert.NoError(t, err)
}

func TestService_EnsureAdmin(t *testing.T) {
	env := newTestService()
	ctx := context.Background()

	require.NoError(t, env.svc.EnsureAdmin(ctx, "", ""))
	assert.Error(t, env.svc.EnsureAdmin(ctx, "admin@example.com", ""))

	require.NoError(t, env.svc.EnsureAdmin(ctx, "admin@example.com", "s3cret-admin"))
	admin, err := env.users.FindByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	tokens, err := env.svc.SignIn(ctx, &models.SignInRequest{Email: "admin@example.com", Password: "s3cret-admin"})
	require.NoError(t, err)
	identity, err := env.svc.ValidateAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, identity.Role)

	// An existing user is promoted and gets the configured password.
	_, user := signUp(t, env, "ops@example.com")
	require.NoError(t, env.svc.EnsureAdmin(ctx, "ops@example.com", "new-admin-pass"))
	promoted, err := env.svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, promoted.Role)
	_, err = env.svc.SignIn(ctx, &models.SignInRequest{Email: "ops@example.com", Password: "new-admin-pass"})
	assert.NoError(t, err)

	counts, err := env.svc.Counts(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, &auth.UserCounts{Total: 2, Active: 2, Admins: 2, NewSince: 2}, counts)
}

func TestService_ListUsers(t *testing.T) {
	env := newTestService()
	ctx := context.Background()
	signUp(t, env, "ana@example.com")
	signUp(t, env, "bo@example.com")
	signUp(t, env, "cy@other.org")

	result, err := env.svc.ListUsers(ctx, auth.UserListOptions{Search: "example", Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Len(t, result.Items, 1)
}
