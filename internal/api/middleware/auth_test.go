package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripforge/tripforge/internal/api/middleware"
	"github.com/tripforge/tripforge/internal/auth"
)

var testJWT = auth.NewJWTService(auth.JWTConfig{
	SigningKey: "test-secret-key-for-testing-only",
	Issuer:     "https://api.tripforge.app",
	Audience:   "tripforge-api",
})

// jwtValidator adapts the JWT service to the middleware's TokenValidator.
type jwtValidator struct{}

func (jwtValidator) ValidateAccessToken(token string) (*auth.Identity, error) {
	claims, err := testJWT.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	return &auth.Identity{UserID: claims.UserID, Role: claims.Role}, nil
}

func issueToken(t *testing.T, id string, role auth.Role) string {
	t.Helper()
	token, _, err := testJWT.GenerateAccessToken(&auth.User{ID: id, Role: role, CreatedAt: time.Now()})
	require.NoError(t, err)
	return token
}

func okHandler(captured **auth.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			*captured = middleware.GetIdentity(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/me/trips", http.NoBody)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth_Rejects(t *testing.T) {
	handler := middleware.RequireAuth(jwtValidator{})(okHandler(nil))

	tests := []struct {
		name   string
		header string
		detail string
	}{
		{"missing header", "", "missing authorization header"},
		{"no bearer prefix", "token123", "invalid authorization header format"},
		{"basic auth", "Basic dXNlcjpwYXNz", "invalid authorization header format"},
		{"just bearer", "Bearer", "invalid authorization header format"},
		{"empty bearer", "Bearer   ", "missing bearer token"},
		{"garbage token", "Bearer invalid.jwt.token", "invalid access token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(handler, tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.detail)
		})
	}
}

func TestRequireAuth_ValidToken(t *testing.T) {
	var identity *auth.Identity
	handler := middleware.RequireAuth(jwtValidator{})(okHandler(&identity))
	token := issueToken(t, "usr_ana", auth.RoleUser)

	for _, prefix := range []string{"Bearer ", "bearer ", "BEARER "} {
		t.Run(prefix, func(t *testing.T) {
			identity = nil
			rec := serve(handler, prefix+token)
			assert.Equal(t, http.StatusOK, rec.Code)
			require.NotNil(t, identity)
			assert.Equal(t, "usr_ana", identity.UserID)
			assert.Equal(t, auth.RoleUser, identity.Role)
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	var identity *auth.Identity
	handler := middleware.OptionalAuth(jwtValidator{})(okHandler(&identity))

	rec := serve(handler, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, identity)

	rec = serve(handler, "Bearer "+issueToken(t, "usr_ana", auth.RoleUser))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, identity)
	assert.Equal(t, "usr_ana", identity.UserID)

	rec = serve(handler, "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	handler := middleware.RequireAuth(jwtValidator{})(middleware.RequireAdmin(okHandler(nil)))

	rec := serve(handler, "Bearer "+issueToken(t, "usr_ana", auth.RoleUser))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Admin access required")

	rec = serve(handler, "Bearer "+issueToken(t, "usr_root", auth.RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(middleware.RequireAdmin(okHandler(nil)), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetUserID_NoAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	assert.Empty(t, middleware.GetUserID(req.Context()))
	assert.Nil(t, middleware.GetIdentity(req.Context()))
}
