package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tripforge/tripforge/internal/api/middleware"
	"github.com/tripforge/tripforge/internal/auth"
)

func hit(h http.Handler, remoteAddr string, identity *auth.Identity) int {
	req := httptest.NewRequest(http.MethodPost, "/v1/itineraries/generate", http.NoBody)
	req.RemoteAddr = remoteAddr
	if identity != nil {
		req = req.WithContext(middleware.WithIdentity(req.Context(), identity))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimitByIP(t *testing.T) {
	handler := middleware.RateLimitByIP(middleware.RateLimitConfig{
		RequestLimit: 3,
		WindowLength: time.Minute,
	})(okHandler(nil))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.1:1234", nil), "request %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "10.0.0.1:1234", nil))
	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.2:1234", nil), "other clients keep their own budget")
}

func TestRateLimit_ProblemResponse(t *testing.T) {
	handler := middleware.RateLimitByIP(middleware.RateLimitConfig{
		RequestLimit: 1,
		WindowLength: 30 * time.Second,
	})(okHandler(nil))

	hit(handler, "10.1.0.1:1234", nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/signin", http.NoBody)
	req.RemoteAddr = "10.1.0.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Rate limit exceeded")
}

func TestRateLimitByUser(t *testing.T) {
	handler := middleware.RateLimitByUser(middleware.RateLimitConfig{
		RequestLimit: 2,
		WindowLength: time.Minute,
	})(okHandler(nil))

	ana := &auth.Identity{UserID: "usr_ana", Role: auth.RoleUser}
	bo := &auth.Identity{UserID: "usr_bo", Role: auth.RoleUser}

	// Same user from different addresses shares one budget.
	assert.Equal(t, http.StatusOK, hit(handler, "10.2.0.1:1", ana))
	assert.Equal(t, http.StatusOK, hit(handler, "10.2.0.2:1", ana))
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "10.2.0.3:1", ana))

	assert.Equal(t, http.StatusOK, hit(handler, "10.2.0.1:1", bo))

	// Anonymous callers are keyed by address.
	assert.Equal(t, http.StatusOK, hit(handler, "10.2.0.9:1", nil))
	assert.Equal(t, http.StatusOK, hit(handler, "10.2.0.9:1", nil))
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "10.2.0.9:1", nil))
}
