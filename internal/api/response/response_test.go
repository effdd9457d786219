package response_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tripforge/tripforge/internal/api/middleware"
	"github.com/tripforge/tripforge/internal/api/models"
	"github.com/tripforge/tripforge/internal/api/response"
)

// requestWithID returns a request whose context carries a request ID.
func requestWithID(t *testing.T, method, path string) *http.Request {
	t.Helper()
	var processed *http.Request
	middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		processed = r
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, path, http.NoBody))
	return processed
}

func TestSuccessResponses(t *testing.T) {
	tests := []struct {
		name     string
		write    func(http.ResponseWriter, *http.Request)
		status   int
		location string
		body     bool
	}{
		{
			name:   "json",
			write:  func(w http.ResponseWriter, r *http.Request) { response.JSON(w, r, http.StatusOK, map[string]string{"a": "b"}) },
			status: http.StatusOK,
			body:   true,
		},
		{
			name:   "json nil data",
			write:  func(w http.ResponseWriter, r *http.Request) { response.JSON(w, r, http.StatusOK, nil) },
			status: http.StatusOK,
		},
		{
			name: "created",
			write: func(w http.ResponseWriter, r *http.Request) {
				response.Created(w, r, "/v1/me/trips/trp_1", map[string]string{"id": "trp_1"})
			},
			status:   http.StatusCreated,
			location: "/v1/me/trips/trp_1",
			body:     true,
		},
		{
			name: "accepted",
			write: func(w http.ResponseWriter, r *http.Request) {
				response.Accepted(w, r, "/v1/itineraries/jobs/job_1", models.JobAccepted{JobID: "job_1", Status: "pending"})
			},
			status:   http.StatusAccepted,
			location: "/v1/itineraries/jobs/job_1",
			body:     true,
		},
		{
			name:   "no content",
			write:  response.NoContent,
			status: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec, requestWithID(t, http.MethodPost, "/v1/test"))

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if rec.Header().Get("X-Request-Id") == "" {
				t.Error("expected X-Request-Id header")
			}
			if got := rec.Header().Get("Location"); got != tt.location {
				t.Errorf("Location = %q, want %q", got, tt.location)
			}
			if (rec.Body.Len() > 0) != tt.body {
				t.Errorf("body = %q, want body present: %v", rec.Body.String(), tt.body)
			}
		})
	}
}

func TestJSON_WithoutRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	response.JSON(rec, httptest.NewRequest(http.MethodGet, "/test", http.NoBody), http.StatusOK, nil)

	if got := rec.Header().Get("X-Request-Id"); got != "" {
		t.Errorf("expected no X-Request-Id header, got %q", got)
	}
}

func TestProblemResponses(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter, *http.Request)
		status int
	}{
		{"bad request", func(w http.ResponseWriter, r *http.Request) {
			response.BadRequest(w, r, "validation failed", []models.FieldError{{Field: "destination", Message: "is required"}})
		}, http.StatusBadRequest},
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) { response.Unauthorized(w, r, "invalid token") }, http.StatusUnauthorized},
		{"forbidden", func(w http.ResponseWriter, r *http.Request) { response.Forbidden(w, r, "admin access required") }, http.StatusForbidden},
		{"not found", func(w http.ResponseWriter, r *http.Request) { response.NotFound(w, r, "Job not found") }, http.StatusNotFound},
		{"conflict", func(w http.ResponseWriter, r *http.Request) { response.Conflict(w, r, "email already registered") }, http.StatusConflict},
		{"internal", func(w http.ResponseWriter, r *http.Request) { response.InternalError(w, r, "boom") }, http.StatusInternalServerError},
		{"bad gateway", func(w http.ResponseWriter, r *http.Request) { response.BadGateway(w, r, "bad upstream") }, http.StatusBadGateway},
		{"unavailable", func(w http.ResponseWriter, r *http.Request) { response.ServiceUnavailable(w, r, "circuit open") }, http.StatusServiceUnavailable},
		{"gateway timeout", func(w http.ResponseWriter, r *http.Request) {
			response.GatewayTimeout(w, r, "Itinerary generation timed out")
		}, http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec, requestWithID(t, http.MethodGet, "/v1/itineraries/generate"))

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Errorf("Content-Type = %q", ct)
			}

			var problem models.Problem
			if err := json.NewDecoder(rec.Body).Decode(&problem); err != nil {
				t.Fatalf("decoding problem: %v", err)
			}
			if problem.Status != tt.status {
				t.Errorf("problem status = %d, want %d", problem.Status, tt.status)
			}
			if problem.TraceID == "" {
				t.Error("expected traceId")
			}
			if problem.Instance != "/v1/itineraries/generate" {
				t.Errorf("instance = %q", problem.Instance)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	var v models.SignInRequest

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","password":"x"}`))
	if err := response.Decode(req, &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Email != "a@b.co" {
		t.Errorf("email = %q", v.Email)
	}

	for _, body := range []string{`{`, `{"email":"a"} {"email":"b"}`, `not json`} {
		req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		if err := response.Decode(req, &v); err == nil {
			t.Errorf("Decode(%q) succeeded, want error", body)
		}
	}

	big := `{"email":"` + strings.Repeat("a", response.MaxBodyBytes) + `"}`
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	if err := response.Decode(req, &v); !errors.Is(err, response.ErrBodyTooLarge) {
		t.Errorf("err = %v, want ErrBodyTooLarge", err)
	}
}
