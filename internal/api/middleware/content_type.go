package middleware

import (
	"mime"
	"net/http"

	"github.com/tripforge/tripforge/internal/api/models"
)

// ProblemTypeUnsupportedMediaType identifies request bodies that are not JSON.
const ProblemTypeUnsupportedMediaType = "https://api.tripforge.app/problems/unsupported-media-type"

// ContentTypeJSON sets the Content-Type header to application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only set if not already set (allows handlers to override)
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}

// RequireJSON rejects POST, PUT and PATCH bodies declared as anything but JSON.
// A missing Content-Type is accepted.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if ct := r.Header.Get("Content-Type"); ct != "" {
				if mediaType, _, err := mime.ParseMediaType(ct); err != nil || mediaType != "application/json" {
					problem := models.NewProblem(ProblemTypeUnsupportedMediaType, "Unsupported Media Type",
						http.StatusUnsupportedMediaType, GetRequestID(r.Context())).
						WithDetail("Content-Type must be application/json")
					writeProblem(w, r, problem)
					return
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}
