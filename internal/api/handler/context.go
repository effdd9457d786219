package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/tripforge/tripforge/internal/api/middleware"
	"github.com/tripforge/tripforge/internal/api/models"
)

// GetUserID retrieves the authenticated user ID from the context.
// This is a convenience wrapper around middleware.GetUserID.
func GetUserID(ctx context.Context) string {
	return middleware.GetUserID(ctx)
}

// pageParams holds the common list query parameters.
type pageParams struct {
	Page   int
	Limit  int
	Search string
}

// parsePageParams reads page, limit and search from the query string.
// Missing values are zero and left for the service to default.
func parsePageParams(r *http.Request) (pageParams, []models.FieldError) {
	q := r.URL.Query()
	var (
		p    pageParams
		errs []models.FieldError
	)
	for _, f := range []struct {
		name string
		dst  *int
	}{
		{"page", &p.Page},
		{"limit", &p.Limit},
	} {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			errs = append(errs, models.FieldError{Field: f.name, Message: "must be a positive integer", Code: "invalid"})
			continue
		}
		*f.dst = n
	}
	p.Search = strings.TrimSpace(q.Get("search"))
	return p, errs
}
