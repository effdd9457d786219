// Package api provides the HTTP API for TripForge.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/tripforge/tripforge/internal/admin"
	"github.com/tripforge/tripforge/internal/api/handler"
	"github.com/tripforge/tripforge/internal/api/middleware"
	"github.com/tripforge/tripforge/internal/api/response"
	"github.com/tripforge/tripforge/internal/auth"
	"github.com/tripforge/tripforge/internal/generator"
	"github.com/tripforge/tripforge/internal/job"
	"github.com/tripforge/tripforge/internal/provider/resilience"
	"github.com/tripforge/tripforge/internal/trip"
	"github.com/tripforge/tripforge/internal/user"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// AllowedOrigins lists browser origins allowed by CORS. Empty disables CORS.
	AllowedOrigins []string
	RequireTLS     bool

	AuthService      *auth.Service
	UserService      *user.Service
	TripService      *trip.Service
	GeneratorService *generator.Service
	JobService       *job.Service
	AdminService     *admin.Service
	Registry         *resilience.Registry
	Dependencies     []handler.Dependency
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "tripforge-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement behind a proxy
	r.Use(middleware.ContentTypeJSON)            // JSON content type
	r.Use(middleware.RequireJSON)                // JSON request bodies only

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "resource not found")
	})
	r.MethodNotAllowed(response.MethodNotAllowed)

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry, cfg.Dependencies...)
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.UserService, cfg.Logger)
	itineraryHandler := handler.NewItineraryHandler(cfg.GeneratorService, cfg.JobService, cfg.Logger)
	meHandler := handler.NewMeHandler(cfg.UserService, cfg.TripService, cfg.Logger)
	tripHandler := handler.NewTripHandler(cfg.TripService, cfg.Logger)
	adminHandler := handler.NewAdminHandler(cfg.AdminService, cfg.Logger)

	requireAuth := middleware.RequireAuth(cfg.AuthService)
	optionalAuth := middleware.OptionalAuth(cfg.AuthService)

	authRateLimit := middleware.RateLimitByIP(middleware.AuthRateLimit)           // 10 req/min per IP
	generateRateLimit := middleware.RateLimitByUser(middleware.GenerateRateLimit) // 10 req/min per user
	standardRateLimit := middleware.RateLimitByUser(middleware.StandardRateLimit) // 100 req/min per user

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authRateLimit)
				r.Post("/signup", authHandler.SignUp)
				r.Post("/signin", authHandler.SignIn)
				r.Post("/token/refresh", authHandler.RefreshToken)
			})
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", authHandler.Logout)
				r.Post("/logout-all", authHandler.LogoutAll)
			})
		})

		r.Route("/itineraries", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(optionalAuth)
				r.Use(generateRateLimit)
				r.Post("/generate", itineraryHandler.Generate)
				r.Post("/jobs", itineraryHandler.SubmitJob)
			})
			r.With(standardRateLimit).Get("/jobs/{jobId}", itineraryHandler.GetJob)
		})

		r.Route("/me", func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(standardRateLimit)

			r.Get("/dashboard", meHandler.Dashboard)
			r.Get("/profile", meHandler.GetProfile)
			r.Patch("/profile", meHandler.UpdateProfile)

			r.Route("/trips", func(r chi.Router) {
				r.Get("/", tripHandler.ListTrips)
				r.Post("/", tripHandler.SaveTrip)
				r.Route("/{tripId}", func(r chi.Router) {
					r.Get("/", tripHandler.GetTrip)
					r.Delete("/", tripHandler.DeleteTrip)
					r.Patch("/status", tripHandler.UpdateTripStatus)
				})
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(middleware.RequireAdmin)
			r.Use(standardRateLimit)

			r.Get("/dashboard", adminHandler.Dashboard)
			r.Route("/users", func(r chi.Router) {
				r.Get("/", adminHandler.ListUsers)
				r.Get("/{userId}", adminHandler.GetUser)
				r.Patch("/{userId}/status", adminHandler.SetUserStatus)
			})
			r.Route("/itineraries", func(r chi.Router) {
				r.Get("/", adminHandler.ListItineraries)
				r.Get("/{tripId}", adminHandler.GetItinerary)
				r.Post("/{tripId}/flag", adminHandler.FlagItinerary)
			})
		})
	})

	if len(cfg.AllowedOrigins) == 0 {
		return r
	}
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "Location", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           600,
	}).Handler(r)
}
