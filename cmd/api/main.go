// Package main provides the entrypoint for the TripForge API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tripforge/tripforge/internal/admin"
	"github.com/tripforge/tripforge/internal/api"
	"github.com/tripforge/tripforge/internal/api/handler"
	"github.com/tripforge/tripforge/internal/api/middleware"
	"github.com/tripforge/tripforge/internal/auth"
	"github.com/tripforge/tripforge/internal/config"
	"github.com/tripforge/tripforge/internal/database"
	"github.com/tripforge/tripforge/internal/generator"
	"github.com/tripforge/tripforge/internal/generator/llm"
	"github.com/tripforge/tripforge/internal/generator/webhook"
	"github.com/tripforge/tripforge/internal/job"
	"github.com/tripforge/tripforge/internal/provider/resilience"
	"github.com/tripforge/tripforge/internal/telemetry"
	"github.com/tripforge/tripforge/internal/trip"
	"github.com/tripforge/tripforge/internal/user"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// repositories groups the storage backends chosen at start-up.
type repositories struct {
	users    auth.UserRepository
	refresh  auth.RefreshTokenRepository
	profiles user.Repository
	trips    trip.Repository
}

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := newLogger(cfg)
	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Server.Env).
		Msg("starting TripForge API")

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: Version,
		Environment:    cfg.Server.Env,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		Logger:         log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()
	if cfg.Telemetry.Enabled {
		log.Info().Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).Msg("OpenTelemetry initialized")
	}

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize HTTP metrics")
	}
	producerMetrics, err := telemetry.NewProducerMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize producer metrics")
	}
	jobMetrics, err := telemetry.NewJobMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize job metrics")
	}

	var deps []handler.Dependency

	// Storage
	var pool *pgxpool.Pool
	repos := memoryRepositories()
	if cfg.Database.URL != "" {
		if cfg.Database.Migrate {
			if err := database.Migrate(ctx, cfg.Database.URL); err != nil {
				log.Fatal().Err(err).Msg("failed to apply migrations")
			}
			log.Info().Msg("database migrations applied")
		}
		pool, err = database.Connect(ctx, database.Config{
			URL:             cfg.Database.URL,
			MaxConns:        int(cfg.Database.MaxConns),
			MinConns:        int(cfg.Database.MinConns),
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		repos = postgresRepositories(pool)
		deps = append(deps, handler.Dependency{Name: "postgres", Check: pool.Ping})
		log.Info().Msg("database connected")
	} else {
		log.Warn().Msg("DATABASE_URL not set - using in-memory repositories")
	}

	// Job store
	var jobStore job.Store
	switch cfg.Jobs.Store {
	case "redis":
		rdb, err := database.ConnectRedis(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		jobStore = job.NewRedisStore(rdb, cfg.Jobs.TTL)
		deps = append(deps, handler.Dependency{Name: "redis", Check: redisCheck(rdb)})
		log.Info().Msg("redis job store connected")
	default:
		jobStore = job.NewMemoryStore(cfg.Jobs.TTL)
	}

	// Services
	authService := auth.NewService(auth.ServiceConfig{
		JWTService: auth.NewJWTService(auth.JWTConfig{
			SigningKey:     cfg.Auth.SigningKey,
			Issuer:         cfg.Auth.Issuer,
			Audience:       cfg.Auth.Audience,
			AccessTokenTTL: cfg.Auth.AccessTokenTTL,
		}),
		UserRepo:        repos.users,
		RefreshRepo:     repos.refresh,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
		Logger:          log,
	})
	if cfg.Auth.SigningKey == config.DevSigningKey {
		log.Warn().Msg("using development JWT signing key - not secure for production")
	}
	if err := authService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("failed to bootstrap admin account")
	}

	registry := resilience.NewRegistry()
	producer, err := newProducer(cfg.Generator, registry, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize itinerary producer")
	}
	generatorService := generator.NewService(generator.Config{
		Producer: producer,
		Timeout:  cfg.Generator.Timeout,
		Registry: registry,
		Metrics:  producerMetrics,
		Logger:   log,
	})
	log.Info().Str("producer", producer.Name()).Dur("timeout", cfg.Generator.Timeout).Msg("itinerary generator initialized")

	jobService := job.NewService(job.Config{
		Store:     jobStore,
		Generator: generatorService,
		Workers:   cfg.Jobs.Workers,
		QueueSize: cfg.Jobs.QueueSize,
		Metrics:   jobMetrics,
		Logger:    log,
	})
	jobService.Start(ctx)

	userService := user.NewService(repos.profiles, authService)
	tripService := trip.NewService(repos.trips)
	adminService := admin.NewService(admin.Config{
		Auth:     authService,
		Trips:    tripService,
		Profiles: userService,
		Logger:   log,
	})

	router := api.NewRouter(api.RouterConfig{
		Version:          Version,
		BuildTime:        BuildTime,
		Logger:           log,
		ServiceName:      cfg.Telemetry.ServiceName,
		Metrics:          httpMetrics,
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		RequireTLS:       cfg.Server.RequireTLS,
		AuthService:      authService,
		UserService:      userService,
		TripService:      tripService,
		GeneratorService: generatorService,
		JobService:       jobService,
		AdminService:     adminService,
		Registry:         registry,
		Dependencies:     deps,
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	// Queued jobs drain after the listener closes; pollers are gone by then
	// but results still land in the store for a restarted client.
	if err := jobService.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("job workers did not drain before the deadline")
	}

	log.Info().Msg("server stopped")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if cfg.Log.Format == "console" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		log = zerolog.New(os.Stdout)
	}
	return log.Level(level).
		With().
		Timestamp().
		Str("service", cfg.Telemetry.ServiceName).
		Str("version", Version).
		Logger()
}

func memoryRepositories() repositories {
	return repositories{
		users:    auth.NewInMemoryUserRepository(),
		refresh:  auth.NewInMemoryRefreshTokenRepository(),
		profiles: user.NewInMemoryRepository(),
		trips:    trip.NewInMemoryRepository(),
	}
}

func postgresRepositories(pool *pgxpool.Pool) repositories {
	return repositories{
		users:    auth.NewPostgresUserRepository(pool),
		refresh:  auth.NewPostgresRefreshTokenRepository(pool),
		profiles: user.NewPostgresRepository(pool),
		trips:    trip.NewPostgresRepository(pool),
	}
}

func redisCheck(rdb *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}

// newProducer builds the configured itinerary producer. Both producers run
// through a resilient client registered for /v1/ops/status, with retries off.
func newProducer(cfg config.GeneratorConfig, registry *resilience.Registry, log zerolog.Logger) (generator.Producer, error) {
	name := webhook.ProducerName
	if cfg.Mode == "llm" {
		name = llm.ProducerName
	}

	rc := resilience.DefaultClientConfig(name)
	rc.Timeout = cfg.Timeout
	rc.MaxRetries = 0
	rc.Registry = registry
	rc.Logger = log
	httpClient := resilience.NewClient(rc)

	if cfg.Mode == "llm" {
		model, err := llm.NewOpenAIModel(llm.OpenAIConfig{
			APIKey:     cfg.LLMAPIKey,
			Model:      cfg.LLMModel,
			BaseURL:    cfg.LLMBaseURL,
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, err
		}
		return llm.NewClient(llm.ClientConfig{
			Model:       model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Logger:      log,
		}), nil
	}

	return webhook.NewClient(webhook.ClientConfig{
		URL:          cfg.WebhookURL,
		Secret:       cfg.Secret,
		SecretHeader: cfg.SecretHeader,
		HTTPClient:   httpClient,
		Logger:       log,
	}), nil
}
