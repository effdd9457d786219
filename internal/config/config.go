// Package config loads service configuration from defaults, an optional .env
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DevSigningKey is used when JWT_SIGNING_KEY is unset outside production.
const DevSigningKey = "local-dev-signing-key-change-in-production"

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Generator GeneratorConfig `koanf:"generator"`
	Jobs      JobsConfig      `koanf:"jobs"`
	Auth      AuthConfig      `koanf:"auth"`
	CORS      CORSConfig      `koanf:"cors"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Env             string        `koanf:"env" validate:"required"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	// RequireTLS rejects requests a proxy reports as plain HTTP.
	RequireTLS bool `koanf:"require_tls"`
}

// LogConfig configures zerolog output.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// DatabaseConfig configures Postgres. An empty URL selects in-memory repositories.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxConns        int32         `koanf:"max_conns" validate:"min=1"`
	MinConns        int32         `koanf:"min_conns" validate:"min=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	Migrate         bool          `koanf:"migrate"`
}

// RedisConfig configures the Redis connection used by the job store.
type RedisConfig struct {
	URL string `koanf:"url"`
}

// GeneratorConfig selects and configures the itinerary producer.
type GeneratorConfig struct {
	Mode         string        `koanf:"mode" validate:"oneof=webhook llm"`
	Timeout      time.Duration `koanf:"timeout" validate:"gt=0"`
	WebhookURL   string        `koanf:"webhook_url" validate:"omitempty,url"`
	SecretHeader string        `koanf:"secret_header"`
	Secret       string        `koanf:"secret"`
	LLMModel     string        `koanf:"llm_model"`
	LLMAPIKey    string        `koanf:"llm_api_key"`
	LLMBaseURL   string        `koanf:"llm_base_url" validate:"omitempty,url"`
	Temperature  float64       `koanf:"temperature" validate:"min=0,max=2"`
	MaxTokens    int           `koanf:"max_tokens" validate:"min=0"`
}

// JobsConfig configures asynchronous generation.
type JobsConfig struct {
	Store     string        `koanf:"store" validate:"oneof=memory redis"`
	Workers   int           `koanf:"workers" validate:"min=1,max=64"`
	QueueSize int           `koanf:"queue_size" validate:"min=1"`
	TTL       time.Duration `koanf:"ttl" validate:"gt=0"`
}

// AuthConfig configures tokens and the bootstrap admin account.
type AuthConfig struct {
	SigningKey      string        `koanf:"signing_key"`
	Issuer          string        `koanf:"issuer"`
	Audience        string        `koanf:"audience"`
	AccessTokenTTL  time.Duration `koanf:"access_token_ttl" validate:"gt=0"`
	RefreshTokenTTL time.Duration `koanf:"refresh_token_ttl" validate:"gt=0"`
	AdminEmail      string        `koanf:"admin_email" validate:"omitempty,email"`
	AdminPassword   string        `koanf:"admin_password"`
}

// CORSConfig configures browser access.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool   `koanf:"enabled"`
	ServiceName  string `koanf:"service_name" validate:"required"`
	OTLPEndpoint string `koanf:"otlp_endpoint"`
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Env:             "development",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    90 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			MaxConns:        25,
			MinConns:        5,
			ConnMaxLifetime: time.Hour,
			Migrate:         true,
		},
		Generator: GeneratorConfig{
			Mode:         "webhook",
			Timeout:      60 * time.Second,
			SecretHeader: "X-Webhook-Secret",
			LLMModel:     "gpt-4o-mini",
			Temperature:  0.7,
			MaxTokens:    4096,
		},
		Jobs: JobsConfig{
			Store:     "memory",
			Workers:   4,
			QueueSize: 100,
			TTL:       24 * time.Hour,
		},
		Auth: AuthConfig{
			Issuer:          "https://api.tripforge.app",
			Audience:        "tripforge-api",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 30 * 24 * time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Telemetry: TelemetryConfig{
			ServiceName:  "tripforge-api",
			OTLPEndpoint: "localhost:4317",
		},
	}
}

// envKeys maps environment variables to configuration keys.
var envKeys = map[string]string{
	"APP_ENV":                     "server.env",
	"APP_PORT":                    "server.port",
	"SERVER_READ_TIMEOUT":         "server.read_timeout",
	"SERVER_WRITE_TIMEOUT":        "server.write_timeout",
	"SERVER_IDLE_TIMEOUT":         "server.idle_timeout",
	"SERVER_SHUTDOWN_TIMEOUT":     "server.shutdown_timeout",
	"REQUIRE_TLS":                 "server.require_tls",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"DATABASE_URL":                "database.url",
	"DATABASE_MAX_CONNS":          "database.max_conns",
	"DATABASE_MIN_CONNS":          "database.min_conns",
	"DATABASE_CONN_MAX_LIFETIME":  "database.conn_max_lifetime",
	"DATABASE_MIGRATE":            "database.migrate",
	"REDIS_URL":                   "redis.url",
	"GENERATOR_MODE":              "generator.mode",
	"GENERATOR_TIMEOUT":           "generator.timeout",
	"N8N_WEBHOOK_URL":             "generator.webhook_url",
	"WEBHOOK_SECRET_HEADER":       "generator.secret_header",
	"WEBHOOK_SECRET":              "generator.secret",
	"LLM_MODEL":                   "generator.llm_model",
	"OPENAI_API_KEY":              "generator.llm_api_key",
	"OPENAI_BASE_URL":             "generator.llm_base_url",
	"LLM_TEMPERATURE":             "generator.temperature",
	"LLM_MAX_TOKENS":              "generator.max_tokens",
	"JOB_STORE":                   "jobs.store",
	"JOB_WORKERS":                 "jobs.workers",
	"JOB_QUEUE_SIZE":              "jobs.queue_size",
	"JOB_TTL":                     "jobs.ttl",
	"JWT_SIGNING_KEY":             "auth.signing_key",
	"JWT_ISSUER":                  "auth.issuer",
	"JWT_AUDIENCE":                "auth.audience",
	"JWT_ACCESS_TOKEN_TTL":        "auth.access_token_ttl",
	"JWT_REFRESH_TOKEN_TTL":       "auth.refresh_token_ttl",
	"ADMIN_EMAIL":                 "auth.admin_email",
	"ADMIN_PASSWORD":              "auth.admin_password",
	"CORS_ALLOWED_ORIGINS":        "cors.allowed_origins",
	"OTEL_ENABLED":                "telemetry.enabled",
	"OTEL_SERVICE_NAME":           "telemetry.service_name",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "telemetry.otlp_endpoint",
}

// Load reads .env files (if present), then overlays the environment on the
// defaults and validates the result.
func Load(dotenvFiles ...string) (*Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, f := range dotenvFiles {
		// Variables already in the environment win over the file.
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			path, ok := envKeys[key]
			if !ok || value == "" {
				return "", nil
			}
			return path, value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	cfg.CORS.AllowedOrigins = trimAll(cfg.CORS.AllowedOrigins)
	if cfg.Auth.SigningKey == "" && !cfg.IsProduction() {
		cfg.Auth.SigningKey = DevSigningKey
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks field constraints and the rules that span sections.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var errs []error
	if c.Generator.Mode == "webhook" && c.Generator.WebhookURL == "" {
		errs = append(errs, errors.New("N8N_WEBHOOK_URL is required when GENERATOR_MODE=webhook"))
	}
	if c.Jobs.Store == "redis" && c.Redis.URL == "" {
		errs = append(errs, errors.New("REDIS_URL is required when JOB_STORE=redis"))
	}
	if c.Auth.SigningKey == "" {
		errs = append(errs, errors.New("JWT_SIGNING_KEY is required in production"))
	}
	if c.Auth.AdminEmail != "" && len(c.Auth.AdminPassword) < 8 {
		errs = append(errs, errors.New("ADMIN_PASSWORD must be at least 8 characters when ADMIN_EMAIL is set"))
	}
	if c.Server.WriteTimeout <= c.Generator.Timeout {
		errs = append(errs, errors.New("SERVER_WRITE_TIMEOUT must exceed GENERATOR_TIMEOUT"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func trimAll(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
