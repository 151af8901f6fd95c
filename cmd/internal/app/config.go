package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	authapi "github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/auth/api"
	"github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/auth/session"
	"github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/auth/tokens"
	"github.com/rasedprogrammer/national-recruiting-agency/cmd/security/password"
)

// Session storage backends.
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// ErrConfig indicates invalid runtime configuration.
var ErrConfig = errors.New("app: invalid config")

// Config contains all runtime configuration loaded from NRA_* environment variables.
type Config struct {
	HTTPAddr  string `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	LogColor  bool   `env:"LOG_COLOR" envDefault:"true"`

	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	MaxHeaderBytes    int           `env:"HTTP_MAX_HEADER_BYTES" envDefault:"1048576"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	DatabaseURL string `env:"DATABASE_URL"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns  int32  `env:"DB_MIN_CONNS" envDefault:"0"`
	DBMigrate   bool   `env:"DB_MIGRATE" envDefault:"false"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	// RedisKeyPrefix namespaces session and verification keys.
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"nra:"`

	// SessionBackend is postgres, redis or memory. Empty picks postgres when a
	// database is configured and memory otherwise.
	SessionBackend string `env:"SESSION_BACKEND"`

	// If true, /readyz returns 503 unless the database is configured and reachable.
	ReadinessRequireDB bool `env:"READINESS_REQUIRE_DB" envDefault:"false"`

	CORSAllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	CORSAllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	CORSMaxAgeSeconds    int      `env:"CORS_MAX_AGE_SECONDS" envDefault:"600"`

	KafkaBrokers           []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaVerificationTopic string   `env:"KAFKA_VERIFICATION_TOPIC"`

	TracingEnabled    bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint      string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TracingSampleRate float64 `env:"TRACING_SAMPLE_RATE" envDefault:"1.0"`
	Environment       string  `env:"ENVIRONMENT" envDefault:"development"`

	// If true, NRA_TOKEN_HMAC_KEY must be set (>= 32 bytes) and verification
	// codes are hashed with HMAC-SHA256.
	RequireTokenHMAC bool `env:"REQUIRE_TOKEN_HMAC" envDefault:"false"`

	// Component configs are filled by their own loaders in LoadConfig.
	Tokens   tokens.Config
	Session  session.Config
	API      authapi.Config
	Password password.Config
}

// LoadConfig loads Config and every component config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "NRA_"}); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	var err error
	if cfg.Tokens, err = tokens.LoadConfigFromEnv(); err != nil {
		return Config{}, err
	}
	if cfg.Session, err = session.LoadConfigFromEnv(); err != nil {
		return Config{}, err
	}
	if cfg.API, err = authapi.LoadConfigFromEnv(); err != nil {
		return Config{}, err
	}
	if cfg.Password, err = password.FromEnv(); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field invariants of the runtime config.
func (c Config) Validate() error {
	switch c.sessionBackend() {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: session backend postgres requires NRA_DATABASE_URL", ErrConfig)
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: session backend redis requires NRA_REDIS_ADDR", ErrConfig)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: unknown session backend %q", ErrConfig, c.SessionBackend)
	}

	if c.DBMigrate && c.DatabaseURL == "" {
		return fmt.Errorf("%w: NRA_DB_MIGRATE requires NRA_DATABASE_URL", ErrConfig)
	}
	if c.TracingSampleRate < 0 || c.TracingSampleRate > 1 {
		return fmt.Errorf("%w: tracing sample rate must be in [0,1]", ErrConfig)
	}
	for _, o := range c.CORSAllowedOrigins {
		if strings.TrimSpace(o) == "*" && c.CORSAllowCredentials {
			return fmt.Errorf("%w: wildcard CORS origin cannot be combined with credentials", ErrConfig)
		}
	}
	return nil
}

func (c Config) sessionBackend() string {
	b := strings.ToLower(strings.TrimSpace(c.SessionBackend))
	if b != "" {
		return b
	}
	if c.DatabaseURL != "" {
		return BackendPostgres
	}
	return BackendMemory
}
