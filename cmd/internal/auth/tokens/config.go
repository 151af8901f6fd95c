package tokens

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Format selects the token codec.
type Format string

const (
	FormatJWT    Format = "jwt"
	FormatPaseto Format = "paseto"
)

// minSecretBytes is the shortest secret accepted for either kind.
const minSecretBytes = 16

// Config defines token issuance parameters.
type Config struct {
	AccessSecret  string        `env:"JWT_SECRET"`
	AccessTTL     time.Duration `env:"JWT_EXPIRES_IN"`
	RefreshSecret string        `env:"JWT_REFRESH_SECRET"`
	RefreshTTL    time.Duration `env:"JWT_REFRESH_EXPIRES_IN"`

	Format   Format `env:"TOKEN_FORMAT"`
	Audience string `env:"TOKEN_AUDIENCE"`

	// ClockSkew is tolerated on expiry and issued-at checks.
	ClockSkew time.Duration `env:"TOKEN_CLOCK_SKEW"`
}

// DefaultConfig returns defaults without secrets; secrets must always be supplied.
func DefaultConfig() Config {
	return Config{
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 30 * 24 * time.Hour,
		Format:     FormatJWT,
		Audience:   "user",
		ClockSkew:  30 * time.Second,
	}
}

// LoadConfigFromEnv loads token configuration from NRA_* environment variables.
//
// Required:
//   - NRA_JWT_SECRET
//   - NRA_JWT_REFRESH_SECRET (must differ from NRA_JWT_SECRET)
//
// Optional:
//   - NRA_JWT_EXPIRES_IN, NRA_JWT_REFRESH_EXPIRES_IN (Go durations)
//   - NRA_TOKEN_FORMAT (jwt|paseto), NRA_TOKEN_AUDIENCE, NRA_TOKEN_CLOCK_SKEW
//
// Returns an error wrapping ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "NRA_"}); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks invariants.
func (c Config) Validate() error {
	switch {
	case len(c.AccessSecret) < minSecretBytes:
		return fmt.Errorf("%w: access secret must be at least %d bytes", ErrConfig, minSecretBytes)
	case len(c.RefreshSecret) < minSecretBytes:
		return fmt.Errorf("%w: refresh secret must be at least %d bytes", ErrConfig, minSecretBytes)
	case c.AccessSecret == c.RefreshSecret:
		return fmt.Errorf("%w: access and refresh secrets must differ", ErrConfig)
	case c.AccessTTL <= 0 || c.RefreshTTL <= 0:
		return fmt.Errorf("%w: ttl must be positive", ErrConfig)
	case c.ClockSkew < 0:
		return fmt.Errorf("%w: negative clock skew", ErrConfig)
	case strings.TrimSpace(c.Audience) == "":
		return fmt.Errorf("%w: empty audience", ErrConfig)
	}
	switch c.Format {
	case FormatJWT, FormatPaseto:
	default:
		return fmt.Errorf("%w: unknown format %q", ErrConfig, c.Format)
	}
	return nil
}
