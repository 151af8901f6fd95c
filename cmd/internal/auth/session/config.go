package session

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config defines session lifetime policy.
type Config struct {
	// TTL is the lifetime of a new session (and of a rotated one, from rotation time).
	TTL time.Duration `env:"SESSION_TTL"`

	// RotationThreshold is the remaining lifetime at or below which a refresh
	// rotates the refresh token and extends the session.
	RotationThreshold time.Duration `env:"SESSION_ROTATION_THRESHOLD"`

	// RedisRetention keeps expired sessions readable in Redis so a late refresh
	// reports "expired" rather than "missing".
	RedisRetention time.Duration `env:"SESSION_REDIS_RETENTION"`
}

// DefaultConfig returns the baseline session policy.
func DefaultConfig() Config {
	return Config{
		TTL:               30 * 24 * time.Hour,
		RotationThreshold: 24 * time.Hour,
		RedisRetention:    24 * time.Hour,
	}
}

// LoadConfigFromEnv loads session configuration from NRA_* environment variables.
//
// Optional (Go duration strings):
//   - NRA_SESSION_TTL
//   - NRA_SESSION_ROTATION_THRESHOLD
//   - NRA_SESSION_REDIS_RETENTION
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
	case c.TTL <= 0:
		return fmt.Errorf("%w: ttl must be positive", ErrConfig)
	case c.RotationThreshold <= 0:
		return fmt.Errorf("%w: rotation threshold must be positive", ErrConfig)
	case c.RotationThreshold >= c.TTL:
		return fmt.Errorf("%w: rotation threshold must be shorter than ttl", ErrConfig)
	case c.RedisRetention < 0:
		return fmt.Errorf("%w: negative redis retention", ErrConfig)
	}
	return nil
}
