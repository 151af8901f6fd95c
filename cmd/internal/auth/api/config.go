package authapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/caarlos0/env/v10"
)

// ErrConfig indicates invalid boundary configuration.
var ErrConfig = errors.New("authapi: invalid config")

// Config controls routing and cookie attributes of the auth API.
type Config struct {
	// BasePath prefixes every route, e.g. "/api/v1".
	BasePath string `env:"BASE_PATH"`

	CookieSecure   bool   `env:"COOKIE_SECURE"`
	CookieSameSite string `env:"COOKIE_SAMESITE"`
	CookieDomain   string `env:"COOKIE_DOMAIN"`

	MaxBodyBytes int64 `env:"AUTH_MAX_BODY_BYTES"`
}

// DefaultConfig returns production-safe defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:       "/api/v1",
		CookieSecure:   true,
		CookieSameSite: "lax",
		MaxBodyBytes:   1 << 20, // 1 MiB
	}
}

// LoadConfigFromEnv loads auth API config from NRA_* environment variables.
//
// Optional:
//   - NRA_BASE_PATH
//   - NRA_COOKIE_SECURE, NRA_COOKIE_SAMESITE (strict|lax|none|default), NRA_COOKIE_DOMAIN
//   - NRA_AUTH_MAX_BODY_BYTES
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "NRA_"}); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return cfg.normalize()
}

func (c Config) normalize() (Config, error) {
	c.BasePath = normalizeBasePath(c.BasePath)
	c.CookieDomain = strings.TrimSpace(c.CookieDomain)
	c.CookieSameSite = strings.ToLower(strings.TrimSpace(c.CookieSameSite))

	switch c.CookieSameSite {
	case "", "strict", "lax", "none", "default":
	default:
		return Config{}, fmt.Errorf("%w: unknown SameSite mode %q", ErrConfig, c.CookieSameSite)
	}
	// Browsers reject SameSite=None without Secure.
	if c.CookieSameSite == "none" {
		c.CookieSecure = true
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 1 << 20
	}
	return c, nil
}

func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "default":
		return http.SameSiteDefaultMode
	default:
		return http.SameSiteLaxMode
	}
}
