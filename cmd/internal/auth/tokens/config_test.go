package tokens

import (
	"errors"
	"testing"
	"time"
)

func TestLoadConfigFromEnv_MissingSecrets(t *testing.T) {
	t.Setenv("NRA_JWT_SECRET", "")
	t.Setenv("NRA_JWT_REFRESH_SECRET", "")
	if _, err := LoadConfigFromEnv(); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestLoadConfigFromEnv_SameSecrets(t *testing.T) {
	t.Setenv("NRA_JWT_SECRET", "same-secret-0123456789")
	t.Setenv("NRA_JWT_REFRESH_SECRET", "same-secret-0123456789")
	if _, err := LoadConfigFromEnv(); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for shared secret, got %v", err)
	}
}

func TestLoadConfigFromEnv_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"NRA_JWT_EXPIRES_IN":         "-5m",
		"NRA_TOKEN_FORMAT":           "saml",
		"NRA_TOKEN_CLOCK_SKEW":       "-1s",
		"NRA_JWT_REFRESH_EXPIRES_IN": "soon",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("NRA_JWT_SECRET", "access-secret-0123456789")
			t.Setenv("NRA_JWT_REFRESH_SECRET", "refresh-secret-0123456789")
			t.Setenv(key, val)
			if _, err := LoadConfigFromEnv(); !errors.Is(err, ErrConfig) {
				t.Fatalf("expected ErrConfig for %s=%s, got %v", key, val, err)
			}
		})
	}
}

func TestLoadConfigFromEnv_Valid(t *testing.T) {
	t.Setenv("NRA_JWT_SECRET", "access-secret-0123456789")
	t.Setenv("NRA_JWT_REFRESH_SECRET", "refresh-secret-0123456789")
	t.Setenv("NRA_JWT_EXPIRES_IN", "10m")
	t.Setenv("NRA_JWT_REFRESH_EXPIRES_IN", "48h")
	t.Setenv("NRA_TOKEN_FORMAT", "paseto")
	t.Setenv("NRA_TOKEN_AUDIENCE", "recruiter")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AccessTTL != 10*time.Minute || cfg.RefreshTTL != 48*time.Hour {
		t.Fatalf("unexpected ttls: %v %v", cfg.AccessTTL, cfg.RefreshTTL)
	}
	if cfg.Format != FormatPaseto || cfg.Audience != "recruiter" {
		t.Fatalf("unexpected format/audience: %q %q", cfg.Format, cfg.Audience)
	}
	if cfg.ClockSkew != 30*time.Second {
		t.Fatalf("expected default skew, got %v", cfg.ClockSkew)
	}
}
