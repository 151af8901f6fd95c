package tokens

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testConfig(format Format) Config {
	cfg := DefaultConfig()
	cfg.AccessSecret = "access-secret-0123456789"
	cfg.RefreshSecret = "refresh-secret-0123456789"
	cfg.Format = format
	return cfg
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestService(t *testing.T, cfg Config) (*Service, *fakeClock) {
	t.Helper()
	clk := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s, err := New(cfg, WithClock(clk.now))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, clk
}

func forEachFormat(t *testing.T, fn func(t *testing.T, format Format)) {
	for _, f := range []Format{FormatJWT, FormatPaseto} {
		t.Run(string(f), func(t *testing.T) { fn(t, f) })
	}
}

func TestSignVerify_RoundTrip(t *testing.T) {
	forEachFormat(t, func(t *testing.T, f Format) {
		s, clk := newTestService(t, testConfig(f))

		access, exp, err := s.Sign(Payload{UserID: "u1", SessionID: "s1"}, Access)
		if err != nil {
			t.Fatalf("Sign access: %v", err)
		}
		if want := clk.t.Add(15 * time.Minute); !exp.Equal(want) {
			t.Fatalf("access exp=%v want %v", exp, want)
		}
		p, err := s.Verify(access, Access)
		if err != nil {
			t.Fatalf("Verify access: %v", err)
		}
		if p.UserID != "u1" || p.SessionID != "s1" {
			t.Fatalf("unexpected payload %+v", p)
		}

		refresh, rexp, err := s.Sign(Payload{UserID: "u1", SessionID: "s1"}, Refresh)
		if err != nil {
			t.Fatalf("Sign refresh: %v", err)
		}
		if want := clk.t.Add(30 * 24 * time.Hour); !rexp.Equal(want) {
			t.Fatalf("refresh exp=%v want %v", rexp, want)
		}
		rp, err := s.Verify(refresh, Refresh)
		if err != nil {
			t.Fatalf("Verify refresh: %v", err)
		}
		if rp.UserID != "" || rp.SessionID != "s1" {
			t.Fatalf("refresh payload must carry only the session id, got %+v", rp)
		}
	})
}

func TestVerify_WrongKind(t *testing.T) {
	forEachFormat(t, func(t *testing.T, f Format) {
		s, _ := newTestService(t, testConfig(f))

		access, _, _ := s.Sign(Payload{UserID: "u1", SessionID: "s1"}, Access)
		if _, err := s.Verify(access, Refresh); !errors.Is(err, ErrInvalid) {
			t.Fatalf("access token verified as refresh: %v", err)
		}
		refresh, _, _ := s.Sign(Payload{SessionID: "s1"}, Refresh)
		if _, err := s.Verify(refresh, Access); !errors.Is(err, ErrInvalid) {
			t.Fatalf("refresh token verified as access: %v", err)
		}
	})
}

func TestVerify_KindClaimHoldsWithSharedSecret(t *testing.T) {
	forEachFormat(t, func(t *testing.T, f Format) {
		cfg := testConfig(f)
		s, _ := newTestService(t, cfg)
		// Bypass the distinct-secret check to prove the typ claim alone separates kinds.
		s.cfg.RefreshSecret = s.cfg.AccessSecret

		access, _, _ := s.Sign(Payload{UserID: "u1", SessionID: "s1"}, Access)
		if _, err := s.Verify(access, Refresh); !errors.Is(err, ErrInvalid) {
			t.Fatalf("expected ErrInvalid, got %v", err)
		}
	})
}

func TestVerify_Expired(t *testing.T) {
	forEachFormat(t, func(t *testing.T, f Format) {
		s, clk := newTestService(t, testConfig(f))

		tok, _, err := s.Sign(Payload{UserID: "u1", SessionID: "s1"}, Access)
		if err != nil {
			t.Fatalf("Sign: %v", err)
		}

		clk.t = clk.t.Add(15*time.Minute + 10*time.Second)
		if _, err := s.Verify(tok, Access); err != nil {
			t.Fatalf("expected token valid within clock skew, got %v", err)
		}

		clk.t = clk.t.Add(time.Minute)
		if _, err := s.Verify(tok, Access); !errors.Is(err, ErrInvalid) {
			t.Fatalf("expected ErrInvalid for expired token, got %v", err)
		}
	})
}

func TestVerify_ClockSkewBoundary(t *testing.T) {
	cases := []struct {
		name  string
		skew  time.Duration
		after time.Duration
		valid bool
	}{
		{"no skew at expiry", 0, 0, false},
		{"no skew before expiry", 0, -time.Second, true},
		{"inside skew", 2 * time.Minute, 2*time.Minute - time.Second, true},
		{"at skew edge", 2 * time.Minute, 2 * time.Minute, false},
	}
	forEachFormat(t, func(t *testing.T, f Format) {
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				cfg := testConfig(f)
				cfg.ClockSkew = tc.skew
				s, clk := newTestService(t, cfg)

				tok, exp, err := s.Sign(Payload{UserID: "u1", SessionID: "s1"}, Access)
				if err != nil {
					t.Fatalf("Sign: %v", err)
				}
				clk.t = exp.Add(tc.after)

				_, err = s.Verify(tok, Access)
				if tc.valid && err != nil {
					t.Fatalf("expected valid token, got %v", err)
				}
				if !tc.valid && !errors.Is(err, ErrInvalid) {
					t.Fatalf("expected ErrInvalid, got %v", err)
				}
			})
		}
	})
}

func TestVerify_IssuedInFuture(t *testing.T) {
	forEachFormat(t, func(t *testing.T, f Format) {
		s, clk := newTestService(t, testConfig(f))
		start := clk.t

		clk.t = start.Add(time.Minute)
		tok, _, err := s.Sign(Payload{UserID: "u1", SessionID: "s1"}, Access)
		if err != nil {
			t.Fatalf("Sign: %v", err)
		}

		clk.t = start.Add(31 * time.Second)
		if _, err := s.Verify(tok, Access); err != nil {
			t.Fatalf("expected iat within skew to pass, got %v", err)
		}
		clk.t = start
		if _, err := s.Verify(tok, Access); !errors.Is(err, ErrInvalid) {
			t.Fatalf("expected ErrInvalid for iat beyond skew, got %v", err)
		}
	})
}

func TestVerify_WrongSecret(t *testing.T) {
	forEachFormat(t, func(t *testing.T, f Format) {
		s1, _ := newTestService(t, testConfig(f))

		cfg := testConfig(f)
		cfg.AccessSecret = "another-access-secret-xyz"
		s2, _ := newTestService(t, cfg)

		tok, _, _ := s1.Sign(Payload{UserID: "u1", SessionID: "s1"}, Access)
		if _, err := s2.Verify(tok, Access); !errors.Is(err, ErrInvalid) {
			t.Fatalf("expected ErrInvalid, got %v", err)
		}
	})
}

func TestVerify_WrongAudience(t *testing.T) {
	forEachFormat(t, func(t *testing.T, f Format) {
		s1, _ := newTestService(t, testConfig(f))

		cfg := testConfig(f)
		cfg.Audience = "admin"
		s2, _ := newTestService(t, cfg)

		tok, _, _ := s1.Sign(Payload{UserID: "u1", SessionID: "s1"}, Access)
		if _, err := s2.Verify(tok, Access); !errors.Is(err, ErrInvalid) {
			t.Fatalf("expected ErrInvalid, got %v", err)
		}
	})
}

func TestVerify_Malformed(t *testing.T) {
	forEachFormat(t, func(t *testing.T, f Format) {
		s, _ := newTestService(t, testConfig(f))

		for _, tok := range []string{"", "   ", "not-a-token", "a.b.c", "v4.local.garbage"} {
			if _, err := s.Verify(tok, Access); !errors.Is(err, ErrInvalid) {
				t.Fatalf("Verify(%q): expected ErrInvalid, got %v", tok, err)
			}
		}

		tok := mustSign(t, s)
		i := len(tok) / 2
		repl := byte('A')
		if tok[i] == repl {
			repl = 'B'
		}
		tampered := tok[:i] + string(repl) + tok[i+1:]
		if _, err := s.Verify(tampered, Access); !errors.Is(err, ErrInvalid) {
			t.Fatalf("expected ErrInvalid for tampered token, got %v", err)
		}
	})
}

func TestSign_RequiresClaims(t *testing.T) {
	s, _ := newTestService(t, testConfig(FormatJWT))

	if _, _, err := s.Sign(Payload{SessionID: "s1"}, Access); !errors.Is(err, ErrInvalid) {
		t.Fatalf("access without user id: expected ErrInvalid, got %v", err)
	}
	if _, _, err := s.Sign(Payload{UserID: "u1"}, Refresh); !errors.Is(err, ErrInvalid) {
		t.Fatalf("refresh without session id: expected ErrInvalid, got %v", err)
	}
	if _, _, err := s.Sign(Payload{UserID: "u1", SessionID: "s1"}, Kind("other")); !errors.Is(err, ErrInvalid) {
		t.Fatalf("unknown kind: expected ErrInvalid, got %v", err)
	}
}

func TestFormats_AreNotInterchangeable(t *testing.T) {
	j, _ := newTestService(t, testConfig(FormatJWT))
	p, _ := newTestService(t, testConfig(FormatPaseto))

	tok, _, _ := j.Sign(Payload{UserID: "u1", SessionID: "s1"}, Access)
	if _, err := p.Verify(tok, Access); !errors.Is(err, ErrInvalid) {
		t.Fatalf("jwt verified by paseto codec: %v", err)
	}
	if !strings.HasPrefix(mustSign(t, p), "v4.local.") {
		t.Fatalf("expected v4.local token")
	}
}

func mustSign(t *testing.T, s *Service) string {
	t.Helper()
	tok, _, err := s.Sign(Payload{UserID: "u1", SessionID: "s1"}, Access)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return tok
}
