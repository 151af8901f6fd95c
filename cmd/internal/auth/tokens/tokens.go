package tokens

import (
	"strings"
	"time"
)

// Kind distinguishes access from refresh tokens.
type Kind string

const (
	Access  Kind = "access"
	Refresh Kind = "refresh"
)

// Payload is the identity a token carries. Refresh tokens never carry UserID.
type Payload struct {
	UserID    string
	SessionID string
}

// claims is the codec-neutral token body.
type claims struct {
	Kind      Kind
	UserID    string
	SessionID string
	Audience  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// codec seals and opens claims with a per-kind secret.
// open only authenticates and decodes; time and kind checks happen in Service.
type codec interface {
	seal(c claims, secret []byte) (string, error)
	open(token string, secret []byte, audience string) (claims, error)
}

// Service signs and verifies tokens.
type Service struct {
	cfg   Config
	codec codec
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New validates cfg and builds a Service with the configured codec.
func New(cfg Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		cfg: cfg,
		now: func() time.Time { return time.Now().UTC() },
	}
	switch cfg.Format {
	case FormatPaseto:
		s.codec = pasetoCodec{}
	default:
		s.codec = jwtCodec{}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// TTL returns the lifetime of tokens of kind.
func (s *Service) TTL(kind Kind) time.Duration {
	if kind == Refresh {
		return s.cfg.RefreshTTL
	}
	return s.cfg.AccessTTL
}

// Sign issues a token of kind for p and returns it with its expiry.
// The expiry is truncated to whole seconds, matching what the token encodes.
func (s *Service) Sign(p Payload, kind Kind) (string, time.Time, error) {
	secret, ok := s.secret(kind)
	if !ok {
		return "", time.Time{}, ErrInvalid
	}
	if strings.TrimSpace(p.SessionID) == "" {
		return "", time.Time{}, ErrInvalid
	}
	if kind == Access && strings.TrimSpace(p.UserID) == "" {
		return "", time.Time{}, ErrInvalid
	}

	now := s.now().Truncate(time.Second)
	c := claims{
		Kind:      kind,
		SessionID: p.SessionID,
		Audience:  s.cfg.Audience,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.TTL(kind)),
	}
	if kind == Access {
		c.UserID = p.UserID
	}

	tok, err := s.codec.seal(c, secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, c.ExpiresAt, nil
}

// Verify authenticates token as kind and returns its payload.
func (s *Service) Verify(token string, kind Kind) (Payload, error) {
	secret, ok := s.secret(kind)
	if !ok {
		return Payload{}, ErrInvalid
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Payload{}, ErrInvalid
	}

	c, err := s.codec.open(token, secret, s.cfg.Audience)
	if err != nil {
		return Payload{}, ErrInvalid
	}

	now := s.now()
	skew := s.cfg.ClockSkew
	switch {
	case c.Kind != kind:
		return Payload{}, ErrInvalid
	case c.ExpiresAt.IsZero() || !now.Before(c.ExpiresAt.Add(skew)):
		return Payload{}, ErrInvalid
	case c.IssuedAt.After(now.Add(skew)):
		return Payload{}, ErrInvalid
	case c.SessionID == "":
		return Payload{}, ErrInvalid
	case kind == Access && c.UserID == "":
		return Payload{}, ErrInvalid
	case kind == Refresh && c.UserID != "":
		return Payload{}, ErrInvalid
	}

	return Payload{UserID: c.UserID, SessionID: c.SessionID}, nil
}

func (s *Service) secret(kind Kind) ([]byte, bool) {
	switch kind {
	case Access:
		return []byte(s.cfg.AccessSecret), true
	case Refresh:
		return []byte(s.cfg.RefreshSecret), true
	default:
		return nil, false
	}
}
