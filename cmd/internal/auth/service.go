package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rasedprogrammer/national-recruiting-agency/cmd/identity"
	"github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/apperr"
	"github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/auth/session"
	"github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/auth/tokens"
	"github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/auth/verification"
	"github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/notify"
	"github.com/rasedprogrammer/national-recruiting-agency/cmd/security/password"
)

// TokenService signs and verifies bearer tokens.
type TokenService interface {
	Sign(p tokens.Payload, kind tokens.Kind) (string, time.Time, error)
	Verify(token string, kind tokens.Kind) (tokens.Payload, error)
	TTL(kind tokens.Kind) time.Duration
}

// Deps are the collaborators of Service.
type Deps struct {
	Users    identity.Store
	Sessions session.Store
	Tokens   TokenService
	Codes    *verification.Issuer
	Notifier notify.Publisher

	// RotationThreshold is the remaining session lifetime at or below which a refresh rotates.
	RotationThreshold time.Duration

	Logger  *slog.Logger
	Metrics *Metrics
}

// Service implements the auth lifecycle.
type Service struct {
	users     identity.Store
	sessions  session.Store
	tokens    TokenService
	codes     *verification.Issuer
	notifier  notify.Publisher
	threshold time.Duration

	log     *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
	now     func() time.Time
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

// NewService validates d and builds a Service.
func NewService(d Deps, opts ...Option) (*Service, error) {
	switch {
	case d.Users == nil:
		return nil, fmt.Errorf("auth: nil user store")
	case d.Sessions == nil:
		return nil, fmt.Errorf("auth: nil session store")
	case d.Tokens == nil:
		return nil, fmt.Errorf("auth: nil token service")
	case d.Codes == nil:
		return nil, fmt.Errorf("auth: nil verification issuer")
	case d.RotationThreshold <= 0:
		return nil, fmt.Errorf("auth: rotation threshold must be positive")
	}

	s := &Service{
		users:     d.Users,
		sessions:  d.Sessions,
		tokens:    d.Tokens,
		codes:     d.Codes,
		notifier:  d.Notifier,
		threshold: d.RotationThreshold,
		log:       d.Logger,
		metrics:   d.Metrics,
		tracer:    otel.Tracer("github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/auth"),
		now:       func() time.Time { return time.Now().UTC() },
	}
	if s.notifier == nil {
		s.notifier = notify.Noop{Logger: d.Logger}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// RegisterInput is a validated registration request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput is a login request. UserAgent is derived by the server, not the client body.
type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
}

// LoginResult carries the issued tokens with their exact expiries.
type LoginResult struct {
	User             identity.PublicUser
	SessionID        string
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	MFARequired      bool
}

// RefreshResult always carries a new access token.
// RefreshToken is empty unless the session was rotated.
type RefreshResult struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Rotated reports whether a new refresh token was issued.
func (r RefreshResult) Rotated() bool { return r.RefreshToken != "" }

const (
	msgInvalidCredentials = "invalid credentials"
	msgInvalidRefresh     = "invalid refresh token"
	msgSessionMissing     = "session does not exist"
	msgSessionExpired     = "session expired"
)

// Register creates a user and a verification code. It issues no session.
func (s *Service) Register(ctx context.Context, in RegisterInput) (identity.PublicUser, error) {
	const op = "auth.Register"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	exists, err := s.users.Exists(ctx, in.Email)
	if err != nil {
		return identity.PublicUser{}, s.fail(span, apperr.Internal(op, err))
	}
	if exists {
		s.metrics.registration("conflict")
		return identity.PublicUser{}, apperr.Conflict(op, "user already exists with this email")
	}

	now := s.now()
	u, err := s.users.Create(ctx, identity.CreateUserInput{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Now:      now,
	})
	if err != nil {
		if aerr := createError(op, err); aerr != nil {
			s.metrics.registration("rejected")
			return identity.PublicUser{}, aerr
		}
		return identity.PublicUser{}, s.fail(span, apperr.Internal(op, err))
	}
	span.SetAttributes(attribute.String("user.id", u.ID))

	code, plain, err := s.codes.Issue(ctx, u.ID, verification.EmailVerification, now)
	if err != nil {
		return identity.PublicUser{}, s.fail(span, apperr.Internal(op, err))
	}

	err = s.notifier.PublishVerification(ctx, notify.VerificationRequested{
		UserID:     u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Code:       plain,
		ExpiresAt:  code.ExpiresAt,
		OccurredAt: now,
	})
	if err != nil {
		// Delivery is best-effort; the account exists regardless.
		s.log.WarnContext(ctx, "auth.register.notify_failed", "user_id", u.ID, "err", err)
	}

	s.metrics.registration("created")
	s.log.InfoContext(ctx, "auth.register.ok", "user_id", u.ID)
	return identity.Public(u), nil
}

// Login verifies credentials and opens a new session.
// Unknown email and wrong password fail identically, after comparable work.
func (s *Service) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	const op = "auth.Login"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	u, err := s.users.FindByEmail(ctx, in.Email)
	switch {
	case identity.IsNotFound(err):
		_, _ = s.users.VerifySecret(identity.User{}, in.Password)
		s.metrics.login("invalid_credentials")
		return LoginResult{}, apperr.Unauthorized(op, msgInvalidCredentials)
	case err != nil:
		return LoginResult{}, s.fail(span, apperr.Internal(op, err))
	}

	ok, err := s.users.VerifySecret(u, in.Password)
	if err != nil {
		return LoginResult{}, s.fail(span, apperr.Internal(op, err))
	}
	if !ok {
		s.metrics.login("invalid_credentials")
		return LoginResult{}, apperr.Unauthorized(op, msgInvalidCredentials)
	}

	now := s.now()
	if upgraded, err := s.users.UpgradeSecret(ctx, u, in.Password, now); err != nil {
		s.log.WarnContext(ctx, "auth.login.rehash_failed", "user_id", u.ID, "err", err)
	} else if upgraded {
		s.log.InfoContext(ctx, "auth.login.rehashed", "user_id", u.ID)
	}

	sess, err := s.sessions.Create(ctx, u.ID, in.UserAgent, now)
	if err != nil {
		return LoginResult{}, s.fail(span, apperr.Internal(op, err))
	}
	span.SetAttributes(attribute.String("user.id", u.ID), attribute.String("session.id", sess.ID))

	access, accessExp, err := s.tokens.Sign(tokens.Payload{UserID: u.ID, SessionID: sess.ID}, tokens.Access)
	if err != nil {
		return LoginResult{}, s.fail(span, apperr.Internal(op, err))
	}
	refresh, refreshExp, err := s.tokens.Sign(tokens.Payload{SessionID: sess.ID}, tokens.Refresh)
	if err != nil {
		return LoginResult{}, s.fail(span, apperr.Internal(op, err))
	}

	s.metrics.login("ok")
	s.log.InfoContext(ctx, "auth.login.ok", "user_id", u.ID, "session_id", sess.ID)
	return LoginResult{
		User:             identity.Public(u),
		SessionID:        sess.ID,
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
		MFARequired:      false,
	}, nil
}

// Refresh issues a new access token for the session named by refreshToken.
// When the session is within the rotation threshold of expiry it is extended
// to now + refresh TTL and a new refresh token is issued as well.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	const op = "auth.Refresh"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	p, err := s.tokens.Verify(refreshToken, tokens.Refresh)
	if err != nil {
		s.metrics.refresh("rejected")
		return RefreshResult{}, apperr.Unauthorized(op, msgInvalidRefresh)
	}

	sess, err := s.sessions.FindByID(ctx, p.SessionID)
	if errors.Is(err, session.ErrSessionNotFound) {
		s.metrics.refresh("rejected")
		return RefreshResult{}, apperr.Unauthorized(op, msgSessionMissing)
	}
	if err != nil {
		return RefreshResult{}, s.fail(span, apperr.Internal(op, err))
	}
	span.SetAttributes(attribute.String("session.id", sess.ID))

	now := s.now()
	if !sess.ValidAt(now) {
		// Expired sessions are left in place; only logout deletes.
		s.metrics.refresh("rejected")
		return RefreshResult{}, apperr.Unauthorized(op, msgSessionExpired)
	}

	var out RefreshResult

	// Read-modify-write without a lock: see the package doc for the concurrent refresh race.
	if sess.Remaining(now) <= s.threshold {
		newExp := now.Add(s.tokens.TTL(tokens.Refresh))
		err := s.sessions.UpdateExpiry(ctx, sess.ID, newExp)
		if errors.Is(err, session.ErrSessionNotFound) {
			s.metrics.refresh("rejected")
			return RefreshResult{}, apperr.Unauthorized(op, msgSessionMissing)
		}
		if err != nil {
			return RefreshResult{}, s.fail(span, apperr.Internal(op, err))
		}

		out.RefreshToken, out.RefreshExpiresAt, err = s.tokens.Sign(tokens.Payload{SessionID: sess.ID}, tokens.Refresh)
		if err != nil {
			return RefreshResult{}, s.fail(span, apperr.Internal(op, err))
		}
	}

	out.AccessToken, out.AccessExpiresAt, err = s.tokens.Sign(
		tokens.Payload{UserID: sess.UserID, SessionID: sess.ID},
		tokens.Access,
	)
	if err != nil {
		return RefreshResult{}, s.fail(span, apperr.Internal(op, err))
	}

	if out.Rotated() {
		s.metrics.refresh("rotated")
		s.log.InfoContext(ctx, "auth.refresh.rotated", "session_id", sess.ID)
	} else {
		s.metrics.refresh("kept")
	}
	return out, nil
}

// Logout deletes the session. Deleting an unknown session succeeds.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	const op = "auth.Logout"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return s.fail(span, apperr.Internal(op, err))
	}
	s.metrics.logout()
	s.log.InfoContext(ctx, "auth.logout.ok", "session_id", sessionID)
	return nil
}

func (s *Service) fail(span trace.Span, err *apperr.Error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Kind.Error())
	return err
}

// createError maps client-caused Create failures; nil means the failure is internal.
func createError(op string, err error) error {
	if identity.IsConflict(err) {
		return apperr.Conflict(op, "user already exists with this email")
	}

	switch {
	case errors.Is(err, password.ErrPasswordTooShort):
		return apperr.Validation(op, apperr.FieldError{Field: "password", Message: "password is too short"})
	case errors.Is(err, password.ErrPasswordTooLong):
		return apperr.Validation(op, apperr.FieldError{Field: "password", Message: "password is too long"})
	case errors.Is(err, password.ErrWeakPassword):
		return apperr.Validation(op, apperr.FieldError{Field: "password", Message: "password is too weak"})
	}

	var oe identity.OpError
	if errors.As(err, &oe) && errors.Is(oe.Kind, identity.ErrInvalidInput) {
		return apperr.Validation(op, apperr.FieldError{Field: oe.Field, Message: oe.Msg})
	}
	return nil
}
