package session

import (
	"context"
	"time"
)

// Session is a server-side login record.
type Session struct {
	ID        string
	UserID    string
	UserAgent string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ValidAt reports whether the session is still usable at now.
func (s Session) ValidAt(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// Remaining returns the lifetime left at now (negative once expired).
func (s Session) Remaining(now time.Time) time.Duration {
	return s.ExpiresAt.Sub(now)
}

// Store abstracts persistence for sessions.
// All mutation is single-record and keyed by id.
type Store interface {
	// Create persists a new session expiring at now + configured TTL.
	// Duplicate calls create duplicate sessions.
	Create(ctx context.Context, userID, userAgent string, now time.Time) (Session, error)

	// FindByID returns ErrSessionNotFound when absent.
	FindByID(ctx context.Context, id string) (Session, error)

	// UpdateExpiry is the only mutation of an existing session.
	UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error

	// Delete is idempotent: deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// ListByUser returns the user's sessions, newest first.
	ListByUser(ctx context.Context, userID string) ([]Session, error)
}
