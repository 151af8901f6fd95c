// Package notify hands out-of-band messages (verification codes) to a delivery pipeline.
package notify

import (
	"context"
	"log/slog"
	"time"
)

// VerificationRequested asks the delivery pipeline to send a verification code.
// Code is the plain one-time value and must never be logged.
type VerificationRequested struct {
	EventID    string    `json:"eventId"`
	UserID     string    `json:"userId"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Code       string    `json:"code"`
	ExpiresAt  time.Time `json:"expiresAt"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher delivers notification events.
type Publisher interface {
	PublishVerification(ctx context.Context, ev VerificationRequested) error
	Close() error
}

// Noop drops events after a debug log line. Used when no broker is configured.
type Noop struct {
	Logger *slog.Logger
}

func (n Noop) PublishVerification(ctx context.Context, ev VerificationRequested) error {
	if n.Logger != nil {
		n.Logger.DebugContext(ctx, "notify.verification.dropped",
			"user_id", ev.UserID,
			"expires_at", ev.ExpiresAt,
		)
	}
	return nil
}

func (Noop) Close() error { return nil }
