package session

import (
	"context"
	"errors"
	"strings"

	"github.com/rasedprogrammer/national-recruiting-agency/cmd/identity"
	"github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/apperr"
)

// UserFinder resolves the owner of a session.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (identity.User, error)
}

// View is a session annotated for the requesting client.
type View struct {
	Session
	IsCurrent bool
}

// Manager implements the user-facing session operations.
// Every failure is an *apperr.Error.
type Manager struct {
	store Store
	users UserFinder
}

// NewManager constructs a Manager.
func NewManager(store Store, users UserFinder) *Manager {
	return &Manager{store: store, users: users}
}

const msgNoCurrentSession = "session ID not found, please log in"

// ListSessions returns the user's sessions; exactly the one matching currentSessionID is marked current.
func (m *Manager) ListSessions(ctx context.Context, userID, currentSessionID string) ([]View, error) {
	const op = "session.ListSessions"

	list, err := m.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}

	out := make([]View, len(list))
	for i, sess := range list {
		out[i] = View{
			Session:   sess,
			IsCurrent: currentSessionID != "" && sess.ID == currentSessionID,
		}
	}
	return out, nil
}

// GetCurrentSession returns the owner of sessionID.
func (m *Manager) GetCurrentSession(ctx context.Context, sessionID string) (identity.PublicUser, error) {
	const op = "session.GetCurrentSession"

	if strings.TrimSpace(sessionID) == "" {
		return identity.PublicUser{}, apperr.NotFound(op, msgNoCurrentSession)
	}

	sess, err := m.store.FindByID(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return identity.PublicUser{}, apperr.NotFound(op, msgNoCurrentSession)
	}
	if err != nil {
		return identity.PublicUser{}, apperr.Internal(op, err)
	}

	u, err := m.users.FindByID(ctx, sess.UserID)
	if identity.IsNotFound(err) {
		return identity.PublicUser{}, apperr.NotFound(op, msgNoCurrentSession)
	}
	if err != nil {
		return identity.PublicUser{}, apperr.Internal(op, err)
	}
	return identity.Public(u), nil
}

// DeleteSession deletes sessionID if and only if it belongs to userID.
func (m *Manager) DeleteSession(ctx context.Context, sessionID, userID string) error {
	const op = "session.DeleteSession"

	sess, err := m.store.FindByID(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return apperr.NotFound(op, "session not found")
	}
	if err != nil {
		return apperr.Internal(op, err)
	}
	// Ownership is checked even though ids are unguessable.
	if userID == "" || sess.UserID != userID {
		return apperr.NotFound(op, "session not found")
	}

	if err := m.store.Delete(ctx, sessionID); err != nil {
		return apperr.Internal(op, err)
	}
	return nil
}
