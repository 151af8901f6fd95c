package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasedprogrammer/national-recruiting-agency/cmd/identity"
	"github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/apperr"
)

type fakeUsers map[string]identity.User

func (f fakeUsers) FindByID(_ context.Context, id string) (identity.User, error) {
	u, ok := f[id]
	if !ok {
		return identity.User{}, identity.NotFoundError{Op: "fake.FindByID", Resource: "user"}
	}
	return u, nil
}

func newManagerFixture(t *testing.T) (*Manager, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore(DefaultConfig())
	users := fakeUsers{
		"u1": {ID: "u1", Name: "Alice", Email: "alice@example.com", PasswordHash: "secret-hash"},
		"u2": {ID: "u2", Name: "Bob", Email: "bob@example.com"},
	}
	return NewManager(store, users), store
}

func TestManager_ListSessions_MarksOnlyCurrent(t *testing.T) {
	m, store := newManagerFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	a, err := store.Create(ctx, "u1", "a", now)
	require.NoError(t, err)
	_, err = store.Create(ctx, "u1", "b", now.Add(time.Second))
	require.NoError(t, err)
	_, err = store.Create(ctx, "u2", "c", now)
	require.NoError(t, err)

	views, err := m.ListSessions(ctx, "u1", a.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)

	current := 0
	for _, v := range views {
		assert.Equal(t, "u1", v.UserID)
		if v.IsCurrent {
			current++
			assert.Equal(t, a.ID, v.ID)
		}
	}
	assert.Equal(t, 1, current)

	views, err = m.ListSessions(ctx, "u1", "")
	require.NoError(t, err)
	for _, v := range views {
		assert.False(t, v.IsCurrent, "no current session id means nothing is current")
	}
}

func TestManager_GetCurrentSession(t *testing.T) {
	m, store := newManagerFixture(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, "u1", "", time.Now().UTC())
	require.NoError(t, err)

	u, err := m.GetCurrentSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "alice@example.com", u.Email)
}

func TestManager_GetCurrentSession_NotFound(t *testing.T) {
	m, store := newManagerFixture(t)
	ctx := context.Background()

	orphan, err := store.Create(ctx, "u-gone", "", time.Now().UTC())
	require.NoError(t, err)

	for _, id := range []string{"", "  ", "missing", orphan.ID} {
		_, err := m.GetCurrentSession(ctx, id)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperr.ErrNotFound), "id %q: got %v", id, err)
		assert.Equal(t, "session ID not found, please log in", apperr.Message(err))
	}
}

func TestManager_DeleteSession_Owner(t *testing.T) {
	m, store := newManagerFixture(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, "u1", "", time.Now().UTC())
	require.NoError(t, err)

	require.NoError(t, m.DeleteSession(ctx, sess.ID, "u1"))
	_, err = store.FindByID(ctx, sess.ID)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestManager_DeleteSession_NotOwner(t *testing.T) {
	m, store := newManagerFixture(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, "u1", "", time.Now().UTC())
	require.NoError(t, err)

	err = m.DeleteSession(ctx, sess.ID, "u2")
	assert.True(t, errors.Is(err, apperr.ErrNotFound), "got %v", err)

	_, err = store.FindByID(ctx, sess.ID)
	assert.NoError(t, err, "foreign session must survive")

	err = m.DeleteSession(ctx, "missing", "u1")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
