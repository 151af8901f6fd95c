package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s, err := NewRedisStore(rdb, DefaultConfig())
	require.NoError(t, err)
	return s, mr, rdb
}

func TestRedisStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		s, _, _ := newRedisTestStore(t)
		return s
	})
}

func TestRedisStore_KeyTTLIncludesRetention(t *testing.T) {
	s, mr, _ := newRedisTestStore(t)
	ctx := context.Background()

	sess, err := s.Create(ctx, "u1", "", time.Now().UTC())
	require.NoError(t, err)

	ttl := mr.TTL("nra:session:" + sess.ID)
	assert.Greater(t, ttl, 30*24*time.Hour)
	assert.LessOrEqual(t, ttl, 31*24*time.Hour)
	assert.True(t, mr.Exists("nra:user_sessions:u1"))
}

func TestRedisStore_ExpiredSessionStillReadableDuringRetention(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TTL = time.Hour
	cfg.RotationThreshold = time.Minute

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	s, err := NewRedisStore(rdb, cfg)
	require.NoError(t, err)

	ctx := context.Background()
	sess, err := s.Create(ctx, "u1", "", time.Now().UTC())
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)
	got, err := s.FindByID(ctx, sess.ID)
	require.NoError(t, err, "expired session must remain readable within retention")
	assert.False(t, got.ValidAt(time.Now().UTC().Add(2*time.Hour)))

	mr.FastForward(24 * time.Hour)
	_, err = s.FindByID(ctx, sess.ID)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestRedisStore_IndexOutlivesExtendedSession(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TTL = time.Hour
	cfg.RotationThreshold = time.Minute
	cfg.RedisRetention = 0

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	now := time.Now().UTC()
	s, err := NewRedisStore(rdb, cfg, WithRedisClock(func() time.Time { return now }))
	require.NoError(t, err)
	ctx := context.Background()

	a, err := s.Create(ctx, "u1", "laptop", now)
	require.NoError(t, err)
	require.NoError(t, s.UpdateExpiry(ctx, a.ID, now.Add(10*24*time.Hour)))
	extended := mr.TTL("nra:user_sessions:u1")
	assert.Greater(t, extended, 9*24*time.Hour)

	// A shorter session created later must not shrink the index.
	_, err = s.Create(ctx, "u1", "phone", now)
	require.NoError(t, err)
	assert.Equal(t, extended, mr.TTL("nra:user_sessions:u1"))

	mr.FastForward(2 * time.Hour)
	now = now.Add(2 * time.Hour)

	got, err := s.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.ValidAt(now))

	list, err := s.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)
}

func TestRedisStore_CreateSetsIndexTTL(t *testing.T) {
	s, mr, _ := newRedisTestStore(t)

	_, err := s.Create(context.Background(), "u2", "", time.Now().UTC())
	require.NoError(t, err)

	ttl := mr.TTL("nra:user_sessions:u2")
	assert.Greater(t, ttl, 30*24*time.Hour)
}

func TestRedisStore_ListPrunesStaleIndexEntries(t *testing.T) {
	s, mr, _ := newRedisTestStore(t)
	ctx := context.Background()

	sess, err := s.Create(ctx, "u1", "", time.Now().UTC())
	require.NoError(t, err)

	mr.Del("nra:session:" + sess.ID)

	list, err := s.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)

	members, err := mr.Members("nra:user_sessions:u1")
	if err == nil {
		assert.NotContains(t, members, sess.ID)
	}
}

func TestRedisStore_CorruptRecord(t *testing.T) {
	s, mr, _ := newRedisTestStore(t)
	require.NoError(t, mr.Set("nra:session:bad", "{not json"))

	_, err := s.FindByID(context.Background(), "bad")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSessionNotFound))
}

func TestNewRedisStore_Validation(t *testing.T) {
	_, err := NewRedisStore(nil, DefaultConfig())
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	bad := DefaultConfig()
	bad.TTL = 0
	_, err = NewRedisStore(rdb, bad)
	assert.True(t, errors.Is(err, ErrConfig))
}
