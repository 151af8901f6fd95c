package session

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and local runs.
type MemoryStore struct {
	ttl time.Duration

	mu   sync.RWMutex
	byID map[string]Session
}

// NewMemoryStore returns an empty MemoryStore using cfg.TTL for new sessions.
func NewMemoryStore(cfg Config) *MemoryStore {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultConfig().TTL
	}
	return &MemoryStore{ttl: ttl, byID: make(map[string]Session)}
}

func (s *MemoryStore) Create(ctx context.Context, userID, userAgent string, now time.Time) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	sess, err := newSession(userID, userAgent, now, s.ttl)
	if err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[sess.ID] = sess
	return sess, nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.byID[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return sess, nil
}

func (s *MemoryStore) UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	if !ok {
		return ErrSessionNotFound
	}
	sess.ExpiresAt = expiresAt
	s.byID[id] = sess
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	return nil
}

func (s *MemoryStore) ListByUser(ctx context.Context, userID string) ([]Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]Session, 0)
	for _, sess := range s.byID {
		if sess.UserID == userID {
			out = append(out, sess)
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(list []Session) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*RedisStore)(nil)
)
