package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and local runs.
type MemoryStore struct {
	hasher *Hasher

	mu      sync.RWMutex
	byID    map[string]User
	byEmail map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(hasher *Hasher) *MemoryStore {
	return &MemoryStore{
		hasher:  hasher,
		byID:    make(map[string]User),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryStore) Exists(ctx context.Context, email string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byEmail[NormalizeEmail(email)]
	return ok, nil
}

func (s *MemoryStore) Create(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.Create"

	u, err := prepareUser(op, s.hasher, in)
	if err != nil {
		return User{}, err
	}
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[u.Email]; taken {
		return User{}, ConflictError{Op: op, Field: "email"}
	}
	s.byID[u.ID] = u
	s.byEmail[u.Email] = u.ID
	return u, nil
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return User{}, NotFoundError{Op: "identity.FindByEmail", Resource: "user"}
	}
	return s.byID[id], nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return User{}, NotFoundError{Op: "identity.FindByID", Resource: "user"}
	}
	return u, nil
}

func (s *MemoryStore) VerifySecret(u User, candidate string) (bool, error) {
	return s.hasher.VerifySecret(u, candidate)
}

func (s *MemoryStore) UpgradeSecret(ctx context.Context, u User, candidate string, now time.Time) (bool, error) {
	if !s.hasher.NeedsRehash(u) {
		return false, nil
	}
	hash, err := s.hasher.rehash(candidate)
	if err != nil {
		return false, fmt.Errorf("identity.UpgradeSecret: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[u.ID]
	if !ok || cur.PasswordHash != u.PasswordHash {
		return false, nil
	}
	cur.PasswordHash = hash
	cur.UpdatedAt = now
	s.byID[u.ID] = cur
	return true, nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
