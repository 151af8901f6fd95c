package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rasedprogrammer/national-recruiting-agency/cmd/identity/ids"
	"github.com/rasedprogrammer/national-recruiting-agency/cmd/security/token"
)

// Type names the purpose of a code.
type Type string

const EmailVerification Type = "email_verification"

// DefaultTTL is the lifetime of a freshly issued code.
const DefaultTTL = 45 * time.Minute

// codeBytes is the entropy of a plain code.
const codeBytes = 24

var (
	// ErrNotFound is returned when no code matches.
	ErrNotFound = errors.New("verification code not found")
)

// Code is a persisted verification code. Only the hash is stored.
type Code struct {
	ID        string
	UserID    string
	Type      Type
	CodeHash  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store persists codes keyed by their hash.
type Store interface {
	Insert(ctx context.Context, c Code) error
	FindByHash(ctx context.Context, hash string) (Code, error)
}

// Issuer creates codes.
type Issuer struct {
	store  Store
	hasher token.Hasher
	ttl    time.Duration
}

// NewIssuer returns an Issuer with DefaultTTL.
func NewIssuer(store Store, hasher token.Hasher) *Issuer {
	return &Issuer{store: store, hasher: hasher, ttl: DefaultTTL}
}

// Issue creates a code of typ for userID and returns it with the plain value.
func (i *Issuer) Issue(ctx context.Context, userID string, typ Type, now time.Time) (Code, string, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	plain, err := token.NewOpaque(codeBytes)
	if err != nil {
		return Code{}, "", fmt.Errorf("verification.Issue: %w", err)
	}
	id, err := ids.NewULID(now)
	if err != nil {
		return Code{}, "", fmt.Errorf("verification.Issue: %w", err)
	}

	c := Code{
		ID:        id,
		UserID:    userID,
		Type:      typ,
		CodeHash:  i.hasher.Hex(plain),
		CreatedAt: now,
		ExpiresAt: now.Add(i.ttl),
	}
	if err := i.store.Insert(ctx, c); err != nil {
		return Code{}, "", err
	}
	return c, plain, nil
}
