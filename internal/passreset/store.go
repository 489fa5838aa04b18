// Package passreset provides a store for single-use password reset tokens.
// Tokens are random, short-lived, and consumed on first use.
package passreset

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// DefaultTTL is how long a reset token stays valid.
const DefaultTTL = 30 * time.Minute

// Store issues and redeems password reset tokens.
type Store interface {
	// Issue creates a token for userID, valid for the store's TTL.
	Issue(ctx context.Context, userID string) (token string, err error)
	// Consume redeems a token, returning the user it was issued for.
	// Returns ok false for unknown, expired, or already-consumed tokens.
	Consume(ctx context.Context, token string) (userID string, ok bool)
}

type entry struct {
	userID    string
	expiresAt time.Time
}

// MemoryStore is an in-memory Store implementation. Tokens do not survive a
// process restart; a restart simply invalidates outstanding reset links.
type MemoryStore struct {
	mu   sync.Mutex
	m    map[string]entry
	ttl  time.Duration
	nowF func() time.Time
}

// NewMemoryStore returns an in-memory reset token store with the given TTL.
// A non-positive ttl falls back to DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		m:    make(map[string]entry),
		ttl:  ttl,
		nowF: func() time.Time { return time.Now().UTC() },
	}
}

// Issue creates a token for userID.
func (s *MemoryStore) Issue(ctx context.Context, userID string) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	s.mu.Lock()
	s.m[token] = entry{userID: userID, expiresAt: s.nowF().Add(s.ttl)}
	s.mu.Unlock()
	return token, nil
}

// Consume redeems a token. The token is removed whether or not it was still
// valid, so a second redemption always fails.
func (s *MemoryStore) Consume(ctx context.Context, token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[token]
	if !ok {
		return "", false
	}
	delete(s.m, token)
	if !e.expiresAt.After(s.nowF()) {
		return "", false
	}
	return e.userID, true
}
