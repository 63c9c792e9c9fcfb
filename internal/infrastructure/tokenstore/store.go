package tokenstore

import (
	"context"
	"errors"
	"sync"
)

// ErrTokenNotFound is returned by a Store when no cached token exists for
// the requested service.
var ErrTokenNotFound = errors.New("tokenstore: no cached token")

// Store persists tokens between runs, keyed by service name.
type Store interface {
	// Load returns the cached token for a service, or ErrTokenNotFound.
	Load(ctx context.Context, service string) (Token, error)
	// Save persists the token for a service, replacing any previous one.
	Save(ctx context.Context, service string, token Token) error
}

// MemoryStore is an in-process Store, used in tests and for runs that
// should never reuse tokens across invocations.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]Token
}

// NewMemoryStore creates an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]Token)}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, service string) (Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[service]
	if !ok {
		return Token{}, ErrTokenNotFound
	}
	return token, nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, service string, token Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[service] = token
	return nil
}

var _ Store = (*MemoryStore)(nil)
