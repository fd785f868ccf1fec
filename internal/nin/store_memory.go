package nin

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"lgac/pkg/platform/sentinel"
)

// InMemoryCredentialStore backs tests and single-node development.
type InMemoryCredentialStore struct {
	mu    sync.Mutex
	creds map[uuid.UUID]Credential
	now   func() time.Time
}

func NewInMemoryCredentialStore() *InMemoryCredentialStore {
	return &InMemoryCredentialStore{
		creds: make(map[uuid.UUID]Credential),
		now:   time.Now,
	}
}

// WithClock pins the store clock for expiry tests.
func (s *InMemoryCredentialStore) WithClock(now func() time.Time) *InMemoryCredentialStore {
	s.now = now
	return s
}

func (s *InMemoryCredentialStore) Put(_ context.Context, cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[cred.Token] = cred
	return nil
}

func (s *InMemoryCredentialStore) Consume(_ context.Context, token uuid.UUID) (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[token]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	delete(s.creds, token)
	if s.now().After(cred.ExpiresAt) {
		return nil, sentinel.ErrExpired
	}
	return &cred, nil
}
