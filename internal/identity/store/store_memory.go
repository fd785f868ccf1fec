package store

import (
	"context"
	"strings"
	"sync"

	"lgac/internal/identity"
	id "lgac/pkg/domain"
	"lgac/pkg/platform/sentinel"
)

// InMemory is the test and development account store.
type InMemory struct {
	mu    sync.RWMutex
	users map[id.UserID]identity.User
}

func NewInMemory() *InMemory {
	return &InMemory{users: make(map[id.UserID]identity.User)}
}

func (s *InMemory) Create(_ context.Context, user *identity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) ||
			existing.Phone == user.Phone ||
			(user.NIN != "" && existing.NIN == user.NIN) {
			return sentinel.ErrConflict
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *InMemory) FindByID(_ context.Context, userID id.UserID) (*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := u
	return &copied, nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			copied := u
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Update(_ context.Context, user *identity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return sentinel.ErrNotFound
	}
	for otherID, existing := range s.users {
		if otherID == user.ID {
			continue
		}
		if strings.EqualFold(existing.Email, user.Email) || existing.Phone == user.Phone {
			return sentinel.ErrConflict
		}
	}
	s.users[user.ID] = *user
	return nil
}
