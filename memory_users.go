package authgate

import (
	"context"
	"strings"
	"sync"
	"time"
)

// memoryUserStore is the default UserStore when the builder is not
// given one. Usernames are matched case-insensitively.
type memoryUserStore struct {
	mu         sync.RWMutex
	byID       map[string]*User
	byUsername map[string]string
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{
		byID:       make(map[string]*User),
		byUsername: make(map[string]string),
	}
}

func (s *memoryUserStore) Get(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u.clone(), nil
}

func (s *memoryUserStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[strings.ToLower(username)]
	if !ok {
		return nil, ErrUserNotFound
	}
	return s.byID[id].clone(), nil
}

func (s *memoryUserStore) Create(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(u.Username)
	if _, ok := s.byID[u.ID]; ok {
		return ErrUserExists
	}
	if _, ok := s.byUsername[key]; ok {
		return ErrUserExists
	}

	s.byID[u.ID] = u.clone()
	s.byUsername[key] = u.ID
	return nil
}

func (s *memoryUserStore) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	u.LastLogin = at
	return nil
}

func (s *memoryUserStore) SetActive(ctx context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	u.Active = active
	return nil
}
