package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory UserStore. It backs tests and single-process
// deployments; production deployments plug in their own implementation.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*Account
	byEmail map[string]string // email -> id
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*Account),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return copyAccount(s.byID[id]), nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyAccount(acct), nil
}

func (s *MemoryStore) Create(_ context.Context, email, passwordHash, displayName string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return nil, ErrDuplicateEmail
	}

	now := s.now()
	acct := &Account{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.byID[acct.ID] = acct
	s.byEmail[email] = acct.ID
	return copyAccount(acct), nil
}

func (s *MemoryStore) UpdateEmail(_ context.Context, id, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	if existingID, ok := s.byEmail[email]; ok && existingID != id {
		return ErrDuplicateEmail
	}

	delete(s.byEmail, acct.Email)
	acct.Email = email
	acct.UpdatedAt = s.now()
	s.byEmail[email] = id
	return nil
}

func (s *MemoryStore) UpdatePasswordHash(_ context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	acct.PasswordHash = passwordHash
	acct.UpdatedAt = s.now()
	return nil
}

func copyAccount(a *Account) *Account {
	cp := *a
	return &cp
}
