package account

import (
	"context"
	"sort"
	"strings"
	"sync"

	"learnhub/pkg/domain"
	"learnhub/pkg/platform/sentinel"
)

// InMemoryStore keeps accounts in process memory for development and tests.
// Records are copied on the way in and out so callers cannot mutate shared state.
type InMemoryStore struct {
	mu      sync.RWMutex
	byID    map[domain.AccountID]*Account
	byEmail map[string]domain.AccountID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[domain.AccountID]*Account),
		byEmail: make(map[string]domain.AccountID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[a.Email]; taken {
		return sentinel.ErrConflict
	}
	if _, exists := s.byID[a.ID]; exists {
		return sentinel.ErrConflict
	}
	s.byID[a.ID] = a.clone()
	s.byEmail[a.Email] = a.ID
	return nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.byID[id].clone(), nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.AccountID) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return a.clone(), nil
}

func (s *InMemoryStore) Update(_ context.Context, a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[a.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if owner, taken := s.byEmail[a.Email]; taken && owner != a.ID {
		return sentinel.ErrConflict
	}
	delete(s.byEmail, current.Email)
	s.byID[a.ID] = a.clone()
	s.byEmail[a.Email] = a.ID
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Account, 0, len(s.byID))
	for _, a := range s.byID {
		out = append(out, a.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
