package client

import (
	"sync"

	"github.com/exitboard/exitboard/internal/model"
)

// TokenStore is the client-side persistence for the session token and a
// cached user snapshot, the equivalent of the browser's local storage.
// Clear must wipe everything: a forced logout leaves no local state
// behind.
type TokenStore interface {
	Save(token string, user model.PublicUser)
	Load() (token string, user model.PublicUser, ok bool)
	Clear()
}

// MemoryStore is a process-local TokenStore.
type MemoryStore struct {
	mu    sync.Mutex
	token string
	user  model.PublicUser
	held  bool
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Save(token string, user model.PublicUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.user, s.held = token, user, true
}

func (s *MemoryStore) Load() (string, model.PublicUser, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.user, s.held
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.user, s.held = "", model.PublicUser{}, false
}
