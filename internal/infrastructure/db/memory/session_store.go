// Package memory holds the in-process session store used when no Redis is
// configured. The session does not survive an agent restart.
package memory

import (
	"context"
	"sync"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
)

type SessionStore struct {
	mu   sync.RWMutex
	sess *domain.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

func (s *SessionStore) Load(_ context.Context) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sess == nil {
		return nil, domain.ErrNoSession
	}
	clone := *s.sess
	return &clone, nil
}

func (s *SessionStore) Save(_ context.Context, sess *domain.Session) error {
	clone := *sess
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = &clone
	return nil
}

func (s *SessionStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = nil
	return nil
}

func (s *SessionStore) Ping(_ context.Context) error { return nil }
