// Package memory holds in-process implementations of the console's stores,
// used when no Redis address is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ledgerdesk/admin-console/internal/core/domain"
)

type storedSession struct {
	session   domain.Session
	expiresAt time.Time
}

// SessionStore keeps sessions in a map. Sessions are lost on restart.
type SessionStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]storedSession
}

// NewSessionStore returns an empty store. A zero ttl keeps sessions until
// they are deleted.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]storedSession),
	}
}

func (s *SessionStore) Save(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := storedSession{session: *sess}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}
	s.sessions[sess.ID] = entry
	return nil
}

func (s *SessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, domain.ErrSessionNotFound
	}
	sess := entry.session
	return &sess, nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Ping always succeeds.
func (s *SessionStore) Ping(context.Context) error { return nil }
