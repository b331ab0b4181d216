package ports

import (
	"context"

	"github.com/ledgerdesk/admin-console/internal/core/domain"
)

// SessionStore persists session credentials keyed by session id.
// Get returns domain.ErrSessionNotFound for unknown ids.
type SessionStore interface {
	Save(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

// WorkspaceCloser tears down the per-session view state when a session ends.
type WorkspaceCloser interface {
	Close(sessionID string)
}
