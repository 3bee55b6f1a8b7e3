package ports

import (
	"context"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
)

// SessionStore persists the current session between agent restarts.
// Load returns domain.ErrNoSession when nothing is stored.
type SessionStore interface {
	Load(ctx context.Context) (*domain.Session, error)
	Save(ctx context.Context, s *domain.Session) error
	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
}
