package ports

import (
	"context"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
)

// SessionProvider exposes the current session to consumers that only read it.
type SessionProvider interface {
	Current(ctx context.Context) (*domain.Session, error)
}

type AuthService interface {
	SessionProvider
	Login(ctx context.Context, username, password string) (*domain.Session, error)
	Logout(ctx context.Context) error
	Expire(ctx context.Context)
}
