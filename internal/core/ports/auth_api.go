package ports

import (
	"context"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
)

// LoginResult is what the backend returns for a successful login.
type LoginResult struct {
	Token string
	User  domain.User
	// RawRole is the role string as sent by the backend, before normalisation.
	RawRole string
}

// AuthAPI authenticates against the backend.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
}
