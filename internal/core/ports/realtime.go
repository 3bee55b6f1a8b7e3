package ports

import (
	"context"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
)

// PushHandler receives notifications pushed over the realtime channel.
type PushHandler func(n domain.Notification)

// RealtimeChannel is the shared notification push connection. Connect is a
// no-op while a connection for the same token is live; a different token
// replaces the connection.
type RealtimeChannel interface {
	Connect(ctx context.Context, token string) error
	IsConnected() bool
	AddHandler(name string, h PushHandler)
	RemoveHandler(name string)
	Close() error
}

// RefreshBus broadcasts "reload your notifications" across views.
type RefreshBus interface {
	AddListener(fn func()) (unsubscribe func())
	Trigger()
}
