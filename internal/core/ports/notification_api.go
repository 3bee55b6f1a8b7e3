package ports

import (
	"context"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
)

// NotificationAPI is the per-role notification surface of the backend.
type NotificationAPI interface {
	GetAllNotifications(ctx context.Context, token string, limit int) ([]domain.Notification, error)
	GetUnreadNotifications(ctx context.Context, token string) ([]domain.Notification, error)
	MarkNotificationAsRead(ctx context.Context, id int64, token string) error
}

// NotificationAPIResolver returns the NotificationAPI routed for a role.
type NotificationAPIResolver interface {
	For(role domain.Role) NotificationAPI
}
