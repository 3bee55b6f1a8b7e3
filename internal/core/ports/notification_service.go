package ports

import (
	"context"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
)

// DefaultNotificationLimit is the number of recent notifications a view loads.
const DefaultNotificationLimit = 5

// NotificationService loads and acknowledges notifications for a session.
type NotificationService interface {
	Load(ctx context.Context, s *domain.Session, limit int) (*domain.Feed, error)
	UnreadCount(ctx context.Context, s *domain.Session) (int, error)
	MarkRead(ctx context.Context, s *domain.Session, id int64) error
	MarkAllRead(ctx context.Context, s *domain.Session, ids []int64) (domain.BulkReadResult, error)
	// PushedView converts a pushed notification into an unread view item.
	PushedView(n domain.Notification) domain.NotificationView
}
