package service

import (
	"time"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
	"github.com/schoolhealth/notification-sync/internal/core/format"
)

// toView maps a backend notification to its display shape.
func toView(n domain.Notification, now time.Time) domain.NotificationView {
	return domain.NotificationView{
		ID:    n.ID,
		Title: n.Title,
		Text:  format.CleanNotificationText(n.Message, format.PreviewLength),
		Time:  format.TimeAgo(n.CreatedAt.Time, now),
		Date:  format.FormatDate(n.CreatedAt.Time),
		Icon:  n.Icon(),
		Read:  n.Read,
	}
}

// toPushedView maps a notification that just arrived over the realtime
// channel: always unread, always "just now".
func toPushedView(n domain.Notification, now time.Time) domain.NotificationView {
	v := toView(n, now)
	v.Time = format.JustNow
	v.Read = false
	if n.CreatedAt.IsZero() {
		v.Date = format.FormatDate(now)
	}
	return v
}
