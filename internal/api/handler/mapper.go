package handler

import (
	"sort"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
)

func toSessionResponse(s *domain.Session) sessionResponse {
	resp := sessionResponse{
		ID:        s.ID,
		User:      toUserResponse(s.User),
		Staff:     s.Role().IsStaff(),
		CreatedAt: s.CreatedAt,
	}
	if !s.ExpiresAt.IsZero() {
		exp := s.ExpiresAt
		resp.ExpiresAt = &exp
	}
	return resp
}

func toFeedResponse(f domain.Feed) feedResponse {
	items := make([]notificationResponse, len(f.Notifications))
	for i, n := range f.Notifications {
		items[i] = notificationResponse{
			ID:    n.ID,
			Title: n.Title,
			Text:  n.Text,
			Time:  n.Time,
			Date:  n.Date,
			Icon:  n.Icon,
			Read:  n.Read,
		}
	}
	return feedResponse{Notifications: items, UnreadCount: f.UnreadCount}
}

func toBulkReadResponse(r domain.BulkReadResult, f domain.Feed) bulkReadResponse {
	failed := make([]failedItemResponse, 0, len(r.Failed))
	for id, err := range r.Failed {
		failed = append(failed, failedItemResponse{ID: id, Error: err.Error()})
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i].ID < failed[j].ID })

	marked := r.Marked
	if marked == nil {
		marked = []int64{}
	}
	return bulkReadResponse{Marked: marked, Failed: failed, Feed: toFeedResponse(f)}
}
