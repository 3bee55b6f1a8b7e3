package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
	"github.com/schoolhealth/notification-sync/internal/core/ports"
	"github.com/schoolhealth/notification-sync/internal/pkg/metrics"
)

const defaultMarkReadParallelism = 8

type NotificationService struct {
	apis        ports.NotificationAPIResolver
	parallelism int
	log         zerolog.Logger
	now         func() time.Time
}

// NewNotificationService returns a NotificationService routing every call
// through the API selected by the session's role. parallelism bounds the
// concurrent calls of a bulk mark-as-read; <= 0 uses the default.
func NewNotificationService(apis ports.NotificationAPIResolver, parallelism int, log zerolog.Logger) *NotificationService {
	if parallelism <= 0 {
		parallelism = defaultMarkReadParallelism
	}
	return &NotificationService{apis: apis, parallelism: parallelism, log: log, now: time.Now}
}

func (s *NotificationService) api(sess *domain.Session) (ports.NotificationAPI, domain.Role) {
	role := domain.NotificationRole(sess)
	return s.apis.For(role), role
}

// Load fetches the latest limit notifications and the unread set in
// parallel, and returns them as a feed.
func (s *NotificationService) Load(ctx context.Context, sess *domain.Session, limit int) (*domain.Feed, error) {
	if !sess.Authenticated() {
		return nil, domain.MissingToken("notifications.load")
	}
	if limit <= 0 {
		limit = ports.DefaultNotificationLimit
	}
	api, role := s.api(sess)

	var recent, unread []domain.Notification
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		recent, err = api.GetAllNotifications(gctx, sess.Token, limit)
		return err
	})
	g.Go(func() error {
		var err error
		unread, err = api.GetUnreadNotifications(gctx, sess.Token)
		return err
	})
	if err := g.Wait(); err != nil {
		s.recordError("load", err)
		return nil, fmt.Errorf("load notifications: %w", err)
	}

	now := s.now()
	views := make([]domain.NotificationView, 0, len(recent))
	for _, n := range recent {
		views = append(views, toView(n, now))
	}

	metrics.NotificationsLoadedTotal.WithLabelValues(string(role)).Inc()
	s.log.Debug().
		Str("role", string(role)).
		Int("loaded", len(views)).
		Int("unread", len(unread)).
		Msg("notifications loaded")

	return &domain.Feed{Notifications: views, UnreadCount: len(unread)}, nil
}

// UnreadCount asks the backend for the authoritative unread count.
func (s *NotificationService) UnreadCount(ctx context.Context, sess *domain.Session) (int, error) {
	if !sess.Authenticated() {
		return 0, domain.MissingToken("notifications.unread_count")
	}
	api, _ := s.api(sess)
	unread, err := api.GetUnreadNotifications(ctx, sess.Token)
	if err != nil {
		s.recordError("unread_count", err)
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return len(unread), nil
}

// MarkRead marks a single notification read.
func (s *NotificationService) MarkRead(ctx context.Context, sess *domain.Session, id int64) error {
	if !sess.Authenticated() {
		return domain.MissingToken("notifications.mark_read")
	}
	api, _ := s.api(sess)
	if err := api.MarkNotificationAsRead(ctx, id, sess.Token); err != nil {
		metrics.MarkReadTotal.WithLabelValues("single", "error").Inc()
		s.recordError("mark_read", err)
		return fmt.Errorf("mark notification %d read: %w", id, err)
	}
	metrics.MarkReadTotal.WithLabelValues("single", "ok").Inc()
	return nil
}

// MarkAllRead marks every id read with one call per id, issued concurrently.
// It is best effort: failures are recorded per id and never abort the other
// calls, so the result may be partial. The returned error is only set when
// no call could be attempted.
func (s *NotificationService) MarkAllRead(ctx context.Context, sess *domain.Session, ids []int64) (domain.BulkReadResult, error) {
	result := domain.BulkReadResult{Failed: make(map[int64]error)}
	if !sess.Authenticated() {
		return result, domain.MissingToken("notifications.mark_all_read")
	}
	api, _ := s.api(sess)

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.parallelism)
	for _, id := range ids {
		g.Go(func() error {
			err := api.MarkNotificationAsRead(ctx, id, sess.Token)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed[id] = err
				metrics.MarkReadTotal.WithLabelValues("bulk", "error").Inc()
				s.recordError("mark_read", err)
				s.log.Warn().Err(err).Int64("notification_id", id).Msg("bulk mark-as-read failed for item")
				return nil
			}
			result.Marked = append(result.Marked, id)
			metrics.MarkReadTotal.WithLabelValues("bulk", "ok").Inc()
			return nil
		})
	}
	_ = g.Wait()

	slices.Sort(result.Marked)
	return result, nil
}

func (s *NotificationService) PushedView(n domain.Notification) domain.NotificationView {
	return toPushedView(n, s.now())
}

func (s *NotificationService) recordError(op string, err error) {
	kind, ok := domain.KindOf(err)
	if !ok {
		kind = "unknown"
	}
	metrics.NotificationErrorsTotal.WithLabelValues(op, string(kind)).Inc()
}
