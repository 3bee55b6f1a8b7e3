package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
	"github.com/schoolhealth/notification-sync/internal/core/ports"
	"github.com/schoolhealth/notification-sync/internal/pkg/metrics"
)

// NavbarView is the handler name of the navbar notification dropdown.
const NavbarView = "navbar-notifications"

const refreshTimeout = 10 * time.Second

// Inbox is the notification state of one view: the loaded items and the
// unread badge count, kept in sync with the backend, the realtime channel
// and the refresh broadcast while mounted.
type Inbox struct {
	name     string
	limit    int
	sessions ports.SessionProvider
	svc      ports.NotificationService
	channel  ports.RealtimeChannel
	bus      ports.RefreshBus
	log      zerolog.Logger

	mu          sync.Mutex
	items       []domain.NotificationView
	unread      int
	mounted     bool
	unsubscribe func()
}

// NewInbox creates the view state named name. limit is both the load page
// size and the cap applied after realtime arrivals; <= 0 uses
// ports.DefaultNotificationLimit.
func NewInbox(
	name string,
	limit int,
	sessions ports.SessionProvider,
	svc ports.NotificationService,
	channel ports.RealtimeChannel,
	bus ports.RefreshBus,
	log zerolog.Logger,
) *Inbox {
	if limit <= 0 {
		limit = ports.DefaultNotificationLimit
	}
	return &Inbox{
		name:     name,
		limit:    limit,
		sessions: sessions,
		svc:      svc,
		channel:  channel,
		bus:      bus,
		log:      log.With().Str("view", name).Logger(),
	}
}

func (in *Inbox) Name() string { return in.name }

// Mount subscribes the view to pushes and refresh broadcasts, makes sure the
// realtime channel is open for the session's token, and loads the first
// page. Mounting twice only reloads.
func (in *Inbox) Mount(ctx context.Context) error {
	sess, err := in.currentSession(ctx)
	if err != nil {
		return fmt.Errorf("mount %s: %w", in.name, err)
	}
	if !sess.Authenticated() {
		return fmt.Errorf("mount %s: %w", in.name, domain.MissingToken("inbox.mount"))
	}

	in.mu.Lock()
	if !in.mounted {
		in.mounted = true
		in.unsubscribe = in.bus.AddListener(in.onRefresh)
	}
	in.mu.Unlock()

	in.channel.AddHandler(in.name, in.onPush)
	// Connect is a no-op for the token already connected and replaces a
	// connection opened for another user.
	if err := in.channel.Connect(ctx, sess.Token); err != nil {
		in.log.Warn().Err(err).Msg("realtime channel unavailable, relying on reloads")
	}

	return in.load(ctx, sess)
}

// Unmount detaches the view and discards its state. The realtime connection
// itself stays open for other views.
func (in *Inbox) Unmount() {
	in.channel.RemoveHandler(in.name)

	in.mu.Lock()
	defer in.mu.Unlock()
	if in.unsubscribe != nil {
		in.unsubscribe()
		in.unsubscribe = nil
	}
	in.mounted = false
	in.items = nil
	in.setUnread(0)
}

// Mounted reports whether the view is currently mounted.
func (in *Inbox) Mounted() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.mounted
}

// Reload fetches the page again. Without a token it does nothing and returns
// the missing-token error; any other failure resets the view to empty.
func (in *Inbox) Reload(ctx context.Context) error {
	sess, err := in.currentSession(ctx)
	if err != nil {
		return err
	}
	return in.load(ctx, sess)
}

func (in *Inbox) load(ctx context.Context, sess *domain.Session) error {
	feed, err := in.svc.Load(ctx, sess, in.limit)
	if err != nil {
		if errors.Is(err, domain.ErrMissingToken) {
			in.log.Debug().Msg("no token, skipping notification load")
			return err
		}
		in.log.Error().Err(err).Msg("failed to load notifications")
		in.mu.Lock()
		in.items = nil
		in.setUnread(0)
		in.mu.Unlock()
		return err
	}

	in.mu.Lock()
	in.items = feed.Notifications
	in.setUnread(feed.UnreadCount)
	in.mu.Unlock()
	return nil
}

// OpenDropdown marks every unread loaded item read. Items whose call
// succeeded are flipped locally and the badge shows the items still unread:
// zero when every call succeeded and nothing was pushed meanwhile. Failures
// are neither retried nor rolled back.
func (in *Inbox) OpenDropdown(ctx context.Context) (domain.BulkReadResult, error) {
	sess, err := in.currentSession(ctx)
	if err != nil {
		return domain.BulkReadResult{}, err
	}

	in.mu.Lock()
	var ids []int64
	for _, it := range in.items {
		if !it.Read {
			ids = append(ids, it.ID)
		}
	}
	in.mu.Unlock()

	if len(ids) == 0 {
		return domain.BulkReadResult{Failed: map[int64]error{}}, nil
	}

	res, err := in.svc.MarkAllRead(ctx, sess, ids)
	if err != nil {
		return res, err
	}

	marked := make(map[int64]bool, len(res.Marked))
	for _, id := range res.Marked {
		marked[id] = true
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	remaining := 0
	for i := range in.items {
		if marked[in.items[i].ID] {
			in.items[i].Read = true
		}
		if !in.items[i].Read {
			remaining++
		}
	}
	// Items pushed while the calls were in flight are still unread.
	in.setUnread(remaining)
	if !res.Complete() {
		in.log.Warn().Int("failed", len(res.Failed)).Msg("bulk mark-as-read partially failed")
	}
	return res, nil
}

// MarkRead marks one item read, then takes the unread count from the server
// rather than decrementing, so unread items outside the loaded page are
// still counted.
func (in *Inbox) MarkRead(ctx context.Context, id int64) error {
	sess, err := in.currentSession(ctx)
	if err != nil {
		return err
	}
	if err := in.svc.MarkRead(ctx, sess, id); err != nil {
		in.log.Error().Err(err).Int64("notification_id", id).Msg("failed to mark notification read")
		return err
	}

	in.mu.Lock()
	for i := range in.items {
		if in.items[i].ID == id {
			in.items[i].Read = true
		}
	}
	in.mu.Unlock()

	count, err := in.svc.UnreadCount(ctx, sess)
	if err != nil {
		in.log.Error().Err(err).Msg("failed to refresh unread count")
		return err
	}

	in.mu.Lock()
	in.setUnread(count)
	in.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current view state.
func (in *Inbox) Snapshot() domain.Feed {
	in.mu.Lock()
	defer in.mu.Unlock()
	items := make([]domain.NotificationView, len(in.items))
	copy(items, in.items)
	return domain.Feed{Notifications: items, UnreadCount: in.unread}
}

// Poll reloads the view every interval while it is mounted, until ctx ends.
func (in *Inbox) Poll(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !in.Mounted() {
				continue
			}
			if err := in.Reload(ctx); err != nil && !errors.Is(err, domain.ErrMissingToken) {
				in.log.Warn().Err(err).Msg("poll reload failed")
			}
		}
	}
}

// onPush prepends a pushed notification, keeps at most limit items and bumps
// the badge by one.
func (in *Inbox) onPush(n domain.Notification) {
	view := in.svc.PushedView(n)

	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.mounted {
		return
	}
	items := make([]domain.NotificationView, 0, len(in.items)+1)
	items = append(items, view)
	items = append(items, in.items...)
	if len(items) > in.limit {
		items = items[:in.limit]
	}
	in.items = items
	in.setUnread(in.unread + 1)
	in.log.Debug().Int64("notification_id", n.ID).Msg("notification pushed")
}

func (in *Inbox) onRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	if err := in.Reload(ctx); err != nil && !errors.Is(err, domain.ErrMissingToken) {
		in.log.Warn().Err(err).Msg("refresh broadcast reload failed")
	}
}

func (in *Inbox) currentSession(ctx context.Context) (*domain.Session, error) {
	sess, err := in.sessions.Current(ctx)
	if err != nil && !errors.Is(err, domain.ErrNoSession) {
		return nil, err
	}
	return sess, nil
}

// setUnread must be called with mu held.
func (in *Inbox) setUnread(n int) {
	in.unread = n
	metrics.UnreadCount.WithLabelValues(in.name).Set(float64(n))
}
