package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
	"github.com/schoolhealth/notification-sync/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubSessions struct {
	sess *domain.Session
}

func (s *stubSessions) Current(context.Context) (*domain.Session, error) {
	if s.sess == nil {
		return nil, domain.ErrNoSession
	}
	return s.sess, nil
}

type fakeChannel struct {
	mu         sync.Mutex
	connected  bool
	token      string
	connects   int
	closes     int
	connectErr error
	handlers   map[string]ports.PushHandler
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{handlers: make(map[string]ports.PushHandler)}
}

// Connect dials only when disconnected or when the token changes, like the
// real channel.
func (c *fakeChannel) Connect(_ context.Context, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected && c.token == token {
		return nil
	}
	c.connects++
	if c.connectErr != nil {
		return c.connectErr
	}
	c.connected, c.token = true, token
	return nil
}

func (c *fakeChannel) authenticatedWith() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *fakeChannel) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeChannel) AddHandler(name string, h ports.PushHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[name] = h
}

func (c *fakeChannel) RemoveHandler(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, name)
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	c.connected, c.token = false, ""
	return nil
}

func (c *fakeChannel) push(n domain.Notification) {
	c.mu.Lock()
	hs := make([]ports.PushHandler, 0, len(c.handlers))
	for _, h := range c.handlers {
		hs = append(hs, h)
	}
	c.mu.Unlock()
	for _, h := range hs {
		h(n)
	}
}

type fakeBus struct {
	listeners map[int]func()
	next      int
}

func (b *fakeBus) AddListener(fn func()) func() {
	if b.listeners == nil {
		b.listeners = make(map[int]func())
	}
	id := b.next
	b.next++
	b.listeners[id] = fn
	return func() { delete(b.listeners, id) }
}

func (b *fakeBus) Trigger() {
	for _, fn := range b.listeners {
		fn()
	}
}

type inboxFixture struct {
	api     *stubNotificationAPI
	channel *fakeChannel
	bus     *fakeBus
	inbox   *Inbox
}

func newInboxFixture(t *testing.T, role domain.Role, all, unread []domain.Notification) *inboxFixture {
	t.Helper()
	api := &stubNotificationAPI{all: all, unread: unread}
	f := &inboxFixture{api: api, channel: newFakeChannel(), bus: &fakeBus{}}
	svc := newNotificationSvc(newResolver(role, api))
	f.inbox = NewInbox(NavbarView, 5, &stubSessions{sess: session(role)}, svc, f.channel, f.bus, zerolog.Nop())
	if err := f.inbox.Mount(context.Background()); err != nil {
		t.Fatalf("mount: %v", err)
	}
	return f
}

func unreadOf(ids ...int64) []domain.Notification {
	out := make([]domain.Notification, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Notification{ID: id})
	}
	return out
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestInbox_Mount_LoadsAndConnectsOnce(t *testing.T) {
	all := []domain.Notification{notification(1, false, time.Minute, fixedNow)}
	f := newInboxFixture(t, domain.RoleParent, all, unreadOf(1))

	snap := f.inbox.Snapshot()
	if len(snap.Notifications) != 1 || snap.UnreadCount != 1 {
		t.Fatalf("unexpected snapshot after mount: %+v", snap)
	}
	if _, ok := f.channel.handlers[NavbarView]; !ok {
		t.Fatalf("expected push handler registered under %q", NavbarView)
	}

	if err := f.inbox.Mount(context.Background()); err != nil {
		t.Fatalf("second mount: %v", err)
	}
	if f.channel.connects != 1 {
		t.Fatalf("expected a single connect, got %d", f.channel.connects)
	}
	if len(f.bus.listeners) != 1 {
		t.Fatalf("expected a single refresh listener, got %d", len(f.bus.listeners))
	}
}

func TestInbox_Mount_WithoutSession(t *testing.T) {
	api := &stubNotificationAPI{}
	in := NewInbox(NavbarView, 5, &stubSessions{}, newNotificationSvc(newResolver(domain.RoleParent, api)), newFakeChannel(), &fakeBus{}, zerolog.Nop())

	if err := in.Mount(context.Background()); !errors.Is(err, domain.ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
	if in.Mounted() {
		t.Fatalf("view must not mount without a session")
	}
}

func TestInbox_Mount_RealtimeFailureIsNotFatal(t *testing.T) {
	api := &stubNotificationAPI{all: []domain.Notification{{ID: 1}}}
	ch := newFakeChannel()
	ch.connectErr = errors.New("dial refused")
	in := NewInbox(NavbarView, 5, &stubSessions{sess: session(domain.RoleParent)}, newNotificationSvc(newResolver(domain.RoleParent, api)), ch, &fakeBus{}, zerolog.Nop())

	if err := in.Mount(context.Background()); err != nil {
		t.Fatalf("mount should survive realtime failure: %v", err)
	}
	if got := len(in.Snapshot().Notifications); got != 1 {
		t.Fatalf("expected feed loaded, got %d items", got)
	}
}

func TestInbox_Reload_ErrorResetsState(t *testing.T) {
	all := []domain.Notification{{ID: 1}, {ID: 2}}
	f := newInboxFixture(t, domain.RoleParent, all, unreadOf(1, 2))

	f.api.allErr = &domain.NotificationError{Op: "notifications.list", Kind: domain.KindStatus, Status: 500, Err: errors.New("server error")}
	if err := f.inbox.Reload(context.Background()); err == nil {
		t.Fatalf("expected reload error")
	}
	snap := f.inbox.Snapshot()
	if len(snap.Notifications) != 0 || snap.UnreadCount != 0 {
		t.Fatalf("expected empty state after failure, got %+v", snap)
	}
}

func TestInbox_OpenDropdown_MarksAllLoadedUnread(t *testing.T) {
	all := []domain.Notification{
		{ID: 1}, {ID: 2, Read: true}, {ID: 3}, {ID: 4},
	}
	f := newInboxFixture(t, domain.RoleManager, all, unreadOf(1, 3, 4))
	f.api.markDelay = map[int64]time.Duration{1: 20 * time.Millisecond, 3: 0, 4: 5 * time.Millisecond}

	res, err := f.inbox.OpenDropdown(context.Background())
	if err != nil {
		t.Fatalf("open dropdown: %v", err)
	}
	if len(res.Marked) != 3 {
		t.Fatalf("expected 3 calls, got %v", res.Marked)
	}

	snap := f.inbox.Snapshot()
	for _, v := range snap.Notifications {
		if !v.Read {
			t.Fatalf("expected all items read, %d is not", v.ID)
		}
	}
	if snap.UnreadCount != 0 {
		t.Fatalf("expected unread count 0, got %d", snap.UnreadCount)
	}
}

func TestInbox_OpenDropdown_PushDuringBulkStaysUnread(t *testing.T) {
	all := []domain.Notification{{ID: 1}, {ID: 2}}
	f := newInboxFixture(t, domain.RoleParent, all, unreadOf(1, 2))

	var once sync.Once
	f.api.onMark = func(int64) {
		once.Do(func() { f.channel.push(domain.Notification{ID: 99, Title: "Mới"}) })
	}

	res, err := f.inbox.OpenDropdown(context.Background())
	if err != nil {
		t.Fatalf("open dropdown: %v", err)
	}
	if !res.Complete() {
		t.Fatalf("expected every call to succeed, failed %v", res.Failed)
	}

	snap := f.inbox.Snapshot()
	if len(snap.Notifications) != 3 || snap.Notifications[0].ID != 99 || snap.Notifications[0].Read {
		t.Fatalf("expected the pushed item unread at the head, got %+v", snap.Notifications)
	}
	if snap.UnreadCount != 1 {
		t.Fatalf("expected unread count 1 for the pushed item, got %d", snap.UnreadCount)
	}
}

func TestInbox_OpenDropdown_PartialFailureKeepsFailedUnread(t *testing.T) {
	all := []domain.Notification{{ID: 1}, {ID: 2}, {ID: 3}}
	f := newInboxFixture(t, domain.RoleParent, all, unreadOf(1, 2, 3))
	f.api.markErr = map[int64]error{2: errors.New("timeout")}

	res, err := f.inbox.OpenDropdown(context.Background())
	if err != nil {
		t.Fatalf("open dropdown: %v", err)
	}
	if res.Complete() {
		t.Fatalf("expected partial result")
	}

	snap := f.inbox.Snapshot()
	for _, v := range snap.Notifications {
		if want := v.ID != 2; v.Read != want {
			t.Fatalf("item %d read=%v, want %v", v.ID, v.Read, want)
		}
	}
	if snap.UnreadCount != 1 {
		t.Fatalf("expected unread count 1, got %d", snap.UnreadCount)
	}
}

func TestInbox_OpenDropdown_NothingUnread(t *testing.T) {
	f := newInboxFixture(t, domain.RoleParent, []domain.Notification{{ID: 1, Read: true}}, nil)

	res, err := f.inbox.OpenDropdown(context.Background())
	if err != nil || len(res.Marked) != 0 {
		t.Fatalf("expected no-op, got %v %v", res, err)
	}
	if len(f.api.marked) != 0 {
		t.Fatalf("no API call expected")
	}
}

func TestInbox_MarkRead_UsesServerCount(t *testing.T) {
	all := []domain.Notification{{ID: 1}, {ID: 2}}
	// Seven unread on the server, only two of them loaded.
	f := newInboxFixture(t, domain.RoleSchoolNurse, all, unreadOf(1, 2, 10, 11, 12, 13, 14))

	if err := f.inbox.MarkRead(context.Background(), 1); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	snap := f.inbox.Snapshot()
	if !snap.Notifications[0].Read || snap.Notifications[1].Read {
		t.Fatalf("expected only item 1 read, got %+v", snap.Notifications)
	}
	if snap.UnreadCount != 6 {
		t.Fatalf("expected server-reported count 6, got %d", snap.UnreadCount)
	}
}

func TestInbox_MarkRead_Failure(t *testing.T) {
	f := newInboxFixture(t, domain.RoleParent, []domain.Notification{{ID: 1}}, unreadOf(1))
	f.api.markErr = map[int64]error{1: errors.New("boom")}

	if err := f.inbox.MarkRead(context.Background(), 1); err == nil {
		t.Fatalf("expected error")
	}
	snap := f.inbox.Snapshot()
	if snap.Notifications[0].Read || snap.UnreadCount != 1 {
		t.Fatalf("state must be untouched on failure: %+v", snap)
	}
}

func TestInbox_Push_PrependsCapsAndCounts(t *testing.T) {
	all := []domain.Notification{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}, {ID: 5}}
	f := newInboxFixture(t, domain.RoleParent, all, unreadOf(1, 2))

	f.channel.push(domain.Notification{ID: 99, Title: "Mới", Message: "<b>Tiêm chủng</b>", Read: true})

	snap := f.inbox.Snapshot()
	if len(snap.Notifications) != 5 {
		t.Fatalf("expected list capped at 5, got %d", len(snap.Notifications))
	}
	head := snap.Notifications[0]
	if head.ID != 99 || head.Read || head.Time != "Vừa xong" || head.Text != "Tiêm chủng" {
		t.Fatalf("unexpected head item: %+v", head)
	}
	if snap.Notifications[4].ID != 4 {
		t.Fatalf("expected oldest item dropped, tail is %d", snap.Notifications[4].ID)
	}
	if snap.UnreadCount != 3 {
		t.Fatalf("expected unread incremented to 3, got %d", snap.UnreadCount)
	}
}

func TestInbox_RefreshBroadcastReloads(t *testing.T) {
	f := newInboxFixture(t, domain.RoleManager, []domain.Notification{{ID: 1}}, nil)

	f.api.mu.Lock()
	f.api.all = []domain.Notification{{ID: 1}, {ID: 2}}
	f.api.unread = unreadOf(2)
	f.api.mu.Unlock()

	f.bus.Trigger()

	snap := f.inbox.Snapshot()
	if len(snap.Notifications) != 2 || snap.UnreadCount != 1 {
		t.Fatalf("expected reload after broadcast, got %+v", snap)
	}
}

func TestInbox_Unmount_DetachesView(t *testing.T) {
	f := newInboxFixture(t, domain.RoleParent, []domain.Notification{{ID: 1}}, unreadOf(1))

	f.inbox.Unmount()

	if _, ok := f.channel.handlers[NavbarView]; ok {
		t.Fatalf("expected push handler removed")
	}
	if len(f.bus.listeners) != 0 {
		t.Fatalf("expected refresh listener removed")
	}
	if !f.channel.IsConnected() {
		t.Fatalf("unmount must not close the shared channel")
	}
	if snap := f.inbox.Snapshot(); len(snap.Notifications) != 0 || snap.UnreadCount != 0 {
		t.Fatalf("expected state discarded, got %+v", snap)
	}
}

func TestInbox_Poll_StopsWithContext(t *testing.T) {
	f := newInboxFixture(t, domain.RoleParent, []domain.Notification{{ID: 1}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.inbox.Poll(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(time.Second)
	for {
		f.api.mu.Lock()
		hits := f.api.unreadHits
		f.api.mu.Unlock()
		if hits >= 3 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("poller did not reload, unread hits=%d", hits)
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("poller did not stop")
	}
}

func TestInbox_ReloginAsAnotherUserReplacesRealtimeConnection(t *testing.T) {
	store := &stubSessionStore{}
	api := &stubAuthAPI{loginFn: func(_ context.Context, username, _ string) (*ports.LoginResult, error) {
		if username == "parent.a" {
			return &ports.LoginResult{Token: "tok-parent-a", RawRole: "PARENT"}, nil
		}
		return &ports.LoginResult{Token: "tok-nurse-b", RawRole: "SCHOOLNURSE"}, nil
	}}
	auth := NewAuthService(api, store, zerolog.Nop())

	resolver := &stubResolver{apis: map[domain.Role]*stubNotificationAPI{
		domain.RoleParent:      {all: []domain.Notification{{ID: 1}}},
		domain.RoleSchoolNurse: {all: []domain.Notification{{ID: 2}}},
	}}
	ch := newFakeChannel()
	in := NewInbox(NavbarView, 5, auth, newNotificationSvc(resolver), ch, &fakeBus{}, zerolog.Nop())
	auth.OnLogout(func() {
		in.Unmount()
		_ = ch.Close()
	})

	ctx := context.Background()
	for _, user := range []string{"parent.a", "nurse.b"} {
		if _, err := auth.Login(ctx, user, "pw"); err != nil {
			t.Fatalf("login %s: %v", user, err)
		}
		if err := in.Mount(ctx); err != nil {
			t.Fatalf("mount for %s: %v", user, err)
		}
	}

	if got := ch.authenticatedWith(); got != "tok-nurse-b" {
		t.Fatalf("socket authenticated with %q, want the current user's token", got)
	}
	if ch.connects != 2 || ch.closes != 1 {
		t.Fatalf("expected the first socket closed and a second dial, got connects=%d closes=%d", ch.connects, ch.closes)
	}
	snap := in.Snapshot()
	if len(snap.Notifications) != 1 || snap.Notifications[0].ID != 2 {
		t.Fatalf("expected only the second user's notifications, got %+v", snap.Notifications)
	}
}
