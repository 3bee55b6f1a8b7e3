package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
)

type fakeAuth struct {
	mu   sync.Mutex
	sess *domain.Session
}

func (a *fakeAuth) set(s *domain.Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sess = s
}

func (a *fakeAuth) Current(context.Context) (*domain.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sess == nil {
		return nil, domain.ErrNoSession
	}
	return a.sess, nil
}

func (a *fakeAuth) Login(context.Context, string, string) (*domain.Session, error) {
	return nil, domain.ErrInvalidCredentials
}

func (a *fakeAuth) Logout(context.Context) error {
	a.set(nil)
	return nil
}

func (a *fakeAuth) Expire(context.Context) {}

type fakeInbox struct{}

func (fakeInbox) Name() string                 { return "navbar-notifications" }
func (fakeInbox) Mount(context.Context) error  { return nil }
func (fakeInbox) Mounted() bool                { return true }
func (fakeInbox) Reload(context.Context) error { return nil }
func (fakeInbox) MarkRead(context.Context, int64) error {
	return nil
}

func (fakeInbox) OpenDropdown(context.Context) (domain.BulkReadResult, error) {
	return domain.BulkReadResult{}, nil
}

func (fakeInbox) Snapshot() domain.Feed {
	return domain.Feed{Notifications: []domain.NotificationView{{ID: 1, Title: "A"}}, UnreadCount: 1}
}

type fakeTrigger struct{ calls int }

func (f *fakeTrigger) Trigger() { f.calls++ }

type fakePinger struct{}

func (fakePinger) Ping(context.Context) error { return nil }

// The prometheus middleware registers collectors globally, so the router is
// built once for the whole package.
var (
	routerOnce sync.Once
	testRouter *echo.Echo
	testAuth   = &fakeAuth{}
	trigger    = &fakeTrigger{}
)

func router() *echo.Echo {
	routerOnce.Do(func() {
		testRouter = NewRouter(Dependencies{
			Auth:         testAuth,
			Inbox:        fakeInbox{},
			Refresh:      trigger,
			SessionStore: fakePinger{},
			Log:          zerolog.Nop(),
		})
	})
	return testRouter
}

func serve(method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestRouter_HealthAndOperations(t *testing.T) {
	for _, path := range []string{"/health", "/health/ready", "/metrics"} {
		if rec := serve(http.MethodGet, path); rec.Code != http.StatusOK {
			t.Fatalf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestRouter_NotificationsRequireSession(t *testing.T) {
	testAuth.set(nil)

	rec := serve(http.MethodGet, "/v1/notifications")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Redirect != "/login" {
		t.Fatalf("expected redirect to /login, got %+v", resp)
	}

	testAuth.set(&domain.Session{Token: "tok", User: domain.User{Role: domain.RoleParent}})
	if rec := serve(http.MethodGet, "/v1/notifications"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with a session, got %d", rec.Code)
	}
}

func TestRouter_RefreshIsStaffOnly(t *testing.T) {
	testAuth.set(&domain.Session{Token: "tok", User: domain.User{Role: domain.RoleParent}})
	rec := serve(http.MethodPost, "/v1/refresh")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("parent: expected 403, got %d", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Error != "access forbidden" {
		t.Fatalf("expected the shared forbidden envelope, got %q (%v)", rec.Body.String(), err)
	}

	before := trigger.calls
	testAuth.set(&domain.Session{Token: "tok", User: domain.User{Role: domain.RoleManager}})
	if rec := serve(http.MethodPost, "/v1/refresh"); rec.Code != http.StatusAccepted {
		t.Fatalf("manager: expected 202, got %d", rec.Code)
	}
	if trigger.calls != before+1 {
		t.Fatalf("expected one broadcast")
	}
}

func TestRouter_LoginValidation(t *testing.T) {
	if rec := serve(http.MethodPost, "/auth/login"); rec.Code != http.StatusUnprocessableEntity && rec.Code != http.StatusBadRequest {
		t.Fatalf("expected validation failure, got %d", rec.Code)
	}
}
