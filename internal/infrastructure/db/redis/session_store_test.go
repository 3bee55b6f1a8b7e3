package redis

import (
	"errors"
	"testing"
	"time"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
)

func TestSessionTTL(t *testing.T) {
	now := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		want      time.Duration
	}{
		{"no expiry", time.Time{}, 0},
		{"future expiry", now.Add(time.Hour), time.Hour},
		{"already expired", now.Add(-time.Minute), time.Second},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := sessionTTL(&domain.Session{Token: "t", ExpiresAt: tc.expiresAt}, now)
			if got != tc.want {
				t.Fatalf("sessionTTL() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDecodeSession(t *testing.T) {
	sess, err := decodeSession([]byte(`{"id":"s1","user":{"id":7,"username":"lan","role":"nurse"},"token":"tok"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !sess.IsSchoolNurse() || sess.Token != "tok" || sess.User.ID != 7 {
		t.Fatalf("unexpected session: %+v", sess)
	}

	if _, err := decodeSession([]byte(`{"user":{"username":"x"}}`)); !errors.Is(err, domain.ErrNoSession) {
		t.Fatalf("tokenless session should read as ErrNoSession, got %v", err)
	}
	if _, err := decodeSession([]byte(`{`)); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestNewSessionStore_DefaultKey(t *testing.T) {
	if s := NewSessionStore(nil, ""); s.key != defaultSessionKey {
		t.Fatalf("key = %q, want %q", s.key, defaultSessionKey)
	}
}

func TestConfig_Options(t *testing.T) {
	opts, err := Config{URL: "redis://:secret@cache:6380/2"}.options()
	if err != nil {
		t.Fatalf("options() error = %v", err)
	}
	if opts.Addr != "cache:6380" || opts.Password != "secret" || opts.DB != 2 {
		t.Fatalf("unexpected options from url: addr=%q db=%d", opts.Addr, opts.DB)
	}

	opts, err = Config{Addr: "localhost:6379", DB: 1}.options()
	if err != nil {
		t.Fatalf("options() error = %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.DB != 1 {
		t.Fatalf("unexpected options: addr=%q db=%d", opts.Addr, opts.DB)
	}

	if _, err := (Config{URL: "http://nope"}).options(); err == nil {
		t.Fatalf("expected error for non-redis url")
	}
}
