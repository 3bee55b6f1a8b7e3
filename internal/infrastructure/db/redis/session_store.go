package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
)

const defaultSessionKey = "notifysync:session"

// SessionStore keeps the current session as one JSON value. When the token
// carries an expiry the key expires with it.
type SessionStore struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

// NewSessionStore creates a SessionStore under key; "" uses
// "notifysync:session".
func NewSessionStore(client *redis.Client, key string) *SessionStore {
	if key == "" {
		key = defaultSessionKey
	}
	return &SessionStore{client: client, key: key, now: time.Now}
}

func (s *SessionStore) Load(ctx context.Context) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return decodeSession(raw)
}

func (s *SessionStore) Save(ctx context.Context, sess *domain.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key, raw, sessionTTL(sess, s.now())).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func decodeSession(raw []byte) (*domain.Session, error) {
	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if !sess.Authenticated() {
		return nil, domain.ErrNoSession
	}
	return &sess, nil
}

// sessionTTL is the time left until the token expires, or 0 (no expiry) when
// the token carries no exp claim.
func sessionTTL(sess *domain.Session, now time.Time) time.Duration {
	if sess.ExpiresAt.IsZero() {
		return 0
	}
	ttl := sess.ExpiresAt.Sub(now)
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl
}
