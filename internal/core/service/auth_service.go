package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
	"github.com/schoolhealth/notification-sync/internal/core/ports"
)

// LoginPath is where the user is sent once the session is gone.
const LoginPath = "/login"

// roleClaims are the JWT claims the backend has been seen to carry the role in.
var roleClaims = []string{"role", "roleName", "authorities"}

// AuthService owns the session: login, logout, and the global 401 handling.
type AuthService struct {
	api   ports.AuthAPI
	store ports.SessionStore
	log   zerolog.Logger
	now   func() time.Time

	mu       sync.Mutex
	onLogout []func()
}

func NewAuthService(api ports.AuthAPI, store ports.SessionStore, log zerolog.Logger) *AuthService {
	return &AuthService{api: api, store: store, log: log, now: time.Now}
}

// OnLogout registers fn to run after the session has been cleared, either by
// an explicit logout or by expiry.
func (s *AuthService) OnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, fn)
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	res, err := s.api.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if res.Token == "" {
		return nil, fmt.Errorf("login: %w", domain.ErrMissingToken)
	}

	claims := parseClaims(res.Token)
	user := res.User
	if user.Role == "" {
		user.Role = domain.ParseRole(res.RawRole)
	}
	if user.Role == "" {
		user.Role = roleFromClaims(claims)
	}
	if user.Username == "" {
		user.Username = username
	}

	sess := &domain.Session{
		ID:        uuid.NewString(),
		User:      user,
		Token:     res.Token,
		CreatedAt: s.now().UTC(),
		ExpiresAt: expiryFromClaims(claims),
	}
	s.endReplacedSession(ctx, res.Token)
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.log.Info().
		Str("session_id", sess.ID).
		Str("username", user.Username).
		Str("role", string(user.Role)).
		Msg("logged in")
	return sess, nil
}

// endReplacedSession runs the logout hooks when a login replaces a stored
// session of another token, so views and the realtime channel held for the
// previous user are torn down before the new session is saved.
func (s *AuthService) endReplacedSession(ctx context.Context, token string) {
	prev, err := s.store.Load(ctx)
	if err != nil || prev.Token == token {
		return
	}
	s.log.Info().Str("session_id", prev.ID).Msg("replacing previous session")
	s.runLogoutHooks()
}

// Current returns the stored session, or domain.ErrNoSession when there is
// none or its token has expired.
func (s *AuthService) Current(ctx context.Context) (*domain.Session, error) {
	sess, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !sess.Authenticated() || sess.Expired(s.now()) {
		return nil, domain.ErrNoSession
	}
	return sess, nil
}

func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.runLogoutHooks()
	s.log.Info().Msg("logged out")
	return nil
}

// Expire ends the session after the backend rejected the token. It is
// installed as the REST client's 401 hook.
func (s *AuthService) Expire(ctx context.Context) {
	if _, err := s.store.Load(ctx); errors.Is(err, domain.ErrNoSession) {
		return
	}
	s.log.Warn().Str("redirect", LoginPath).Msg("session rejected by backend, logging out")
	if err := s.Logout(ctx); err != nil {
		s.log.Error().Err(err).Msg("failed to clear expired session")
	}
}

func (s *AuthService) runLogoutHooks() {
	s.mu.Lock()
	hooks := append([]func(){}, s.onLogout...)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

// parseClaims reads the token claims without verifying the signature; the
// agent never holds the backend's signing key. Non-JWT tokens yield nil.
func parseClaims(token string) jwt.MapClaims {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	return claims
}

func expiryFromClaims(claims jwt.MapClaims) time.Time {
	if claims == nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time.UTC()
}

func roleFromClaims(claims jwt.MapClaims) domain.Role {
	for _, key := range roleClaims {
		switch v := claims[key].(type) {
		case string:
			if r := domain.ParseRole(v); r != "" {
				return r
			}
		case []any:
			for _, item := range v {
				str, _ := item.(string)
				if r := domain.ParseRole(str); r != "" {
					return r
				}
			}
		}
	}
	return ""
}
