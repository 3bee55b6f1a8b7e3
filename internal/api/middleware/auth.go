package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
	"github.com/schoolhealth/notification-sync/internal/core/ports"
)

// Context keys set by RequireSession.
const (
	KeySession  = "session"
	KeyUsername = "username"
	KeyRole     = "role"
)

// RequireSession loads the agent's session and injects it into the context.
// Requests without a live session are rejected with 401.
func RequireSession(sessions ports.SessionProvider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, err := sessions.Current(c.Request().Context())
			if errors.Is(err, domain.ErrNoSession) {
				return echo.NewHTTPError(http.StatusUnauthorized, "not logged in")
			}
			if err != nil {
				return err
			}

			c.Set(KeySession, sess)
			c.Set(KeyUsername, sess.User.Username)
			c.Set(KeyRole, string(sess.Role()))

			return next(c)
		}
	}
}
