package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/schoolhealth/notification-sync/internal/api/middleware"
	"github.com/schoolhealth/notification-sync/internal/core/domain"
)

// ctxSession returns the session injected by the RequireSession middleware
// and fails fast when it is absent.
func ctxSession(c echo.Context) (*domain.Session, error) {
	sess, _ := c.Get(middleware.KeySession).(*domain.Session)
	if !sess.Authenticated() {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "not logged in")
	}
	return sess, nil
}
