package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
	"github.com/schoolhealth/notification-sync/internal/core/service"
)

// errorResponse is the body of every failed request. Redirect is set on 401s
// caused by a missing or rejected session, pointing at the login page.
type errorResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

type errorMapping struct {
	target error
	code   int
	msg    string
}

// sentinelErrors are checked in order with errors.Is.
var sentinelErrors = []errorMapping{
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
	{domain.ErrNoSession, http.StatusUnauthorized, "not logged in"},
	{domain.ErrMissingToken, http.StatusUnauthorized, "not logged in"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "session expired"},
	{domain.ErrForbidden, http.StatusForbidden, "access forbidden"},
}

// NewHTTPErrorHandler renders every error returned by a handler or middleware
// as an errorResponse. Backend failures become 502, or 503 when the backend
// could not be reached at all. Anything unrecognised is logged and hidden
// behind a 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		resp := errorResponse{Error: msg}
		if code == http.StatusUnauthorized && !errors.Is(err, domain.ErrInvalidCredentials) {
			resp.Redirect = service.LoginPath
		}
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	for _, m := range sentinelErrors {
		if errors.Is(err, m.target) {
			return m.code, m.msg
		}
	}

	var ne *domain.NotificationError
	if errors.As(err, &ne) {
		log.Warn().
			Err(err).
			Str("op", ne.Op).
			Str("kind", string(ne.Kind)).
			Str("path", c.Path()).
			Msg("backend call failed")
		if ne.Kind == domain.KindTransport {
			return http.StatusServiceUnavailable, "backend unavailable"
		}
		return http.StatusBadGateway, fmt.Sprintf("backend error: %s", ne.Op)
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")
	return http.StatusInternalServerError, "internal server error"
}
