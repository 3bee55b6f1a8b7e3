package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/schoolhealth/notification-sync/internal/core/ports"
)

// ViewMounter is a view that attaches itself once a session exists.
type ViewMounter interface {
	Name() string
	Mount(ctx context.Context) error
}

type AuthHandler struct {
	authService ports.AuthService
	views       []ViewMounter
	log         zerolog.Logger
}

// NewAuthHandler creates an AuthHandler; views are mounted after every
// successful login.
func NewAuthHandler(authService ports.AuthService, log zerolog.Logger, views ...ViewMounter) *AuthHandler {
	return &AuthHandler{authService: authService, views: views, log: log}
}

// Login authenticates against the backend and starts a session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	ctx := c.Request().Context()
	sess, err := h.authService.Login(ctx, req.Username, req.Password)
	if err != nil {
		return err
	}

	for _, v := range h.views {
		if err := v.Mount(ctx); err != nil {
			h.log.Warn().Err(err).Str("view", v.Name()).Msg("failed to mount view after login")
		}
	}

	return c.JSON(http.StatusOK, toSessionResponse(sess))
}

// Logout ends the session, detaches views and closes the realtime channel.
//
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Failure      500  {object}  errorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.authService.Logout(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Session returns the current session.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	sess, err := h.authService.Current(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(sess))
}
