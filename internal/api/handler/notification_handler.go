package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
)

// InboxView is the notification view state the handler exposes.
type InboxView interface {
	ViewMounter
	Mounted() bool
	Reload(ctx context.Context) error
	OpenDropdown(ctx context.Context) (domain.BulkReadResult, error)
	MarkRead(ctx context.Context, id int64) error
	Snapshot() domain.Feed
}

// RefreshTrigger broadcasts a notification reload to every view.
type RefreshTrigger interface {
	Trigger()
}

type NotificationHandler struct {
	inbox   InboxView
	refresh RefreshTrigger
}

func NewNotificationHandler(inbox InboxView, refresh RefreshTrigger) *NotificationHandler {
	return &NotificationHandler{inbox: inbox, refresh: refresh}
}

// List returns the navbar notifications, mounting the view on first use.
//
// @Summary      Navbar notifications
// @Tags         notifications
// @Produce      json
// @Success      200  {object}  feedResponse
// @Failure      401  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /v1/notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	if _, err := ctxSession(c); err != nil {
		return err
	}
	if !h.inbox.Mounted() {
		if err := h.inbox.Mount(c.Request().Context()); err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, toFeedResponse(h.inbox.Snapshot()))
}

// Reload fetches the notifications again from the backend.
//
// @Summary      Reload notifications
// @Tags         notifications
// @Produce      json
// @Success      200  {object}  feedResponse
// @Failure      401  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /v1/notifications/reload [post]
func (h *NotificationHandler) Reload(c echo.Context) error {
	if _, err := ctxSession(c); err != nil {
		return err
	}
	if err := h.inbox.Reload(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toFeedResponse(h.inbox.Snapshot()))
}

// Open marks every unread loaded notification read, as opening the dropdown
// does. Partial failures are reported per item with a 200.
//
// @Summary      Open the notification dropdown
// @Tags         notifications
// @Produce      json
// @Success      200  {object}  bulkReadResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/notifications/open [post]
func (h *NotificationHandler) Open(c echo.Context) error {
	if _, err := ctxSession(c); err != nil {
		return err
	}
	res, err := h.inbox.OpenDropdown(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBulkReadResponse(res, h.inbox.Snapshot()))
}

// MarkRead marks one notification read and refreshes the unread count.
//
// @Summary      Mark a notification read
// @Tags         notifications
// @Produce      json
// @Param        id   path      int  true  "Notification id"
// @Success      200  {object}  feedResponse
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /v1/notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	if _, err := ctxSession(c); err != nil {
		return err
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid notification id")
	}
	if err := h.inbox.MarkRead(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toFeedResponse(h.inbox.Snapshot()))
}

// Refresh asks every mounted view to reload, as staff pages do after they
// create or change notifications.
//
// @Summary      Broadcast a notification refresh
// @Tags         notifications
// @Produce      json
// @Success      202  {object}  acceptedResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/refresh [post]
func (h *NotificationHandler) Refresh(c echo.Context) error {
	h.refresh.Trigger()
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "refresh broadcast"})
}
