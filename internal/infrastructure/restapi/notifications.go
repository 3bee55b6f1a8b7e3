package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
	"github.com/schoolhealth/notification-sync/internal/core/ports"
)

// For returns the notification API routed for role. Unknown roles get the
// parent route.
func (c *Client) For(role domain.Role) ports.NotificationAPI {
	route, ok := c.routes[role]
	if !ok {
		route = c.routes[domain.RoleParent]
	}
	return &roleAPI{client: c, role: role, route: route}
}

type roleAPI struct {
	client *Client
	role   domain.Role
	route  RoleRoute
}

func (a *roleAPI) GetAllNotifications(ctx context.Context, token string, limit int) ([]domain.Notification, error) {
	const op = "notifications.list"
	if token == "" {
		return nil, domain.MissingToken(op)
	}
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := a.route.BasePath
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var raw json.RawMessage
	if err := a.client.doJSON(ctx, op, http.MethodGet, path, token, nil, &raw); err != nil {
		return nil, err
	}
	items, err := decodeList(raw)
	if err != nil {
		return nil, &domain.NotificationError{Op: op, Kind: domain.KindDecode, Err: err}
	}
	// Some backends ignore the limit parameter.
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (a *roleAPI) GetUnreadNotifications(ctx context.Context, token string) ([]domain.Notification, error) {
	const op = "notifications.unread"
	if token == "" {
		return nil, domain.MissingToken(op)
	}
	var raw json.RawMessage
	if err := a.client.doJSON(ctx, op, http.MethodGet, a.route.BasePath+"/unread", token, nil, &raw); err != nil {
		return nil, err
	}
	items, err := decodeList(raw)
	if err != nil {
		return nil, &domain.NotificationError{Op: op, Kind: domain.KindDecode, Err: err}
	}
	return items, nil
}

func (a *roleAPI) MarkNotificationAsRead(ctx context.Context, id int64, token string) error {
	const op = "notifications.mark_read"
	if token == "" {
		return domain.MissingToken(op)
	}
	path := fmt.Sprintf("%s/%d/read", a.route.BasePath, id)
	return a.client.doJSON(ctx, op, a.route.markMethod(), path, token, nil, nil)
}

// decodeList accepts a bare JSON array, an empty body, or an envelope
// carrying the array under data, content or notifications.
func decodeList(raw json.RawMessage) ([]domain.Notification, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []domain.Notification{}, nil
	}
	if raw[0] == '[' {
		var items []domain.Notification
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode notifications: %w", err)
		}
		return items, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	for _, key := range []string{"data", "content", "notifications"} {
		if inner, ok := envelope[key]; ok {
			return decodeList(inner)
		}
	}
	return nil, fmt.Errorf("decode notifications: no list in response object")
}
