// Package realtime keeps the WebSocket connection notifications are pushed
// over and fans every pushed notification out to the registered handlers.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
	"github.com/schoolhealth/notification-sync/internal/core/ports"
	"github.com/schoolhealth/notification-sync/internal/pkg/metrics"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	closeGracePeriod        = time.Second
)

// Channel is the shared realtime connection. One Channel serves every view;
// views attach and detach handlers while the socket stays open.
type Channel struct {
	url    string
	dialer *websocket.Dialer
	log    zerolog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	token  string
	cancel context.CancelFunc

	handlersMu sync.RWMutex
	order      []string
	handlers   map[string]ports.PushHandler
}

// NewChannel creates a disconnected Channel for the WebSocket endpoint at
// rawURL (ws:// or wss://).
func NewChannel(rawURL string, log zerolog.Logger) *Channel {
	return &Channel{
		url: rawURL,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: defaultHandshakeTimeout,
		},
		log:      log.With().Str("component", "realtime").Logger(),
		handlers: make(map[string]ports.PushHandler),
	}
}

// Connect opens the socket authenticated with token. It does nothing while a
// connection for the same token is live; a live connection for another token
// is closed first so pushes never reach the wrong user. A dropped connection
// is not re-dialled until the next Connect.
func (c *Channel) Connect(ctx context.Context, token string) error {
	if token == "" {
		return domain.MissingToken("realtime.connect")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		if c.token == token {
			return nil
		}
		c.log.Info().Msg("token changed, replacing realtime connection")
		if err := c.shutdownLocked(); err != nil {
			c.log.Warn().Err(err).Msg("failed to close previous realtime connection")
		}
	}

	target, err := c.endpoint(token)
	if err != nil {
		return err
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := c.dialer.DialContext(ctx, target, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return &domain.NotificationError{Op: "realtime.connect", Kind: domain.KindUnauthorized, Status: resp.StatusCode, Err: domain.ErrUnauthorized}
		}
		return &domain.NotificationError{Op: "realtime.connect", Kind: domain.KindTransport, Err: err}
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	c.conn = conn
	c.token = token
	c.cancel = cancel

	d := newDispatcher(c.dispatch, c.log)
	d.start(loopCtx)
	go c.readLoop(loopCtx, conn, d)

	metrics.RealtimeConnected.Set(1)
	c.log.Info().Str("url", c.url).Msg("realtime channel connected")
	return nil
}

func (c *Channel) endpoint(token string) (string, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return "", fmt.Errorf("parse realtime url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// IsConnected reports whether the socket is open.
func (c *Channel) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// AddHandler registers h under name, replacing any handler already there.
// A replaced handler keeps its position in the dispatch order.
func (c *Channel) AddHandler(name string, h ports.PushHandler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	if _, exists := c.handlers[name]; !exists {
		c.order = append(c.order, name)
	}
	c.handlers[name] = h
}

func (c *Channel) RemoveHandler(name string) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	if _, exists := c.handlers[name]; !exists {
		return
	}
	delete(c.handlers, name)
	for i, n := range c.order {
		if n == name {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
}

// Handlers returns the registered handler names in dispatch order.
func (c *Channel) Handlers() []string {
	c.handlersMu.RLock()
	defer c.handlersMu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Close shuts the socket down. Handlers stay registered. Closing a
// disconnected Channel is a no-op.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shutdownLocked()
}

// shutdownLocked must be called with mu held.
func (c *Channel) shutdownLocked() error {
	conn, cancel := c.conn, c.cancel
	c.conn, c.cancel, c.token = nil, nil, ""
	if conn == nil {
		return nil
	}
	cancel()
	metrics.RealtimeConnected.Set(0)

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
	if err := conn.Close(); err != nil {
		return fmt.Errorf("close realtime channel: %w", err)
	}
	c.log.Info().Msg("realtime channel closed")
	return nil
}

func (c *Channel) readLoop(ctx context.Context, conn *websocket.Conn, d *dispatcher) {
	defer c.dropped(conn)
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !errors.Is(err, net.ErrClosed) {
				c.log.Warn().Err(err).Msg("realtime channel dropped")
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var n domain.Notification
		if err := json.Unmarshal(data, &n); err != nil {
			c.log.Warn().Err(err).Int("bytes", len(data)).Msg("skipping undecodable realtime message")
			continue
		}
		metrics.PushReceivedTotal.Inc()
		if !d.enqueue(ctx, n) {
			return
		}
	}
}

// dropped forgets conn when the server closed it, so the next Connect dials
// again.
func (c *Channel) dropped(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != conn {
		return
	}
	c.cancel()
	_ = conn.Close()
	c.conn, c.cancel, c.token = nil, nil, ""
	metrics.RealtimeConnected.Set(0)
}

func (c *Channel) dispatch(n domain.Notification) {
	c.handlersMu.RLock()
	hs := make([]ports.PushHandler, 0, len(c.order))
	names := make([]string, 0, len(c.order))
	for _, name := range c.order {
		hs = append(hs, c.handlers[name])
		names = append(names, name)
	}
	c.handlersMu.RUnlock()

	for i, h := range hs {
		c.invoke(names[i], h, n)
	}
}

func (c *Channel) invoke(name string, h ports.PushHandler, n domain.Notification) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Str("handler", name).Msg("push handler panicked")
		}
	}()
	h(n)
}
