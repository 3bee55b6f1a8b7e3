// Package restapi is the HTTP client of the school health backend.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
	"github.com/schoolhealth/notification-sync/internal/pkg/metrics"
)

const (
	defaultTimeout      = 10 * time.Second
	maxErrorBodyBytes   = 512
	breakerOpenDuration = 5 * time.Second
	breakerTripFailures = 5
)

type Client struct {
	baseURL string
	http    *http.Client
	routes  map[domain.Role]RoleRoute
	cb      *gobreaker.CircuitBreaker[*http.Response]
	tracer  trace.Tracer
	log     zerolog.Logger

	hookMu         sync.RWMutex
	onUnauthorized func(ctx context.Context)
}

type Option func(*Client)

// WithRoutes replaces DefaultRoutes.
func WithRoutes(routes map[domain.Role]RoleRoute) Option {
	return func(c *Client) { c.routes = routes }
}

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a Client for the backend rooted at baseURL. timeout
// bounds every request; <= 0 uses 10s.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		routes:  DefaultRoutes,
		tracer:  otel.Tracer("github.com/schoolhealth/notification-sync/restapi"),
		log:     log.With().Str("component", "restapi").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.cb = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "backend",
		MaxRequests: 1,
		Timeout:     breakerOpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return c
}

// OnUnauthorized sets the hook run whenever an authenticated request is
// answered with 401.
func (c *Client) OnUnauthorized(fn func(ctx context.Context)) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.onUnauthorized = fn
}

func (c *Client) unauthorized(ctx context.Context) {
	c.hookMu.RLock()
	fn := c.onUnauthorized
	c.hookMu.RUnlock()
	if fn != nil {
		fn(ctx)
	}
}

// doJSON issues one request and decodes a JSON response body into out
// (skipped when out is nil). token, when set, is sent as a bearer token.
// Failures come back as *domain.NotificationError.
func (c *Client) doJSON(ctx context.Context, op, method, path, token string, body, out any) error {
	ctx, span := c.tracer.Start(ctx, "restapi."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("http.method", method), attribute.String("http.route", path))

	fail := func(kind domain.ErrorKind, status int, err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return &domain.NotificationError{Op: op, Kind: kind, Status: status, Err: err}
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fail(domain.KindTransport, 0, fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fail(domain.KindTransport, 0, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.cb.Execute(func() (*http.Response, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			// Counted as a breaker failure, still handed back for mapping.
			return resp, errServerStatus
		}
		return resp, nil
	})
	if err != nil && !errors.Is(err, errServerStatus) {
		metrics.APIRequestDuration.WithLabelValues(op, "error").Observe(time.Since(start).Seconds())
		return fail(domain.KindTransport, 0, err)
	}
	defer resp.Body.Close()

	metrics.APIRequestDuration.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		_, _ = io.Copy(io.Discard, resp.Body)
		if token != "" {
			c.log.Warn().Str("op", op).Msg("backend rejected token")
			c.unauthorized(ctx)
		}
		return fail(domain.KindUnauthorized, resp.StatusCode, domain.ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return fail(domain.KindStatus, resp.StatusCode, fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(snippet))))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		span.SetStatus(codes.Ok, "")
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fail(domain.KindDecode, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

var errServerStatus = errors.New("server error status")
