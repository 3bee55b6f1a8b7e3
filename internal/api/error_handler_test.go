package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantCode     int
		wantRedirect string
	}{
		{"no session", domain.ErrNoSession, http.StatusUnauthorized, "/login"},
		{"missing token", fmt.Errorf("load: %w", domain.MissingToken("x")), http.StatusUnauthorized, "/login"},
		{"backend 401", &domain.NotificationError{Op: "notifications.list", Kind: domain.KindUnauthorized, Status: 401, Err: domain.ErrUnauthorized}, http.StatusUnauthorized, "/login"},
		{"bad credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, ""},
		{"echo 401", echo.NewHTTPError(http.StatusUnauthorized, "not logged in"), http.StatusUnauthorized, "/login"},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, ""},
		{"backend status", &domain.NotificationError{Op: "notifications.list", Kind: domain.KindStatus, Status: 500, Err: errors.New("x")}, http.StatusBadGateway, ""},
		{"backend down", &domain.NotificationError{Op: "notifications.list", Kind: domain.KindTransport, Err: errors.New("refused")}, http.StatusServiceUnavailable, ""},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			NewHTTPErrorHandler(zerolog.Nop())(tc.err, c)

			if rec.Code != tc.wantCode {
				t.Fatalf("code = %d, want %d", rec.Code, tc.wantCode)
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Error == "" || resp.Redirect != tc.wantRedirect {
				t.Fatalf("unexpected envelope: %+v", resp)
			}
		})
	}
}
