package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

type healthBody struct {
	Status string            `json:"status"`
	Time   string            `json:"time"`
	Checks map[string]string `json:"checks"`
}

func TestHealth(t *testing.T) {
	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: refused") }

	tests := []struct {
		name       string
		checks     []Check
		wantCode   int
		wantStatus string
		wantChecks map[string]string // substring per dependency
	}{
		{name: "no dependencies", wantCode: http.StatusOK, wantStatus: "ok"},
		{
			name:       "all up",
			checks:     []Check{{Name: "mysql", Probe: up}, {Name: "redis", Probe: up}},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantChecks: map[string]string{"mysql": "ok", "redis": "ok"},
		},
		{
			name:       "redis down",
			checks:     []Check{{Name: "mysql", Probe: up}, {Name: "redis", Probe: down}},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
			wantChecks: map[string]string{"mysql": "ok", "redis": "refused"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rec := httptest.NewRecorder()
			start := time.Now().UTC()

			if err := NewHandler(tc.checks...).Health(e.NewContext(req, rec)); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantCode)
			}
			if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, echo.MIMEApplicationJSON) {
				t.Fatalf("content type = %q", ct)
			}

			var body healthBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v; raw=%s", err, rec.Body.String())
			}
			if body.Status != tc.wantStatus {
				t.Fatalf("status field = %q, want %q", body.Status, tc.wantStatus)
			}

			at, err := time.Parse(time.RFC3339Nano, body.Time)
			if err != nil || at.Location() != time.UTC {
				t.Fatalf("time %q is not RFC3339Nano UTC (err=%v)", body.Time, err)
			}
			if at.Before(start.Add(-2*time.Second)) || at.After(time.Now().UTC().Add(2*time.Second)) {
				t.Fatalf("stale time %v", at)
			}

			if len(body.Checks) != len(tc.wantChecks) {
				t.Fatalf("checks = %+v, want %d entries", body.Checks, len(tc.wantChecks))
			}
			for name, want := range tc.wantChecks {
				if !strings.Contains(body.Checks[name], want) {
					t.Fatalf("check %s = %q, want %q", name, body.Checks[name], want)
				}
			}
		})
	}
}
