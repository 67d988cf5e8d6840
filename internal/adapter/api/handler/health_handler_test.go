package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("root banner", func(t *testing.T) {
		h := NewHealthHandler("alert-triage", "1.2.0", nil, logger)
		rr := httptest.NewRecorder()
		h.Root(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		var body map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if body["ok"] != true || body["service"] != "alert-triage" || body["version"] != "1.2.0" {
			t.Errorf("unexpected banner: %v", body)
		}
	})

	t.Run("ready without checks", func(t *testing.T) {
		h := NewHealthHandler("alert-triage", "dev", nil, logger)
		rr := httptest.NewRecorder()
		h.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rr.Code)
		}
		if got := rr.Body.String(); got != `{"status":"ready"}` {
			t.Errorf("body = %s", got)
		}
	})

	t.Run("failing check makes service unready", func(t *testing.T) {
		checks := map[string]ReadinessCheck{
			"postgres": func(ctx context.Context) error { return nil },
			"redis":    func(ctx context.Context) error { return errors.New("connection refused") },
		}
		h := NewHealthHandler("alert-triage", "dev", checks, logger)
		rr := httptest.NewRecorder()
		h.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rr.Code)
		}
		var body struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if body.Status != "not_ready" || body.Checks["postgres"] != "ok" || body.Checks["redis"] != "connection refused" {
			t.Errorf("unexpected body: %+v", body)
		}
	})

	t.Run("liveness ignores checks", func(t *testing.T) {
		checks := map[string]ReadinessCheck{"redis": func(ctx context.Context) error { return errors.New("down") }}
		h := NewHealthHandler("alert-triage", "dev", checks, logger)
		rr := httptest.NewRecorder()
		h.Healthz(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rr.Code)
		}
	})
}
