package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/forelandmarine/sea-time-tracker/internal/observability"
	apperrors "github.com/forelandmarine/sea-time-tracker/pkg/util/errorutil"
)

func newTestApp(metrics *observability.Metrics) *fiber.App {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	app.Get("/forbidden", func(c *fiber.Ctx) error { return apperrors.NewSubscriptionRequired() })
	app.Get("/missing-row", func(c *fiber.Ctx) error { return pgx.ErrNoRows })
	app.Get("/boom", func(c *fiber.Ctx) error { panic("kaboom") })
	app.Get("/opaque", func(c *fiber.Ctx) error { return errors.New("disk full") })
	app.Get("/validation", func(c *fiber.Ctx) error {
		return apperrors.NewValidationError("bad input", map[string]any{"field": "name"})
	})
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func TestErrorHandlingMiddleware(t *testing.T) {
	tests := []struct {
		path       string
		wantStatus int
		wantError  string
		wantCode   string
	}{
		{"/forbidden", http.StatusForbidden, "Active subscription required", "SUBSCRIPTION_REQUIRED"},
		{"/missing-row", http.StatusNotFound, "resource not found", "NOT_FOUND"},
		{"/boom", http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR"},
		{"/opaque", http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR"},
		{"/validation", http.StatusBadRequest, "bad input", "VALIDATION_FAILED"},
		{"/no-such-route", http.StatusNotFound, "Cannot GET /no-such-route", "NOT_FOUND"},
	}

	metrics := observability.NewMetrics()
	app := newTestApp(metrics)
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			raw, _ := io.ReadAll(resp.Body)
			var body map[string]any
			if err := json.Unmarshal(raw, &body); err != nil {
				t.Fatalf("decode %s: %v", raw, err)
			}
			if body["error"] != tt.wantError || body["code"] != tt.wantCode {
				t.Errorf("body = %v", body)
			}
			if resp.Header.Get(observability.RequestIDHeader) == "" {
				t.Error("missing request id header")
			}
		})
	}

	if got := metrics.Snapshot().Errors["/forbidden|GET|SUBSCRIPTION_REQUIRED"]; got != 1 {
		t.Errorf("error counter = %d, want 1", got)
	}
}

func TestRequestLoggerRecordsFinalStatus(t *testing.T) {
	metrics := observability.NewMetrics()
	app := newTestApp(metrics)

	for _, path := range []string{"/ok", "/forbidden"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
	}

	snap := metrics.Snapshot()
	if snap.Requests["/ok|GET|200"] != 1 || snap.Requests["/forbidden|GET|403"] != 1 {
		t.Errorf("requests = %v", snap.Requests)
	}
}
