package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/forelandmarine/sea-time-tracker/internal/events"
	"github.com/forelandmarine/sea-time-tracker/internal/observability"
	"github.com/forelandmarine/sea-time-tracker/pkg/subscription"
	apperrors "github.com/forelandmarine/sea-time-tracker/pkg/util/errorutil"
)

var gateNow = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

type fakeReader struct {
	records map[string]subscription.Record
	err     error
	panics  bool
}

func (f *fakeReader) GetSubscription(_ context.Context, userID string) (*subscription.Record, error) {
	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		return nil, f.err
	}
	rec, ok := f.records[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &rec, nil
}

// newGateApp mounts the gate behind a header-driven identity stub and a
// minimal error renderer so the wire bodies can be asserted.
func newGateApp(t *testing.T, reader *fakeReader, opts ...GateOption) (*fiber.App, *bool) {
	t.Helper()
	reached := new(bool)
	opts = append([]GateOption{WithGateClock(func() time.Time { return gateNow })}, opts...)
	gate := NewSubscriptionGate(reader, nil, opts...)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": de.Message, "code": de.Code})
		},
	})
	app.Use(func(c *fiber.Ctx) error {
		if id := c.Get("X-Test-User"); id != "" {
			SetUserID(c, id)
		}
		return c.Next()
	})
	app.Post("/api/sea-time", gate.Handle, func(c *fiber.Ctx) error {
		*reached = true
		status, _, ok := SubscriptionFromContext(c)
		if !ok {
			t.Error("gate should attach subscription fields before forwarding")
		}
		return c.SendString(string(status))
	})
	return app, reached
}

func doGate(t *testing.T, app *fiber.App, userID string) (int, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/sea-time", nil)
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	body := map[string]string{}
	_ = json.Unmarshal(raw, &body)
	return resp.StatusCode, body
}

func TestSubscriptionGate(t *testing.T) {
	future := gateNow.Add(24 * time.Hour)
	past := gateNow.Add(-time.Hour)
	trialPast := gateNow.Add(-72 * time.Hour)

	reader := &fakeReader{records: map[string]subscription.Record{
		"active":        {Status: "active", ExpiresAt: &future},
		"active-open":   {Status: "active"},
		"lapsed":        {Status: "active", ExpiresAt: &past},
		"inactive":      {Status: "inactive"},
		"unset":         {},
		"expired":       {Status: "expired", ExpiresAt: &future},
		"trial":         {Status: "trial", TrialEndsAt: &trialPast},
		"trial-expired": {Status: "trial", ExpiresAt: &past},
	}}

	tests := []struct {
		name       string
		userID     string
		wantStatus int
		wantError  string
		wantCode   string
	}{
		{"no identifier", "", http.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED"},
		{"unknown user", "ghost", http.StatusUnauthorized, "User not found", "USER_NOT_FOUND"},
		{"inactive", "inactive", http.StatusForbidden, "Active subscription required", "SUBSCRIPTION_REQUIRED"},
		{"unset status", "unset", http.StatusForbidden, "Active subscription required", "SUBSCRIPTION_REQUIRED"},
		{"expired", "expired", http.StatusForbidden, "Active subscription required", "SUBSCRIPTION_REQUIRED"},
		{"active past expiry", "lapsed", http.StatusForbidden, "Active subscription required", "SUBSCRIPTION_REQUIRED"},
		{"trial past expiry", "trial-expired", http.StatusForbidden, "Active subscription required", "SUBSCRIPTION_REQUIRED"},
		{"active future expiry", "active", http.StatusOK, "", ""},
		{"active without expiry", "active-open", http.StatusOK, "", ""},
		{"trial ignores trial end", "trial", http.StatusOK, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, reached := newGateApp(t, reader)
			status, body := doGate(t, app, tt.userID)
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d", status, tt.wantStatus)
			}
			if tt.wantError == "" {
				if !*reached {
					t.Error("handler was not invoked")
				}
				return
			}
			if *reached {
				t.Error("handler must not run when the gate rejects")
			}
			if body["error"] != tt.wantError || body["code"] != tt.wantCode {
				t.Errorf("body = %v, want error %q code %q", body, tt.wantError, tt.wantCode)
			}
		})
	}
}

func TestSubscriptionGate_StorageFailure(t *testing.T) {
	for name, reader := range map[string]*fakeReader{
		"error": {err: errors.New("connection refused")},
		"panic": {panics: true},
	} {
		t.Run(name, func(t *testing.T) {
			metrics := observability.NewMetrics()
			app, reached := newGateApp(t, reader, WithGateMetrics(metrics))
			status, body := doGate(t, app, "u1")
			if status != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", status)
			}
			if body["error"] != "Failed to verify subscription" {
				t.Errorf("error = %q", body["error"])
			}
			if *reached {
				t.Error("handler must not run on internal failure")
			}
			if got := metrics.Snapshot().Decisions["failed"]; got != 1 {
				t.Errorf("failed decisions = %d, want 1", got)
			}
		})
	}
}

func TestSubscriptionGate_PublishesDenial(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	var got []events.Event
	dispatcher.Subscribe(events.EventSubscriptionDenied, func(_ context.Context, e events.Event) error {
		got = append(got, e)
		return errors.New("listener failures are ignored")
	})

	reader := &fakeReader{records: map[string]subscription.Record{"u1": {Status: "expired"}}}
	app, _ := newGateApp(t, reader, WithGateEvents(dispatcher))

	if status, _ := doGate(t, app, "u1"); status != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", status)
	}
	if len(got) != 1 {
		t.Fatalf("published %d events, want 1", len(got))
	}
	payload, ok := got[0].Payload.(events.SubscriptionDeniedPayload)
	if !ok || payload.RawStatus != "expired" || payload.Path != "/api/sea-time" || got[0].UserID != "u1" {
		t.Errorf("unexpected event %+v", got[0])
	}
}
