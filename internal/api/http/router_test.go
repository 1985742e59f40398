package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/forelandmarine/sea-time-tracker/internal/api/http/handlers"
	"github.com/forelandmarine/sea-time-tracker/internal/auth"
	"github.com/forelandmarine/sea-time-tracker/internal/config"
	"github.com/forelandmarine/sea-time-tracker/internal/domain"
	"github.com/forelandmarine/sea-time-tracker/internal/events"
	"github.com/forelandmarine/sea-time-tracker/internal/observability"
	"github.com/forelandmarine/sea-time-tracker/internal/service"
	"github.com/forelandmarine/sea-time-tracker/pkg/subscription"
)

const (
	activeUser = "a0000000-0000-4000-8000-000000000001"
	lapsedUser = "a0000000-0000-4000-8000-000000000002"
	lapsedShip = "b0000000-0000-4000-8000-000000000002"
)

type stubUsers struct{}

func (stubUsers) Create(context.Context, *domain.User) error { return nil }
func (stubUsers) GetByID(context.Context, string) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}
func (stubUsers) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}

type stubSubscriptions map[string]subscription.Record

func (s stubSubscriptions) GetSubscription(_ context.Context, userID string) (*subscription.Record, error) {
	rec, ok := s[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &rec, nil
}

type stubVessels struct {
	vessels map[string]*domain.Vessel
}

func (s *stubVessels) Create(_ context.Context, v *domain.Vessel) error {
	v.ID = "c0000000-0000-4000-8000-000000000001"
	s.vessels[v.ID] = v
	return nil
}

func (s *stubVessels) GetByID(_ context.Context, id string) (*domain.Vessel, error) {
	v, ok := s.vessels[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *v
	return &cp, nil
}

func (s *stubVessels) ListByUser(_ context.Context, userID string) ([]domain.Vessel, error) {
	var out []domain.Vessel
	for _, v := range s.vessels {
		if v.UserID == userID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (s *stubVessels) SetTracking(_ context.Context, id string, active bool) error {
	s.vessels[id].IsActive = active
	return nil
}

func (s *stubVessels) DeactivateTrackingForUser(context.Context, string) (int64, error) {
	return 0, nil
}

func (s *stubVessels) ListUsersWithActiveTracking(context.Context) ([]string, error) {
	return nil, nil
}

type stubEntries struct{}

func (stubEntries) Create(_ context.Context, e *domain.SeaTimeEntry) error {
	e.ID = "d0000000-0000-4000-8000-000000000001"
	return nil
}

func (stubEntries) ListByUser(context.Context, string, int, int) ([]domain.SeaTimeEntry, error) {
	return nil, nil
}

func newRouterApp(t *testing.T) (*fiber.App, *service.AuthService) {
	t.Helper()
	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-24 * time.Hour)
	subs := stubSubscriptions{
		activeUser: {Status: "active", ExpiresAt: &future},
		lapsedUser: {Status: "active", ExpiresAt: &past},
	}
	vessels := &stubVessels{vessels: map[string]*domain.Vessel{
		lapsedShip: {ID: lapsedShip, UserID: lapsedUser, Name: "MV Lapsed", IsActive: true},
	}}

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(config.AuthConfig{JWTSecret: "router-test", BcryptCost: 4}, stubUsers{})
	vesselService := service.NewVesselService(vessels)

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:           handlers.NewHealthHandler("seatime-api", "test", nil, nil),
		Metrics:          handlers.NewMetricsHandler(metrics),
		Users:            handlers.NewUsersHandler(authService),
		Subscription:     handlers.NewSubscriptionHandler(service.NewSubscriptionService(subs, vessels, dispatcher, logger)),
		Vessels:          handlers.NewVesselsHandler(vesselService),
		SeaTime:          handlers.NewSeaTimeHandler(service.NewSeaTimeService(stubEntries{}, vesselService)),
		AuthMiddleware:   auth.NewAuthMiddleware(authService.TokenManager()),
		SubscriptionGate: auth.NewSubscriptionGate(subs, logger, auth.WithGateMetrics(metrics)),
	})
	return app, authService
}

func call(t *testing.T, app *fiber.App, token, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func TestRoutes_SubscriptionGating(t *testing.T) {
	app, authService := newRouterApp(t)
	tokenFor := func(userID string) string {
		tok, _, err := authService.TokenManager().GenerateToken(userID)
		if err != nil {
			t.Fatal(err)
		}
		return tok
	}
	active, lapsed, ghost := tokenFor(activeUser), tokenFor(lapsedUser), tokenFor("a0000000-0000-4000-8000-00000000dead")

	entry := `{"vessel_id":"` + lapsedShip + `","start_time":"2026-01-01T00:00:00Z"}`

	tests := []struct {
		name       string
		token      string
		method     string
		path       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"anonymous write", "", http.MethodPost, "/api/sea-time", entry, http.StatusUnauthorized, "Authentication required"},
		{"anonymous read", "", http.MethodGet, "/api/sea-time", "", http.StatusUnauthorized, "Authentication required"},
		{"unknown user write", ghost, http.MethodPost, "/api/vessels", `{"name":"MV X"}`, http.StatusUnauthorized, "User not found"},
		{"unknown user status", ghost, http.MethodGet, "/api/subscription/status", "", http.StatusUnauthorized, "User not found"},
		{"lapsed write", lapsed, http.MethodPost, "/api/sea-time", entry, http.StatusForbidden, "Active subscription required"},
		{"lapsed create vessel", lapsed, http.MethodPost, "/api/vessels", `{"name":"MV X"}`, http.StatusForbidden, "Active subscription required"},
		{"lapsed start tracking", lapsed, http.MethodPost, "/api/vessels/" + lapsedShip + "/track?active=true", "", http.StatusForbidden, "Active subscription required"},
		{"lapsed stop tracking", lapsed, http.MethodPost, "/api/vessels/" + lapsedShip + "/track?active=false", "", http.StatusOK, ""},
		{"lapsed read", lapsed, http.MethodGet, "/api/vessels", "", http.StatusOK, ""},
		{"lapsed pause tracking", lapsed, http.MethodPost, "/api/subscription/pause-tracking", "", http.StatusOK, ""},
		{"active create vessel", active, http.MethodPost, "/api/vessels", `{"name":"MV Active"}`, http.StatusCreated, ""},
		{"active foreign vessel entry", active, http.MethodPost, "/api/sea-time", entry, http.StatusNotFound, "vessel not found"},
		{"bad token", "garbage", http.MethodGet, "/api/vessels", "", http.StatusUnauthorized, "invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := call(t, app, tt.token, tt.method, tt.path, tt.body)
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %v)", status, tt.wantStatus, body)
			}
			if tt.wantError != "" && body["error"] != tt.wantError {
				t.Errorf("error = %v, want %q", body["error"], tt.wantError)
			}
		})
	}
}

func TestRoutes_SubscriptionStatus(t *testing.T) {
	app, authService := newRouterApp(t)
	tok, _, err := authService.TokenManager().GenerateToken(lapsedUser)
	if err != nil {
		t.Fatal(err)
	}

	status, body := call(t, app, tok, http.MethodGet, "/api/subscription/status", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["status"] != "inactive" || body["rawStatus"] != "active" || body["isActive"] != false {
		t.Errorf("body = %v", body)
	}
	if _, ok := body["expiresAt"].(string); !ok {
		t.Errorf("expiresAt = %v, want timestamp", body["expiresAt"])
	}
}
