package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/forelandmarine/sea-time-tracker/pkg/util/errorutil"
)

func newAuthApp(tokens *TokenManager) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Code)
		},
	})
	app.Use(NewAuthMiddleware(tokens).Handle)
	app.Get("/open", func(c *fiber.Ctx) error {
		id, _ := UserIDFromContext(c)
		return c.SendString("user=" + id)
	})
	app.Get("/me", RequireUser(), func(c *fiber.Ctx) error {
		id, _ := UserIDFromContext(c)
		return c.SendString(id)
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	tokens := NewTokenManager("test-secret", 5)
	token, _, err := tokens.GenerateToken("user-42")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	foreign, _, err := NewTokenManager("other-secret", 5).GenerateToken("user-42")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
	}{
		{"anonymous passes open route", "/open", "", http.StatusOK},
		{"anonymous rejected on protected route", "/me", "", http.StatusUnauthorized},
		{"valid token", "/me", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "/me", "bearer " + token, http.StatusOK},
		{"wrong scheme", "/open", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"foreign signature", "/open", "Bearer " + foreign, http.StatusUnauthorized},
		{"garbage token", "/me", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}

	app := newAuthApp(tokens)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := ComparePassword(hash, "correct horse"); err != nil {
		t.Errorf("ComparePassword rejected the right password: %v", err)
	}
	if err := ComparePassword(hash, "battery staple"); err == nil {
		t.Error("ComparePassword accepted the wrong password")
	}
}
