package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/forelandmarine/sea-time-tracker/pkg/util/errorutil"
)

const userIDKey = "auth_user_id"

// AuthMiddleware resolves the caller's user id from a bearer token. A
// request without credentials passes through anonymously; RequireUser or
// the subscription gate reject it further down the chain.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle parses the Authorization header when present.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return c.Next()
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	SetUserID(c, claims.UserID)
	return c.Next()
}

// RequireUser rejects anonymous requests.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := UserIDFromContext(c); !ok {
			return apperrors.NewAuthenticationRequired()
		}
		return c.Next()
	}
}

// SetUserID records the authenticated user id on the request.
func SetUserID(c *fiber.Ctx, userID string) {
	c.Locals(userIDKey, userID)
}

// UserIDFromContext retrieves the authenticated user id.
func UserIDFromContext(c *fiber.Ctx) (string, bool) {
	id, ok := c.Locals(userIDKey).(string)
	return id, ok && id != ""
}
