package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/forelandmarine/sea-time-tracker/internal/api/http/handlers"
	"github.com/forelandmarine/sea-time-tracker/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health           *handlers.HealthHandler
	Metrics          *handlers.MetricsHandler
	Users            *handlers.UsersHandler
	Subscription     *handlers.SubscriptionHandler
	Vessels          *handlers.VesselsHandler
	SeaTime          *handlers.SeaTimeHandler
	AuthMiddleware   *auth.AuthMiddleware
	SubscriptionGate *auth.SubscriptionGate
}

// RegisterRoutes wires HTTP routes. Creating records and switching tracking
// on pass through the subscription gate; reads stay open to lapsed users.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Get)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	gated := cfg.SubscriptionGate.Handle
	user := auth.RequireUser()

	api.Get("/subscription/status", user, cfg.Subscription.Status)
	api.Post("/subscription/pause-tracking", user, cfg.Subscription.PauseTracking)

	api.Get("/vessels", user, cfg.Vessels.ListVessels)
	api.Post("/vessels", gated, cfg.Vessels.CreateVessel)
	api.Post("/vessels/:id/track", user, gateWhen(handlers.ActivatingTracking, gated), cfg.Vessels.SetTracking)

	api.Get("/sea-time", user, cfg.SeaTime.ListEntries)
	api.Post("/sea-time", gated, cfg.SeaTime.CreateEntry)
}

// gateWhen applies gate only to requests matching cond.
func gateWhen(cond func(*fiber.Ctx) bool, gate fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cond(c) {
			return gate(c)
		}
		return c.Next()
	}
}
