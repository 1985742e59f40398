package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/forelandmarine/sea-time-tracker/internal/api/dto"
	"github.com/forelandmarine/sea-time-tracker/internal/auth"
	"github.com/forelandmarine/sea-time-tracker/internal/events"
	"github.com/forelandmarine/sea-time-tracker/internal/service"
	"github.com/forelandmarine/sea-time-tracker/pkg/subscription"
	apperrors "github.com/forelandmarine/sea-time-tracker/pkg/util/errorutil"
)

// SubscriptionHandler serves subscription state to the app. These routes
// stay reachable for lapsed users.
type SubscriptionHandler struct {
	service *service.SubscriptionService
}

// NewSubscriptionHandler constructs handler.
func NewSubscriptionHandler(subscriptionService *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{service: subscriptionService}
}

// Status GET /api/subscription/status.
func (h *SubscriptionHandler) Status(c *fiber.Ctx) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return apperrors.NewAuthenticationRequired()
	}
	status, err := h.service.Status(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(dto.SubscriptionStatusResponse{
		Status:      string(status.Decision.EffectiveStatus),
		RawStatus:   string(subscription.Normalize(status.Record.Status)),
		IsActive:    status.Decision.IsActive,
		ExpiresAt:   status.Record.ExpiresAt,
		TrialEndsAt: status.Record.TrialEndsAt,
		CheckedAt:   status.Decision.EvaluatedAt.UTC(),
	})
}

// PauseTracking POST /api/subscription/pause-tracking.
func (h *SubscriptionHandler) PauseTracking(c *fiber.Ctx) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return apperrors.NewAuthenticationRequired()
	}
	paused, err := h.service.PauseTracking(c.UserContext(), userID, events.TrackingPausedByUser)
	if err != nil {
		return err
	}
	return c.JSON(dto.PauseTrackingResponse{Success: true, VesselsPaused: paused})
}
