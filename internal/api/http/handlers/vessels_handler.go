package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/forelandmarine/sea-time-tracker/internal/api/dto"
	"github.com/forelandmarine/sea-time-tracker/internal/auth"
	"github.com/forelandmarine/sea-time-tracker/internal/domain"
	"github.com/forelandmarine/sea-time-tracker/internal/service"
	apperrors "github.com/forelandmarine/sea-time-tracker/pkg/util/errorutil"
)

// VesselsHandler manages vessel endpoints.
type VesselsHandler struct {
	service *service.VesselService
}

// NewVesselsHandler constructs handler.
func NewVesselsHandler(vesselService *service.VesselService) *VesselsHandler {
	return &VesselsHandler{service: vesselService}
}

// CreateVessel POST /api/vessels.
func (h *VesselsHandler) CreateVessel(c *fiber.Ctx) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return apperrors.NewAuthenticationRequired()
	}
	var req dto.CreateVesselRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	vessel, err := h.service.CreateVessel(c.UserContext(), userID, req.Name, req.MMSI)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": vesselResponse(vessel)})
}

// ListVessels GET /api/vessels.
func (h *VesselsHandler) ListVessels(c *fiber.Ctx) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return apperrors.NewAuthenticationRequired()
	}
	vessels, err := h.service.ListVessels(c.UserContext(), userID)
	if err != nil {
		return err
	}
	items := make([]dto.VesselResponse, 0, len(vessels))
	for i := range vessels {
		items = append(items, vesselResponse(&vessels[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SetTracking POST /api/vessels/:id/track?active=true|false.
func (h *VesselsHandler) SetTracking(c *fiber.Ctx) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return apperrors.NewAuthenticationRequired()
	}
	active, err := trackingFlag(c)
	if err != nil {
		return err
	}
	vessel, err := h.service.SetTracking(c.UserContext(), userID, c.Params("id"), active)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": vesselResponse(vessel)})
}

// ActivatingTracking reports whether the request switches tracking on.
// Only activation needs an active subscription.
func ActivatingTracking(c *fiber.Ctx) bool {
	active, err := trackingFlag(c)
	return err == nil && active
}

func trackingFlag(c *fiber.Ctx) (bool, error) {
	raw := c.Query("active", "true")
	active, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperrors.NewValidationError("active must be true or false", map[string]any{"active": raw})
	}
	return active, nil
}

func vesselResponse(v *domain.Vessel) dto.VesselResponse {
	return dto.VesselResponse{
		ID:        v.ID,
		Name:      v.Name,
		MMSI:      v.MMSI,
		IsActive:  v.IsActive,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}
