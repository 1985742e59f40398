package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/forelandmarine/sea-time-tracker/internal/api/dto"
	"github.com/forelandmarine/sea-time-tracker/internal/auth"
	"github.com/forelandmarine/sea-time-tracker/internal/domain"
	"github.com/forelandmarine/sea-time-tracker/internal/service"
	apperrors "github.com/forelandmarine/sea-time-tracker/pkg/util/errorutil"
)

// SeaTimeHandler manages sea-time entry endpoints.
type SeaTimeHandler struct {
	service *service.SeaTimeService
}

// NewSeaTimeHandler constructs handler.
func NewSeaTimeHandler(seaTimeService *service.SeaTimeService) *SeaTimeHandler {
	return &SeaTimeHandler{service: seaTimeService}
}

// CreateEntry POST /api/sea-time.
func (h *SeaTimeHandler) CreateEntry(c *fiber.Ctx) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return apperrors.NewAuthenticationRequired()
	}
	var req dto.CreateSeaTimeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	entry, err := h.service.LogEntry(c.UserContext(), userID, service.SeaTimeCreateInput{
		VesselID:  req.VesselID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Notes:     req.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": seaTimeResponse(entry)})
}

// ListEntries GET /api/sea-time.
func (h *SeaTimeHandler) ListEntries(c *fiber.Ctx) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return apperrors.NewAuthenticationRequired()
	}
	entries, err := h.service.ListEntries(c.UserContext(), userID, c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	items := make([]dto.SeaTimeResponse, 0, len(entries))
	for i := range entries {
		items = append(items, seaTimeResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func seaTimeResponse(e *domain.SeaTimeEntry) dto.SeaTimeResponse {
	return dto.SeaTimeResponse{
		ID:              e.ID,
		VesselID:        e.VesselID,
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
		DurationMinutes: int64(e.Duration().Minutes()),
		Notes:           e.Notes,
		CreatedAt:       e.CreatedAt,
	}
}
