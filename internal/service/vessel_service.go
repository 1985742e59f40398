package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/forelandmarine/sea-time-tracker/internal/domain"
	"github.com/forelandmarine/sea-time-tracker/internal/repository"
	apperrors "github.com/forelandmarine/sea-time-tracker/pkg/util/errorutil"
)

// VesselService manages a mariner's vessels.
type VesselService struct {
	vessels repository.VesselRepository
}

// NewVesselService creates the service.
func NewVesselService(vessels repository.VesselRepository) *VesselService {
	return &VesselService{vessels: vessels}
}

// CreateVessel registers a vessel for the user. Tracking starts switched off.
func (s *VesselService) CreateVessel(ctx context.Context, userID, name string, mmsi *string) (*domain.Vessel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	if mmsi != nil {
		trimmed := strings.TrimSpace(*mmsi)
		if !validMMSI(trimmed) {
			return nil, apperrors.NewValidationError("mmsi must be 9 digits", map[string]any{"mmsi": *mmsi})
		}
		mmsi = &trimmed
	}

	vessel := &domain.Vessel{UserID: userID, Name: name, MMSI: mmsi}
	if err := s.vessels.Create(ctx, vessel); err != nil {
		return nil, err
	}
	return vessel, nil
}

// ListVessels returns the user's vessels, newest first.
func (s *VesselService) ListVessels(ctx context.Context, userID string) ([]domain.Vessel, error) {
	return s.vessels.ListByUser(ctx, userID)
}

// SetTracking switches movement tracking for one of the user's vessels.
func (s *VesselService) SetTracking(ctx context.Context, userID, vesselID string, active bool) (*domain.Vessel, error) {
	vessel, err := s.ownedVessel(ctx, userID, vesselID)
	if err != nil {
		return nil, err
	}
	if vessel.IsActive == active {
		return vessel, nil
	}
	if err := s.vessels.SetTracking(ctx, vessel.ID, active); err != nil {
		return nil, err
	}
	vessel.IsActive = active
	return vessel, nil
}

func (s *VesselService) ownedVessel(ctx context.Context, userID, vesselID string) (*domain.Vessel, error) {
	if _, err := uuid.Parse(vesselID); err != nil {
		return nil, apperrors.NewNotFound("vessel", map[string]any{"id": vesselID})
	}
	vessel, err := s.vessels.GetByID(ctx, vesselID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("vessel", map[string]any{"id": vesselID})
		}
		return nil, err
	}
	if vessel.UserID != userID {
		return nil, apperrors.NewNotFound("vessel", map[string]any{"id": vesselID})
	}
	return vessel, nil
}

func validMMSI(s string) bool {
	if len(s) != 9 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
