package service

import (
	"context"
	"strings"
	"time"

	"github.com/forelandmarine/sea-time-tracker/internal/domain"
	"github.com/forelandmarine/sea-time-tracker/internal/repository"
	apperrors "github.com/forelandmarine/sea-time-tracker/pkg/util/errorutil"
)

// SeaTimeCreateInput carries the fields for a new entry.
type SeaTimeCreateInput struct {
	VesselID  string
	StartTime time.Time
	EndTime   *time.Time
	Notes     *string
}

// SeaTimeService records and lists sea-time entries.
type SeaTimeService struct {
	repo    repository.SeaTimeRepository
	vessels *VesselService
}

// NewSeaTimeService creates the service.
func NewSeaTimeService(repo repository.SeaTimeRepository, vessels *VesselService) *SeaTimeService {
	return &SeaTimeService{repo: repo, vessels: vessels}
}

// LogEntry records a period aboard one of the user's vessels.
func (s *SeaTimeService) LogEntry(ctx context.Context, userID string, input SeaTimeCreateInput) (*domain.SeaTimeEntry, error) {
	if input.VesselID == "" {
		return nil, apperrors.NewValidationError("vessel_id required", nil)
	}
	if input.StartTime.IsZero() {
		return nil, apperrors.NewValidationError("start_time required", nil)
	}
	if input.EndTime != nil && input.EndTime.Before(input.StartTime) {
		return nil, apperrors.NewValidationError("end_time must not precede start_time", map[string]any{
			"start_time": input.StartTime,
			"end_time":   *input.EndTime,
		})
	}
	if _, err := s.vessels.ownedVessel(ctx, userID, input.VesselID); err != nil {
		return nil, err
	}

	entry := &domain.SeaTimeEntry{
		UserID:    userID,
		VesselID:  input.VesselID,
		StartTime: input.StartTime.UTC(),
		EndTime:   input.EndTime,
	}
	if input.Notes != nil {
		if notes := strings.TrimSpace(*input.Notes); notes != "" {
			entry.Notes = &notes
		}
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// ListEntries returns the user's entries, newest first.
func (s *SeaTimeService) ListEntries(ctx context.Context, userID string, limit, offset int) ([]domain.SeaTimeEntry, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}
