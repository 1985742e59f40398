package dto

import "time"

// CreateSeaTimeRequest payload.
type CreateSeaTimeRequest struct {
	VesselID  string     `json:"vessel_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Notes     *string    `json:"notes"`
}

// SeaTimeResponse describes a logged entry.
type SeaTimeResponse struct {
	ID              string     `json:"id"`
	VesselID        string     `json:"vessel_id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationMinutes int64      `json:"duration_minutes"`
	Notes           *string    `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
