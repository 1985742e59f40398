package dto

import "time"

// CreateVesselRequest payload.
type CreateVesselRequest struct {
	Name string  `json:"name"`
	MMSI *string `json:"mmsi"`
}

// VesselResponse describes a vessel.
type VesselResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	MMSI      *string   `json:"mmsi,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
