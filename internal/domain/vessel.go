package domain

import "time"

// Vessel is a ship a mariner serves on. While IsActive is set the app
// records the vessel's movement for sea-time calculation.
type Vessel struct {
	ID        string
	UserID    string
	Name      string
	MMSI      *string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
