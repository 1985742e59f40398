package domain

import "time"

// SeaTimeEntry is one logged period aboard a vessel.
type SeaTimeEntry struct {
	ID        string
	UserID    string
	VesselID  string
	StartTime time.Time
	EndTime   *time.Time
	Notes     *string
	CreatedAt time.Time
}

// Duration returns the logged time, or zero while the entry is still open.
func (e *SeaTimeEntry) Duration() time.Duration {
	if e.EndTime == nil {
		return 0
	}
	return e.EndTime.Sub(e.StartTime)
}
