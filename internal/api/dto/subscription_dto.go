package dto

import "time"

// SubscriptionStatusResponse is returned by GET /api/subscription/status.
type SubscriptionStatusResponse struct {
	Status      string     `json:"status"`
	RawStatus   string     `json:"rawStatus"`
	IsActive    bool       `json:"isActive"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	TrialEndsAt *time.Time `json:"trialEndsAt"`
	CheckedAt   time.Time  `json:"checkedAt"`
}

// PauseTrackingResponse is returned by POST /api/subscription/pause-tracking.
type PauseTrackingResponse struct {
	Success       bool  `json:"success"`
	VesselsPaused int64 `json:"vesselsPaused"`
}
