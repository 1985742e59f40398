package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSubscriptionDenied EventType = "subscription_denied"
	EventTrackingPaused     EventType = "tracking_paused"
)

// Event represents a domain event emitted by the gate and services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, userID string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// SubscriptionDeniedPayload payload.
type SubscriptionDeniedPayload struct {
	Method    string     `json:"method"`
	Path      string     `json:"path"`
	RawStatus string     `json:"raw_status"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// TrackingPausedReason says who paused tracking.
type TrackingPausedReason string

const (
	TrackingPausedByUser  TrackingPausedReason = "user_request"
	TrackingPausedBySweep TrackingPausedReason = "subscription_lapsed"
)

// TrackingPausedPayload payload.
type TrackingPausedPayload struct {
	Reason        TrackingPausedReason `json:"reason"`
	VesselsPaused int64                `json:"vessels_paused"`
}
