// Package subscription classifies stored subscription fields into an
// effective status and an activity verdict. The API server's gate and the
// Go client SDK both import it, so the two sides reach the same verdict.
//
// Every function fails closed: a missing, malformed or past date never
// grants access, and nothing here panics on bad input.
package subscription

import "time"

// Status is a subscription state, either as stored or as derived.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusTrial    Status = "trial"
	StatusExpired  Status = "expired"
)

// Normalize maps an unset raw status to inactive.
func Normalize(raw string) Status {
	if raw == "" {
		return StatusInactive
	}
	return Status(raw)
}

// Record holds the subscription fields read from a user. It is written by
// the billing system only; this package never mutates it.
type Record struct {
	Status      string     `json:"status,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	TrialEndsAt *time.Time `json:"trialEndsAt,omitempty"`
}

// Decision is recomputed on every check and never persisted.
type Decision struct {
	EffectiveStatus Status    `json:"status"`
	IsActive        bool      `json:"isActive"`
	EvaluatedAt     time.Time `json:"checkedAt"`
}

// Evaluate classifies the record against the current wall clock.
func Evaluate(rec Record) Decision {
	return EvaluateAt(time.Now(), rec)
}

// EvaluateAt classifies the record as of now.
func EvaluateAt(now time.Time, rec Record) Decision {
	return Decision{
		EffectiveStatus: FormatStatusAt(now, rec.Status, rec.ExpiresAt, rec.TrialEndsAt),
		IsActive:        IsActiveAt(now, rec.Status, rec.ExpiresAt),
		EvaluatedAt:     now,
	}
}

// IsActive reports whether access should be granted right now.
func IsActive(rawStatus string, expiresAt any) bool {
	return IsActiveAt(time.Now(), rawStatus, expiresAt)
}

// IsActiveAt grants access for active and trial records whose expiresAt is
// unset or strictly after now. Trial records are not checked against their
// trial end here; FormatStatusAt is.
func IsActiveAt(now time.Time, rawStatus string, expiresAt any) bool {
	switch Normalize(rawStatus) {
	case StatusActive, StatusTrial:
	default:
		return false
	}

	switch checkDate(now, expiresAt) {
	case dateAbsent, dateFuture:
		return true
	default:
		return false
	}
}

// FormatStatus derives the effective status against the current wall clock.
func FormatStatus(rawStatus string, expiresAt, trialEndsAt any) Status {
	return FormatStatusAt(time.Now(), rawStatus, expiresAt, trialEndsAt)
}

// FormatStatusAt derives the effective status. The first matching rule wins:
// a trial with a future trial end, an active record with a future expiry,
// an explicitly expired record, and inactive otherwise. An active record
// whose expiry has passed is therefore inactive, not expired.
func FormatStatusAt(now time.Time, rawStatus string, expiresAt, trialEndsAt any) Status {
	status := Normalize(rawStatus)

	if status == StatusTrial && checkDate(now, trialEndsAt) == dateFuture {
		return StatusTrial
	}
	if status == StatusActive && checkDate(now, expiresAt) == dateFuture {
		return StatusActive
	}
	if status == StatusExpired {
		return StatusExpired
	}
	return StatusInactive
}

type dateState int

const (
	dateAbsent dateState = iota
	dateFuture
	datePast
	dateInvalid
)

func checkDate(now time.Time, value any) dateState {
	if isAbsent(value) {
		return dateAbsent
	}
	t := ParseDate(value)
	if t == nil {
		return dateInvalid
	}
	if t.After(now) {
		return dateFuture
	}
	return datePast
}
