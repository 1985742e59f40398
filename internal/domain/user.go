package domain

import "time"

// User is a mariner account. The subscription columns are maintained by
// the billing integration and only read by the API.
type User struct {
	ID                    string
	Name                  string
	Email                 string
	PasswordHash          string
	SubscriptionStatus    *string
	SubscriptionExpiresAt *time.Time
	TrialEndsAt           *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
