package client

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/forelandmarine/sea-time-tracker/pkg/subscription"
)

// Snapshot is the cached subscription state handed to consumers.
type Snapshot struct {
	Status          subscription.Status
	IsActive        bool
	ExpiresAt       *time.Time
	TrialEndsAt     *time.Time
	LastRefreshedAt time.Time
}

// SubscriptionContext caches the caller's subscription state. Until the
// first successful refresh it reports inactive.
type SubscriptionContext struct {
	client *Client

	mu       sync.RWMutex
	snapshot Snapshot
}

// NewSubscriptionContext creates an empty context backed by client.
func NewSubscriptionContext(client *Client) *SubscriptionContext {
	return &SubscriptionContext{
		client:   client,
		snapshot: Snapshot{Status: subscription.StatusInactive},
	}
}

// Snapshot returns the cached state.
func (s *SubscriptionContext) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// IsActive returns the cached activity flag.
func (s *SubscriptionContext) IsActive() bool {
	return s.Snapshot().IsActive
}

// CheckSubscription refreshes the cache from the server. The server's raw
// fields are evaluated locally with the same rules the server gate uses;
// access is granted only when both verdicts agree. On error the previous
// snapshot stays in place.
func (s *SubscriptionContext) CheckSubscription(ctx context.Context) (Snapshot, error) {
	resp, err := s.client.SubscriptionStatus(ctx)
	if err != nil {
		return s.Snapshot(), err
	}

	now := s.client.now()
	rawStatus := resp.RawStatus
	if rawStatus == "" {
		rawStatus = resp.Status
	}
	local := subscription.IsActiveAt(now, rawStatus, resp.ExpiresAt)
	if local != resp.IsActive {
		s.client.logger.Warn("subscription verdict mismatch",
			zap.String("raw_status", rawStatus),
			zap.Bool("server_active", resp.IsActive),
			zap.Bool("local_active", local),
			zap.Any("expires_at", resp.ExpiresAt))
	}

	status := subscription.Status(resp.Status)
	if resp.Status == "" {
		status = subscription.FormatStatusAt(now, rawStatus, resp.ExpiresAt, resp.TrialEndsAt)
	}

	snap := Snapshot{
		Status:          status,
		IsActive:        local && resp.IsActive,
		ExpiresAt:       subscription.ParseDate(resp.ExpiresAt),
		TrialEndsAt:     subscription.ParseDate(resp.TrialEndsAt),
		LastRefreshedAt: now,
	}

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()
	return snap, nil
}
