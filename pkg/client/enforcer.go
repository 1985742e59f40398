package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Choice is the user's answer to an upgrade prompt.
type Choice int

const (
	ChoiceCancel Choice = iota
	ChoiceUpgrade
)

// UpgradePrompt is shown when a gated action is refused.
type UpgradePrompt struct {
	Title   string
	Message string
	Feature string
}

// UpgradeFlow is the UI surface the Enforcer drives. Prompt blocks until
// the user decides.
type UpgradeFlow interface {
	Prompt(ctx context.Context, prompt UpgradePrompt) Choice
	OpenUpgrade(ctx context.Context)
}

// subscriptionMarkers identify a server-side subscription denial in an error message.
var subscriptionMarkers = []string{
	"403",
	"SUBSCRIPTION_REQUIRED",
	"PAYMENT_REQUIRED",
	"Active subscription required",
}

// Enforcer guards user actions behind an active subscription.
type Enforcer struct {
	client *Client
	subs   *SubscriptionContext
	flow   UpgradeFlow
	logger *zap.Logger

	refreshes sync.WaitGroup
}

// NewEnforcer creates an Enforcer. flow may be nil for headless callers,
// in which case refusals are silent.
func NewEnforcer(client *Client, subs *SubscriptionContext, flow UpgradeFlow) *Enforcer {
	return &Enforcer{client: client, subs: subs, flow: flow, logger: client.logger}
}

// RequireSubscription reports whether the guarded action may proceed. When
// the cached state is inactive the user is offered the upgrade flow and
// false is returned.
func (e *Enforcer) RequireSubscription(ctx context.Context, feature string) bool {
	if e.subs.IsActive() {
		return true
	}

	message := "An active subscription is required to use this feature."
	if feature != "" {
		message = fmt.Sprintf("%s requires an active subscription.", feature)
	}
	e.offerUpgrade(ctx, UpgradePrompt{
		Title:   "Subscription Required",
		Message: message + " Subscribe to keep logging your sea time.",
		Feature: feature,
	})
	return false
}

// HandleSubscriptionError reports whether err is a subscription denial from
// the server. A recognized denial triggers a background refresh of the cached
// state and offers the upgrade flow; the caller should not treat it as a
// generic failure.
func (e *Enforcer) HandleSubscriptionError(ctx context.Context, err error) bool {
	if !IsSubscriptionError(err) {
		return false
	}

	e.refreshInBackground(context.WithoutCancel(ctx))
	e.offerUpgrade(ctx, UpgradePrompt{
		Title:   "Subscription Required",
		Message: "Your subscription is no longer active. Subscribe to continue using SeaTime.",
	})
	return true
}

// PauseTracking stops tracking for all of the user's vessels and reports
// whether the server confirmed it. Failures are logged, never returned.
func (e *Enforcer) PauseTracking(ctx context.Context) bool {
	ok, err := e.client.PauseTracking(ctx)
	if err != nil {
		e.logger.Warn("pause tracking failed", zap.Error(err))
		return false
	}
	return ok
}

// Wait blocks until background refreshes started by the Enforcer finish.
func (e *Enforcer) Wait() {
	e.refreshes.Wait()
}

func (e *Enforcer) refreshInBackground(ctx context.Context) {
	e.refreshes.Add(1)
	go func() {
		defer e.refreshes.Done()
		if _, err := e.subs.CheckSubscription(ctx); err != nil {
			e.logger.Warn("subscription refresh failed", zap.Error(err))
		}
	}()
}

func (e *Enforcer) offerUpgrade(ctx context.Context, prompt UpgradePrompt) {
	if e.flow == nil {
		return
	}
	if e.flow.Prompt(ctx, prompt) == ChoiceUpgrade {
		e.flow.OpenUpgrade(ctx)
	}
}

// IsSubscriptionError reports whether err carries a subscription denial:
// an APIError with status 403 or a message containing a known marker.
func IsSubscriptionError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden {
		return true
	}
	msg := err.Error()
	for _, marker := range subscriptionMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
