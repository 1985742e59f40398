package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/forelandmarine/sea-time-tracker/internal/events"
	"github.com/forelandmarine/sea-time-tracker/internal/observability"
	"github.com/forelandmarine/sea-time-tracker/internal/repository"
	"github.com/forelandmarine/sea-time-tracker/pkg/subscription"
	apperrors "github.com/forelandmarine/sea-time-tracker/pkg/util/errorutil"
)

const (
	subscriptionStatusKey    = "subscription_status"
	subscriptionExpiresAtKey = "subscription_expires_at"
)

// SubscriptionGate admits a request only when the caller's subscription is
// active. It must run after AuthMiddleware.
type SubscriptionGate struct {
	reader     repository.SubscriptionReader
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// GateOption customizes a SubscriptionGate.
type GateOption func(*SubscriptionGate)

// WithGateClock overrides the clock used for expiry comparisons.
func WithGateClock(now func() time.Time) GateOption {
	return func(g *SubscriptionGate) { g.now = now }
}

// WithGateEvents publishes a subscription_denied event on every denial.
func WithGateEvents(dispatcher events.Dispatcher) GateOption {
	return func(g *SubscriptionGate) { g.dispatcher = dispatcher }
}

// WithGateMetrics counts gate outcomes.
func WithGateMetrics(metrics *observability.Metrics) GateOption {
	return func(g *SubscriptionGate) { g.metrics = metrics }
}

// NewSubscriptionGate constructs the gate.
func NewSubscriptionGate(reader repository.SubscriptionReader, logger *zap.Logger, opts ...GateOption) *SubscriptionGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &SubscriptionGate{reader: reader, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Handle loads the caller's subscription record, records the raw fields on
// the request and forwards only when the record is active.
func (g *SubscriptionGate) Handle(c *fiber.Ctx) error {
	userID, ok := UserIDFromContext(c)
	if !ok {
		return apperrors.NewAuthenticationRequired()
	}

	rec, active, err := g.check(c.UserContext(), userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewUserNotFound()
		}
		g.metrics.RecordDecision("failed")
		g.logger.Error("subscription check failed",
			zap.String("user_id", userID),
			zap.String("path", c.Path()),
			zap.Error(err))
		return apperrors.NewSubscriptionCheckFailed(err)
	}

	c.Locals(subscriptionStatusKey, subscription.Normalize(rec.Status))
	c.Locals(subscriptionExpiresAtKey, rec.ExpiresAt)

	if !active {
		g.metrics.RecordDecision("denied")
		g.logger.Warn("subscription required",
			zap.String("user_id", userID),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("raw_status", rec.Status),
			zap.Timep("expires_at", rec.ExpiresAt))
		g.publishDenied(c, userID, rec)
		return apperrors.NewSubscriptionRequired()
	}

	g.metrics.RecordDecision("allowed")
	return c.Next()
}

func (g *SubscriptionGate) check(ctx context.Context, userID string) (rec *subscription.Record, active bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec, active, err = nil, false, fmt.Errorf("subscription evaluation panicked: %v", r)
		}
	}()

	rec, err = g.reader.GetSubscription(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return rec, subscription.IsActiveAt(g.now(), rec.Status, rec.ExpiresAt), nil
}

func (g *SubscriptionGate) publishDenied(c *fiber.Ctx, userID string, rec *subscription.Record) {
	if g.dispatcher == nil {
		return
	}
	event := events.New(events.EventSubscriptionDenied, userID, events.SubscriptionDeniedPayload{
		Method:    c.Method(),
		Path:      c.Path(),
		RawStatus: rec.Status,
		ExpiresAt: rec.ExpiresAt,
	})
	if err := g.dispatcher.Publish(context.WithoutCancel(c.UserContext()), event); err != nil {
		g.logger.Debug("subscription_denied listeners failed", zap.Error(err))
	}
}

// SubscriptionFromContext returns the raw status and expiry the gate saw.
func SubscriptionFromContext(c *fiber.Ctx) (subscription.Status, *time.Time, bool) {
	status, ok := c.Locals(subscriptionStatusKey).(subscription.Status)
	if !ok {
		return "", nil, false
	}
	expiresAt, _ := c.Locals(subscriptionExpiresAtKey).(*time.Time)
	return status, expiresAt, true
}
