package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/forelandmarine/sea-time-tracker/internal/events"
	"github.com/forelandmarine/sea-time-tracker/internal/observability"
)

// AuditService records subscription-related events in the log and metrics.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventSubscriptionDenied, a.handleSubscriptionDenied)
	a.dispatcher.Subscribe(events.EventTrackingPaused, a.handleTrackingPaused)
}

func (a *AuditService) handleSubscriptionDenied(_ context.Context, event events.Event) error {
	a.metrics.RecordEvent(string(event.Type))
	a.logger.Info("SubscriptionDenied",
		zap.String("event_id", event.ID),
		zap.String("user_id", event.UserID),
		zap.Any("payload", event.Payload))
	return nil
}

func (a *AuditService) handleTrackingPaused(_ context.Context, event events.Event) error {
	a.metrics.RecordEvent(string(event.Type))
	a.logger.Info("TrackingPaused",
		zap.String("event_id", event.ID),
		zap.String("user_id", event.UserID),
		zap.Any("payload", event.Payload))
	return nil
}
