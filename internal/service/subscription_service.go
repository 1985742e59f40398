package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/forelandmarine/sea-time-tracker/internal/events"
	"github.com/forelandmarine/sea-time-tracker/internal/repository"
	"github.com/forelandmarine/sea-time-tracker/pkg/subscription"
	apperrors "github.com/forelandmarine/sea-time-tracker/pkg/util/errorutil"
)

// SubscriptionStatus is the evaluated view of a user's subscription.
type SubscriptionStatus struct {
	Record   subscription.Record
	Decision subscription.Decision
}

// SubscriptionService reports subscription state and applies the
// consequences of a lapse.
type SubscriptionService struct {
	reader     repository.SubscriptionReader
	vessels    repository.VesselRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewSubscriptionService creates the service.
func NewSubscriptionService(reader repository.SubscriptionReader, vessels repository.VesselRepository, dispatcher events.Dispatcher, logger *zap.Logger) *SubscriptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubscriptionService{
		reader:     reader,
		vessels:    vessels,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Status evaluates the user's subscription record.
func (s *SubscriptionService) Status(ctx context.Context, userID string) (*SubscriptionStatus, error) {
	rec, err := s.reader.GetSubscription(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewUserNotFound()
		}
		return nil, apperrors.NewSubscriptionCheckFailed(err)
	}
	return &SubscriptionStatus{Record: *rec, Decision: subscription.EvaluateAt(s.now(), *rec)}, nil
}

// PauseTracking deactivates every vessel the user is tracking and returns
// how many were switched off.
func (s *SubscriptionService) PauseTracking(ctx context.Context, userID string, reason events.TrackingPausedReason) (int64, error) {
	paused, err := s.vessels.DeactivateTrackingForUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	s.logger.Info("tracking paused",
		zap.String("user_id", userID),
		zap.String("reason", string(reason)),
		zap.Int64("vessels", paused))

	if s.dispatcher != nil {
		event := events.New(events.EventTrackingPaused, userID, events.TrackingPausedPayload{
			Reason:        reason,
			VesselsPaused: paused,
		})
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Debug("tracking_paused listeners failed", zap.Error(err))
		}
	}
	return paused, nil
}
