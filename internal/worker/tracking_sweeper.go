package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/forelandmarine/sea-time-tracker/internal/events"
	"github.com/forelandmarine/sea-time-tracker/internal/observability"
	"github.com/forelandmarine/sea-time-tracker/internal/repository"
	"github.com/forelandmarine/sea-time-tracker/pkg/subscription"
	apperrors "github.com/forelandmarine/sea-time-tracker/pkg/util/errorutil"
)

// TrackingPauser switches off tracking for a user.
type TrackingPauser interface {
	PauseTracking(ctx context.Context, userID string, reason events.TrackingPausedReason) (int64, error)
}

// TrackingSweeper periodically stops vessel tracking for users whose
// subscription is no longer active. It is the server-side counterpart of
// the client pausing tracking when it notices a lapse.
type TrackingSweeper struct {
	vessels repository.VesselRepository
	reader  repository.SubscriptionReader
	pauser  TrackingPauser
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
	timeout time.Duration

	cron    *cron.Cron
	running atomic.Bool
}

// SweepResult summarizes one sweep.
type SweepResult struct {
	UsersChecked  int
	UsersLapsed   int
	VesselsPaused int64
	Failures      int
}

// NewTrackingSweeper creates a sweeper.
func NewTrackingSweeper(vessels repository.VesselRepository, reader repository.SubscriptionReader, pauser TrackingPauser, metrics *observability.Metrics, logger *zap.Logger) *TrackingSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackingSweeper{
		vessels: vessels,
		reader:  reader,
		pauser:  pauser,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
		timeout: 5 * time.Minute,
	}
}

// Start schedules the sweep. Runs that would overlap a still-running sweep are skipped.
func (s *TrackingSweeper) Start(schedule string) error {
	cronLogger := cronZapLogger{logger: s.logger}
	s.cron = cron.New(cron.WithChain(
		cron.Recover(cronLogger),
		cron.SkipIfStillRunning(cronLogger),
	))

	if _, err := s.cron.AddFunc(schedule, s.runScheduled); err != nil {
		return err
	}
	s.logger.Info("scheduled tracking sweep", zap.String("schedule", schedule))
	s.cron.Start()
	return nil
}

// Stop halts scheduling and returns a context done once the running sweep finishes.
func (s *TrackingSweeper) Stop() context.Context {
	if s.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return s.cron.Stop()
}

func (s *TrackingSweeper) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.Sweep(ctx); err != nil {
		s.logger.Error("tracking sweep failed", zap.Error(err))
	}
}

// Sweep evaluates every user with an actively tracked vessel and pauses
// tracking for the lapsed ones. A failure for one user is logged and the
// sweep moves on.
func (s *TrackingSweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Debug("tracking sweep already running")
		return result, nil
	}
	defer s.running.Store(false)

	userIDs, err := s.vessels.ListUsersWithActiveTracking(ctx)
	if err != nil {
		return result, err
	}

	now := s.now()
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.UsersChecked++

		rec, err := s.reader.GetSubscription(ctx, userID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				continue
			}
			result.Failures++
			s.logger.Warn("tracking sweep: subscription lookup failed", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		if subscription.IsActiveAt(now, rec.Status, rec.ExpiresAt) {
			continue
		}

		result.UsersLapsed++
		paused, err := s.pauser.PauseTracking(ctx, userID, events.TrackingPausedBySweep)
		if err != nil {
			result.Failures++
			s.logger.Warn("tracking sweep: pause failed", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		result.VesselsPaused += paused
	}

	s.metrics.RecordSweep(result.VesselsPaused)
	s.logger.Info("tracking sweep finished",
		zap.Int("users_checked", result.UsersChecked),
		zap.Int("users_lapsed", result.UsersLapsed),
		zap.Int64("vessels_paused", result.VesselsPaused),
		zap.Int("failures", result.Failures))
	return result, nil
}

// cronZapLogger adapts zap to cron.Logger.
type cronZapLogger struct {
	logger *zap.Logger
}

func (l cronZapLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronZapLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().With(zap.Error(err)).Errorw(msg, keysAndValues...)
}
