package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/forelandmarine/sea-time-tracker/pkg/subscription"
)

const subscriptionKeyPrefix = "seatime:subscription:"

// CachedSubscriptionReader fronts a SubscriptionReader with a short-lived
// Redis copy of the raw record. Cache failures fall back to the source and
// missing users are never cached.
type CachedSubscriptionReader struct {
	source SubscriptionReader
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedSubscriptionReader returns source unchanged when caching is disabled.
func NewCachedSubscriptionReader(source SubscriptionReader, client *redis.Client, ttl time.Duration, logger *zap.Logger) SubscriptionReader {
	if client == nil || ttl <= 0 {
		return source
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSubscriptionReader{source: source, client: client, ttl: ttl, logger: logger}
}

func (r *CachedSubscriptionReader) GetSubscription(ctx context.Context, userID string) (*subscription.Record, error) {
	key := subscriptionKeyPrefix + userID

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var rec subscription.Record
		jsonErr := json.Unmarshal(raw, &rec)
		if jsonErr == nil {
			return &rec, nil
		}
		r.logger.Warn("discarding corrupt cached subscription", zap.String("user_id", userID), zap.Error(jsonErr))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("subscription cache read failed", zap.String("user_id", userID), zap.Error(err))
	}

	rec, err := r.source.GetSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		r.logger.Warn("subscription cache encode failed", zap.String("user_id", userID), zap.Error(err))
		return rec, nil
	}
	if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		r.logger.Warn("subscription cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
	return rec, nil
}
