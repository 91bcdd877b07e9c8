package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
	"github.com/aryan0dhankhar/travellistings/internal/infrastructure/redis"
)

// RedisRatingCache stores listing rating summaries in Redis so every API
// replica sees the same invalidations.
type RedisRatingCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

type cachedSummary struct {
	Average decimal.Decimal `json:"average"`
	Count   int             `json:"count"`
}

// NewRedisRatingCache creates a Redis-backed rating summary cache
func NewRedisRatingCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisRatingCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisRatingCache{redis: client, ttl: ttl, logger: logger}
}

func ratingKey(listingID uuid.UUID) string {
	return "rating:" + listingID.String()
}

// Get returns a cached summary; any Redis failure is treated as a miss
func (c *RedisRatingCache) Get(ctx context.Context, listingID uuid.UUID) (domain.RatingSummary, bool) {
	data, err := c.redis.Get(ctx, ratingKey(listingID))
	if err != nil {
		if !redis.IsNil(err) {
			c.logger.Warn("rating cache read failed",
				slog.String("listing_id", listingID.String()),
				slog.String("error", err.Error()),
			)
		}
		return domain.RatingSummary{}, false
	}

	var s cachedSummary
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return domain.RatingSummary{}, false
	}
	return domain.RatingSummary{Average: s.Average, Count: s.Count}, true
}

// Set stores a summary with the configured TTL
func (c *RedisRatingCache) Set(ctx context.Context, listingID uuid.UUID, summary domain.RatingSummary) {
	data, err := json.Marshal(cachedSummary{Average: summary.Average, Count: summary.Count})
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, ratingKey(listingID), string(data), c.ttl); err != nil {
		c.logger.Warn("rating cache write failed",
			slog.String("listing_id", listingID.String()),
			slog.String("error", err.Error()),
		)
	}
}

// Invalidate drops the cached summary of a listing
func (c *RedisRatingCache) Invalidate(ctx context.Context, listingID uuid.UUID) {
	if err := c.redis.Delete(ctx, ratingKey(listingID)); err != nil {
		c.logger.Warn("rating cache invalidation failed",
			slog.String("listing_id", listingID.String()),
			slog.String("error", err.Error()),
		)
	}
}
