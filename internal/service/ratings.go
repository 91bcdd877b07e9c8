package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
	"github.com/aryan0dhankhar/travellistings/internal/observability/metrics"
	"github.com/aryan0dhankhar/travellistings/pkg/cache"
)

// SummaryCache stores derived rating summaries. Implementations treat
// failures as misses; the recomputed summary is always authoritative.
// Invalidations issued by other processes sharing the cache are not
// generation-checked, so a summary stored there may lag by at most its TTL.
type SummaryCache interface {
	Get(ctx context.Context, listingID uuid.UUID) (domain.RatingSummary, bool)
	Set(ctx context.Context, listingID uuid.UUID, summary domain.RatingSummary)
	Invalidate(ctx context.Context, listingID uuid.UUID)
}

// Summarize computes the rating summary over active reviews. The mean is
// rounded half away from zero to 2 places; no reviews yields {0, 0}.
func Summarize(reviews []*domain.Review) domain.RatingSummary {
	var sum, count int64
	for _, r := range reviews {
		if !r.IsActive {
			continue
		}
		sum += int64(r.Rating)
		count++
	}
	if count == 0 {
		return domain.RatingSummary{Average: decimal.Zero, Count: 0}
	}
	avg := decimal.NewFromInt(sum).Div(decimal.NewFromInt(count)).Round(2)
	return domain.RatingSummary{Average: avg, Count: int(count)}
}

// RatingAggregator serves per-listing rating summaries. Each Invalidate
// bumps the listing's generation; a summary computed across a bump is
// dropped from the cache right after it is stored.
type RatingAggregator struct {
	reviews domain.ReviewRepository
	cache   SummaryCache
	logger  *slog.Logger

	mu          sync.Mutex
	generations map[uuid.UUID]uint64
}

// NewRatingAggregator creates an aggregator; cache may be nil
func NewRatingAggregator(reviews domain.ReviewRepository, cache SummaryCache, logger *slog.Logger) *RatingAggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &RatingAggregator{
		reviews:     reviews,
		cache:       cache,
		logger:      logger,
		generations: make(map[uuid.UUID]uint64),
	}
}

// Summary returns the listing's rating summary
func (a *RatingAggregator) Summary(ctx context.Context, listingID uuid.UUID) (domain.RatingSummary, error) {
	if a.cache != nil {
		if s, ok := a.cache.Get(ctx, listingID); ok {
			metrics.ObserveRatingCache(true)
			return s, nil
		}
		metrics.ObserveRatingCache(false)
	}

	gen := a.generation(listingID)
	reviews, err := a.reviews.ActiveForListing(ctx, listingID)
	if err != nil {
		return domain.RatingSummary{}, fmt.Errorf("failed to load reviews: %w", err)
	}
	s := Summarize(reviews)

	if a.cache != nil {
		a.cache.Set(ctx, listingID, s)
		if a.generation(listingID) != gen {
			a.cache.Invalidate(ctx, listingID)
			a.logger.Debug("dropped rating summary computed across an invalidation",
				slog.String("listing_id", listingID.String()),
			)
		}
	}
	return s, nil
}

// Invalidate drops any cached summary for the listing
func (a *RatingAggregator) Invalidate(ctx context.Context, listingID uuid.UUID) {
	if a.cache == nil {
		return
	}
	a.mu.Lock()
	a.generations[listingID]++
	a.mu.Unlock()
	a.cache.Invalidate(ctx, listingID)
}

func (a *RatingAggregator) generation(listingID uuid.UUID) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.generations[listingID]
}

// LocalSummaryCache keeps summaries in process memory
type LocalSummaryCache struct {
	entries *cache.Cache[domain.RatingSummary]
	ttl     time.Duration
}

// NewLocalSummaryCache wraps a bounded in-memory cache
func NewLocalSummaryCache(entries *cache.Cache[domain.RatingSummary], ttl time.Duration) *LocalSummaryCache {
	return &LocalSummaryCache{entries: entries, ttl: ttl}
}

func (c *LocalSummaryCache) Get(_ context.Context, listingID uuid.UUID) (domain.RatingSummary, bool) {
	return c.entries.Get(listingID.String())
}

func (c *LocalSummaryCache) Set(_ context.Context, listingID uuid.UUID, summary domain.RatingSummary) {
	c.entries.Set(listingID.String(), summary, c.ttl)
}

func (c *LocalSummaryCache) Invalidate(_ context.Context, listingID uuid.UUID) {
	c.entries.Delete(listingID.String())
}
