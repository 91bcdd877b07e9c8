package service

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
	"github.com/aryan0dhankhar/travellistings/pkg/cache"
)

func reviewsWith(ratings ...int) []*domain.Review {
	out := make([]*domain.Review, 0, len(ratings))
	for _, r := range ratings {
		out = append(out, &domain.Review{ID: uuid.New(), Rating: r, IsActive: true})
	}
	return out
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Count)
	assert.True(t, s.Average.IsZero())
	assert.Equal(t, "0.00", s.Average.StringFixed(2))
}

func TestSummarizeRoundsToTwoPlaces(t *testing.T) {
	cases := []struct {
		ratings []int
		want    string
	}{
		{[]int{5}, "5"},
		{[]int{4, 5}, "4.5"},
		{[]int{4, 5, 5}, "4.67"},
		{[]int{1, 1, 2}, "1.33"},
		{[]int{1, 2, 2, 2, 2, 2}, "1.83"},
	}
	for _, tc := range cases {
		s := Summarize(reviewsWith(tc.ratings...))
		assert.Equal(t, tc.want, s.Average.String(), "%v", tc.ratings)
		assert.Equal(t, len(tc.ratings), s.Count)
	}
}

func TestSummarizeIgnoresInactive(t *testing.T) {
	reviews := reviewsWith(1, 5)
	reviews[0].IsActive = false
	s := Summarize(reviews)
	assert.Equal(t, 1, s.Count)
	assert.Equal(t, "5", s.Average.String())
}

func TestSummarizeIsOrderIndependent(t *testing.T) {
	reviews := reviewsWith(5, 3, 4, 1, 2, 5, 4)
	want := Summarize(reviews)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		rng.Shuffle(len(reviews), func(a, b int) { reviews[a], reviews[b] = reviews[b], reviews[a] })
		got := Summarize(reviews)
		assert.True(t, want.Average.Equal(got.Average))
		assert.Equal(t, want.Count, got.Count)
	}
}

func TestRatingCacheInvalidatedByReviews(t *testing.T) {
	f := newFixture(t)

	s, err := f.ratings.Summary(f.ctx, f.listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Count)

	r, err := f.reviews.Create(f.ctx, domain.UserActor(f.guest.ID), f.listing.ID, 4, "nice")
	require.NoError(t, err)
	s, err = f.ratings.Summary(f.ctx, f.listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count)

	require.NoError(t, f.reviews.Deactivate(f.ctx, domain.UserActor(f.guest.ID), r.ID))
	s, err = f.ratings.Summary(f.ctx, f.listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Count)
}

// interleavedReviews runs onLoad once, after the active reviews were read
// but before the caller sees them
type interleavedReviews struct {
	domain.ReviewRepository
	onLoad func()
}

func (r *interleavedReviews) ActiveForListing(ctx context.Context, listingID uuid.UUID) ([]*domain.Review, error) {
	out, err := r.ReviewRepository.ActiveForListing(ctx, listingID)
	if r.onLoad != nil {
		hook := r.onLoad
		r.onLoad = nil
		hook()
	}
	return out, err
}

func TestRatingSummaryComputedAcrossInvalidationIsNotKept(t *testing.T) {
	f := newFixture(t)
	summaries := cache.New[domain.RatingSummary](10)
	t.Cleanup(summaries.Close)

	reviews := &interleavedReviews{ReviewRepository: f.store.Reviews()}
	agg := NewRatingAggregator(reviews, NewLocalSummaryCache(summaries, time.Minute), discardLogger())
	reviews.onLoad = func() {
		require.NoError(t, f.store.Reviews().Create(f.ctx, &domain.Review{
			ListingID: f.listing.ID, ReviewerID: f.guest.ID, Rating: 5, IsActive: true,
		}))
		agg.Invalidate(f.ctx, f.listing.ID)
	}

	s, err := agg.Summary(f.ctx, f.listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Count, "the read raced the write")

	_, cached := summaries.Get(f.listing.ID.String())
	assert.False(t, cached)

	s, err = agg.Summary(f.ctx, f.listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count)
	assert.Equal(t, "5.00", s.Average.StringFixed(2))
}
