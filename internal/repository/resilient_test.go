package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
	"github.com/aryan0dhankhar/travellistings/internal/reliability/circuitbreaker"
	"github.com/aryan0dhankhar/travellistings/internal/reliability/retry"
)

type flakyListings struct {
	domain.ListingRepository
	failures int
	calls    int
}

func (f *flakyListings) GetByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, fmt.Errorf("dial: %w", domain.ErrStoreUnavailable)
	}
	return f.ListingRepository.GetByID(ctx, id)
}

func fastRetry() *retry.Config {
	return &retry.Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffMultiplier: 1}
}

func TestGuardRetriesStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	store, _, listing := seedStore(t)
	flaky := &flakyListings{ListingRepository: store.Listings(), failures: 2}

	repo := NewResilientListingRepository(flaky, NewGuard(circuitbreaker.NewCircuitBreaker(10, 1, time.Minute), fastRetry(), discardLogger()))
	got, err := repo.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, listing.ID, got.ID)
	assert.Equal(t, 3, flaky.calls)
}

func TestGuardDoesNotRetryDomainErrors(t *testing.T) {
	ctx := context.Background()
	store, _, _ := seedStore(t)
	flaky := &flakyListings{ListingRepository: store.Listings()}

	repo := NewResilientListingRepository(flaky, NewGuard(nil, fastRetry(), discardLogger()))
	_, err := repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrListingNotFound)
	assert.Equal(t, 1, flaky.calls)
}

func TestGuardOpenCircuitIsStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	store, _, listing := seedStore(t)
	flaky := &flakyListings{ListingRepository: store.Listings(), failures: 100}

	cfg := fastRetry()
	cfg.MaxAttempts = 1
	repo := NewResilientListingRepository(flaky, NewGuard(circuitbreaker.NewCircuitBreaker(2, 1, time.Hour), cfg, discardLogger()))

	for i := 0; i < 2; i++ {
		_, err := repo.GetByID(ctx, listing.ID)
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	}
	_, err := repo.GetByID(ctx, listing.ID)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, 2, flaky.calls, "open circuit short-circuits the store")
}

// lostReplyBookings applies the first status change and then reports the
// connection as lost
type lostReplyBookings struct {
	domain.BookingRepository
	calls int
}

func (b *lostReplyBookings) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.BookingStatus) error {
	b.calls++
	if err := b.BookingRepository.UpdateStatus(ctx, id, from, to); err != nil {
		return err
	}
	if b.calls == 1 {
		return fmt.Errorf("read reply: %w", domain.ErrStoreUnavailable)
	}
	return nil
}

func TestUpdateStatusRetryAfterLostReplySucceeds(t *testing.T) {
	ctx := context.Background()
	store, host, listing := seedStore(t)
	b := &domain.Booking{ListingID: listing.ID, GuestID: host.ID, CheckIn: day(t, "2025-06-01"), CheckOut: day(t, "2025-06-03"), NumGuests: 1, Status: domain.StatusPending}
	require.NoError(t, store.Bookings().Insert(ctx, b, day(t, "2025-05-01")))

	inner := &lostReplyBookings{BookingRepository: store.Bookings()}
	repo := NewResilientBookingRepository(inner, NewGuard(nil, fastRetry(), discardLogger()))

	require.NoError(t, repo.UpdateStatus(ctx, b.ID, domain.StatusPending, domain.StatusConfirmed))
	assert.Equal(t, 2, inner.calls)

	got, err := store.Bookings().GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got.Status)
}

func TestUpdateStatusStaleFromStillRejected(t *testing.T) {
	ctx := context.Background()
	store, host, listing := seedStore(t)
	b := &domain.Booking{ListingID: listing.ID, GuestID: host.ID, CheckIn: day(t, "2025-06-01"), CheckOut: day(t, "2025-06-03"), NumGuests: 1, Status: domain.StatusPending}
	require.NoError(t, store.Bookings().Insert(ctx, b, day(t, "2025-05-01")))
	require.NoError(t, store.Bookings().UpdateStatus(ctx, b.ID, domain.StatusPending, domain.StatusCancelled))

	repo := NewResilientBookingRepository(store.Bookings(), NewGuard(nil, fastRetry(), discardLogger()))
	err := repo.UpdateStatus(ctx, b.ID, domain.StatusPending, domain.StatusConfirmed)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}
