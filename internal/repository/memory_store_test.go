package repository

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func seedStore(t *testing.T) (*MemoryStore, *domain.User, *domain.Listing) {
	t.Helper()
	ctx := context.Background()
	store := NewMemoryStore()

	host := &domain.User{Email: "host@example.com", Username: "host", IsActive: true}
	require.NoError(t, store.Users().Create(ctx, host))

	listing := &domain.Listing{
		HostID:        host.ID,
		Title:         "Loft",
		PropertyType:  domain.PropertyApartment,
		PricePerNight: decimal.RequireFromString("50"),
		MaxGuests:     2,
		IsActive:      true,
	}
	require.NoError(t, store.Listings().Create(ctx, listing))
	return store, host, listing
}

func TestMemoryInsertRejectsOverlap(t *testing.T) {
	ctx := context.Background()
	store, host, listing := seedStore(t)
	today := day(t, "2025-05-01")

	first := &domain.Booking{ListingID: listing.ID, GuestID: host.ID, CheckIn: day(t, "2025-06-01"), CheckOut: day(t, "2025-06-05"), NumGuests: 1, Status: domain.StatusPending}
	require.NoError(t, store.Bookings().Insert(ctx, first, today))
	assert.NotEqual(t, uuid.Nil, first.ID)

	overlap := &domain.Booking{ListingID: listing.ID, GuestID: host.ID, CheckIn: day(t, "2025-06-04"), CheckOut: day(t, "2025-06-06"), NumGuests: 1, Status: domain.StatusPending}
	assert.ErrorIs(t, store.Bookings().Insert(ctx, overlap, today), domain.ErrDateRangeUnavailable)

	adjacent := &domain.Booking{ListingID: listing.ID, GuestID: host.ID, CheckIn: day(t, "2025-06-05"), CheckOut: day(t, "2025-06-06"), NumGuests: 1, Status: domain.StatusPending}
	assert.NoError(t, store.Bookings().Insert(ctx, adjacent, today))

	orphan := &domain.Booking{ListingID: uuid.New(), GuestID: host.ID, CheckIn: day(t, "2025-07-01"), CheckOut: day(t, "2025-07-02"), Status: domain.StatusPending}
	assert.ErrorIs(t, store.Bookings().Insert(ctx, orphan, today), domain.ErrListingNotFound)
}

func TestMemoryUserUniqueness(t *testing.T) {
	ctx := context.Background()
	store, _, _ := seedStore(t)

	err := store.Users().Create(ctx, &domain.User{Email: "HOST@example.com", Username: "other"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
	err = store.Users().Create(ctx, &domain.User{Email: "new@example.com", Username: "host"})
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store, _, listing := seedStore(t)

	got, err := store.Listings().GetByID(ctx, listing.ID)
	require.NoError(t, err)
	got.Title = "mutated"

	again, err := store.Listings().GetByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Loft", again.Title)
}

func TestMemoryReviewUniqueness(t *testing.T) {
	ctx := context.Background()
	store, host, listing := seedStore(t)

	require.NoError(t, store.Reviews().Create(ctx, &domain.Review{ListingID: listing.ID, ReviewerID: host.ID, Rating: 5, IsActive: true}))
	err := store.Reviews().Create(ctx, &domain.Review{ListingID: listing.ID, ReviewerID: host.ID, Rating: 3, IsActive: true})
	assert.ErrorIs(t, err, domain.ErrDuplicateReview)
}
