package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
	"github.com/aryan0dhankhar/travellistings/internal/repository"
	"github.com/aryan0dhankhar/travellistings/internal/security"
	"github.com/aryan0dhankhar/travellistings/pkg/cache"
)

const fixturePassword = "Password123"

type fixture struct {
	ctx      context.Context
	store    *repository.MemoryStore
	host     *domain.User
	guest    *domain.User
	other    *domain.User
	listing  *domain.Listing
	today    time.Time
	bookings *BookingService
	listings *ListingService
	reviews  *ReviewService
	ratings  *RatingAggregator
	events   *recordingPublisher
}

type recordingPublisher struct {
	events []domain.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.Event) error {
	p.events = append(p.events, ev)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

// newFixture builds a memory-backed service graph with a host, a guest, an
// outsider and one active listing (capacity 4, 100.00 per night). The clock
// is pinned to 2025-05-01.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()
	logger := discardLogger()

	hash, err := bcrypt.GenerateFromPassword([]byte(fixturePassword), bcrypt.MinCost)
	require.NoError(t, err)

	mkUser := func(name string) *domain.User {
		u := &domain.User{Email: name + "@example.com", Username: name, PasswordHash: string(hash), IsActive: true}
		require.NoError(t, store.Users().Create(ctx, u))
		return u
	}
	host, guest, other := mkUser("host"), mkUser("guest"), mkUser("other")

	listing := &domain.Listing{
		HostID:        host.ID,
		Title:         "Lake cabin",
		PropertyType:  domain.PropertyCabin,
		City:          "Bled",
		Country:       "Slovenia",
		PricePerNight: decimal.RequireFromString("100.00"),
		MaxGuests:     4,
		Amenities:     []string{"wifi", "sauna"},
		IsActive:      true,
	}
	require.NoError(t, store.Listings().Create(ctx, listing))

	policy := security.NewPolicy()
	events := &recordingPublisher{}
	summaries := cache.New[domain.RatingSummary](100)
	t.Cleanup(summaries.Close)
	ratings := NewRatingAggregator(store.Reviews(), NewLocalSummaryCache(summaries, time.Minute), logger)

	today := mustDate(t, "2025-05-01")
	bookings := NewBookingService(store.Listings(), store.Bookings(), policy, NewKeyedMutex(), events, nil, logger)
	bookings.SetClock(func() time.Time { return today })

	return &fixture{
		ctx:      ctx,
		store:    store,
		host:     host,
		guest:    guest,
		other:    other,
		listing:  listing,
		today:    today,
		bookings: bookings,
		listings: NewListingService(store.Listings(), store.Reviews(), ratings, policy, nil, logger),
		reviews:  NewReviewService(store.Reviews(), store.Listings(), ratings, policy, events, nil, logger),
		ratings:  ratings,
		events:   events,
	}
}

func (f *fixture) request(checkIn, checkOut string, guests int) BookingRequest {
	in, _ := domain.ParseDate(checkIn)
	out, _ := domain.ParseDate(checkOut)
	return BookingRequest{ListingID: f.listing.ID, CheckIn: in, CheckOut: out, NumGuests: guests}
}

func (f *fixture) setToday(t *testing.T, s string) {
	t.Helper()
	d := mustDate(t, s)
	f.today = d
	f.bookings.SetClock(func() time.Time { return d })
}
