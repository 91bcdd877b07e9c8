package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
	"github.com/aryan0dhankhar/travellistings/internal/observability/metrics"
	"github.com/aryan0dhankhar/travellistings/internal/reliability/circuitbreaker"
	"github.com/aryan0dhankhar/travellistings/internal/reliability/retry"
)

// Guard applies the store's reliability policy: a circuit breaker on every
// call and retries on idempotent ones. Only ErrStoreUnavailable is retried
// or counted against the breaker.
type Guard struct {
	breaker *circuitbreaker.CircuitBreaker
	retry   *retry.Config
	logger  *slog.Logger
}

// NewGuard creates a store guard
func NewGuard(breaker *circuitbreaker.CircuitBreaker, retryCfg *retry.Config, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	if retryCfg == nil {
		retryCfg = retry.DefaultConfig()
	}
	if breaker == nil {
		breaker = circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second)
	}
	cfg := *retryCfg
	cfg.ShouldRetry = domain.IsRetryable

	breaker.SetStateChangeCallback(func(from, to circuitbreaker.State) {
		metrics.SetStoreCircuitState(int(to))
		logger.Warn("store circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})
	return &Guard{breaker: breaker, retry: &cfg, logger: logger}
}

func (g *Guard) call(fn func() error) error {
	err := g.breaker.Execute(fn, domain.IsRetryable)
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return errors.Join(domain.ErrStoreUnavailable, err)
	}
	return err
}

func guardRead[T any](ctx context.Context, g *Guard, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	return retry.Do(ctx, g.retry, g.logger, op, func(ctx context.Context) (T, error) {
		var out T
		err := g.call(func() error {
			var err error
			out, err = fn(ctx)
			return err
		})
		return out, err
	})
}

func guardRetriedWrite(ctx context.Context, g *Guard, op string, fn func(ctx context.Context) error) error {
	return retry.DoErr(ctx, g.retry, g.logger, op, func(ctx context.Context) error {
		return g.call(func() error { return fn(ctx) })
	})
}

// ResilientListingRepository decorates a domain.ListingRepository with a Guard
type ResilientListingRepository struct {
	inner domain.ListingRepository
	g     *Guard
}

// NewResilientListingRepository wraps inner
func NewResilientListingRepository(inner domain.ListingRepository, g *Guard) *ResilientListingRepository {
	return &ResilientListingRepository{inner: inner, g: g}
}

func (r *ResilientListingRepository) Create(ctx context.Context, l *domain.Listing) error {
	return r.g.call(func() error { return r.inner.Create(ctx, l) })
}

func (r *ResilientListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	return guardRead(ctx, r.g, "get listing", func(ctx context.Context) (*domain.Listing, error) {
		return r.inner.GetByID(ctx, id)
	})
}

func (r *ResilientListingRepository) Update(ctx context.Context, l *domain.Listing) error {
	return r.g.call(func() error { return r.inner.Update(ctx, l) })
}

func (r *ResilientListingRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return guardRetriedWrite(ctx, r.g, "deactivate listing", func(ctx context.Context) error {
		return r.inner.Deactivate(ctx, id)
	})
}

func (r *ResilientListingRepository) List(ctx context.Context, f domain.ListingFilter) ([]*domain.Listing, error) {
	return guardRead(ctx, r.g, "list listings", func(ctx context.Context) ([]*domain.Listing, error) {
		return r.inner.List(ctx, f)
	})
}

// ResilientBookingRepository decorates a domain.BookingRepository with a Guard.
// Insert is never retried; UpdateStatus is a compare-and-set and is.
type ResilientBookingRepository struct {
	inner domain.BookingRepository
	g     *Guard
}

// NewResilientBookingRepository wraps inner
func NewResilientBookingRepository(inner domain.BookingRepository, g *Guard) *ResilientBookingRepository {
	return &ResilientBookingRepository{inner: inner, g: g}
}

func (r *ResilientBookingRepository) Insert(ctx context.Context, b *domain.Booking, today time.Time) error {
	return r.g.call(func() error { return r.inner.Insert(ctx, b, today) })
}

func (r *ResilientBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return guardRead(ctx, r.g, "get booking", func(ctx context.Context) (*domain.Booking, error) {
		return r.inner.GetByID(ctx, id)
	})
}

func (r *ResilientBookingRepository) BlockingForListing(ctx context.Context, listingID uuid.UUID, rng domain.DateRange, today time.Time) ([]*domain.Booking, error) {
	return guardRead(ctx, r.g, "query blocking bookings", func(ctx context.Context) ([]*domain.Booking, error) {
		return r.inner.BlockingForListing(ctx, listingID, rng, today)
	})
}

// UpdateStatus retries the compare-and-set. An attempt that committed but
// lost its reply makes the next one see a stale from; a booking already at
// to then counts as success.
func (r *ResilientBookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.BookingStatus) error {
	attempt := 0
	return guardRetriedWrite(ctx, r.g, "update booking status", func(ctx context.Context) error {
		attempt++
		err := r.inner.UpdateStatus(ctx, id, from, to)
		if attempt == 1 || !errors.Is(err, domain.ErrInvalidTransition) {
			return err
		}
		var current *domain.Booking
		if readErr := r.g.call(func() error {
			var err error
			current, err = r.inner.GetByID(ctx, id)
			return err
		}); readErr != nil {
			return readErr
		}
		if current.Status == to {
			r.g.logger.Info("booking status already applied by an earlier attempt",
				slog.String("booking_id", id.String()),
				slog.String("status", string(to)),
			)
			return nil
		}
		return err
	})
}

func (r *ResilientBookingRepository) List(ctx context.Context, f domain.BookingFilter) ([]*domain.Booking, error) {
	return guardRead(ctx, r.g, "list bookings", func(ctx context.Context) ([]*domain.Booking, error) {
		return r.inner.List(ctx, f)
	})
}

func (r *ResilientBookingRepository) DueForCompletion(ctx context.Context, today time.Time, limit int) ([]*domain.Booking, error) {
	return guardRead(ctx, r.g, "query bookings due", func(ctx context.Context) ([]*domain.Booking, error) {
		return r.inner.DueForCompletion(ctx, today, limit)
	})
}

// ResilientReviewRepository decorates a domain.ReviewRepository with a Guard
type ResilientReviewRepository struct {
	inner domain.ReviewRepository
	g     *Guard
}

// NewResilientReviewRepository wraps inner
func NewResilientReviewRepository(inner domain.ReviewRepository, g *Guard) *ResilientReviewRepository {
	return &ResilientReviewRepository{inner: inner, g: g}
}

func (r *ResilientReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	return r.g.call(func() error { return r.inner.Create(ctx, rv) })
}

func (r *ResilientReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	return guardRead(ctx, r.g, "get review", func(ctx context.Context) (*domain.Review, error) {
		return r.inner.GetByID(ctx, id)
	})
}

func (r *ResilientReviewRepository) ActiveForListing(ctx context.Context, listingID uuid.UUID) ([]*domain.Review, error) {
	return guardRead(ctx, r.g, "list active reviews", func(ctx context.Context) ([]*domain.Review, error) {
		return r.inner.ActiveForListing(ctx, listingID)
	})
}

func (r *ResilientReviewRepository) Exists(ctx context.Context, listingID, reviewerID uuid.UUID) (bool, error) {
	return guardRead(ctx, r.g, "check review", func(ctx context.Context) (bool, error) {
		return r.inner.Exists(ctx, listingID, reviewerID)
	})
}

func (r *ResilientReviewRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return guardRetriedWrite(ctx, r.g, "deactivate review", func(ctx context.Context) error {
		return r.inner.Deactivate(ctx, id)
	})
}

func (r *ResilientReviewRepository) List(ctx context.Context, f domain.ReviewFilter) ([]*domain.Review, error) {
	return guardRead(ctx, r.g, "list reviews", func(ctx context.Context) ([]*domain.Review, error) {
		return r.inner.List(ctx, f)
	})
}
