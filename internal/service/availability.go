package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
)

// AvailabilityChecker answers whether a listing is free for a date range
type AvailabilityChecker struct {
	listings domain.ListingRepository
	bookings domain.BookingRepository
	now      func() time.Time
}

// NewAvailabilityChecker creates a new availability checker
func NewAvailabilityChecker(listings domain.ListingRepository, bookings domain.BookingRepository) *AvailabilityChecker {
	return &AvailabilityChecker{listings: listings, bookings: bookings, now: time.Now}
}

// IsAvailable reports whether no blocking booking on the listing overlaps
// [checkIn, checkOut). A non-nil exclude ignores that booking.
func (c *AvailabilityChecker) IsAvailable(ctx context.Context, listingID uuid.UUID, checkIn, checkOut time.Time, exclude uuid.UUID) (bool, error) {
	rng := domain.NewDateRange(checkIn, checkOut)
	if !rng.Valid() {
		return false, domain.ErrInvalidDateRange
	}
	if _, err := c.listings.GetByID(ctx, listingID); err != nil {
		return false, err
	}
	return c.rangeFree(ctx, listingID, rng, exclude)
}

// rangeFree assumes the listing exists and the range is well-formed
func (c *AvailabilityChecker) rangeFree(ctx context.Context, listingID uuid.UUID, rng domain.DateRange, exclude uuid.UUID) (bool, error) {
	blocking, err := c.bookings.BlockingForListing(ctx, listingID, rng, c.now())
	if err != nil {
		return false, fmt.Errorf("failed to load bookings: %w", err)
	}
	for _, b := range blocking {
		if exclude != uuid.Nil && b.ID == exclude {
			continue
		}
		return false, nil
	}
	return true, nil
}
