package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
	"github.com/aryan0dhankhar/travellistings/internal/featureflags"
)

// BookingRequest is a guest's request to book a listing
type BookingRequest struct {
	ListingID uuid.UUID
	GuestID   uuid.UUID
	CheckIn   time.Time
	CheckOut  time.Time
	NumGuests int
	// DeclaredTotal is the client's price; when set it must match nights x price.
	DeclaredTotal   *decimal.Decimal
	SpecialRequests string
}

// Decision is the outcome of validating a BookingRequest. Exactly one of
// Draft and Violations is set.
type Decision struct {
	Draft      *domain.Booking
	Violations []domain.Violation
}

// Accepted reports whether the request passed every check
func (d *Decision) Accepted() bool {
	return len(d.Violations) == 0
}

// Err returns nil for an accepted decision, otherwise a *domain.ValidationError
func (d *Decision) Err() error {
	if d.Accepted() {
		return nil
	}
	return &domain.ValidationError{Violations: d.Violations}
}

// BookingValidator decides whether a booking request is acceptable. It
// never persists anything.
type BookingValidator struct {
	listings     domain.ListingRepository
	availability *AvailabilityChecker
	now          func() time.Time
	pastGuard    func() bool
}

// NewBookingValidator creates a new validator
func NewBookingValidator(listings domain.ListingRepository, availability *AvailabilityChecker) *BookingValidator {
	return &BookingValidator{
		listings:     listings,
		availability: availability,
		now:          time.Now,
		pastGuard:    func() bool { return featureflags.EnabledOr(featureflags.PastDateGuard, true) },
	}
}

// Validate runs the checks in order and collects every violation. A missing
// listing aborts with ErrListingNotFound; store failures return as errors.
func (v *BookingValidator) Validate(ctx context.Context, req BookingRequest) (*Decision, error) {
	listing, err := v.listings.GetByID(ctx, req.ListingID)
	if err != nil {
		if errors.Is(err, domain.ErrListingNotFound) {
			return nil, domain.ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}

	var violations []domain.Violation
	add := func(kind error, format string, args ...any) {
		violations = append(violations, domain.Violation{Kind: kind, Message: fmt.Sprintf(format, args...)})
	}

	if !listing.IsActive {
		add(domain.ErrListingInactive, "listing %s is not active", listing.ID)
	}

	rng := domain.NewDateRange(req.CheckIn, req.CheckOut)
	if !rng.Valid() {
		add(domain.ErrInvalidDateRange, "check-out date must be after check-in date")
	}

	today := domain.Day(v.now())
	if v.pastGuard() && rng.CheckIn.Before(today) {
		add(domain.ErrPastDateRange, "check-in date %s is before today", rng.CheckIn.Format(domain.DateLayout))
	}

	if req.NumGuests < 1 {
		add(domain.ErrGuestCapacityExceeded, "number of guests must be at least 1")
	} else if req.NumGuests > listing.MaxGuests {
		add(domain.ErrGuestCapacityExceeded, "number of guests (%d) exceeds maximum capacity (%d)", req.NumGuests, listing.MaxGuests)
	}

	if rng.Valid() {
		free, err := v.availability.rangeFree(ctx, listing.ID, rng, uuid.Nil)
		if err != nil {
			return nil, err
		}
		if !free {
			add(domain.ErrDateRangeUnavailable, "listing is not available for %s", rng)
		}
	}

	total := listing.PricePerNight.Mul(decimal.NewFromInt(int64(rng.Nights()))).Round(2)
	switch {
	case !total.IsPositive():
		add(domain.ErrInvalidPrice, "total price must be greater than zero")
	case req.DeclaredTotal != nil && !req.DeclaredTotal.Equal(total):
		add(domain.ErrInvalidPrice, "total price %s does not match %s", req.DeclaredTotal.StringFixed(2), total.StringFixed(2))
	}

	if len(violations) > 0 {
		return &Decision{Violations: violations}, nil
	}

	return &Decision{Draft: &domain.Booking{
		ListingID:       listing.ID,
		GuestID:         req.GuestID,
		CheckIn:         rng.CheckIn,
		CheckOut:        rng.CheckOut,
		NumGuests:       req.NumGuests,
		TotalPrice:      total,
		Status:          domain.StatusPending,
		SpecialRequests: req.SpecialRequests,
	}}, nil
}
