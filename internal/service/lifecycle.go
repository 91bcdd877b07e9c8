package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
	"github.com/aryan0dhankhar/travellistings/internal/security"
)

// Lifecycle moves bookings between statuses according to the transition table
type Lifecycle struct {
	bookings domain.BookingRepository
	listings domain.ListingRepository
	policy   *security.Policy
	now      func() time.Time
}

// NewLifecycle creates a booking lifecycle executor
func NewLifecycle(bookings domain.BookingRepository, listings domain.ListingRepository, policy *security.Policy) *Lifecycle {
	return &Lifecycle{bookings: bookings, listings: listings, policy: policy, now: time.Now}
}

// Transition applies to on behalf of actor. The write is a compare-and-set on
// the status observed here, so a concurrent transition makes this one fail
// with ErrInvalidTransition instead of overwriting it. The returned booking
// carries the new status; from is the status it left.
func (l *Lifecycle) Transition(ctx context.Context, actor domain.Actor, bookingID uuid.UUID, to domain.BookingStatus) (booking *domain.Booking, from domain.BookingStatus, err error) {
	booking, err = l.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	listing, err := l.listings.GetByID(ctx, booking.ListingID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load listing: %w", err)
	}

	if err := l.policy.AuthorizeTransition(actor, booking, listing.HostID, to, l.now()); err != nil {
		return nil, booking.Status, err
	}

	from = booking.Status
	if err := l.bookings.UpdateStatus(ctx, booking.ID, from, to); err != nil {
		return nil, from, err
	}
	booking.Status = to
	booking.UpdatedAt = l.now()
	return booking, from, nil
}
