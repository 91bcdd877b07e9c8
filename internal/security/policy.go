package security

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
)

// Policy decides whether an actor may act on a resource. It is pure: callers
// load the entities and pass them in.
type Policy struct{}

// NewPolicy creates the access policy
func NewPolicy() *Policy {
	return &Policy{}
}

// CanWriteListing allows only the listing's host to modify or deactivate it
func (p *Policy) CanWriteListing(actor domain.Actor, listing *domain.Listing) error {
	if actor.Authenticated && actor.UserID == listing.HostID {
		return nil
	}
	return domain.ErrForbidden
}

// CanCreateListing requires an authenticated actor
func (p *Policy) CanCreateListing(actor domain.Actor) error {
	if !actor.Authenticated {
		return domain.ErrForbidden
	}
	return nil
}

// CanListListingBookings allows only the host to see a listing's bookings
func (p *Policy) CanListListingBookings(actor domain.Actor, listing *domain.Listing) error {
	return p.CanWriteListing(actor, listing)
}

// CanCreateReview requires an authenticated actor
func (p *Policy) CanCreateReview(actor domain.Actor) error {
	if !actor.Authenticated {
		return domain.ErrForbidden
	}
	return nil
}

// CanDeactivateReview allows the reviewer or the host of the reviewed listing
func (p *Policy) CanDeactivateReview(actor domain.Actor, review *domain.Review, listing *domain.Listing) error {
	if !actor.Authenticated {
		return domain.ErrForbidden
	}
	if actor.UserID == review.ReviewerID || (listing != nil && actor.UserID == listing.HostID) {
		return nil
	}
	return domain.ErrForbidden
}

// CanCreateBooking requires an authenticated actor
func (p *Policy) CanCreateBooking(actor domain.Actor) error {
	if !actor.Authenticated {
		return domain.ErrForbidden
	}
	return nil
}

// CanReadBooking allows the guest, the listing host and the system actor
func (p *Policy) CanReadBooking(actor domain.Actor, booking *domain.Booking, hostID uuid.UUID) error {
	if booking.RoleOf(actor, hostID) == domain.RoleOutsider {
		return domain.ErrForbidden
	}
	return nil
}

// AuthorizeTransition checks the transition table for the actor's role and the
// edge precondition. An outsider gets ErrForbidden; a participant whose role is
// not allowed, a missing edge or a failed precondition gets ErrInvalidTransition.
func (p *Policy) AuthorizeTransition(actor domain.Actor, booking *domain.Booking, hostID uuid.UUID, to domain.BookingStatus, today time.Time) error {
	role := booking.RoleOf(actor, hostID)
	if role == domain.RoleOutsider {
		return domain.ErrForbidden
	}

	rule, ok := domain.Rule(booking.Status, to)
	if !ok {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, booking.Status, to)
	}
	if !rule.Allows(role) {
		return fmt.Errorf("%w: %s may not move a booking %s -> %s", domain.ErrInvalidTransition, role, booking.Status, to)
	}
	if rule.RequiresCheckoutPassed && booking.CheckOut.After(domain.Day(today)) {
		return fmt.Errorf("%w: check-out %s has not passed", domain.ErrInvalidTransition, booking.CheckOut.Format(domain.DateLayout))
	}
	return nil
}
