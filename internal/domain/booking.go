package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Booking represents a guest's reservation of a listing for a date range
type Booking struct {
	ID              uuid.UUID
	ListingID       uuid.UUID
	GuestID         uuid.UUID
	CheckIn         time.Time // calendar date, UTC
	CheckOut        time.Time // calendar date, UTC, exclusive
	NumGuests       int
	TotalPrice      decimal.Decimal
	Status          BookingStatus
	SpecialRequests string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Range returns the booked half-open date range.
func (b *Booking) Range() DateRange {
	return DateRange{CheckIn: b.CheckIn, CheckOut: b.CheckOut}
}

// DurationDays is check-out minus check-in in days.
func (b *Booking) DurationDays() int {
	return b.Range().Nights()
}

// Blocks reports whether the booking occupies its range for availability purposes.
// Pending and Confirmed always block; Completed blocks only while its check-out is
// still ahead of today. Cancelled never blocks.
func (b *Booking) Blocks(today time.Time) bool {
	switch b.Status {
	case StatusPending, StatusConfirmed:
		return true
	case StatusCompleted:
		return b.CheckOut.After(Day(today))
	}
	return false
}

// RoleOf resolves how actor relates to this booking, given the listing host.
func (b *Booking) RoleOf(actor Actor, hostID uuid.UUID) ActorRole {
	switch {
	case actor.System:
		return RoleSystem
	case !actor.Authenticated:
		return RoleOutsider
	case actor.UserID == hostID:
		return RoleHost
	case actor.UserID == b.GuestID:
		return RoleGuest
	}
	return RoleOutsider
}

// BookingFilter narrows booking queries. Zero values mean "no constraint".
type BookingFilter struct {
	// ParticipantID matches bookings where the user is the guest or the listing host.
	ParticipantID uuid.UUID
	ListingID     uuid.UUID
	GuestID       uuid.UUID
	Status        BookingStatus
	Limit         int
	Offset        int
}

// BookingRepository defines data access for bookings
type BookingRepository interface {
	// Insert persists a new booking. It must reject, atomically with respect to other
	// inserts on the same listing, a booking whose range overlaps a blocking booking,
	// returning ErrDateRangeUnavailable.
	Insert(ctx context.Context, booking *Booking, today time.Time) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	// BlockingForListing returns bookings on the listing that overlap r and block it as of today.
	BlockingForListing(ctx context.Context, listingID uuid.UUID, r DateRange, today time.Time) ([]*Booking, error)
	// UpdateStatus moves a booking from -> to only if its current status is from.
	// A stale from yields ErrInvalidTransition.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to BookingStatus) error
	List(ctx context.Context, filter BookingFilter) ([]*Booking, error)
	// DueForCompletion returns confirmed bookings whose check-out is on or before today.
	DueForCompletion(ctx context.Context, today time.Time, limit int) ([]*Booking, error)
}
