package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event types published for bookings
const (
	EventBookingCreated       = "booking.created"
	EventBookingStatusChanged = "booking.status_changed"
	EventReviewCreated        = "review.created"
)

// Event is an integration event describing a committed state change
type Event struct {
	ID         uuid.UUID     `json:"id"`
	Type       string        `json:"type"`
	BookingID  uuid.UUID     `json:"booking_id"`
	ListingID  uuid.UUID     `json:"listing_id"`
	ActorID    uuid.UUID     `json:"actor_id"`
	From       BookingStatus `json:"from,omitempty"`
	To         BookingStatus `json:"to,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// NewEvent stamps an event with a fresh id and the current time
func NewEvent(eventType string, listingID uuid.UUID) Event {
	return Event{ID: uuid.New(), Type: eventType, ListingID: listingID, OccurredAt: time.Now().UTC()}
}
