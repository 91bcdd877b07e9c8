package domain

import "fmt"

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// ActorRole is the relation of an actor to a booking.
type ActorRole string

const (
	RoleGuest    ActorRole = "guest"
	RoleHost     ActorRole = "host"
	RoleSystem   ActorRole = "system"
	RoleOutsider ActorRole = "outsider"
)

type transitionKey struct {
	from BookingStatus
	to   BookingStatus
}

// TransitionRule describes who may move a booking along one edge and under which precondition.
type TransitionRule struct {
	Actors []ActorRole
	// RequiresCheckoutPassed means the check-out date must be on or before today.
	RequiresCheckoutPassed bool
}

// Allows reports whether role may trigger the transition.
func (r TransitionRule) Allows(role ActorRole) bool {
	for _, a := range r.Actors {
		if a == role {
			return true
		}
	}
	return false
}

var transitions = map[transitionKey]TransitionRule{
	{StatusPending, StatusConfirmed}:   {Actors: []ActorRole{RoleHost}},
	{StatusPending, StatusCancelled}:   {Actors: []ActorRole{RoleGuest, RoleHost}},
	{StatusConfirmed, StatusCancelled}: {Actors: []ActorRole{RoleGuest, RoleHost}},
	{StatusConfirmed, StatusCompleted}: {Actors: []ActorRole{RoleHost, RoleSystem}, RequiresCheckoutPassed: true},
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Rule returns the transition rule for from -> to, if that edge exists.
func Rule(from, to BookingStatus) (TransitionRule, bool) {
	r, ok := transitions[transitionKey{from, to}]
	return r, ok
}

func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus, returning an error if invalid.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

// Action names a transition request as exposed over the API.
type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
)

// Target returns the status an action moves a booking to.
func (a Action) Target() (BookingStatus, error) {
	switch a {
	case ActionConfirm:
		return StatusConfirmed, nil
	case ActionCancel:
		return StatusCancelled, nil
	case ActionComplete:
		return StatusCompleted, nil
	}
	return "", fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, string(a))
}
