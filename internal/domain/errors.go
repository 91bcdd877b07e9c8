package domain

import (
	"errors"
	"strings"
)

// Error kinds surfaced by the booking core. Callers match them with errors.Is.
var (
	ErrListingNotFound       = errors.New("listing not found")
	ErrListingInactive       = errors.New("listing is not active")
	ErrInvalidDateRange      = errors.New("check-out date must be after check-in date")
	ErrPastDateRange         = errors.New("check-in date is in the past")
	ErrGuestCapacityExceeded = errors.New("number of guests exceeds listing capacity")
	ErrDateRangeUnavailable  = errors.New("listing is not available for the requested dates")
	ErrInvalidPrice          = errors.New("total price must be greater than zero")
	ErrInvalidTransition     = errors.New("invalid booking status transition")
	ErrForbidden             = errors.New("forbidden")
	ErrDuplicateReview       = errors.New("review already exists for this listing")
	ErrStoreUnavailable      = errors.New("store unavailable")

	ErrBookingNotFound    = errors.New("booking not found")
	ErrReviewNotFound     = errors.New("review not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrInvalidListing     = errors.New("invalid listing")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// kinds is ordered so that KindOf is deterministic for wrapped chains.
var kinds = []struct {
	err  error
	name string
}{
	{ErrListingNotFound, "ListingNotFound"},
	{ErrListingInactive, "ListingInactive"},
	{ErrInvalidDateRange, "InvalidDateRange"},
	{ErrPastDateRange, "PastDateRange"},
	{ErrGuestCapacityExceeded, "GuestCapacityExceeded"},
	{ErrDateRangeUnavailable, "DateRangeUnavailable"},
	{ErrInvalidPrice, "InvalidPrice"},
	{ErrInvalidTransition, "InvalidTransition"},
	{ErrForbidden, "Forbidden"},
	{ErrDuplicateReview, "DuplicateReview"},
	{ErrStoreUnavailable, "StoreUnavailable"},
	{ErrBookingNotFound, "BookingNotFound"},
	{ErrReviewNotFound, "ReviewNotFound"},
	{ErrUserNotFound, "UserNotFound"},
	{ErrUnauthenticated, "Unauthenticated"},
	{ErrInvalidRating, "InvalidRating"},
	{ErrInvalidListing, "InvalidListing"},
	{ErrEmailTaken, "EmailTaken"},
	{ErrUsernameTaken, "UsernameTaken"},
	{ErrInvalidCredentials, "InvalidCredentials"},
	{ErrWeakPassword, "WeakPassword"},
}

// KindOf returns the stable name of the first error kind found in err's chain,
// or "Internal" if err carries none.
func KindOf(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Internal"
}

// Violation is a single broken booking rule.
type Violation struct {
	Kind    error
	Message string
}

// KindName is the stable name of the violation kind.
func (v Violation) KindName() string {
	return KindOf(v.Kind)
}

// ValidationError carries every violation found for a booking request, in check order.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return "booking rejected: " + strings.Join(msgs, "; ")
}

// Is reports whether any contained violation is of the target kind.
func (e *ValidationError) Is(target error) bool {
	for _, v := range e.Violations {
		if v.Kind == target {
			return true
		}
	}
	return false
}

// IsRetryable reports whether err is a transient store failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
