package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/lib/pq"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqExclusionViolation  = "23P01"
	pqCheckViolation      = "23514"
	pqSerializationFail   = "40001"
	pqDeadlockDetected    = "40P01"
)

// translate maps driver errors onto domain errors. notFound is returned for
// sql.ErrNoRows and foreign key violations.
func translate(op string, err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == pqExclusionViolation:
			return domain.ErrDateRangeUnavailable
		case pqErr.Code == pqUniqueViolation:
			return uniqueViolation(pqErr.Constraint)
		case pqErr.Code == pqForeignKeyViolation:
			return notFound
		case pqErr.Code == pqCheckViolation:
			return checkViolation(op, pqErr)
		case pqErr.Code == pqSerializationFail, pqErr.Code == pqDeadlockDetected:
			return fmt.Errorf("failed to %s: %w: %s", op, domain.ErrStoreUnavailable, pqErr.Message)
		case pqErr.Code.Class() == "08", pqErr.Code.Class() == "53", pqErr.Code.Class() == "57":
			return fmt.Errorf("failed to %s: %w: %s", op, domain.ErrStoreUnavailable, pqErr.Message)
		}
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	if isConnectionError(err) {
		return fmt.Errorf("failed to %s: %w: %v", op, domain.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func uniqueViolation(constraint string) error {
	switch {
	case strings.Contains(constraint, "email"):
		return domain.ErrEmailTaken
	case strings.Contains(constraint, "username"):
		return domain.ErrUsernameTaken
	case strings.Contains(constraint, "reviewer"):
		return domain.ErrDuplicateReview
	}
	return fmt.Errorf("unique constraint %s violated", constraint)
}

// checkViolation maps a failed CHECK constraint onto the validation error of
// the row's domain type
func checkViolation(op string, pqErr *pq.Error) error {
	switch pqErr.Table {
	case "listings":
		return domain.ErrInvalidListing
	case "reviews":
		return domain.ErrInvalidRating
	case "bookings":
		if strings.Contains(pqErr.Constraint, "total_price") {
			return domain.ErrInvalidPrice
		}
		if strings.Contains(pqErr.Constraint, "num_guests") {
			return domain.ErrGuestCapacityExceeded
		}
		return domain.ErrInvalidDateRange
	}
	return fmt.Errorf("failed to %s: check constraint %s violated", op, pqErr.Constraint)
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
