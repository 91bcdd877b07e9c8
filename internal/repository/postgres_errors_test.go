package repository

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", sql.ErrNoRows, domain.ErrListingNotFound},
		{"overlap", &pq.Error{Code: "23P01"}, domain.ErrDateRangeUnavailable},
		{"duplicate email", &pq.Error{Code: "23505", Constraint: "users_email_key"}, domain.ErrEmailTaken},
		{"negative listing price", &pq.Error{Code: "23514", Table: "listings", Constraint: "listings_price_per_night_check"}, domain.ErrInvalidListing},
		{"rating out of range", &pq.Error{Code: "23514", Table: "reviews", Constraint: "reviews_rating_check"}, domain.ErrInvalidRating},
		{"zero booking total", &pq.Error{Code: "23514", Table: "bookings", Constraint: "bookings_total_price_check"}, domain.ErrInvalidPrice},
		{"inverted stay", &pq.Error{Code: "23514", Table: "bookings", Constraint: "bookings_check"}, domain.ErrInvalidDateRange},
		{"serialization", fmt.Errorf("commit: %w", &pq.Error{Code: "40001"}), domain.ErrStoreUnavailable},
		{"admin shutdown", &pq.Error{Code: "57P01"}, domain.ErrStoreUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translate("write", tt.err, domain.ErrListingNotFound), tt.want)
		})
	}
}

func TestTranslateUnknownCheckIsNotValidation(t *testing.T) {
	err := translate("write", &pq.Error{Code: "23514", Table: "audit", Constraint: "audit_check"}, domain.ErrListingNotFound)
	assert.ErrorContains(t, err, "audit_check")
	assert.NotErrorIs(t, err, domain.ErrInvalidListing)
	assert.False(t, domain.IsRetryable(err))
}
