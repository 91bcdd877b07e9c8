package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Review represents a guest's rating of a listing. Reviews are never edited.
type Review struct {
	ID         uuid.UUID
	ListingID  uuid.UUID
	ReviewerID uuid.UUID
	Rating     int // 1..5
	Comment    string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ValidRating reports whether rating is within 1..5.
func ValidRating(rating int) bool {
	return rating >= 1 && rating <= 5
}

// RatingSummary is the derived rating of a listing over its active reviews.
type RatingSummary struct {
	Average decimal.Decimal
	Count   int
}

// ReviewFilter narrows review queries. Zero values mean "no constraint".
type ReviewFilter struct {
	ListingID  uuid.UUID
	ReviewerID uuid.UUID
	Rating     int
	Limit      int
	Offset     int
}

// ReviewRepository defines data access for reviews
type ReviewRepository interface {
	// Create fails with ErrDuplicateReview if the reviewer already reviewed the listing.
	Create(ctx context.Context, review *Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*Review, error)
	ActiveForListing(ctx context.Context, listingID uuid.UUID) ([]*Review, error)
	Exists(ctx context.Context, listingID, reviewerID uuid.UUID) (bool, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	// List returns active reviews, newest first.
	List(ctx context.Context, filter ReviewFilter) ([]*Review, error)
}
