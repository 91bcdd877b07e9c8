package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
	"github.com/aryan0dhankhar/travellistings/internal/security"
	"github.com/aryan0dhankhar/travellistings/internal/security/audit"
)

// ListingService handles listing CRUD and search
type ListingService struct {
	listings domain.ListingRepository
	reviews  domain.ReviewRepository
	ratings  *RatingAggregator
	policy   *security.Policy
	audit    *audit.Logger
	logger   *slog.Logger
}

// ListingDetail is a listing with its derived rating and active reviews
type ListingDetail struct {
	Listing *domain.Listing
	Rating  domain.RatingSummary
	Reviews []*domain.Review
}

// ListingPatch carries the fields of a partial listing update. Nil means unchanged.
type ListingPatch struct {
	Title         *string
	Description   *string
	PropertyType  *domain.PropertyType
	Location      *string
	City          *string
	Country       *string
	PricePerNight *decimal.Decimal
	MaxGuests     *int
	Bedrooms      *int
	Bathrooms     *int
	Amenities     []string
	IsActive      *bool
}

// NewListingService creates a new listing service
func NewListingService(
	listings domain.ListingRepository,
	reviews domain.ReviewRepository,
	ratings *RatingAggregator,
	policy *security.Policy,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *ListingService {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}
	return &ListingService{
		listings: listings,
		reviews:  reviews,
		ratings:  ratings,
		policy:   policy,
		audit:    auditLog,
		logger:   logger,
	}
}

// Create publishes a listing owned by the actor
func (s *ListingService) Create(ctx context.Context, actor domain.Actor, listing *domain.Listing) (*domain.Listing, error) {
	if err := s.policy.CanCreateListing(actor); err != nil {
		return nil, err
	}
	listing.ID = uuid.Nil
	listing.HostID = actor.UserID
	listing.IsActive = true
	if err := listing.Validate(); err != nil {
		return nil, err
	}

	if err := s.listings.Create(ctx, listing); err != nil {
		s.audit.LogResult(ctx, actor, "create", "listing", "", err)
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	s.logger.Info("listing created",
		slog.String("listing_id", listing.ID.String()),
		slog.String("host_id", listing.HostID.String()),
	)
	s.audit.LogResult(ctx, actor, "create", "listing", listing.ID.String(), nil)
	return listing, nil
}

// Get returns a listing with its rating summary and active reviews
func (s *ListingService) Get(ctx context.Context, id uuid.UUID) (*ListingDetail, error) {
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rating, err := s.ratings.Summary(ctx, id)
	if err != nil {
		return nil, err
	}
	reviews, err := s.reviews.ActiveForListing(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	return &ListingDetail{Listing: listing, Rating: rating, Reviews: reviews}, nil
}

// Rating returns the rating summary of an existing listing
func (s *ListingService) Rating(ctx context.Context, id uuid.UUID) (domain.RatingSummary, error) {
	if _, err := s.listings.GetByID(ctx, id); err != nil {
		return domain.RatingSummary{}, err
	}
	return s.ratings.Summary(ctx, id)
}

// List returns active listings matching the filter, newest first
func (s *ListingService) List(ctx context.Context, filter domain.ListingFilter) ([]*domain.Listing, error) {
	return s.listings.List(ctx, filter)
}

// Reviews returns the active reviews of an existing listing
func (s *ListingService) Reviews(ctx context.Context, id uuid.UUID, filter domain.ReviewFilter) ([]*domain.Review, error) {
	if _, err := s.listings.GetByID(ctx, id); err != nil {
		return nil, err
	}
	filter.ListingID = id
	return s.reviews.List(ctx, filter)
}

// Update applies a partial update; only the host may do so
func (s *ListingService) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, patch ListingPatch) (*domain.Listing, error) {
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanWriteListing(actor, listing); err != nil {
		s.audit.LogResult(ctx, actor, "update", "listing", id.String(), err)
		return nil, err
	}

	patch.apply(listing)
	if err := listing.Validate(); err != nil {
		return nil, err
	}
	if err := s.listings.Update(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}

	s.audit.LogResult(ctx, actor, "update", "listing", id.String(), nil)
	return listing, nil
}

// Deactivate soft-deletes a listing; only the host may do so
func (s *ListingService) Deactivate(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.CanWriteListing(actor, listing); err != nil {
		s.audit.LogResult(ctx, actor, "deactivate", "listing", id.String(), err)
		return err
	}
	if err := s.listings.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("failed to deactivate listing: %w", err)
	}

	s.logger.Info("listing deactivated", slog.String("listing_id", id.String()))
	s.audit.LogResult(ctx, actor, "deactivate", "listing", id.String(), nil)
	return nil
}

func (p ListingPatch) apply(l *domain.Listing) {
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.PropertyType != nil {
		l.PropertyType = *p.PropertyType
	}
	if p.Location != nil {
		l.Location = *p.Location
	}
	if p.City != nil {
		l.City = *p.City
	}
	if p.Country != nil {
		l.Country = *p.Country
	}
	if p.PricePerNight != nil {
		l.PricePerNight = *p.PricePerNight
	}
	if p.MaxGuests != nil {
		l.MaxGuests = *p.MaxGuests
	}
	if p.Bedrooms != nil {
		l.Bedrooms = *p.Bedrooms
	}
	if p.Bathrooms != nil {
		l.Bathrooms = *p.Bathrooms
	}
	if p.Amenities != nil {
		l.Amenities = p.Amenities
	}
	if p.IsActive != nil {
		l.IsActive = *p.IsActive
	}
}
