package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
	"github.com/aryan0dhankhar/travellistings/internal/security"
	"github.com/aryan0dhankhar/travellistings/internal/security/audit"
)

// ReviewService handles review creation, reads and deactivation
type ReviewService struct {
	reviews  domain.ReviewRepository
	listings domain.ListingRepository
	ratings  *RatingAggregator
	policy   *security.Policy
	events   EventPublisher
	audit    *audit.Logger
	logger   *slog.Logger
}

// NewReviewService creates a new review service
func NewReviewService(
	reviews domain.ReviewRepository,
	listings domain.ListingRepository,
	ratings *RatingAggregator,
	policy *security.Policy,
	events EventPublisher,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *ReviewService {
	if logger == nil {
		logger = slog.Default()
	}
	if events == nil {
		events = noopPublisher{}
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}
	return &ReviewService{
		reviews:  reviews,
		listings: listings,
		ratings:  ratings,
		policy:   policy,
		events:   events,
		audit:    auditLog,
		logger:   logger,
	}
}

// Create records the actor's single review of a listing
func (s *ReviewService) Create(ctx context.Context, actor domain.Actor, listingID uuid.UUID, rating int, comment string) (*domain.Review, error) {
	if err := s.policy.CanCreateReview(actor); err != nil {
		return nil, err
	}
	if !domain.ValidRating(rating) {
		return nil, domain.ErrInvalidRating
	}
	if _, err := s.listings.GetByID(ctx, listingID); err != nil {
		return nil, err
	}

	exists, err := s.reviews.Exists(ctx, listingID, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}
	if exists {
		return nil, domain.ErrDuplicateReview
	}

	review := &domain.Review{
		ListingID:  listingID,
		ReviewerID: actor.UserID,
		Rating:     rating,
		Comment:    strings.TrimSpace(comment),
		IsActive:   true,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, domain.ErrDuplicateReview) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	s.ratings.Invalidate(ctx, listingID)

	s.audit.LogResult(ctx, actor, "create", "review", review.ID.String(), nil)

	ev := domain.NewEvent(domain.EventReviewCreated, listingID)
	ev.ActorID = actor.UserID
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn("failed to publish event",
			slog.String("type", ev.Type),
			slog.String("error", err.Error()),
		)
	}
	return review, nil
}

// Get returns an active review
func (s *ReviewService) Get(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !review.IsActive {
		return nil, domain.ErrReviewNotFound
	}
	return review, nil
}

// List returns active reviews, newest first
func (s *ReviewService) List(ctx context.Context, filter domain.ReviewFilter) ([]*domain.Review, error) {
	return s.reviews.List(ctx, filter)
}

// Deactivate hides a review; the reviewer or the listing host may do so
func (s *ReviewService) Deactivate(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	review, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	listing, err := s.listings.GetByID(ctx, review.ListingID)
	if err != nil && !errors.Is(err, domain.ErrListingNotFound) {
		return fmt.Errorf("failed to load listing: %w", err)
	}
	if err := s.policy.CanDeactivateReview(actor, review, listing); err != nil {
		s.audit.LogResult(ctx, actor, "deactivate", "review", id.String(), err)
		return err
	}

	if err := s.reviews.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("failed to deactivate review: %w", err)
	}
	s.ratings.Invalidate(ctx, review.ListingID)

	s.audit.LogResult(ctx, actor, "deactivate", "review", id.String(), nil)
	return nil
}
