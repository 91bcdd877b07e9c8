package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
	"github.com/aryan0dhankhar/travellistings/internal/observability/metrics"
	"github.com/aryan0dhankhar/travellistings/internal/observability/tracing"
	"github.com/aryan0dhankhar/travellistings/internal/security"
	"github.com/aryan0dhankhar/travellistings/internal/security/audit"
)

// EventPublisher delivers integration events. Publishing is best-effort:
// a failure is logged and never undoes the committed change.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, domain.Event) error { return nil }

// BookingService handles booking creation, reads and status transitions
type BookingService struct {
	listings     domain.ListingRepository
	bookings     domain.BookingRepository
	availability *AvailabilityChecker
	validator    *BookingValidator
	lifecycle    *Lifecycle
	policy       *security.Policy
	locker       Locker
	events       EventPublisher
	audit        *audit.Logger
	logger       *slog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// NewBookingService creates a new booking service. locker and events may be nil.
func NewBookingService(
	listings domain.ListingRepository,
	bookings domain.BookingRepository,
	policy *security.Policy,
	locker Locker,
	events EventPublisher,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *BookingService {
	if logger == nil {
		logger = slog.Default()
	}
	if locker == nil {
		locker = NewKeyedMutex()
	}
	if events == nil {
		events = noopPublisher{}
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}

	availability := NewAvailabilityChecker(listings, bookings)
	return &BookingService{
		listings:     listings,
		bookings:     bookings,
		availability: availability,
		validator:    NewBookingValidator(listings, availability),
		lifecycle:    NewLifecycle(bookings, listings, policy),
		policy:       policy,
		locker:       locker,
		events:       events,
		audit:        auditLog,
		logger:       logger,
		tracer:       tracing.Tracer(),
		now:          time.Now,
	}
}

// SetClock overrides the service's notion of "now" in every component
func (s *BookingService) SetClock(now func() time.Time) {
	s.now = now
	s.availability.now = now
	s.validator.now = now
	s.lifecycle.now = now
}

// Validator exposes the booking validator for dry-run checks
func (s *BookingService) Validator() *BookingValidator {
	return s.validator
}

// IsAvailable reports whether the listing is free for [checkIn, checkOut)
func (s *BookingService) IsAvailable(ctx context.Context, listingID uuid.UUID, checkIn, checkOut time.Time) (bool, error) {
	return s.availability.IsAvailable(ctx, listingID, checkIn, checkOut, uuid.Nil)
}

// Create validates and persists a booking for the acting guest. Validation
// and insert run under a per-listing lock; the store rejects any overlap
// that slips past it.
func (s *BookingService) Create(ctx context.Context, actor domain.Actor, req BookingRequest) (*domain.Booking, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "booking.create", trace.WithAttributes(
		attribute.String("listing_id", req.ListingID.String()),
	))
	defer span.End()

	booking, err := s.create(ctx, actor, req)

	result := "accepted"
	if err != nil {
		result = "rejected"
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			for _, v := range verr.Violations {
				metrics.ObserveViolation(v.KindName())
			}
		} else {
			result = "error"
		}
		span.SetStatus(codes.Error, domain.KindOf(err))
		span.RecordError(err)
	}
	metrics.ObserveBookingCreate(result, time.Since(start))

	resourceID := ""
	if booking != nil {
		resourceID = booking.ID.String()
	}
	s.audit.LogResult(ctx, actor, "create", "booking", resourceID, err)
	return booking, err
}

func (s *BookingService) create(ctx context.Context, actor domain.Actor, req BookingRequest) (*domain.Booking, error) {
	if err := s.policy.CanCreateBooking(actor); err != nil {
		return nil, err
	}
	req.GuestID = actor.UserID

	unlock, err := s.locker.Lock(ctx, "listing:"+req.ListingID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to lock listing: %w", err)
	}
	defer unlock()

	decision, err := s.validator.Validate(ctx, req)
	if err != nil {
		return nil, err
	}
	if !decision.Accepted() {
		s.logger.Info("booking rejected",
			slog.String("listing_id", req.ListingID.String()),
			slog.String("guest_id", req.GuestID.String()),
			slog.Int("violations", len(decision.Violations)),
		)
		return nil, decision.Err()
	}

	booking := decision.Draft
	if err := s.bookings.Insert(ctx, booking, s.now()); err != nil {
		if errors.Is(err, domain.ErrDateRangeUnavailable) {
			return nil, &domain.ValidationError{Violations: []domain.Violation{{
				Kind:    domain.ErrDateRangeUnavailable,
				Message: fmt.Sprintf("listing is not available for %s", booking.Range()),
			}}}
		}
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	s.logger.Info("booking created",
		slog.String("booking_id", booking.ID.String()),
		slog.String("listing_id", booking.ListingID.String()),
		slog.String("range", booking.Range().String()),
	)

	ev := domain.NewEvent(domain.EventBookingCreated, booking.ListingID)
	ev.BookingID = booking.ID
	ev.ActorID = actor.UserID
	ev.To = booking.Status
	s.publish(ctx, ev)

	return booking, nil
}

// Get returns a booking the actor is allowed to see
func (s *BookingService) Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	listing, err := s.listings.GetByID(ctx, booking.ListingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}
	if err := s.policy.CanReadBooking(actor, booking, listing.HostID); err != nil {
		return nil, err
	}
	return booking, nil
}

// ListMine returns bookings where the actor is the guest or the listing host
func (s *BookingService) ListMine(ctx context.Context, actor domain.Actor, filter domain.BookingFilter) ([]*domain.Booking, error) {
	if !actor.Authenticated {
		return nil, domain.ErrUnauthenticated
	}
	filter.ParticipantID = actor.UserID
	return s.bookings.List(ctx, filter)
}

// ListForListing returns every booking of a listing to its host
func (s *BookingService) ListForListing(ctx context.Context, actor domain.Actor, listingID uuid.UUID, filter domain.BookingFilter) ([]*domain.Booking, error) {
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanListListingBookings(actor, listing); err != nil {
		return nil, err
	}
	filter.ListingID = listingID
	return s.bookings.List(ctx, filter)
}

// Transition applies an action (confirm, cancel, complete) to a booking
func (s *BookingService) Transition(ctx context.Context, actor domain.Actor, id uuid.UUID, action domain.Action) (*domain.Booking, error) {
	to, err := action.Target()
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "booking.transition", trace.WithAttributes(
		attribute.String("booking_id", id.String()),
		attribute.String("to", string(to)),
	))
	defer span.End()

	booking, from, err := s.lifecycle.Transition(ctx, actor, id, to)

	result := "ok"
	if err != nil {
		result = domain.KindOf(err)
		span.SetStatus(codes.Error, result)
		span.RecordError(err)
	}
	metrics.ObserveTransition(string(from), string(to), result)
	s.audit.LogResult(ctx, actor, string(action), "booking", id.String(), err)

	if err != nil {
		return nil, err
	}

	s.logger.Info("booking status changed",
		slog.String("booking_id", booking.ID.String()),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)

	ev := domain.NewEvent(domain.EventBookingStatusChanged, booking.ListingID)
	ev.BookingID = booking.ID
	ev.ActorID = actor.UserID
	ev.From = from
	ev.To = to
	s.publish(ctx, ev)

	return booking, nil
}

// BulkResult is the outcome of one transition inside a bulk request
type BulkResult struct {
	BookingID uuid.UUID
	Booking   *domain.Booking
	Err       error
}

// BulkTransition applies the same action to each booking independently.
// One failure does not stop the others.
func (s *BookingService) BulkTransition(ctx context.Context, actor domain.Actor, ids []uuid.UUID, action domain.Action) []BulkResult {
	results := make([]BulkResult, 0, len(ids))
	for _, id := range ids {
		b, err := s.Transition(ctx, actor, id, action)
		results = append(results, BulkResult{BookingID: id, Booking: b, Err: err})
	}
	return results
}

// CompleteDue completes confirmed bookings whose check-out has passed, as the
// system actor. It returns how many bookings were completed.
func (s *BookingService) CompleteDue(ctx context.Context, limit int) (int, error) {
	due, err := s.bookings.DueForCompletion(ctx, s.now(), limit)
	if err != nil {
		return 0, fmt.Errorf("failed to load bookings due for completion: %w", err)
	}

	completed := 0
	for _, b := range due {
		if ctx.Err() != nil {
			return completed, ctx.Err()
		}
		if _, err := s.Transition(ctx, domain.SystemActor(), b.ID, domain.ActionComplete); err != nil {
			metrics.ObserveCompletion("failed")
			s.logger.Warn("failed to complete booking",
				slog.String("booking_id", b.ID.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		metrics.ObserveCompletion("completed")
		completed++
	}
	return completed, nil
}

func (s *BookingService) publish(ctx context.Context, ev domain.Event) {
	if err := s.events.Publish(ctx, ev); err != nil {
		metrics.ObserveEvent(ev.Type, "failed")
		s.logger.Warn("failed to publish event",
			slog.String("type", ev.Type),
			slog.String("booking_id", ev.BookingID.String()),
			slog.String("error", err.Error()),
		)
		return
	}
	metrics.ObserveEvent(ev.Type, "published")
}
