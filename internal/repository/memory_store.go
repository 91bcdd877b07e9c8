package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
)

// MemoryStore keeps every entity in process memory behind a single lock.
// It honors the same contracts as the Postgres repositories, including the
// atomic overlap check on booking insert and cascade on user delete.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]*domain.User
	listings map[uuid.UUID]*domain.Listing
	bookings map[uuid.UUID]*domain.Booking
	reviews  map[uuid.UUID]*domain.Review
	now      func() time.Time
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    map[uuid.UUID]*domain.User{},
		listings: map[uuid.UUID]*domain.Listing{},
		bookings: map[uuid.UUID]*domain.Booking{},
		reviews:  map[uuid.UUID]*domain.Review{},
		now:      time.Now,
	}
}

// Users returns the user repository view of the store
func (s *MemoryStore) Users() *MemoryUserRepository { return &MemoryUserRepository{s} }

// Listings returns the listing repository view of the store
func (s *MemoryStore) Listings() *MemoryListingRepository { return &MemoryListingRepository{s} }

// Bookings returns the booking repository view of the store
func (s *MemoryStore) Bookings() *MemoryBookingRepository { return &MemoryBookingRepository{s} }

// Reviews returns the review repository view of the store
func (s *MemoryStore) Reviews() *MemoryReviewRepository { return &MemoryReviewRepository{s} }

// Ping always succeeds
func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// MemoryUserRepository implements domain.UserRepository
type MemoryUserRepository struct{ s *MemoryStore }

func (r *MemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return domain.ErrEmailTaken
		}
		if u.Username == user.Username {
			return domain.ErrUsernameTaken
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = r.s.now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.IsActive && strings.EqualFold(u.Email, email) })
}

func (r *MemoryUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.IsActive && u.Username == username })
}

func (r *MemoryUserRepository) find(match func(*domain.User) bool) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *MemoryUserRepository) Update(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	user.UpdatedAt = r.s.now()
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *MemoryUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.s.users, id)

	for lid, l := range r.s.listings {
		if l.HostID == id {
			delete(r.s.listings, lid)
		}
	}
	for bid, b := range r.s.bookings {
		if _, ok := r.s.listings[b.ListingID]; !ok || b.GuestID == id {
			delete(r.s.bookings, bid)
		}
	}
	for rid, rv := range r.s.reviews {
		if _, ok := r.s.listings[rv.ListingID]; !ok || rv.ReviewerID == id {
			delete(r.s.reviews, rid)
		}
	}
	return nil
}

// MemoryListingRepository implements domain.ListingRepository
type MemoryListingRepository struct{ s *MemoryStore }

func (r *MemoryListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[listing.HostID]; !ok {
		return domain.ErrUserNotFound
	}
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	listing.CreatedAt = r.s.now()
	listing.UpdatedAt = listing.CreatedAt
	r.s.listings[listing.ID] = cloneListing(listing)
	return nil
}

func (r *MemoryListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.listings[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	return cloneListing(l), nil
}

func (r *MemoryListingRepository) Update(ctx context.Context, listing *domain.Listing) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.listings[listing.ID]
	if !ok {
		return domain.ErrListingNotFound
	}
	listing.HostID = existing.HostID
	listing.CreatedAt = existing.CreatedAt
	listing.UpdatedAt = r.s.now()
	r.s.listings[listing.ID] = cloneListing(listing)
	return nil
}

func (r *MemoryListingRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.listings[id]
	if !ok {
		return domain.ErrListingNotFound
	}
	l.IsActive = false
	l.UpdatedAt = r.s.now()
	return nil
}

func (r *MemoryListingRepository) List(ctx context.Context, f domain.ListingFilter) ([]*domain.Listing, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.Listing{}
	for _, l := range r.s.listings {
		if l.IsActive && matchListing(l, f) {
			out = append(out, cloneListing(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, f.Limit, f.Offset), nil
}

func matchListing(l *domain.Listing, f domain.ListingFilter) bool {
	if f.Location != "" {
		loc := strings.ToLower(f.Location)
		if !strings.Contains(strings.ToLower(l.City), loc) &&
			!strings.Contains(strings.ToLower(l.Country), loc) &&
			!strings.Contains(strings.ToLower(l.Location), loc) {
			return false
		}
	}
	if f.City != "" && !strings.EqualFold(l.City, f.City) {
		return false
	}
	if f.Country != "" && !strings.EqualFold(l.Country, f.Country) {
		return false
	}
	if f.MinPrice != nil && l.PricePerNight.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && l.PricePerNight.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.PropertyType != "" && l.PropertyType != f.PropertyType {
		return false
	}
	if f.MinGuests > 0 && l.MaxGuests < f.MinGuests {
		return false
	}
	if f.HostID != uuid.Nil && l.HostID != f.HostID {
		return false
	}
	for _, a := range f.Amenities {
		if !l.HasAmenity(a) {
			return false
		}
	}
	return true
}

func cloneListing(l *domain.Listing) *domain.Listing {
	cp := *l
	cp.Amenities = append([]string(nil), l.Amenities...)
	return &cp
}

// MemoryBookingRepository implements domain.BookingRepository
type MemoryBookingRepository struct{ s *MemoryStore }

// Insert checks for overlap and stores the booking under the store's write lock,
// so two overlapping inserts can never both succeed.
func (r *MemoryBookingRepository) Insert(ctx context.Context, booking *domain.Booking, today time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.listings[booking.ListingID]; !ok {
		return domain.ErrListingNotFound
	}
	if _, ok := r.s.users[booking.GuestID]; !ok {
		return domain.ErrUserNotFound
	}
	for _, b := range r.s.bookings {
		if b.ListingID == booking.ListingID && b.Blocks(today) && b.Range().Overlaps(booking.Range()) {
			return domain.ErrDateRangeUnavailable
		}
	}
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	booking.CreatedAt = r.s.now()
	booking.UpdatedAt = booking.CreatedAt
	cp := *booking
	r.s.bookings[booking.ID] = &cp
	return nil
}

func (r *MemoryBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *MemoryBookingRepository) BlockingForListing(ctx context.Context, listingID uuid.UUID, rng domain.DateRange, today time.Time) ([]*domain.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.Booking{}
	for _, b := range r.s.bookings {
		if b.ListingID == listingID && b.Blocks(today) && b.Range().Overlaps(rng) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemoryBookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.BookingStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return domain.ErrBookingNotFound
	}
	if b.Status != from {
		return domain.ErrInvalidTransition
	}
	b.Status = to
	b.UpdatedAt = r.s.now()
	return nil
}

func (r *MemoryBookingRepository) List(ctx context.Context, f domain.BookingFilter) ([]*domain.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.Booking{}
	for _, b := range r.s.bookings {
		if f.ListingID != uuid.Nil && b.ListingID != f.ListingID {
			continue
		}
		if f.GuestID != uuid.Nil && b.GuestID != f.GuestID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.ParticipantID != uuid.Nil {
			l := r.s.listings[b.ListingID]
			if b.GuestID != f.ParticipantID && (l == nil || l.HostID != f.ParticipantID) {
				continue
			}
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, f.Limit, f.Offset), nil
}

func (r *MemoryBookingRepository) DueForCompletion(ctx context.Context, today time.Time, limit int) ([]*domain.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	day := domain.Day(today)
	out := []*domain.Booking{}
	for _, b := range r.s.bookings {
		if b.Status == domain.StatusConfirmed && !b.CheckOut.After(day) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckOut.Before(out[j].CheckOut) })
	return page(out, limit, 0), nil
}

// MemoryReviewRepository implements domain.ReviewRepository
type MemoryReviewRepository struct{ s *MemoryStore }

func (r *MemoryReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.listings[review.ListingID]; !ok {
		return domain.ErrListingNotFound
	}
	for _, rv := range r.s.reviews {
		if rv.ListingID == review.ListingID && rv.ReviewerID == review.ReviewerID {
			return domain.ErrDuplicateReview
		}
	}
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	review.CreatedAt = r.s.now()
	review.UpdatedAt = review.CreatedAt
	cp := *review
	r.s.reviews[review.ID] = &cp
	return nil
}

func (r *MemoryReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rv, ok := r.s.reviews[id]
	if !ok {
		return nil, domain.ErrReviewNotFound
	}
	cp := *rv
	return &cp, nil
}

func (r *MemoryReviewRepository) ActiveForListing(ctx context.Context, listingID uuid.UUID) ([]*domain.Review, error) {
	return r.List(ctx, domain.ReviewFilter{ListingID: listingID})
}

func (r *MemoryReviewRepository) Exists(ctx context.Context, listingID, reviewerID uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, rv := range r.s.reviews {
		if rv.ListingID == listingID && rv.ReviewerID == reviewerID {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryReviewRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rv, ok := r.s.reviews[id]
	if !ok {
		return domain.ErrReviewNotFound
	}
	rv.IsActive = false
	rv.UpdatedAt = r.s.now()
	return nil
}

func (r *MemoryReviewRepository) List(ctx context.Context, f domain.ReviewFilter) ([]*domain.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.Review{}
	for _, rv := range r.s.reviews {
		if !rv.IsActive {
			continue
		}
		if f.ListingID != uuid.Nil && rv.ListingID != f.ListingID {
			continue
		}
		if f.ReviewerID != uuid.Nil && rv.ReviewerID != f.ReviewerID {
			continue
		}
		if f.Rating != 0 && rv.Rating != f.Rating {
			continue
		}
		cp := *rv
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, f.Limit, f.Offset), nil
}
