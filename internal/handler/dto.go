package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
)

const dateLayout = domain.DateLayout

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,min=3,max=150"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest represents a change password request
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// DeleteAccountRequest confirms account deletion with the current password
type DeleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresIn int          `json:"expires_in"`
	TokenType string       `json:"token_type"`
}

// CreateListingRequest represents a new listing
type CreateListingRequest struct {
	Title         string   `json:"title" validate:"required,max=200"`
	Description   string   `json:"description" validate:"max=5000"`
	PropertyType  string   `json:"property_type" validate:"required,oneof=house apartment villa cabin hotel resort"`
	Location      string   `json:"location" validate:"required,max=255"`
	City          string   `json:"city" validate:"max=100"`
	Country       string   `json:"country" validate:"max=100"`
	PricePerNight string   `json:"price_per_night" validate:"required,numeric"`
	MaxGuests     int      `json:"max_guests" validate:"required,min=1"`
	Bedrooms      int      `json:"bedrooms" validate:"min=0"`
	Bathrooms     int      `json:"bathrooms" validate:"min=0"`
	Amenities     []string `json:"amenities" validate:"max=50,dive,required,max=100"`
}

// UpdateListingRequest is a partial listing update; absent fields are unchanged
type UpdateListingRequest struct {
	Title         *string  `json:"title" validate:"omitnil,min=1,max=200"`
	Description   *string  `json:"description" validate:"omitnil,max=5000"`
	PropertyType  *string  `json:"property_type" validate:"omitnil,oneof=house apartment villa cabin hotel resort"`
	Location      *string  `json:"location" validate:"omitnil,min=1,max=255"`
	City          *string  `json:"city" validate:"omitnil,max=100"`
	Country       *string  `json:"country" validate:"omitnil,max=100"`
	PricePerNight *string  `json:"price_per_night" validate:"omitnil,numeric"`
	MaxGuests     *int     `json:"max_guests" validate:"omitnil,min=1"`
	Bedrooms      *int     `json:"bedrooms" validate:"omitnil,min=0"`
	Bathrooms     *int     `json:"bathrooms" validate:"omitnil,min=0"`
	Amenities     []string `json:"amenities" validate:"omitempty,max=50,dive,required,max=100"`
	IsActive      *bool    `json:"is_active"`
}

// ListingResponse is the public view of a listing
type ListingResponse struct {
	ID            uuid.UUID         `json:"id"`
	HostID        uuid.UUID         `json:"host_id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	PropertyType  string            `json:"property_type"`
	Location      string            `json:"location"`
	City          string            `json:"city"`
	Country       string            `json:"country"`
	PricePerNight string            `json:"price_per_night"`
	MaxGuests     int               `json:"max_guests"`
	Bedrooms      int               `json:"bedrooms"`
	Bathrooms     int               `json:"bathrooms"`
	Amenities     []string          `json:"amenities"`
	IsActive      bool              `json:"is_active"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	AverageRating *string           `json:"average_rating,omitempty"`
	ReviewCount   *int              `json:"review_count,omitempty"`
	Reviews       []*ReviewResponse `json:"reviews,omitempty"`
}

// CreateBookingRequest represents a booking request
type CreateBookingRequest struct {
	ListingID       string  `json:"listing_id" validate:"required,uuid"`
	CheckIn         string  `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut        string  `json:"check_out" validate:"required,datetime=2006-01-02"`
	NumGuests       int     `json:"num_guests"`
	TotalPrice      *string `json:"total_price" validate:"omitnil,numeric"`
	SpecialRequests string  `json:"special_requests" validate:"max=2000"`
}

// BookingResponse is the public view of a booking
type BookingResponse struct {
	ID              uuid.UUID `json:"id"`
	ListingID       uuid.UUID `json:"listing_id"`
	GuestID         uuid.UUID `json:"guest_id"`
	CheckIn         string    `json:"check_in"`
	CheckOut        string    `json:"check_out"`
	DurationDays    int       `json:"duration_days"`
	NumGuests       int       `json:"num_guests"`
	TotalPrice      string    `json:"total_price"`
	Status          string    `json:"status"`
	SpecialRequests string    `json:"special_requests"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BulkTransitionRequest applies one action to several bookings
type BulkTransitionRequest struct {
	BookingIDs []string `json:"booking_ids" validate:"required,min=1,max=100,dive,uuid"`
	Action     string   `json:"action" validate:"required,oneof=confirm cancel complete"`
}

// BulkItemResponse is the outcome for one booking of a bulk request
type BulkItemResponse struct {
	BookingID uuid.UUID        `json:"booking_id"`
	OK        bool             `json:"ok"`
	Booking   *BookingResponse `json:"booking,omitempty"`
	Kind      string           `json:"kind,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// BulkTransitionResponse summarizes a bulk request
type BulkTransitionResponse struct {
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Results   []BulkItemResponse `json:"results"`
}

// CreateReviewRequest represents a new review
type CreateReviewRequest struct {
	ListingID string `json:"listing_id" validate:"required,uuid"`
	Rating    int    `json:"rating" validate:"min=1,max=5"`
	Comment   string `json:"comment" validate:"max=5000"`
}

// ReviewResponse is the public view of a review
type ReviewResponse struct {
	ID         uuid.UUID `json:"id"`
	ListingID  uuid.UUID `json:"listing_id"`
	ReviewerID uuid.UUID `json:"reviewer_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

// RatingResponse is the rating summary of a listing
type RatingResponse struct {
	ListingID     uuid.UUID `json:"listing_id"`
	AverageRating string    `json:"average_rating"`
	ReviewCount   int       `json:"review_count"`
}

// AvailabilityResponse answers an availability query
type AvailabilityResponse struct {
	ListingID uuid.UUID `json:"listing_id"`
	CheckIn   string    `json:"check_in"`
	CheckOut  string    `json:"check_out"`
	Available bool      `json:"available"`
}

// ListResponse wraps a page of results
type ListResponse[T any] struct {
	Results []T `json:"results"`
	Count   int `json:"count"`
	Limit   int `json:"limit"`
	Offset  int `json:"offset"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
	}
}

func toListingResponse(l *domain.Listing) *ListingResponse {
	amenities := l.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return &ListingResponse{
		ID:            l.ID,
		HostID:        l.HostID,
		Title:         l.Title,
		Description:   l.Description,
		PropertyType:  string(l.PropertyType),
		Location:      l.Location,
		City:          l.City,
		Country:       l.Country,
		PricePerNight: l.PricePerNight.StringFixed(2),
		MaxGuests:     l.MaxGuests,
		Bedrooms:      l.Bedrooms,
		Bathrooms:     l.Bathrooms,
		Amenities:     amenities,
		IsActive:      l.IsActive,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

func toBookingResponse(b *domain.Booking) *BookingResponse {
	return &BookingResponse{
		ID:              b.ID,
		ListingID:       b.ListingID,
		GuestID:         b.GuestID,
		CheckIn:         b.CheckIn.Format(dateLayout),
		CheckOut:        b.CheckOut.Format(dateLayout),
		DurationDays:    b.DurationDays(),
		NumGuests:       b.NumGuests,
		TotalPrice:      b.TotalPrice.StringFixed(2),
		Status:          string(b.Status),
		SpecialRequests: b.SpecialRequests,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func toReviewResponse(r *domain.Review) *ReviewResponse {
	return &ReviewResponse{
		ID:         r.ID,
		ListingID:  r.ListingID,
		ReviewerID: r.ReviewerID,
		Rating:     r.Rating,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt,
	}
}

func toRatingResponse(listingID uuid.UUID, s domain.RatingSummary) RatingResponse {
	return RatingResponse{
		ListingID:     listingID,
		AverageRating: s.Average.StringFixed(2),
		ReviewCount:   s.Count,
	}
}

func mapSlice[T, R any](in []T, f func(T) R) []R {
	out := make([]R, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}
