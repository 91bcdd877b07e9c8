package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PropertyType classifies a listing
type PropertyType string

const (
	PropertyHouse     PropertyType = "house"
	PropertyApartment PropertyType = "apartment"
	PropertyVilla     PropertyType = "villa"
	PropertyCabin     PropertyType = "cabin"
	PropertyHotel     PropertyType = "hotel"
	PropertyResort    PropertyType = "resort"
)

// Valid reports whether the property type is known
func (p PropertyType) Valid() bool {
	switch p {
	case PropertyHouse, PropertyApartment, PropertyVilla, PropertyCabin, PropertyHotel, PropertyResort:
		return true
	}
	return false
}

// Listing represents a bookable property published by a host
type Listing struct {
	ID            uuid.UUID
	HostID        uuid.UUID
	Title         string
	Description   string
	PropertyType  PropertyType
	Location      string
	City          string
	Country       string
	PricePerNight decimal.Decimal // fixed-point, 2 fraction digits
	MaxGuests     int
	Bedrooms      int
	Bathrooms     int
	Amenities     []string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks the listing invariants: capacity >= 1, price >= 0.
func (l *Listing) Validate() error {
	var problems []string
	if strings.TrimSpace(l.Title) == "" {
		problems = append(problems, "title is required")
	}
	if l.MaxGuests < 1 {
		problems = append(problems, "max_guests must be at least 1")
	}
	if l.PricePerNight.IsNegative() {
		problems = append(problems, "price_per_night must not be negative")
	}
	if l.PropertyType != "" && !l.PropertyType.Valid() {
		problems = append(problems, fmt.Sprintf("unknown property_type %q", l.PropertyType))
	}
	if l.Bedrooms < 0 || l.Bathrooms < 0 {
		problems = append(problems, "bedrooms and bathrooms must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidListing, strings.Join(problems, ", "))
	}
	return nil
}

// HasAmenity reports whether the listing offers the amenity (case-insensitive substring).
func (l *Listing) HasAmenity(amenity string) bool {
	needle := strings.ToLower(strings.TrimSpace(amenity))
	for _, a := range l.Amenities {
		if strings.Contains(strings.ToLower(a), needle) {
			return true
		}
	}
	return false
}

// ListingFilter narrows listing queries. Zero values mean "no constraint".
type ListingFilter struct {
	Location     string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	PropertyType PropertyType
	MinGuests    int
	Amenities    []string
	HostID       uuid.UUID
	City         string
	Country      string
	Limit        int
	Offset       int
}

// ListingRepository defines data access for listings
type ListingRepository interface {
	Create(ctx context.Context, listing *Listing) error
	GetByID(ctx context.Context, id uuid.UUID) (*Listing, error)
	Update(ctx context.Context, listing *Listing) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	// List returns active listings, newest first.
	List(ctx context.Context, filter ListingFilter) ([]*Listing, error)
}
