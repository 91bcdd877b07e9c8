package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
	"github.com/aryan0dhankhar/travellistings/internal/security/middleware"
	"github.com/aryan0dhankhar/travellistings/internal/service"
)

// ListingHandler handles listing endpoints, search and the per-listing
// availability, rating, review and booking views
type ListingHandler struct {
	listings *service.ListingService
	bookings *service.BookingService
	logger   *slog.Logger
}

// NewListingHandler creates a new listing handler
func NewListingHandler(listings *service.ListingService, bookings *service.BookingService, logger *slog.Logger) *ListingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListingHandler{listings: listings, bookings: bookings, logger: logger}
}

// List handles GET /api/listings
func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := listingFilterFromQuery(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	h.respondListings(w, r, filter)
}

// Search handles GET /api/search
func (h *ListingHandler) Search(w http.ResponseWriter, r *http.Request) {
	h.List(w, r)
}

func (h *ListingHandler) respondListings(w http.ResponseWriter, r *http.Request, filter domain.ListingFilter) {
	listings, err := h.listings.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[*ListingResponse]{
		Results: mapSlice(listings, toListingResponse),
		Count:   len(listings),
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	})
}

// Create handles POST /api/listings
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateListingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	price, err := decimal.NewFromString(req.PricePerNight)
	if err != nil {
		badRequest(w, "invalid price_per_night")
		return
	}

	listing, err := h.listings.Create(r.Context(), middleware.ActorFromContext(r.Context()), &domain.Listing{
		Title:         req.Title,
		Description:   req.Description,
		PropertyType:  domain.PropertyType(req.PropertyType),
		Location:      req.Location,
		City:          req.City,
		Country:       req.Country,
		PricePerNight: price.Round(2),
		MaxGuests:     req.MaxGuests,
		Bedrooms:      req.Bedrooms,
		Bathrooms:     req.Bathrooms,
		Amenities:     req.Amenities,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toListingResponse(listing))
}

// Get handles GET /api/listings/{id}
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	detail, err := h.listings.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := toListingResponse(detail.Listing)
	avg := detail.Rating.Average.StringFixed(2)
	count := detail.Rating.Count
	resp.AverageRating = &avg
	resp.ReviewCount = &count
	resp.Reviews = mapSlice(detail.Reviews, toReviewResponse)
	writeJSON(w, http.StatusOK, resp)
}

// Update handles PATCH /api/listings/{id}
func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateListingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	patch := service.ListingPatch{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		City:        req.City,
		Country:     req.Country,
		MaxGuests:   req.MaxGuests,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		Amenities:   req.Amenities,
		IsActive:    req.IsActive,
	}
	if req.PropertyType != nil {
		pt := domain.PropertyType(*req.PropertyType)
		patch.PropertyType = &pt
	}
	if req.PricePerNight != nil {
		price, err := decimal.NewFromString(*req.PricePerNight)
		if err != nil {
			badRequest(w, "invalid price_per_night")
			return
		}
		price = price.Round(2)
		patch.PricePerNight = &price
	}

	listing, err := h.listings.Update(r.Context(), middleware.ActorFromContext(r.Context()), id, patch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(listing))
}

// Deactivate handles DELETE /api/listings/{id}
func (h *ListingHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.listings.Deactivate(r.Context(), middleware.ActorFromContext(r.Context()), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reviews handles GET /api/listings/{id}/reviews
func (h *ListingHandler) Reviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	filter, err := reviewFilterFromQuery(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	reviews, err := h.listings.Reviews(r.Context(), id, filter)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[*ReviewResponse]{
		Results: mapSlice(reviews, toReviewResponse),
		Count:   len(reviews),
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	})
}

// Bookings handles GET /api/listings/{id}/bookings (host only)
func (h *ListingHandler) Bookings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	filter, err := bookingFilterFromQuery(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	bookings, err := h.bookings.ListForListing(r.Context(), middleware.ActorFromContext(r.Context()), id, filter)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[*BookingResponse]{
		Results: mapSlice(bookings, toBookingResponse),
		Count:   len(bookings),
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	})
}

// Availability handles GET /api/listings/{id}/availability?check_in=&check_out=
func (h *ListingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	q := r.URL.Query()
	checkIn, err := domain.ParseDate(q.Get("check_in"))
	if err != nil {
		badRequest(w, "check_in must be a YYYY-MM-DD date")
		return
	}
	checkOut, err := domain.ParseDate(q.Get("check_out"))
	if err != nil {
		badRequest(w, "check_out must be a YYYY-MM-DD date")
		return
	}

	available, err := h.bookings.IsAvailable(r.Context(), id, checkIn, checkOut)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, AvailabilityResponse{
		ListingID: id,
		CheckIn:   checkIn.Format(dateLayout),
		CheckOut:  checkOut.Format(dateLayout),
		Available: available,
	})
}

// Rating handles GET /api/listings/{id}/rating
func (h *ListingHandler) Rating(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	summary, err := h.listings.Rating(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toRatingResponse(id, summary))
}

func listingFilterFromQuery(r *http.Request) (domain.ListingFilter, error) {
	q := r.URL.Query()
	var f domain.ListingFilter
	var err error

	if f.Limit, f.Offset, err = pagination(r); err != nil {
		return f, err
	}
	f.Location = strings.TrimSpace(q.Get("location"))
	f.City = strings.TrimSpace(q.Get("city"))
	f.Country = strings.TrimSpace(q.Get("country"))

	for name, dst := range map[string]**decimal.Decimal{"min_price": &f.MinPrice, "max_price": &f.MaxPrice} {
		if raw := q.Get(name); raw != "" {
			d, err := decimal.NewFromString(raw)
			if err != nil {
				return f, fmt.Errorf("invalid %s: %q", name, raw)
			}
			*dst = &d
		}
	}

	if raw := q.Get("property_type"); raw != "" {
		pt := domain.PropertyType(strings.ToLower(raw))
		if !pt.Valid() {
			return f, fmt.Errorf("invalid property_type: %q", raw)
		}
		f.PropertyType = pt
	}
	if f.MinGuests, err = queryInt(r, "min_guests", 0); err != nil {
		return f, err
	}
	if f.HostID, err = queryUUID(r, "host_id"); err != nil {
		return f, err
	}
	if raw := q.Get("amenities"); raw != "" {
		for _, a := range strings.Split(raw, ",") {
			if a = strings.TrimSpace(a); a != "" {
				f.Amenities = append(f.Amenities, a)
			}
		}
	}
	return f, nil
}

func reviewFilterFromQuery(r *http.Request) (domain.ReviewFilter, error) {
	var f domain.ReviewFilter
	var err error
	if f.Limit, f.Offset, err = pagination(r); err != nil {
		return f, err
	}
	if f.ListingID, err = queryUUID(r, "listing"); err != nil {
		return f, err
	}
	if f.Rating, err = queryInt(r, "rating", 0); err != nil {
		return f, err
	}
	if f.Rating != 0 && !domain.ValidRating(f.Rating) {
		return f, fmt.Errorf("invalid rating: %d", f.Rating)
	}
	return f, nil
}

func bookingFilterFromQuery(r *http.Request) (domain.BookingFilter, error) {
	var f domain.BookingFilter
	var err error
	if f.Limit, f.Offset, err = pagination(r); err != nil {
		return f, err
	}
	if f.ListingID, err = queryUUID(r, "listing"); err != nil {
		return f, err
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		if f.Status, err = domain.ParseBookingStatus(raw); err != nil {
			return f, err
		}
	}
	return f, nil
}
