package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/travellistings/internal/security/middleware"
	"github.com/aryan0dhankhar/travellistings/internal/service"
)

// ReviewHandler handles review endpoints
type ReviewHandler struct {
	reviews *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviews *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewHandler{reviews: reviews, logger: logger}
}

// List handles GET /api/reviews?listing=&rating=
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := reviewFilterFromQuery(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	reviews, err := h.reviews.List(r.Context(), filter)
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

// Create handles POST /api/reviews
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		badRequest(w, "invalid listing_id")
		return
	}

	review, err := h.reviews.Create(r.Context(), middleware.ActorFromContext(r.Context()), listingID, req.Rating, req.Comment)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReviewResponse(review))
}

// Get handles GET /api/reviews/{id}
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	review, err := h.reviews.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toReviewResponse(review))
}

// Deactivate handles DELETE /api/reviews/{id}
func (h *ReviewHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.reviews.Deactivate(r.Context(), middleware.ActorFromContext(r.Context()), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
