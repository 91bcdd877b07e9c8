package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
	"github.com/aryan0dhankhar/travellistings/internal/security/middleware"
	"github.com/aryan0dhankhar/travellistings/internal/service"
)

// BookingHandler handles booking endpoints
type BookingHandler struct {
	bookings *service.BookingService
	logger   *slog.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookings *service.BookingService, logger *slog.Logger) *BookingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingHandler{bookings: bookings, logger: logger}
}

// List handles GET /api/bookings: bookings where the caller is guest or host
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := bookingFilterFromQuery(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	bookings, err := h.bookings.ListMine(r.Context(), middleware.ActorFromContext(r.Context()), filter)
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

// Create handles POST /api/bookings
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		badRequest(w, "invalid listing_id")
		return
	}
	checkIn, err := domain.ParseDate(req.CheckIn)
	if err != nil {
		badRequest(w, "invalid check_in")
		return
	}
	checkOut, err := domain.ParseDate(req.CheckOut)
	if err != nil {
		badRequest(w, "invalid check_out")
		return
	}

	bookingReq := service.BookingRequest{
		ListingID:       listingID,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		NumGuests:       req.NumGuests,
		SpecialRequests: req.SpecialRequests,
	}
	if req.TotalPrice != nil {
		total, err := decimal.NewFromString(*req.TotalPrice)
		if err != nil {
			badRequest(w, "invalid total_price")
			return
		}
		bookingReq.DeclaredTotal = &total
	}

	booking, err := h.bookings.Create(r.Context(), middleware.ActorFromContext(r.Context()), bookingReq)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingResponse(booking))
}

// Get handles GET /api/bookings/{id}
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	booking, err := h.bookings.Get(r.Context(), middleware.ActorFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(booking))
}

// Transition handles POST /api/bookings/{id}/{action}
func (h *BookingHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	action := domain.Action(chi.URLParam(r, "action"))
	if _, err := action.Target(); err != nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "unknown booking action", Kind: "NotFound"})
		return
	}

	booking, err := h.bookings.Transition(r.Context(), middleware.ActorFromContext(r.Context()), id, action)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(booking))
}

// Bulk handles POST /api/bookings/bulk. Each booking is transitioned on its
// own; the response reports every outcome.
func (h *BookingHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	var req BulkTransitionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ids := make([]uuid.UUID, 0, len(req.BookingIDs))
	for _, raw := range req.BookingIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequest(w, "invalid booking id: "+raw)
			return
		}
		ids = append(ids, id)
	}

	results := h.bookings.BulkTransition(r.Context(), middleware.ActorFromContext(r.Context()), ids, domain.Action(req.Action))

	resp := BulkTransitionResponse{Results: make([]BulkItemResponse, 0, len(results))}
	for _, res := range results {
		item := BulkItemResponse{BookingID: res.BookingID, OK: res.Err == nil}
		if res.Err != nil {
			resp.Failed++
			item.Kind = domain.KindOf(res.Err)
			item.Error = res.Err.Error()
			if statusFor(res.Err) == http.StatusInternalServerError {
				item.Error = "internal error"
			}
		} else {
			resp.Succeeded++
			item.Booking = toBookingResponse(res.Booking)
		}
		resp.Results = append(resp.Results, item)
	}
	writeJSON(w, http.StatusOK, resp)
}
