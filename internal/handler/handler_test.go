package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
	"github.com/aryan0dhankhar/travellistings/internal/repository"
	"github.com/aryan0dhankhar/travellistings/internal/security"
	"github.com/aryan0dhankhar/travellistings/internal/security/audit"
	"github.com/aryan0dhankhar/travellistings/internal/security/auth"
	"github.com/aryan0dhankhar/travellistings/internal/service"
	"github.com/aryan0dhankhar/travellistings/pkg/cache"
)

type testAPI struct {
	t      *testing.T
	server *httptest.Server
	store  *repository.MemoryStore
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestAPI serves the full router over a memory store with the clock
// pinned to 2025-05-01.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := quietLogger()
	store := repository.NewMemoryStore()
	policy := security.NewPolicy()
	auditLog := audit.NewLogger(logger)
	tokens := auth.NewTokenManager("handler-test-secret", "")

	summaries := cache.New[domain.RatingSummary](100)
	t.Cleanup(summaries.Close)
	ratings := service.NewRatingAggregator(store.Reviews(), service.NewLocalSummaryCache(summaries, time.Minute), logger)

	today, err := domain.ParseDate("2025-05-01")
	require.NoError(t, err)
	bookings := service.NewBookingService(store.Listings(), store.Bookings(), policy, service.NewKeyedMutex(), nil, auditLog, logger)
	bookings.SetClock(func() time.Time { return today })

	router := NewRouter(RouterConfig{
		Auth:     NewAuthHandler(service.NewAuthService(store.Users(), store.Reviews(), ratings, tokens, time.Hour, logger), logger),
		Listings: NewListingHandler(service.NewListingService(store.Listings(), store.Reviews(), ratings, policy, auditLog, logger), bookings, logger),
		Bookings: NewBookingHandler(bookings, logger),
		Reviews:  NewReviewHandler(service.NewReviewService(store.Reviews(), store.Listings(), ratings, policy, nil, auditLog, logger), logger),
		Health:   NewHealthHandler(map[string]Pinger{"store": store, "redis": nil}, logger),
		Tokens:   tokens,
		Audit:    auditLog,
		Logger:   logger,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testAPI{t: t, server: srv, store: store}
}

func (a *testAPI) do(method, path, token string, body any, out any) int {
	a.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, a.server.URL+path, rdr)
	require.NoError(a.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.server.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (a *testAPI) register(name string) (token, id string) {
	a.t.Helper()
	var res AuthResponse
	code := a.do(http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Email:    name + "@example.com",
		Username: name,
		Password: "Password123",
	}, &res)
	require.Equal(a.t, http.StatusCreated, code)
	return res.Token, res.User.ID.String()
}

func (a *testAPI) createListing(token string) ListingResponse {
	a.t.Helper()
	var l ListingResponse
	code := a.do(http.MethodPost, "/api/listings", token, CreateListingRequest{
		Title:         "Lake cabin",
		PropertyType:  "cabin",
		Location:      "Lakeside 1",
		City:          "Bled",
		Country:       "Slovenia",
		PricePerNight: "100.00",
		MaxGuests:     4,
		Amenities:     []string{"WiFi", "Sauna"},
	}, &l)
	require.Equal(a.t, http.StatusCreated, code)
	return l
}

func (a *testAPI) book(token, listingID, in, out string, guests int, resp any) int {
	a.t.Helper()
	return a.do(http.MethodPost, "/api/bookings", token, CreateBookingRequest{
		ListingID: listingID, CheckIn: in, CheckOut: out, NumGuests: guests,
	}, resp)
}

func kinds(v []ViolationResponse) []string {
	out := make([]string, 0, len(v))
	for _, x := range v {
		out = append(out, x.Kind)
	}
	return out
}

func TestBookingFlow(t *testing.T) {
	api := newTestAPI(t)
	hostToken, _ := api.register("host")
	guestToken, _ := api.register("guest")
	otherToken, _ := api.register("other")
	listing := api.createListing(hostToken)
	lid := listing.ID.String()

	var first BookingResponse
	require.Equal(t, http.StatusCreated, api.book(guestToken, lid, "2025-06-01", "2025-06-05", 2, &first))
	assert.Equal(t, "400.00", first.TotalPrice)
	assert.Equal(t, "pending", first.Status)
	assert.Equal(t, 4, first.DurationDays)

	var rejected ErrorResponse
	require.Equal(t, http.StatusBadRequest, api.book(otherToken, lid, "2025-06-03", "2025-06-06", 2, &rejected))
	assert.Equal(t, []string{"DateRangeUnavailable"}, kinds(rejected.Violations))

	var adjacent BookingResponse
	assert.Equal(t, http.StatusCreated, api.book(otherToken, lid, "2025-06-05", "2025-06-06", 1, &adjacent))

	var avail AvailabilityResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/listings/"+lid+"/availability?check_in=2025-06-02&check_out=2025-06-04", "", nil, &avail))
	assert.False(t, avail.Available)

	path := "/api/bookings/" + first.ID.String()

	var errResp ErrorResponse
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, path, otherToken, nil, &errResp))
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, path+"/confirm", guestToken, nil, &errResp))
	assert.Equal(t, "InvalidTransition", errResp.Kind)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, path+"/complete", guestToken, nil, &errResp))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost, path+"/archive", hostToken, nil, &errResp))

	var confirmed BookingResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, path+"/confirm", hostToken, nil, &confirmed))
	assert.Equal(t, "confirmed", confirmed.Status)

	var cancelled BookingResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, path+"/cancel", guestToken, nil, &cancelled))
	assert.Equal(t, "cancelled", cancelled.Status)

	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/listings/"+lid+"/availability?check_in=2025-06-02&check_out=2025-06-04", "", nil, &avail))
	assert.True(t, avail.Available, "cancellation frees the range")

	var mine ListResponse[BookingResponse]
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/bookings", hostToken, nil, &mine))
	assert.Equal(t, 2, mine.Count, "the host sees bookings on their listing")

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/bookings", "", nil, &errResp))
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/listings/"+lid+"/bookings", guestToken, nil, &errResp))
}

func TestBookingRejectionListsEveryViolation(t *testing.T) {
	api := newTestAPI(t)
	hostToken, _ := api.register("host")
	guestToken, _ := api.register("guest")
	lid := api.createListing(hostToken).ID.String()

	var rejected ErrorResponse
	require.Equal(t, http.StatusBadRequest, api.book(guestToken, lid, "2025-04-01", "2025-04-03", 5, &rejected))
	assert.Equal(t, "ValidationFailed", rejected.Kind)
	assert.Equal(t, []string{"PastDateRange", "GuestCapacityExceeded"}, kinds(rejected.Violations))

	require.Equal(t, http.StatusBadRequest, api.book(guestToken, lid, "2025-06-05", "2025-06-01", 1, &rejected))
	assert.Equal(t, []string{"InvalidDateRange", "InvalidPrice"}, kinds(rejected.Violations))

	var notFound ErrorResponse
	assert.Equal(t, http.StatusNotFound, api.book(guestToken, "7b0c1f2e-8a4d-4c57-9d0e-2f6b8e4a1c3d", "2025-06-01", "2025-06-02", 1, &notFound))
	assert.Equal(t, "ListingNotFound", notFound.Kind)
}

func TestRequestValidation(t *testing.T) {
	api := newTestAPI(t)
	guestToken, _ := api.register("guest")

	var errResp ErrorResponse
	code := api.do(http.MethodPost, "/api/bookings", guestToken, map[string]any{
		"listing_id": "not-a-uuid",
		"check_in":   "06/01/2025",
	}, &errResp)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, errResp.Fields, "listing_id")
	assert.Contains(t, errResp.Fields, "check_in")
	assert.Contains(t, errResp.Fields, "check_out")

	code = api.do(http.MethodPost, "/api/auth/register", "", RegisterRequest{Email: "x@example.com", Username: "xx1", Password: "short"}, &errResp)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "WeakPassword", errResp.Kind)

	code = api.do(http.MethodPost, "/api/auth/register", "", RegisterRequest{Email: "guest@example.com", Username: "another", Password: "Password123"}, &errResp)
	assert.Equal(t, http.StatusConflict, code)

	code = api.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "guest@example.com", Password: "wrong-password"}, &errResp)
	assert.Equal(t, http.StatusUnauthorized, code)

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/listings/nope", "", nil, &errResp))
}

func TestReviewsAndRating(t *testing.T) {
	api := newTestAPI(t)
	hostToken, _ := api.register("host")
	guestToken, _ := api.register("guest")
	otherToken, _ := api.register("other")
	lid := api.createListing(hostToken).ID.String()

	var rating RatingResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/listings/"+lid+"/rating", "", nil, &rating))
	assert.Equal(t, "0.00", rating.AverageRating)
	assert.Equal(t, 0, rating.ReviewCount)

	var errResp ErrorResponse
	review := CreateReviewRequest{ListingID: lid, Rating: 5, Comment: "great"}
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/api/reviews", "", review, &errResp))

	var created ReviewResponse
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/reviews", guestToken, review, &created))
	assert.Equal(t, http.StatusConflict, api.do(http.MethodPost, "/api/reviews", guestToken, review, &errResp))
	assert.Equal(t, "DuplicateReview", errResp.Kind)

	review.Rating = 4
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/reviews", otherToken, review, &ReviewResponse{}))

	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/listings/"+lid+"/rating", "", nil, &rating))
	assert.Equal(t, "4.50", rating.AverageRating)
	assert.Equal(t, 2, rating.ReviewCount)

	var detail ListingResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/listings/"+lid, "", nil, &detail))
	require.NotNil(t, detail.AverageRating)
	assert.Equal(t, "4.50", *detail.AverageRating)
	assert.Len(t, detail.Reviews, 2)

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodDelete, "/api/reviews/"+created.ID.String(), otherToken, nil, &errResp))
	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, "/api/reviews/"+created.ID.String(), hostToken, nil, nil))

	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/listings/"+lid+"/rating", "", nil, &rating))
	assert.Equal(t, "4.00", rating.AverageRating)
	assert.Equal(t, 1, rating.ReviewCount)

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/reviews/"+created.ID.String(), "", nil, &errResp))
}

func TestListingWritesAndSearch(t *testing.T) {
	api := newTestAPI(t)
	hostToken, _ := api.register("host")
	guestToken, _ := api.register("guest")
	listing := api.createListing(hostToken)
	path := "/api/listings/" + listing.ID.String()

	var errResp ErrorResponse
	title := "Hijacked"
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPatch, path, guestToken, UpdateListingRequest{Title: &title}, &errResp))
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPatch, path, "", UpdateListingRequest{Title: &title}, &errResp))

	price := "150.5"
	var updated ListingResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodPatch, path, hostToken, UpdateListingRequest{PricePerNight: &price}, &updated))
	assert.Equal(t, "150.50", updated.PricePerNight)
	assert.Equal(t, "Lake cabin", updated.Title)

	var found ListResponse[ListingResponse]
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/search?location=bled&amenities=wifi,sauna&min_guests=3&max_price=200", "", nil, &found))
	assert.Equal(t, 1, found.Count)

	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/search?amenities=pool", "", nil, &found))
	assert.Equal(t, 0, found.Count)

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/search?property_type=castle", "", nil, &errResp))

	require.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, path, hostToken, nil, nil))
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/listings", "", nil, &found))
	assert.Equal(t, 0, found.Count, "deactivated listings are not listed")

	var rejected ErrorResponse
	require.Equal(t, http.StatusBadRequest, api.book(guestToken, listing.ID.String(), "2025-06-01", "2025-06-02", 1, &rejected))
	assert.Equal(t, []string{"ListingInactive"}, kinds(rejected.Violations))
}

func TestBulkTransition(t *testing.T) {
	api := newTestAPI(t)
	hostToken, _ := api.register("host")
	guestToken, _ := api.register("guest")
	lid := api.createListing(hostToken).ID.String()

	var a, b BookingResponse
	require.Equal(t, http.StatusCreated, api.book(guestToken, lid, "2025-06-01", "2025-06-03", 1, &a))
	require.Equal(t, http.StatusCreated, api.book(guestToken, lid, "2025-06-10", "2025-06-12", 1, &b))
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/bookings/"+b.ID.String()+"/cancel", guestToken, nil, &BookingResponse{}))

	var res BulkTransitionResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/bookings/bulk", hostToken, BulkTransitionRequest{
		BookingIDs: []string{a.ID.String(), b.ID.String()},
		Action:     "confirm",
	}, &res))
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Results, 2)
	assert.True(t, res.Results[0].OK)
	assert.Equal(t, "confirmed", res.Results[0].Booking.Status)
	assert.Equal(t, "InvalidTransition", res.Results[1].Kind)
}

func TestAccountDeletionCascades(t *testing.T) {
	api := newTestAPI(t)
	hostToken, _ := api.register("host")
	lid := api.createListing(hostToken).ID.String()

	var errResp ErrorResponse
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodDelete, "/api/auth/account", hostToken, DeleteAccountRequest{Password: "nope-nope"}, &errResp))
	require.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, "/api/auth/account", hostToken, DeleteAccountRequest{Password: "Password123"}, nil))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/listings/"+lid, "", nil, &errResp))
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	var health HealthResponse
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/healthz", "", nil, &health))

	var ready ReadinessResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/readyz", "", nil, &ready))
	assert.Equal(t, "ok", ready.Checks["store"])
	assert.Equal(t, "not configured", ready.Checks["redis"])

	h := NewHealthHandler(map[string]Pinger{"store": failingPinger{}}, quietLogger())
	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrBookingNotFound, http.StatusNotFound},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrUnauthenticated, http.StatusUnauthorized},
		{domain.ErrDuplicateReview, http.StatusConflict},
		{&domain.ValidationError{Violations: []domain.Violation{{Kind: domain.ErrInvalidPrice}}}, http.StatusBadRequest},
		{errors.Join(domain.ErrStoreUnavailable, errors.New("circuit open")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
