package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/travellistings/internal/handler"
)

func TestClientSendsTokenAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/listings/abc/rating", r.URL.Path)
		_ = json.NewEncoder(w).Encode(handler.RatingResponse{AverageRating: "4.50", ReviewCount: 2})
	}))
	defer srv.Close()

	var res handler.RatingResponse
	_, err := newAPIClient(srv.URL+"/api/", "tok").do(http.MethodGet, "/listings/abc/rating", nil, &res)
	require.NoError(t, err)
	assert.Equal(t, "4.50", res.AverageRating)
	assert.Equal(t, 2, res.ReviewCount)
}

func TestClientReturnsViolations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"booking rejected","kind":"ValidationFailed","violations":[{"kind":"DateRangeUnavailable","message":"taken"}]}`))
	}))
	defer srv.Close()

	_, err := newAPIClient(srv.URL, "").do(http.MethodPost, "/bookings", handler.CreateBookingRequest{}, nil)
	var apiErr *apiError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.Len(t, apiErr.Violations, 1)
	assert.Equal(t, "DateRangeUnavailable", apiErr.Violations[0].Kind)
	assert.Contains(t, err.Error(), "DateRangeUnavailable: taken")
}

func TestClientFallsBackToStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newAPIClient(srv.URL, "").do(http.MethodGet, "/listings", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bad Gateway")
}

func TestTokenFileRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	assert.Empty(t, loadToken())
	require.NoError(t, saveToken("abc\n"))
	assert.Equal(t, "abc", loadToken())
	require.NoError(t, removeToken())
	require.NoError(t, removeToken())
	assert.Empty(t, loadToken())
}
