package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
)

func TestListingWritePolicy(t *testing.T) {
	f := newFixture(t)
	title := "Renamed"

	_, err := f.listings.Update(f.ctx, domain.UserActor(f.guest.ID), f.listing.ID, ListingPatch{Title: &title})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, f.listings.Deactivate(f.ctx, domain.Anonymous(), f.listing.ID), domain.ErrForbidden)

	updated, err := f.listings.Update(f.ctx, domain.UserActor(f.host.ID), f.listing.ID, ListingPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, f.host.ID, updated.HostID)

	zero := 0
	_, err = f.listings.Update(f.ctx, domain.UserActor(f.host.ID), f.listing.ID, ListingPatch{MaxGuests: &zero})
	assert.ErrorIs(t, err, domain.ErrInvalidListing)

	require.NoError(t, f.listings.Deactivate(f.ctx, domain.UserActor(f.host.ID), f.listing.ID))
	detail, err := f.listings.Get(f.ctx, f.listing.ID)
	require.NoError(t, err)
	assert.False(t, detail.Listing.IsActive)

	active, err := f.listings.List(f.ctx, domain.ListingFilter{})
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestCreateListingAssignsHost(t *testing.T) {
	f := newFixture(t)

	l, err := f.listings.Create(f.ctx, domain.UserActor(f.other.ID), &domain.Listing{
		HostID:        f.host.ID,
		Title:         "City flat",
		PropertyType:  domain.PropertyApartment,
		City:          "Lisbon",
		Country:       "Portugal",
		PricePerNight: decimal.RequireFromString("80"),
		MaxGuests:     2,
	})
	require.NoError(t, err)
	assert.Equal(t, f.other.ID, l.HostID)
	assert.True(t, l.IsActive)

	_, err = f.listings.Create(f.ctx, domain.Anonymous(), &domain.Listing{Title: "x", MaxGuests: 1})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestSearchFilters(t *testing.T) {
	f := newFixture(t)
	_, err := f.listings.Create(f.ctx, domain.UserActor(f.other.ID), &domain.Listing{
		Title:         "Beach villa",
		PropertyType:  domain.PropertyVilla,
		City:          "Split",
		Country:       "Croatia",
		PricePerNight: decimal.RequireFromString("350"),
		MaxGuests:     8,
		Amenities:     []string{"Pool", "WiFi"},
	})
	require.NoError(t, err)

	search := func(filter domain.ListingFilter) []string {
		out, err := f.listings.List(f.ctx, filter)
		require.NoError(t, err)
		titles := []string{}
		for _, l := range out {
			titles = append(titles, l.Title)
		}
		return titles
	}

	maxPrice := decimal.RequireFromString("200")
	assert.Equal(t, []string{"Lake cabin"}, search(domain.ListingFilter{MaxPrice: &maxPrice}))
	assert.Equal(t, []string{"Beach villa"}, search(domain.ListingFilter{Location: "croat"}))
	assert.Equal(t, []string{"Beach villa"}, search(domain.ListingFilter{MinGuests: 6}))
	assert.Equal(t, []string{"Beach villa"}, search(domain.ListingFilter{Amenities: []string{"wifi", "pool"}}))
	assert.Equal(t, []string{"Lake cabin"}, search(domain.ListingFilter{PropertyType: domain.PropertyCabin}))
	assert.Len(t, search(domain.ListingFilter{}), 2)
	assert.Len(t, search(domain.ListingFilter{Limit: 1}), 1)
}

func TestListingDetailIncludesRating(t *testing.T) {
	f := newFixture(t)
	_, err := f.reviews.Create(f.ctx, domain.UserActor(f.guest.ID), f.listing.ID, 5, "")
	require.NoError(t, err)
	_, err = f.reviews.Create(f.ctx, domain.UserActor(f.other.ID), f.listing.ID, 4, "")
	require.NoError(t, err)

	detail, err := f.listings.Get(f.ctx, f.listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, detail.Rating.Count)
	assert.Equal(t, "4.5", detail.Rating.Average.String())
	assert.Len(t, detail.Reviews, 2)
}
