package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
)

func TestCreateReviewRules(t *testing.T) {
	f := newFixture(t)
	guest := domain.UserActor(f.guest.ID)

	_, err := f.reviews.Create(f.ctx, domain.Anonymous(), f.listing.ID, 5, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.reviews.Create(f.ctx, guest, f.listing.ID, 6, "")
	assert.ErrorIs(t, err, domain.ErrInvalidRating)

	_, err = f.reviews.Create(f.ctx, guest, uuid.New(), 5, "")
	assert.ErrorIs(t, err, domain.ErrListingNotFound)

	r, err := f.reviews.Create(f.ctx, guest, f.listing.ID, 5, "  great stay ")
	require.NoError(t, err)
	assert.Equal(t, "great stay", r.Comment)

	_, err = f.reviews.Create(f.ctx, guest, f.listing.ID, 3, "again")
	assert.ErrorIs(t, err, domain.ErrDuplicateReview)
}

func TestDeactivateReviewPolicy(t *testing.T) {
	f := newFixture(t)
	r, err := f.reviews.Create(f.ctx, domain.UserActor(f.guest.ID), f.listing.ID, 2, "")
	require.NoError(t, err)

	assert.ErrorIs(t, f.reviews.Deactivate(f.ctx, domain.UserActor(f.other.ID), r.ID), domain.ErrForbidden)
	require.NoError(t, f.reviews.Deactivate(f.ctx, domain.UserActor(f.host.ID), r.ID))

	_, err = f.reviews.Get(f.ctx, r.ID)
	assert.ErrorIs(t, err, domain.ErrReviewNotFound)

	_, err = f.reviews.Create(f.ctx, domain.UserActor(f.guest.ID), f.listing.ID, 4, "")
	assert.ErrorIs(t, err, domain.ErrDuplicateReview, "a deactivated review still counts")
}
