package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
)

const reviewColumns = `id, listing_id, reviewer_id, rating, comment, is_active, created_at, updated_at`

// PostgresReviewRepository implements domain.ReviewRepository using PostgreSQL
type PostgresReviewRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresReviewRepository creates a new review repository
func NewPostgresReviewRepository(db *sql.DB, logger *slog.Logger) *PostgresReviewRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresReviewRepository{db: db, logger: logger}
}

// Create inserts a review; the (listing_id, reviewer_id) unique key rejects duplicates
func (r *PostgresReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	if rv.ID == uuid.Nil {
		rv.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO reviews (id, listing_id, reviewer_id, rating, comment, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		rv.ID, rv.ListingID, rv.ReviewerID, rv.Rating, rv.Comment, rv.IsActive,
	).Scan(&rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		return translate("create review", err, domain.ErrListingNotFound)
	}
	return nil
}

// GetByID retrieves a review
func (r *PostgresReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id)
	rv, err := scanReview(row)
	if err != nil {
		return nil, translate("get review", err, domain.ErrReviewNotFound)
	}
	return rv, nil
}

// ActiveForListing returns the active reviews of a listing
func (r *PostgresReviewRepository) ActiveForListing(ctx context.Context, listingID uuid.UUID) ([]*domain.Review, error) {
	return r.List(ctx, domain.ReviewFilter{ListingID: listingID})
}

// Exists reports whether the reviewer has any review, active or not, on the listing
func (r *PostgresReviewRepository) Exists(ctx context.Context, listingID, reviewerID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM reviews WHERE listing_id = $1 AND reviewer_id = $2)`,
		listingID, reviewerID,
	).Scan(&exists)
	if err != nil {
		return false, translate("check review", err, domain.ErrReviewNotFound)
	}
	return exists, nil
}

// Deactivate hides a review from listings and rating summaries
func (r *PostgresReviewRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reviews SET is_active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return translate("deactivate review", err, domain.ErrReviewNotFound)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrReviewNotFound
	}
	return nil
}

// List returns active reviews matching the filter, newest first
func (r *PostgresReviewRepository) List(ctx context.Context, f domain.ReviewFilter) ([]*domain.Review, error) {
	where := []string{"is_active = true"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.ListingID != uuid.Nil {
		where = append(where, "listing_id = "+arg(f.ListingID))
	}
	if f.ReviewerID != uuid.Nil {
		where = append(where, "reviewer_id = "+arg(f.ReviewerID))
	}
	if f.Rating != 0 {
		where = append(where, "rating = "+arg(f.Rating))
	}

	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC`
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + arg(f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate("list reviews", err, domain.ErrReviewNotFound)
	}
	defer rows.Close()

	out := []*domain.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list reviews", err, domain.ErrReviewNotFound)
	}
	return out, nil
}

func scanReview(row scanner) (*domain.Review, error) {
	rv := &domain.Review{}
	err := row.Scan(&rv.ID, &rv.ListingID, &rv.ReviewerID, &rv.Rating, &rv.Comment,
		&rv.IsActive, &rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rv, nil
}
