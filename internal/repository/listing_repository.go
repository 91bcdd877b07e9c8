package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
)

const listingColumns = `id, host_id, title, description, property_type, location, city, country,
	price_per_night, max_guests, bedrooms, bathrooms, amenities, is_active, created_at, updated_at`

// PostgresListingRepository implements domain.ListingRepository using PostgreSQL
type PostgresListingRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresListingRepository creates a new listing repository
func NewPostgresListingRepository(db *sql.DB, logger *slog.Logger) *PostgresListingRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresListingRepository{db: db, logger: logger}
}

// Create inserts a listing
func (r *PostgresListingRepository) Create(ctx context.Context, l *domain.Listing) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}

	query := `
		INSERT INTO listings (id, host_id, title, description, property_type, location, city, country,
			price_per_night, max_guests, bedrooms, bathrooms, amenities, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		l.ID, l.HostID, l.Title, l.Description, string(l.PropertyType), l.Location, l.City, l.Country,
		l.PricePerNight, l.MaxGuests, l.Bedrooms, l.Bathrooms, pq.Array(l.Amenities), l.IsActive,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create listing",
			slog.String("host_id", l.HostID.String()),
			slog.String("error", err.Error()),
		)
		return translate("create listing", err, domain.ErrUserNotFound)
	}
	return nil
}

// GetByID retrieves a listing regardless of its active flag
func (r *PostgresListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	l, err := scanListing(row)
	if err != nil {
		return nil, translate("get listing", err, domain.ErrListingNotFound)
	}
	return l, nil
}

// Update overwrites the mutable listing fields
func (r *PostgresListingRepository) Update(ctx context.Context, l *domain.Listing) error {
	query := `
		UPDATE listings
		SET title = $2, description = $3, property_type = $4, location = $5, city = $6, country = $7,
		    price_per_night = $8, max_guests = $9, bedrooms = $10, bathrooms = $11, amenities = $12,
		    is_active = $13, updated_at = now()
		WHERE id = $1
		RETURNING host_id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		l.ID, l.Title, l.Description, string(l.PropertyType), l.Location, l.City, l.Country,
		l.PricePerNight, l.MaxGuests, l.Bedrooms, l.Bathrooms, pq.Array(l.Amenities), l.IsActive,
	).Scan(&l.HostID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return translate("update listing", err, domain.ErrListingNotFound)
	}
	return nil
}

// Deactivate soft-deletes a listing
func (r *PostgresListingRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE listings SET is_active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return translate("deactivate listing", err, domain.ErrListingNotFound)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

// List returns active listings matching the filter, newest first
func (r *PostgresListingRepository) List(ctx context.Context, f domain.ListingFilter) ([]*domain.Listing, error) {
	where := []string{"is_active = true"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Location != "" {
		p := arg("%" + f.Location + "%")
		where = append(where, fmt.Sprintf("(city ILIKE %s OR country ILIKE %s OR location ILIKE %s)", p, p, p))
	}
	if f.City != "" {
		where = append(where, "lower(city) = lower("+arg(f.City)+")")
	}
	if f.Country != "" {
		where = append(where, "lower(country) = lower("+arg(f.Country)+")")
	}
	if f.MinPrice != nil {
		where = append(where, "price_per_night >= "+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		where = append(where, "price_per_night <= "+arg(*f.MaxPrice))
	}
	if f.PropertyType != "" {
		where = append(where, "property_type = "+arg(string(f.PropertyType)))
	}
	if f.MinGuests > 0 {
		where = append(where, "max_guests >= "+arg(f.MinGuests))
	}
	if f.HostID != uuid.Nil {
		where = append(where, "host_id = "+arg(f.HostID))
	}
	for _, a := range f.Amenities {
		where = append(where, "EXISTS (SELECT 1 FROM unnest(amenities) a WHERE a ILIKE "+arg("%"+strings.TrimSpace(a)+"%")+")")
	}

	query := `SELECT ` + listingColumns + ` FROM listings WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC`
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + arg(f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate("list listings", err, domain.ErrListingNotFound)
	}
	defer rows.Close()

	out := []*domain.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list listings", err, domain.ErrListingNotFound)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(row scanner) (*domain.Listing, error) {
	l := &domain.Listing{}
	var propertyType string
	err := row.Scan(
		&l.ID, &l.HostID, &l.Title, &l.Description, &propertyType, &l.Location, &l.City, &l.Country,
		&l.PricePerNight, &l.MaxGuests, &l.Bedrooms, &l.Bathrooms, pq.Array(&l.Amenities),
		&l.IsActive, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.PropertyType = domain.PropertyType(propertyType)
	return l, nil
}
