package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
)

const bookingColumns = `b.id, b.listing_id, b.guest_id, b.check_in, b.check_out, b.num_guests,
	b.total_price, b.status, b.special_requests, b.created_at, b.updated_at`

// PostgresBookingRepository implements domain.BookingRepository using PostgreSQL.
// Overlap safety comes from locking the listing row during insert, backed by the
// bookings_no_overlap exclusion constraint for pending and confirmed rows.
type PostgresBookingRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresBookingRepository creates a new booking repository
func NewPostgresBookingRepository(db *sql.DB, logger *slog.Logger) *PostgresBookingRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresBookingRepository{db: db, logger: logger}
}

// Insert stores a booking unless a blocking booking overlaps its range
func (r *PostgresBookingRepository) Insert(ctx context.Context, b *domain.Booking, today time.Time) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return translate("begin booking insert", err, domain.ErrListingNotFound)
	}
	defer tx.Rollback()

	var listingID uuid.UUID
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM listings WHERE id = $1 FOR UPDATE`, b.ListingID,
	).Scan(&listingID); err != nil {
		return translate("lock listing", err, domain.ErrListingNotFound)
	}

	var conflict bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE listing_id = $1
			  AND daterange(check_in, check_out, '[)') && daterange($2::date, $3::date, '[)')
			  AND (status IN ('pending', 'confirmed') OR (status = 'completed' AND check_out > $4::date))
		)`,
		b.ListingID, dateArg(b.CheckIn), dateArg(b.CheckOut), dateArg(today),
	).Scan(&conflict)
	if err != nil {
		return translate("check booking overlap", err, domain.ErrListingNotFound)
	}
	if conflict {
		return domain.ErrDateRangeUnavailable
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO bookings (id, listing_id, guest_id, check_in, check_out, num_guests,
			total_price, status, special_requests)
		VALUES ($1, $2, $3, $4::date, $5::date, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		b.ID, b.ListingID, b.GuestID, dateArg(b.CheckIn), dateArg(b.CheckOut), b.NumGuests,
		b.TotalPrice, string(b.Status), b.SpecialRequests,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return translate("insert booking", err, domain.ErrUserNotFound)
	}

	if err := tx.Commit(); err != nil {
		return translate("commit booking", err, domain.ErrListingNotFound)
	}

	r.logger.Debug("booking inserted",
		slog.String("booking_id", b.ID.String()),
		slog.String("listing_id", b.ListingID.String()),
	)
	return nil
}

// GetByID retrieves a booking
func (r *PostgresBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = $1`, id)
	b, err := scanBooking(row)
	if err != nil {
		return nil, translate("get booking", err, domain.ErrBookingNotFound)
	}
	return b, nil
}

// BlockingForListing returns bookings overlapping rng that still block the listing as of today
func (r *PostgresBookingRepository) BlockingForListing(ctx context.Context, listingID uuid.UUID, rng domain.DateRange, today time.Time) ([]*domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+bookingColumns+` FROM bookings b
		WHERE b.listing_id = $1
		  AND daterange(b.check_in, b.check_out, '[)') && daterange($2::date, $3::date, '[)')
		  AND (b.status IN ('pending', 'confirmed') OR (b.status = 'completed' AND b.check_out > $4::date))
		ORDER BY b.check_in`,
		listingID, dateArg(rng.CheckIn), dateArg(rng.CheckOut), dateArg(today),
	)
	if err != nil {
		return nil, translate("query blocking bookings", err, domain.ErrListingNotFound)
	}
	return collectBookings(rows)
}

// UpdateStatus applies a compare-and-set on the booking status
func (r *PostgresBookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.BookingStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`,
		id, string(from), string(to),
	)
	if err != nil {
		return translate("update booking status", err, domain.ErrBookingNotFound)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return translate("check booking", err, domain.ErrBookingNotFound)
	}
	if !exists {
		return domain.ErrBookingNotFound
	}
	return domain.ErrInvalidTransition
}

// List returns bookings matching the filter, newest first
func (r *PostgresBookingRepository) List(ctx context.Context, f domain.BookingFilter) ([]*domain.Booking, error) {
	where := []string{"TRUE"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.ParticipantID != uuid.Nil {
		p := arg(f.ParticipantID)
		where = append(where, fmt.Sprintf("(b.guest_id = %s OR l.host_id = %s)", p, p))
	}
	if f.ListingID != uuid.Nil {
		where = append(where, "b.listing_id = "+arg(f.ListingID))
	}
	if f.GuestID != uuid.Nil {
		where = append(where, "b.guest_id = "+arg(f.GuestID))
	}
	if f.Status != "" {
		where = append(where, "b.status = "+arg(string(f.Status)))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings b JOIN listings l ON l.id = b.listing_id WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY b.created_at DESC`
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + arg(f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate("list bookings", err, domain.ErrBookingNotFound)
	}
	return collectBookings(rows)
}

// DueForCompletion returns confirmed bookings whose check-out is on or before today
func (r *PostgresBookingRepository) DueForCompletion(ctx context.Context, today time.Time, limit int) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b
		WHERE b.status = 'confirmed' AND b.check_out <= $1::date
		ORDER BY b.check_out`
	args := []any{dateArg(today)}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate("query bookings due for completion", err, domain.ErrBookingNotFound)
	}
	return collectBookings(rows)
}

func collectBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	defer rows.Close()
	out := []*domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("iterate bookings", err, domain.ErrBookingNotFound)
	}
	return out, nil
}

func scanBooking(row scanner) (*domain.Booking, error) {
	b := &domain.Booking{}
	var status string
	err := row.Scan(
		&b.ID, &b.ListingID, &b.GuestID, &b.CheckIn, &b.CheckOut, &b.NumGuests,
		&b.TotalPrice, &status, &b.SpecialRequests, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Status = domain.BookingStatus(status)
	b.CheckIn = domain.Day(b.CheckIn)
	b.CheckOut = domain.Day(b.CheckOut)
	return b, nil
}

func dateArg(t time.Time) string {
	return t.Format(domain.DateLayout)
}
