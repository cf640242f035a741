package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/pool-booking/internal/persistence"
)

// BookingRepository implements persistence.BookingRepository using SQLite.
type BookingRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewBookingRepository creates a new SQLite booking repository.
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const bookingColumns = "id, pool_id, employee_id, client_name, client_phone, client_email, date, start_time, end_time, total_value, paid_value, payment_status, notes, created_at, updated_at"

// CreateBooking inserts a new booking.
func (r *BookingRepository) CreateBooking(ctx context.Context, booking persistence.Booking) error {
	if booking.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		booking.ID,
		booking.PoolID,
		booking.EmployeeID,
		booking.ClientName,
		booking.ClientPhone,
		nullString(booking.ClientEmail),
		formatDate(booking.Date),
		formatInstant(booking.Start),
		formatInstant(booking.End),
		booking.TotalValue,
		booking.PaidValue,
		booking.PaymentStatus,
		nullString(booking.Notes),
		formatInstant(booking.CreatedAt),
		formatInstant(booking.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// UpdateBooking rewrites an existing booking.
func (r *BookingRepository) UpdateBooking(ctx context.Context, booking persistence.Booking) error {
	if booking.ID == "" {
		return persistence.ErrNotFound
	}

	query := `
		UPDATE bookings
		SET pool_id = ?, employee_id = ?, client_name = ?, client_phone = ?, client_email = ?, date = ?, start_time = ?, end_time = ?, total_value = ?, paid_value = ?, payment_status = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		booking.PoolID,
		booking.EmployeeID,
		booking.ClientName,
		booking.ClientPhone,
		nullString(booking.ClientEmail),
		formatDate(booking.Date),
		formatInstant(booking.Start),
		formatInstant(booking.End),
		booking.TotalValue,
		booking.PaidValue,
		booking.PaymentStatus,
		nullString(booking.Notes),
		formatInstant(booking.UpdatedAt),
		booking.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

// GetBooking retrieves a booking by ID.
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	if id == "" {
		return persistence.Booking{}, persistence.ErrNotFound
	}

	query := "SELECT " + bookingColumns + " FROM bookings WHERE id = ?"
	return r.scanBooking(r.helper.QueryRow(ctx, query, id))
}

// ListBookings returns bookings matching the filter, windowed and ordered by
// date then start time.
func (r *BookingRepository) ListBookings(ctx context.Context, filter persistence.BookingFilter, window persistence.ListWindow) ([]persistence.Booking, error) {
	query, args := r.buildQuery("SELECT "+bookingColumns+" FROM bookings", filter)
	query += " ORDER BY date ASC, start_time ASC, id ASC"
	if window.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, window.Limit, window.Offset)
	}

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var bookings []persistence.Booking
	for rows.Next() {
		booking, err := r.scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return bookings, nil
}

// CountBookings returns the number of bookings matching the filter.
func (r *BookingRepository) CountBookings(ctx context.Context, filter persistence.BookingFilter) (int, error) {
	query, args := r.buildQuery("SELECT COUNT(*) FROM bookings", filter)

	var count int
	if err := r.helper.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, r.mapper.MapError(err)
	}
	return count, nil
}

// DeleteBooking removes a booking by ID.
func (r *BookingRepository) DeleteBooking(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, "DELETE FROM bookings WHERE id = ?", id)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

func (r *BookingRepository) buildQuery(base string, filter persistence.BookingFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.PoolID != "" {
		conditions = append(conditions, "pool_id = ?")
		args = append(args, filter.PoolID)
	}
	if filter.Date != nil {
		conditions = append(conditions, "date = ?")
		args = append(args, formatDate(*filter.Date))
	}
	if filter.From != nil {
		conditions = append(conditions, "date >= ?")
		args = append(args, formatDate(*filter.From))
	}
	if filter.To != nil {
		conditions = append(conditions, "date <= ?")
		args = append(args, formatDate(*filter.To))
	}
	if filter.ExcludeID != "" {
		conditions = append(conditions, "id != ?")
		args = append(args, filter.ExcludeID)
	}

	if len(conditions) > 0 {
		base += " WHERE " + strings.Join(conditions, " AND ")
	}

	return base, args
}

func (r *BookingRepository) scanBooking(row rowScanner) (persistence.Booking, error) {
	var booking persistence.Booking
	var clientEmail, notes sql.NullString
	var dateStr, startStr, endStr, createdAtStr, updatedAtStr string

	err := row.Scan(
		&booking.ID,
		&booking.PoolID,
		&booking.EmployeeID,
		&booking.ClientName,
		&booking.ClientPhone,
		&clientEmail,
		&dateStr,
		&startStr,
		&endStr,
		&booking.TotalValue,
		&booking.PaidValue,
		&booking.PaymentStatus,
		&notes,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Booking{}, persistence.ErrNotFound
		}
		return persistence.Booking{}, r.mapper.MapError(err)
	}

	if clientEmail.Valid {
		booking.ClientEmail = &clientEmail.String
	}
	if notes.Valid {
		booking.Notes = &notes.String
	}
	if booking.Date, err = parseDate(dateStr); err != nil {
		return persistence.Booking{}, err
	}
	if booking.Start, err = parseInstant(startStr); err != nil {
		return persistence.Booking{}, err
	}
	if booking.End, err = parseInstant(endStr); err != nil {
		return persistence.Booking{}, err
	}
	if booking.CreatedAt, err = parseInstant(createdAtStr); err != nil {
		return persistence.Booking{}, err
	}
	if booking.UpdatedAt, err = parseInstant(updatedAtStr); err != nil {
		return persistence.Booking{}, err
	}

	return booking, nil
}
