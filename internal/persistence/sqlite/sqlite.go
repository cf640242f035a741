// Package sqlite implements the persistence repositories on top of a SQLite
// database accessed through database/sql and the pure-Go modernc.org driver.
package sqlite

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dateLayout stores civil dates without any time-of-day component.
const dateLayout = time.DateOnly

// Storage bundles the SQLite-backed repositories behind a single handle.
type Storage struct {
	pool *ConnectionPool

	Users    *UserRepository
	Pools    *PoolRepository
	Bookings *BookingRepository
	Sessions *SessionRepository
}

// Open connects to the SQLite database identified by dsn.
func Open(dsn string) (*Storage, error) {
	pool, err := NewConnectionPool(dsn)
	if err != nil {
		return nil, err
	}

	return &Storage{
		pool:     pool,
		Users:    NewUserRepository(pool),
		Pools:    NewPoolRepository(pool),
		Bookings: NewBookingRepository(pool),
		Sessions: NewSessionRepository(pool),
	}, nil
}

// Close releases the underlying database handle.
func (s *Storage) Close() error {
	return s.pool.Close()
}

// Ping verifies the database connection.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies the schema. Statements are idempotent so repeated startup
// runs are safe.
func (s *Storage) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			username TEXT NOT NULL UNIQUE,
			phone TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_pools (
			user_id TEXT NOT NULL,
			pool_id TEXT NOT NULL,
			PRIMARY KEY (user_id, pool_id)
		)`,
		`CREATE TABLE IF NOT EXISTS pools (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			address TEXT NOT NULL,
			capacity INTEGER NOT NULL CHECK (capacity > 0),
			price_per_day REAL NOT NULL CHECK (price_per_day >= 0),
			available_days TEXT NOT NULL,
			description TEXT NOT NULL,
			image_url TEXT,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pool_employees (
			pool_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			PRIMARY KEY (pool_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id TEXT PRIMARY KEY,
			pool_id TEXT NOT NULL,
			employee_id TEXT NOT NULL,
			client_name TEXT NOT NULL,
			client_phone TEXT NOT NULL,
			client_email TEXT,
			date TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL CHECK (start_time < end_time),
			total_value REAL NOT NULL CHECK (total_value >= 0),
			paid_value REAL NOT NULL CHECK (paid_value >= 0),
			payment_status TEXT NOT NULL,
			notes TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_pool_date ON bookings (pool_id, date)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			token TEXT NOT NULL UNIQUE,
			expires_at TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			revoked_at TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return nil
}

// encodeWeekdays serializes a weekday set as comma-joined indices.
func encodeWeekdays(days []time.Weekday) string {
	if len(days) == 0 {
		return ""
	}
	parts := make([]string, 0, len(days))
	for _, day := range days {
		parts = append(parts, strconv.Itoa(int(day)))
	}
	return strings.Join(parts, ",")
}

// decodeWeekdays parses the comma-joined representation produced by
// encodeWeekdays. Malformed entries are skipped rather than failing the read.
func decodeWeekdays(value string) []time.Weekday {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	days := make([]time.Weekday, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || n > 6 {
			continue
		}
		days = append(days, time.Weekday(n))
	}
	return days
}

func formatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseInstant(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", value, err)
	}
	return t, nil
}

func formatDate(t time.Time) string {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Format(dateLayout)
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", value, err)
	}
	return t, nil
}
