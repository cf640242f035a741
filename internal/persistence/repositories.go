package persistence

import (
	"context"
	"time"
)

// ListWindow narrows list queries to a skip/limit slice of the collection.
type ListWindow struct {
	Offset int
	Limit  int
}

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	ListUsers(ctx context.Context, window ListWindow) ([]User, error)
	CountUsers(ctx context.Context) (int, error)
	DeleteUser(ctx context.Context, id string) error
}

// PoolRepository exposes CRUD operations for pools and their operator sets.
type PoolRepository interface {
	CreatePool(ctx context.Context, pool Pool) error
	UpdatePool(ctx context.Context, pool Pool) error
	GetPool(ctx context.Context, id string) (Pool, error)
	ListPools(ctx context.Context, window ListWindow) ([]Pool, error)
	CountPools(ctx context.Context) (int, error)
	DeletePool(ctx context.Context, id string) error
}

// BookingFilter narrows booking queries. A zero filter matches everything.
// ExcludeID removes a single booking from the result, which the conflict
// scan uses when an existing booking is being edited.
type BookingFilter struct {
	PoolID    string
	Date      *time.Time
	From      *time.Time
	To        *time.Time
	ExcludeID string
}

// BookingRepository stores reservations made against pools.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) error
	UpdateBooking(ctx context.Context, booking Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter, window ListWindow) ([]Booking, error)
	CountBookings(ctx context.Context, filter BookingFilter) (int, error)
	DeleteBooking(ctx context.Context, id string) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
