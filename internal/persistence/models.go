package persistence

import "time"

// User represents an account stored for authentication and operator
// assignment. PasswordHash never leaves the persistence boundary except
// through the credential lookup used by the auth service.
type User struct {
	ID           string
	Name         string
	Username     string
	Phone        string
	PasswordHash string
	Role         string
	PoolIDs      []string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Pool represents a bookable pool record.
type Pool struct {
	ID            string
	Name          string
	Address       string
	Capacity      int
	PricePerDay   float64
	AvailableDays []time.Weekday
	Description   string
	ImageURL      *string
	EmployeeIDs   []string
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Booking represents a reservation stored for a pool. Date is a civil day;
// Start and End are instants on that day.
type Booking struct {
	ID            string
	PoolID        string
	EmployeeID    string
	ClientName    string
	ClientPhone   string
	ClientEmail   *string
	Date          time.Time
	Start         time.Time
	End           time.Time
	TotalValue    float64
	PaidValue     float64
	PaymentStatus string
	Notes         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
