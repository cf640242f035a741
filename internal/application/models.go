package application

import "time"

// Role identifies the authorization level of an actor.
type Role string

const (
	// RoleAdmin may manage pools, bookings and users.
	RoleAdmin Role = "ADMIN"
	// RoleMaintainer is an employee assignable to pools as an operator.
	RoleMaintainer Role = "MAINTAINER"
	// RoleUser is a regular account with read-only access.
	RoleUser Role = "USER"
)

// UserStatus tracks whether an account may authenticate.
type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
)

// PoolStatus tracks the lifecycle state of a pool. Only ACTIVE pools accept
// new bookings.
type PoolStatus string

const (
	PoolStatusActive      PoolStatus = "ACTIVE"
	PoolStatusInactive    PoolStatus = "INACTIVE"
	PoolStatusMaintenance PoolStatus = "MAINTENANCE"
)

// PaymentStatus tracks how much of a booking has been settled. It is a
// recorded fact only; no payment logic hangs off it.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPartial PaymentStatus = "PARTIAL"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

// Principal represents the authenticated actor invoking a service method.
type Principal struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the principal holds the administrator role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Pool represents a bookable pool with its weekly availability calendar and
// assigned operators.
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
	Status        PoolStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PoolInput captures caller provided pool fields.
type PoolInput struct {
	Name          string
	Address       string
	Capacity      int
	PricePerDay   float64
	AvailableDays []time.Weekday
	Description   string
	ImageURL      *string
	EmployeeIDs   []string
	Status        PoolStatus
}

// CreatePoolParams wraps the data required to create a pool.
type CreatePoolParams struct {
	Principal Principal
	Input     PoolInput
}

// UpdatePoolParams wraps the data required to update a pool. The employee set
// is managed through AssignEmployee/RemoveEmployee, not here.
type UpdatePoolParams struct {
	Principal Principal
	PoolID    string
	Input     PoolInput
}

// Booking represents a reservation of a pool for a half-open time interval
// on a single civil date.
type Booking struct {
	ID            string
	PoolID        string
	EmployeeID    string
	ClientName    string
	ClientPhone   string
	ClientEmail   *string
	Date          time.Time
	StartTime     time.Time
	EndTime       time.Time
	TotalValue    float64
	PaidValue     float64
	PaymentStatus PaymentStatus
	Notes         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BookingInput captures caller provided booking fields.
type BookingInput struct {
	PoolID        string
	EmployeeID    string
	ClientName    string
	ClientPhone   string
	ClientEmail   *string
	Date          time.Time
	StartTime     time.Time
	EndTime       time.Time
	TotalValue    float64
	PaidValue     float64
	PaymentStatus PaymentStatus
	Notes         *string
}

// CreateBookingParams wraps the data required to create a booking.
type CreateBookingParams struct {
	Principal Principal
	Input     BookingInput
}

// BookingPatch carries a partial update. Nil fields keep their stored value.
type BookingPatch struct {
	PoolID        *string
	EmployeeID    *string
	ClientName    *string
	ClientPhone   *string
	ClientEmail   *string
	Date          *time.Time
	StartTime     *time.Time
	EndTime       *time.Time
	TotalValue    *float64
	PaidValue     *float64
	PaymentStatus *PaymentStatus
	Notes         *string
}

// UpdateBookingParams wraps the data required to update an existing booking.
type UpdateBookingParams struct {
	Principal Principal
	BookingID string
	Patch     BookingPatch
}

// PoolSummary is the minimal pool projection joined into month listings.
type PoolSummary struct {
	ID          string
	Name        string
	Address     string
	Capacity    int
	PricePerDay float64
	Status      PoolStatus
}

// EmployeeSummary is the minimal operator projection joined into month
// listings.
type EmployeeSummary struct {
	ID    string
	Name  string
	Phone string
}

// MonthBooking is a booking joined with its pool and operator projections.
type MonthBooking struct {
	Booking  Booking
	Pool     *PoolSummary
	Employee *EmployeeSummary
}

// User represents an account exposed by the application services. The
// credential hash never appears here.
type User struct {
	ID        string
	Name      string
	Username  string
	Phone     string
	Role      Role
	PoolIDs   []string
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserInput captures caller provided user attributes. Password is plaintext
// on input and hashed before it reaches persistence.
type UserInput struct {
	Name     string
	Username string
	Phone    string
	Password string
	Role     Role
	PoolIDs  []string
	Status   UserStatus
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams wraps the data required to update an existing user. An
// empty Password leaves the stored credential untouched.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Username string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication.
type AuthenticateResult struct {
	User    User
	Session Session
}

// ValidRole reports whether the value is a member of the closed role set.
func ValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleMaintainer, RoleUser:
		return true
	}
	return false
}

// ValidUserStatus reports whether the value is a known account status.
func ValidUserStatus(status UserStatus) bool {
	return status == UserStatusActive || status == UserStatusInactive
}

// ValidPoolStatus reports whether the value is a known pool status.
func ValidPoolStatus(status PoolStatus) bool {
	switch status {
	case PoolStatusActive, PoolStatusInactive, PoolStatusMaintenance:
		return true
	}
	return false
}

// ValidPaymentStatus reports whether the value is a known payment status.
func ValidPaymentStatus(status PaymentStatus) bool {
	switch status {
	case PaymentStatusPending, PaymentStatusPartial, PaymentStatusPaid:
		return true
	}
	return false
}
