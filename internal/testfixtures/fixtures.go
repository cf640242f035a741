package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/pool-booking/internal/application"
	"github.com/example/pool-booking/internal/persistence"
)

var (
	userCounter    uint64
	poolCounter    uint64
	bookingCounter uint64
	sessionCounter uint64
)

var referenceTime = time.Date(2025, time.June, 1, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic account record that can be
// materialised for application or persistence tests.
type UserFixture struct {
	ID           string
	Name         string
	Username     string
	Phone        string
	PasswordHash string
	Role         application.Role
	PoolIDs      []string
	Status       application.UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		Name:         fmt.Sprintf("User %03d", idx),
		Username:     fmt.Sprintf("user.%03d", idx),
		Phone:        fmt.Sprintf("+55 11 90000-0%03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		Role:         application.RoleUser,
		Status:       application.UserStatusActive,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUsername overrides the generated username.
func WithUsername(username string) UserOption {
	return func(f *UserFixture) {
		f.Username = username
	}
}

// WithUserRole sets the role on the generated fixture.
func WithUserRole(role application.Role) UserOption {
	return func(f *UserFixture) {
		f.Role = role
	}
}

// WithUserStatus sets the account status on the generated fixture.
func WithUserStatus(status application.UserStatus) UserOption {
	return func(f *UserFixture) {
		f.Status = status
	}
}

// WithUserPools sets the pool assignment list on the generated fixture.
func WithUserPools(poolIDs ...string) UserOption {
	return func(f *UserFixture) {
		f.PoolIDs = poolIDs
	}
}

// WithUserPasswordHash overrides the generated credential hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// WithUserTimestamps sets both created and updated timestamps on the fixture.
func WithUserTimestamps(created, updated time.Time) UserOption {
	return func(f *UserFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:        f.ID,
		Name:      f.Name,
		Username:  f.Username,
		Phone:     f.Phone,
		Role:      f.Role,
		PoolIDs:   f.PoolIDs,
		Status:    f.Status,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Credentials returns the fixture as application.UserCredentials.
func (f UserFixture) Credentials() application.UserCredentials {
	return application.UserCredentials{
		User:         f.Application(),
		PasswordHash: f.PasswordHash,
	}
}

// Principal returns an application.Principal derived from the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, Role: f.Role}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Name:         f.Name,
		Username:     f.Username,
		Phone:        f.Phone,
		PasswordHash: f.PasswordHash,
		Role:         string(f.Role),
		PoolIDs:      f.PoolIDs,
		Status:       string(f.Status),
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// ----------------------------- Pool fixtures -----------------------------

// PoolFixture represents a deterministic pool record.
type PoolFixture struct {
	ID            string
	Name          string
	Address       string
	Capacity      int
	PricePerDay   float64
	AvailableDays []time.Weekday
	Description   string
	ImageURL      *string
	EmployeeIDs   []string
	Status        application.PoolStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PoolOption configures the generated pool fixture.
type PoolOption func(*PoolFixture)

// NewPoolFixture returns a deterministic pool fixture with optional overrides.
func NewPoolFixture(opts ...PoolOption) PoolFixture {
	idx := atomic.AddUint64(&poolCounter, 1)
	id := fmt.Sprintf("pool-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := PoolFixture{
		ID:            id,
		Name:          fmt.Sprintf("Pool %03d", idx),
		Address:       fmt.Sprintf("%d Shore Street", idx),
		Capacity:      20,
		PricePerDay:   150,
		AvailableDays: []time.Weekday{time.Sunday, time.Saturday},
		Status:        application.PoolStatusActive,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithPoolID overrides the generated pool ID.
func WithPoolID(id string) PoolOption {
	return func(f *PoolFixture) {
		f.ID = id
	}
}

// WithPoolStatus sets the status on the generated fixture.
func WithPoolStatus(status application.PoolStatus) PoolOption {
	return func(f *PoolFixture) {
		f.Status = status
	}
}

// WithPoolAvailableDays sets the open weekdays on the generated fixture.
func WithPoolAvailableDays(days ...time.Weekday) PoolOption {
	return func(f *PoolFixture) {
		f.AvailableDays = days
	}
}

// WithPoolEmployees sets the operator roster on the generated fixture.
func WithPoolEmployees(employeeIDs ...string) PoolOption {
	return func(f *PoolFixture) {
		f.EmployeeIDs = employeeIDs
	}
}

// WithPoolCapacity sets the capacity on the generated fixture.
func WithPoolCapacity(capacity int) PoolOption {
	return func(f *PoolFixture) {
		f.Capacity = capacity
	}
}

// Application returns the fixture as an application.Pool value.
func (f PoolFixture) Application() application.Pool {
	return application.Pool{
		ID:            f.ID,
		Name:          f.Name,
		Address:       f.Address,
		Capacity:      f.Capacity,
		PricePerDay:   f.PricePerDay,
		AvailableDays: f.AvailableDays,
		Description:   f.Description,
		ImageURL:      f.ImageURL,
		EmployeeIDs:   f.EmployeeIDs,
		Status:        f.Status,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Pool value.
func (f PoolFixture) Persistence() persistence.Pool {
	return persistence.Pool{
		ID:            f.ID,
		Name:          f.Name,
		Address:       f.Address,
		Capacity:      f.Capacity,
		PricePerDay:   f.PricePerDay,
		AvailableDays: f.AvailableDays,
		Description:   f.Description,
		ImageURL:      f.ImageURL,
		EmployeeIDs:   f.EmployeeIDs,
		Status:        string(f.Status),
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// --------------------------- Booking fixtures ---------------------------

// BookingFixture represents a deterministic reservation record.
type BookingFixture struct {
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
	PaymentStatus application.PaymentStatus
	Notes         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BookingOption configures the generated booking fixture.
type BookingOption func(*BookingFixture)

// NewBookingFixture returns a deterministic booking fixture with optional
// overrides. Each fixture lands on its own future day so independent fixtures
// never collide on a pool.
func NewBookingFixture(opts ...BookingOption) BookingFixture {
	idx := atomic.AddUint64(&bookingCounter, 1)
	id := fmt.Sprintf("booking-%03d", idx)
	day := time.Date(2025, time.June, 7, 0, 0, 0, 0, time.UTC).AddDate(0, 0, int(idx))
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := BookingFixture{
		ID:            id,
		PoolID:        "pool-001",
		EmployeeID:    "user-001",
		ClientName:    fmt.Sprintf("Client %03d", idx),
		ClientPhone:   fmt.Sprintf("+55 11 98888-0%03d", idx),
		Date:          day,
		StartTime:     day.Add(10 * time.Hour),
		EndTime:       day.Add(12 * time.Hour),
		TotalValue:    300,
		PaymentStatus: application.PaymentStatusPending,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithBookingID overrides the generated booking ID.
func WithBookingID(id string) BookingOption {
	return func(f *BookingFixture) {
		f.ID = id
	}
}

// WithBookingPool sets the pool the booking reserves.
func WithBookingPool(poolID string) BookingOption {
	return func(f *BookingFixture) {
		f.PoolID = poolID
	}
}

// WithBookingEmployee sets the assigned operator.
func WithBookingEmployee(employeeID string) BookingOption {
	return func(f *BookingFixture) {
		f.EmployeeID = employeeID
	}
}

// WithBookingSlot sets the civil day and time interval in one step.
func WithBookingSlot(date, start, end time.Time) BookingOption {
	return func(f *BookingFixture) {
		f.Date = date
		f.StartTime = start
		f.EndTime = end
	}
}

// WithBookingPayment sets the payment amounts and status.
func WithBookingPayment(total, paid float64, status application.PaymentStatus) BookingOption {
	return func(f *BookingFixture) {
		f.TotalValue = total
		f.PaidValue = paid
		f.PaymentStatus = status
	}
}

// Application returns the fixture as an application.Booking value.
func (f BookingFixture) Application() application.Booking {
	return application.Booking{
		ID:            f.ID,
		PoolID:        f.PoolID,
		EmployeeID:    f.EmployeeID,
		ClientName:    f.ClientName,
		ClientPhone:   f.ClientPhone,
		ClientEmail:   f.ClientEmail,
		Date:          f.Date,
		StartTime:     f.StartTime,
		EndTime:       f.EndTime,
		TotalValue:    f.TotalValue,
		PaidValue:     f.PaidValue,
		PaymentStatus: f.PaymentStatus,
		Notes:         f.Notes,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Booking value.
func (f BookingFixture) Persistence() persistence.Booking {
	return persistence.Booking{
		ID:            f.ID,
		PoolID:        f.PoolID,
		EmployeeID:    f.EmployeeID,
		ClientName:    f.ClientName,
		ClientPhone:   f.ClientPhone,
		ClientEmail:   f.ClientEmail,
		Date:          f.Date,
		Start:         f.StartTime,
		End:           f.EndTime,
		TotalValue:    f.TotalValue,
		PaidValue:     f.PaidValue,
		PaymentStatus: string(f.PaymentStatus),
		Notes:         f.Notes,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// --------------------------- Session fixtures ---------------------------

// SessionFixture represents a deterministic authentication session.
type SessionFixture struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic session fixture with optional
// overrides. Sessions expire a day after the reference time by default.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    "user-001",
		Token:     fmt.Sprintf("token-%03d", idx),
		ExpiresAt: created.Add(24 * time.Hour),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionUser sets the owning user on the generated fixture.
func WithSessionUser(userID string) SessionOption {
	return func(f *SessionFixture) {
		f.UserID = userID
	}
}

// WithSessionToken overrides the generated token.
func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) {
		f.Token = token
	}
}

// WithSessionExpiry sets the expiry instant on the generated fixture.
func WithSessionExpiry(expiresAt time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = expiresAt
	}
}

// WithSessionRevoked marks the session revoked at the given instant.
func WithSessionRevoked(revokedAt time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.RevokedAt = &revokedAt
	}
}

// Application returns the fixture as an application.Session value.
func (f SessionFixture) Application() application.Session {
	return application.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
		RevokedAt: f.RevokedAt,
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
		RevokedAt: f.RevokedAt,
	}
}
