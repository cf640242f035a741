package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/example/pool-booking/internal/availability"
	"github.com/example/pool-booking/internal/pagination"
	"github.com/example/pool-booking/internal/persistence"
)

// BookingRepository captures the persistence interactions needed by the service.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) (Booking, error)
	GetBooking(ctx context.Context, id string) (Booking, error)
	UpdateBooking(ctx context.Context, booking Booking) (Booking, error)
	DeleteBooking(ctx context.Context, id string) error
	ListBookings(ctx context.Context, filter BookingRepositoryFilter, offset, limit int) ([]Booking, error)
	CountBookings(ctx context.Context, filter BookingRepositoryFilter) (int, error)
}

// BookingRepositoryFilter narrows queries issued to the booking repository.
// From and To bound the civil date inclusively.
type BookingRepositoryFilter struct {
	PoolID    string
	Date      *time.Time
	From      *time.Time
	To        *time.Time
	ExcludeID string
}

// PoolCatalog exposes pool lookup operations.
type PoolCatalog interface {
	GetPool(ctx context.Context, id string) (Pool, error)
}

// EmployeeDirectory exposes operator lookup operations.
type EmployeeDirectory interface {
	GetUser(ctx context.Context, id string) (User, error)
}

// BookingService orchestrates validation, conflict detection, and persistence
// for booking operations.
type BookingService struct {
	bookings    BookingRepository
	pools       PoolCatalog
	employees   EmployeeDirectory
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger

	// poolLocks serializes the check-then-insert sequence per pool so two
	// overlapping concurrent requests cannot both pass the conflict scan.
	// Entries are dropped once the last holder releases them.
	mu        sync.Mutex
	poolLocks map[string]*poolLock
}

type poolLock struct {
	mu   sync.Mutex
	refs int
}

// NewBookingService wires dependencies for booking operations.
func NewBookingService(bookings BookingRepository, pools PoolCatalog, employees EmployeeDirectory, idGenerator func() string, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(bookings, pools, employees, idGenerator, now, nil)
}

// NewBookingServiceWithLogger constructs a booking service with a specified logger.
func NewBookingServiceWithLogger(bookings BookingRepository, pools PoolCatalog, employees EmployeeDirectory, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		bookings:    bookings,
		pools:       pools,
		employees:   employees,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
		poolLocks:   make(map[string]*poolLock),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

func (s *BookingService) lockPool(poolID string) func() {
	s.mu.Lock()
	lock, ok := s.poolLocks[poolID]
	if !ok {
		lock = &poolLock{}
		s.poolLocks[poolID] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.poolLocks, poolID)
		}
		s.mu.Unlock()
	}
}

// CreateBooking validates the request, checks pool availability, and persists
// the booking. Conflict detection and the insert run under the pool's lock.
func (s *BookingService) CreateBooking(ctx context.Context, params CreateBookingParams) (booking Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateBooking",
		"principal_id", params.Principal.UserID,
		"pool_id", params.Input.PoolID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booking_id", booking.ID).InfoContext(ctx, "booking created")
	}()

	input := params.Input
	if input.PaymentStatus == "" {
		input.PaymentStatus = PaymentStatusPending
	}

	vErr := validateBookingInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var employee User
	employee, err = s.resolveEmployee(ctx, input.EmployeeID)
	if err != nil {
		return
	}

	unlock := s.lockPool(input.PoolID)
	defer unlock()

	var pool Pool
	pool, err = s.resolvePool(ctx, input.PoolID)
	if err != nil {
		return
	}

	candidate := availability.Proposal{
		PoolID: pool.ID,
		Date:   input.Date,
		Start:  input.StartTime,
		End:    input.EndTime,
	}
	if err = s.checkAvailability(ctx, candidate, pool); err != nil {
		return
	}

	createdAt := s.now()
	booking = Booking{
		ID:            s.idGenerator(),
		PoolID:        pool.ID,
		EmployeeID:    employee.ID,
		ClientName:    strings.TrimSpace(input.ClientName),
		ClientPhone:   strings.TrimSpace(input.ClientPhone),
		ClientEmail:   normalizeOptionalString(input.ClientEmail),
		Date:          availability.CivilDate(input.Date),
		StartTime:     input.StartTime,
		EndTime:       input.EndTime,
		TotalValue:    input.TotalValue,
		PaidValue:     input.PaidValue,
		PaymentStatus: input.PaymentStatus,
		Notes:         normalizeOptionalString(input.Notes),
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}

	var persisted Booking
	persisted, err = s.bookings.CreateBooking(ctx, booking)
	if err != nil {
		err = mapBookingRepoError(err)
		return
	}

	booking = persisted
	return
}

// GetBooking returns a single booking by identifier.
func (s *BookingService) GetBooking(ctx context.Context, principal Principal, bookingID string) (Booking, error) {
	if s == nil {
		return Booking{}, fmt.Errorf("BookingService is nil")
	}
	if s.bookings == nil {
		return Booking{}, fmt.Errorf("booking repository not configured")
	}

	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return Booking{}, mapBookingRepoError(err)
	}
	return booking, nil
}

// UpdateBooking applies a partial update. Availability is re-checked only
// when the pool, date, or times change, using the stored value for any field
// the patch leaves unset, and excluding the booking itself from the scan.
func (s *BookingService) UpdateBooking(ctx context.Context, params UpdateBookingParams) (booking Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateBooking",
		"principal_id", params.Principal.UserID,
		"booking_id", params.BookingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booking_id", booking.ID).InfoContext(ctx, "booking updated")
	}()

	var existing Booking
	existing, err = s.bookings.GetBooking(ctx, params.BookingID)
	if err != nil {
		err = mapBookingRepoError(err)
		return
	}

	patch := params.Patch
	updated := applyBookingPatch(existing, patch)
	updated.UpdatedAt = s.now()

	vErr := validateBookingInput(BookingInput{
		PoolID:        updated.PoolID,
		EmployeeID:    updated.EmployeeID,
		ClientName:    updated.ClientName,
		ClientPhone:   updated.ClientPhone,
		ClientEmail:   updated.ClientEmail,
		Date:          updated.Date,
		StartTime:     updated.StartTime,
		EndTime:       updated.EndTime,
		TotalValue:    updated.TotalValue,
		PaidValue:     updated.PaidValue,
		PaymentStatus: updated.PaymentStatus,
		Notes:         updated.Notes,
	})
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if patch.EmployeeID != nil {
		if _, err = s.resolveEmployee(ctx, updated.EmployeeID); err != nil {
			return
		}
	}

	recheck := patch.PoolID != nil || patch.Date != nil || patch.StartTime != nil || patch.EndTime != nil
	if recheck {
		unlock := s.lockPool(updated.PoolID)
		defer unlock()

		var pool Pool
		pool, err = s.resolvePool(ctx, updated.PoolID)
		if err != nil {
			return
		}

		candidate := availability.Proposal{
			BookingID: existing.ID,
			PoolID:    pool.ID,
			Date:      updated.Date,
			Start:     updated.StartTime,
			End:       updated.EndTime,
		}
		if err = s.checkAvailability(ctx, candidate, pool); err != nil {
			return
		}
	}

	booking, err = s.bookings.UpdateBooking(ctx, updated)
	if err != nil {
		err = mapBookingRepoError(err)
		return
	}

	return
}

// DeleteBooking removes an existing booking.
func (s *BookingService) DeleteBooking(ctx context.Context, principal Principal, bookingID string) error {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}
	if s.bookings == nil {
		return fmt.Errorf("booking repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteBooking",
		"principal_id", principal.UserID,
		"booking_id", bookingID,
	)

	if err := s.bookings.DeleteBooking(ctx, bookingID); err != nil {
		err = mapBookingRepoError(err)
		logger.ErrorContext(ctx, "failed to delete booking", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "booking deleted")
	return nil
}

// ListBookings returns one page of bookings ordered by date and start time.
func (s *BookingService) ListBookings(ctx context.Context, principal Principal, page pagination.Page) (result pagination.Paginated[Booking], err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ListBookings",
		"principal_id", principal.UserID,
		"page", page.Number,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list bookings", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(result.Items)).InfoContext(ctx, "bookings listed")
	}()

	var count int
	count, err = s.bookings.CountBookings(ctx, BookingRepositoryFilter{})
	if err != nil {
		return
	}

	var bookings []Booking
	bookings, err = s.bookings.ListBookings(ctx, BookingRepositoryFilter{}, page.Offset(), page.Limit)
	if err != nil {
		return
	}

	result = pagination.NewPaginated(bookings, count, page)
	return
}

// FindByMonth returns every booking whose civil date falls inside the given
// month, joined with pool and operator projections.
func (s *BookingService) FindByMonth(ctx context.Context, principal Principal, month time.Month, year int) (result []MonthBooking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.bookings == nil {
		err = fmt.Errorf("booking repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "FindByMonth",
		"principal_id", principal.UserID,
		"month", int(month),
		"year", year,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list bookings by month", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(result)).InfoContext(ctx, "bookings listed by month")
	}()

	if month < time.January || month > time.December {
		vErr := &ValidationError{}
		vErr.add("month", "month must be between 1 and 12")
		err = vErr
		return
	}
	if year < 1 {
		vErr := &ValidationError{}
		vErr.add("year", "year must be positive")
		err = vErr
		return
	}

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	var bookings []Booking
	bookings, err = s.bookings.ListBookings(ctx, BookingRepositoryFilter{From: &from, To: &to}, 0, 0)
	if err != nil {
		return
	}

	result = make([]MonthBooking, 0, len(bookings))
	pools := make(map[string]*PoolSummary)
	employees := make(map[string]*EmployeeSummary)

	for _, booking := range bookings {
		entry := MonthBooking{Booking: booking}

		if summary, ok := pools[booking.PoolID]; ok {
			entry.Pool = summary
		} else if s.pools != nil {
			pool, poolErr := s.pools.GetPool(ctx, booking.PoolID)
			if poolErr == nil {
				summary := &PoolSummary{
					ID:          pool.ID,
					Name:        pool.Name,
					Address:     pool.Address,
					Capacity:    pool.Capacity,
					PricePerDay: pool.PricePerDay,
					Status:      pool.Status,
				}
				pools[booking.PoolID] = summary
				entry.Pool = summary
			} else if !isNotFoundError(poolErr) {
				err = poolErr
				return
			}
		}

		if summary, ok := employees[booking.EmployeeID]; ok {
			entry.Employee = summary
		} else if s.employees != nil {
			user, userErr := s.employees.GetUser(ctx, booking.EmployeeID)
			if userErr == nil {
				summary := &EmployeeSummary{
					ID:    user.ID,
					Name:  user.Name,
					Phone: user.Phone,
				}
				employees[booking.EmployeeID] = summary
				entry.Employee = summary
			} else if !isNotFoundError(userErr) {
				err = userErr
				return
			}
		}

		result = append(result, entry)
	}

	return
}

func (s *BookingService) resolvePool(ctx context.Context, poolID string) (Pool, error) {
	if s.pools == nil {
		return Pool{}, fmt.Errorf("pool catalog not configured")
	}
	pool, err := s.pools.GetPool(ctx, poolID)
	if err != nil {
		if isNotFoundError(err) {
			return Pool{}, ErrNotFound
		}
		return Pool{}, err
	}
	return pool, nil
}

func (s *BookingService) resolveEmployee(ctx context.Context, employeeID string) (User, error) {
	if s.employees == nil {
		return User{ID: employeeID}, nil
	}
	user, err := s.employees.GetUser(ctx, employeeID)
	if err != nil {
		if isNotFoundError(err) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

func (s *BookingService) checkAvailability(ctx context.Context, candidate availability.Proposal, pool Pool) error {
	date := availability.CivilDate(candidate.Date)
	filter := BookingRepositoryFilter{
		PoolID:    pool.ID,
		Date:      &date,
		ExcludeID: candidate.BookingID,
	}

	existing, err := s.bookings.ListBookings(ctx, filter, 0, 0)
	if err != nil && !isNotFoundError(err) {
		return err
	}

	sameDay := make([]availability.Booking, 0, len(existing))
	for _, booking := range existing {
		sameDay = append(sameDay, availability.Booking{
			ID:     booking.ID,
			PoolID: booking.PoolID,
			Date:   booking.Date,
			Start:  booking.StartTime,
			End:    booking.EndTime,
		})
	}

	return availability.Check(candidate, availability.Pool{
		ID:            pool.ID,
		Status:        availability.PoolStatus(pool.Status),
		AvailableDays: pool.AvailableDays,
	}, sameDay, s.now())
}

func applyBookingPatch(existing Booking, patch BookingPatch) Booking {
	updated := existing

	if patch.PoolID != nil {
		updated.PoolID = *patch.PoolID
	}
	if patch.EmployeeID != nil {
		updated.EmployeeID = *patch.EmployeeID
	}
	if patch.ClientName != nil {
		updated.ClientName = strings.TrimSpace(*patch.ClientName)
	}
	if patch.ClientPhone != nil {
		updated.ClientPhone = strings.TrimSpace(*patch.ClientPhone)
	}
	if patch.ClientEmail != nil {
		updated.ClientEmail = normalizeOptionalString(patch.ClientEmail)
	}
	if patch.Date != nil {
		updated.Date = availability.CivilDate(*patch.Date)
	}
	if patch.StartTime != nil {
		updated.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		updated.EndTime = *patch.EndTime
	}
	if patch.TotalValue != nil {
		updated.TotalValue = *patch.TotalValue
	}
	if patch.PaidValue != nil {
		updated.PaidValue = *patch.PaidValue
	}
	if patch.PaymentStatus != nil {
		updated.PaymentStatus = *patch.PaymentStatus
	}
	if patch.Notes != nil {
		updated.Notes = normalizeOptionalString(patch.Notes)
	}

	return updated
}

func validateBookingInput(input BookingInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.PoolID) == "" {
		vErr.add("pool_id", "pool is required")
	}
	if strings.TrimSpace(input.EmployeeID) == "" {
		vErr.add("employee_id", "employee is required")
	}
	if strings.TrimSpace(input.ClientName) == "" {
		vErr.add("client_name", "client name is required")
	}
	if strings.TrimSpace(input.ClientPhone) == "" {
		vErr.add("client_phone", "client phone is required")
	}
	if input.ClientEmail != nil && strings.TrimSpace(*input.ClientEmail) != "" {
		if _, err := mail.ParseAddress(strings.TrimSpace(*input.ClientEmail)); err != nil {
			vErr.add("client_email", "must be a valid email address")
		}
	}

	if input.Date.IsZero() {
		vErr.add("date", "date is required")
	}
	if input.StartTime.IsZero() {
		vErr.add("start_time", "start time is required")
	}
	if input.EndTime.IsZero() {
		vErr.add("end_time", "end time is required")
	}

	if input.TotalValue < 0 {
		vErr.add("total_value", "total value must not be negative")
	}
	if input.PaidValue < 0 {
		vErr.add("paid_value", "paid value must not be negative")
	}
	if !ValidPaymentStatus(input.PaymentStatus) {
		vErr.add("payment_status", "payment status must be PENDING, PARTIAL or PAID")
	}

	return vErr
}

func mapBookingRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("time", "start must be before end")
		return vErr
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("pool_id", "related records are missing")
		return vErr
	}
	return err
}

func isNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound)
}
