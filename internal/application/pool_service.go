package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/example/pool-booking/internal/pagination"
	"github.com/example/pool-booking/internal/persistence"
)

// PoolRepository captures the persistence operations needed by the service.
type PoolRepository interface {
	CreatePool(ctx context.Context, pool Pool) (Pool, error)
	GetPool(ctx context.Context, id string) (Pool, error)
	UpdatePool(ctx context.Context, pool Pool) (Pool, error)
	DeletePool(ctx context.Context, id string) error
	ListPools(ctx context.Context, offset, limit int) ([]Pool, error)
	CountPools(ctx context.Context) (int, error)
}

// UserDirectory exposes user lookup operations.
type UserDirectory interface {
	MissingUserIDs(ctx context.Context, ids []string) ([]string, error)
}

// PoolService orchestrates validation and persistence for pool operations.
type PoolService struct {
	pools       PoolRepository
	users       UserDirectory
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewPoolService constructs a pool service with the provided dependencies.
func NewPoolService(pools PoolRepository, users UserDirectory, idGenerator func() string, now func() time.Time) *PoolService {
	return NewPoolServiceWithLogger(pools, users, idGenerator, now, nil)
}

// NewPoolServiceWithLogger constructs a pool service with a specified logger.
func NewPoolServiceWithLogger(pools PoolRepository, users UserDirectory, idGenerator func() string, now func() time.Time, logger *slog.Logger) *PoolService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &PoolService{pools: pools, users: users, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *PoolService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "PoolService", operation, attrs...)
}

// CreatePool validates input and persists a new pool.
func (s *PoolService) CreatePool(ctx context.Context, params CreatePoolParams) (pool Pool, err error) {
	if s == nil {
		err = fmt.Errorf("PoolService is nil")
		return
	}
	if s.pools == nil {
		err = fmt.Errorf("pool repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreatePool",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create pool", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("pool_id", pool.ID).InfoContext(ctx, "pool created")
	}()

	input := params.Input
	if input.Status == "" {
		input.Status = PoolStatusActive
	}

	vErr := validatePoolInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	employees := uniqueStrings(input.EmployeeIDs)
	if err = s.ensureEmployeesExist(ctx, employees); err != nil {
		return
	}

	createdAt := s.now()
	pool = Pool{
		ID:            s.idGenerator(),
		Name:          strings.TrimSpace(input.Name),
		Address:       strings.TrimSpace(input.Address),
		Capacity:      input.Capacity,
		PricePerDay:   input.PricePerDay,
		AvailableDays: normalizeWeekdays(input.AvailableDays),
		Description:   strings.TrimSpace(input.Description),
		ImageURL:      normalizeOptionalString(input.ImageURL),
		EmployeeIDs:   sortStrings(employees),
		Status:        input.Status,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}

	var persisted Pool
	persisted, err = s.pools.CreatePool(ctx, pool)
	if err != nil {
		err = mapPoolRepoError(err)
		return
	}

	pool = persisted
	return
}

// GetPool returns a single pool by identifier.
func (s *PoolService) GetPool(ctx context.Context, principal Principal, poolID string) (Pool, error) {
	if s == nil {
		return Pool{}, fmt.Errorf("PoolService is nil")
	}
	if s.pools == nil {
		return Pool{}, fmt.Errorf("pool repository not configured")
	}

	pool, err := s.pools.GetPool(ctx, poolID)
	if err != nil {
		return Pool{}, mapPoolRepoError(err)
	}
	return pool, nil
}

// ListPools returns one page of the pool catalog together with collection totals.
func (s *PoolService) ListPools(ctx context.Context, principal Principal, page pagination.Page) (result pagination.Paginated[Pool], err error) {
	if s == nil {
		err = fmt.Errorf("PoolService is nil")
		return
	}
	if s.pools == nil {
		err = fmt.Errorf("pool repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ListPools",
		"principal_id", principal.UserID,
		"page", page.Number,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list pools", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(result.Items)).InfoContext(ctx, "pools listed")
	}()

	var count int
	count, err = s.pools.CountPools(ctx)
	if err != nil {
		return
	}

	var pools []Pool
	pools, err = s.pools.ListPools(ctx, page.Offset(), page.Limit)
	if err != nil {
		return
	}

	result = pagination.NewPaginated(pools, count, page)
	return
}

// UpdatePool validates input and updates an existing pool. The assigned
// employee set is managed through AssignEmployee and RemoveEmployee.
func (s *PoolService) UpdatePool(ctx context.Context, params UpdatePoolParams) (pool Pool, err error) {
	if s == nil {
		err = fmt.Errorf("PoolService is nil")
		return
	}
	if s.pools == nil {
		err = fmt.Errorf("pool repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdatePool",
		"principal_id", params.Principal.UserID,
		"pool_id", params.PoolID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update pool", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("pool_id", pool.ID).InfoContext(ctx, "pool updated")
	}()

	var existing Pool
	existing, err = s.pools.GetPool(ctx, params.PoolID)
	if err != nil {
		err = mapPoolRepoError(err)
		return
	}

	input := params.Input
	if input.Status == "" {
		input.Status = existing.Status
	}

	vErr := validatePoolInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Name = strings.TrimSpace(input.Name)
	updated.Address = strings.TrimSpace(input.Address)
	updated.Capacity = input.Capacity
	updated.PricePerDay = input.PricePerDay
	updated.AvailableDays = normalizeWeekdays(input.AvailableDays)
	updated.Description = strings.TrimSpace(input.Description)
	updated.ImageURL = normalizeOptionalString(input.ImageURL)
	updated.Status = input.Status
	updated.UpdatedAt = s.now()

	pool, err = s.pools.UpdatePool(ctx, updated)
	if err != nil {
		err = mapPoolRepoError(err)
		return
	}

	return
}

// DeletePool removes an existing pool. Bookings already recorded against the
// pool are kept as historical records.
func (s *PoolService) DeletePool(ctx context.Context, principal Principal, poolID string) error {
	if s == nil {
		return fmt.Errorf("PoolService is nil")
	}
	if s.pools == nil {
		return fmt.Errorf("pool repository not configured")
	}

	logger := s.loggerWith(ctx, "DeletePool",
		"principal_id", principal.UserID,
		"pool_id", poolID,
	)

	if err := s.pools.DeletePool(ctx, poolID); err != nil {
		err = mapPoolRepoError(err)
		logger.ErrorContext(ctx, "failed to delete pool", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "pool deleted")
	return nil
}

// AssignEmployee adds an operator to the pool's employee roster.
func (s *PoolService) AssignEmployee(ctx context.Context, principal Principal, poolID, employeeID string) (pool Pool, err error) {
	if s == nil {
		err = fmt.Errorf("PoolService is nil")
		return
	}
	if s.pools == nil {
		err = fmt.Errorf("pool repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "AssignEmployee",
		"principal_id", principal.UserID,
		"pool_id", poolID,
		"employee_id", employeeID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to assign employee", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "employee assigned")
	}()

	var existing Pool
	existing, err = s.pools.GetPool(ctx, poolID)
	if err != nil {
		err = mapPoolRepoError(err)
		return
	}

	if s.users != nil {
		var missing []string
		missing, err = s.users.MissingUserIDs(ctx, []string{employeeID})
		if err != nil {
			return
		}
		if len(missing) > 0 {
			err = fmt.Errorf("employee %s: %w", employeeID, ErrNotFound)
			return
		}
	}

	if slices.Contains(existing.EmployeeIDs, employeeID) {
		err = ErrEmployeeAssigned
		return
	}

	updated := existing
	updated.EmployeeIDs = sortStrings(append(uniqueStrings(existing.EmployeeIDs), employeeID))
	updated.UpdatedAt = s.now()

	pool, err = s.pools.UpdatePool(ctx, updated)
	if err != nil {
		err = mapPoolRepoError(err)
		return
	}

	return
}

// RemoveEmployee removes an operator from the pool's employee roster.
func (s *PoolService) RemoveEmployee(ctx context.Context, principal Principal, poolID, employeeID string) (pool Pool, err error) {
	if s == nil {
		err = fmt.Errorf("PoolService is nil")
		return
	}
	if s.pools == nil {
		err = fmt.Errorf("pool repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "RemoveEmployee",
		"principal_id", principal.UserID,
		"pool_id", poolID,
		"employee_id", employeeID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to remove employee", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "employee removed")
	}()

	var existing Pool
	existing, err = s.pools.GetPool(ctx, poolID)
	if err != nil {
		err = mapPoolRepoError(err)
		return
	}

	if !slices.Contains(existing.EmployeeIDs, employeeID) {
		err = ErrEmployeeNotAssigned
		return
	}

	remaining := make([]string, 0, len(existing.EmployeeIDs))
	for _, id := range existing.EmployeeIDs {
		if id != employeeID {
			remaining = append(remaining, id)
		}
	}

	updated := existing
	updated.EmployeeIDs = remaining
	updated.UpdatedAt = s.now()

	pool, err = s.pools.UpdatePool(ctx, updated)
	if err != nil {
		err = mapPoolRepoError(err)
		return
	}

	return
}

// SetStatus transitions the pool to a new lifecycle status. Existing bookings
// are left untouched; the status only gates future booking validation.
func (s *PoolService) SetStatus(ctx context.Context, principal Principal, poolID string, status PoolStatus) (pool Pool, err error) {
	if s == nil {
		err = fmt.Errorf("PoolService is nil")
		return
	}
	if s.pools == nil {
		err = fmt.Errorf("pool repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "SetStatus",
		"principal_id", principal.UserID,
		"pool_id", poolID,
		"status", string(status),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update pool status", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "pool status updated")
	}()

	if !ValidPoolStatus(status) {
		vErr := &ValidationError{}
		vErr.add("status", "status must be ACTIVE, INACTIVE or MAINTENANCE")
		err = vErr
		return
	}

	var existing Pool
	existing, err = s.pools.GetPool(ctx, poolID)
	if err != nil {
		err = mapPoolRepoError(err)
		return
	}

	updated := existing
	updated.Status = status
	updated.UpdatedAt = s.now()

	pool, err = s.pools.UpdatePool(ctx, updated)
	if err != nil {
		err = mapPoolRepoError(err)
		return
	}

	return
}

func (s *PoolService) ensureEmployeesExist(ctx context.Context, ids []string) error {
	if s.users == nil || len(ids) == 0 {
		return nil
	}
	missing, err := s.users.MissingUserIDs(ctx, uniqueStrings(ids))
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		return nil
	}
	vErr := &ValidationError{}
	vErr.add("employees", fmt.Sprintf("unknown user ids: %s", strings.Join(missing, ", ")))
	return vErr
}

func validatePoolInput(input PoolInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if strings.TrimSpace(input.Address) == "" {
		vErr.add("address", "address is required")
	}
	if input.Capacity <= 0 {
		vErr.add("capacity", "capacity must be positive")
	}
	if input.PricePerDay < 0 {
		vErr.add("price_per_day", "price must not be negative")
	}

	if len(input.AvailableDays) == 0 {
		vErr.add("available_days", "at least one available day is required")
	}
	for _, day := range input.AvailableDays {
		if day < time.Sunday || day > time.Saturday {
			vErr.add("available_days", "days must be between 0 (Sunday) and 6 (Saturday)")
			break
		}
	}

	if input.ImageURL != nil && strings.TrimSpace(*input.ImageURL) != "" {
		if _, err := url.ParseRequestURI(strings.TrimSpace(*input.ImageURL)); err != nil {
			vErr.add("image_url", "must be a valid URL")
		}
	}

	if !ValidPoolStatus(input.Status) {
		vErr.add("status", "status must be ACTIVE, INACTIVE or MAINTENANCE")
	}

	return vErr
}

// normalizeWeekdays deduplicates and sorts the weekly calendar.
func normalizeWeekdays(days []time.Weekday) []time.Weekday {
	seen := make(map[time.Weekday]struct{}, len(days))
	result := make([]time.Weekday, 0, len(days))
	for _, day := range days {
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		result = append(result, day)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}

func sortStrings(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	sort.Strings(out)
	return out
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func mapPoolRepoError(err error) error {
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
		vErr.add("capacity", "capacity must be positive")
		return vErr
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("employees", "related records are missing")
		return vErr
	}
	return err
}
