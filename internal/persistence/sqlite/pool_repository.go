package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/pool-booking/internal/persistence"
)

// PoolRepository implements persistence.PoolRepository using SQLite.
type PoolRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewPoolRepository creates a new SQLite pool repository.
func NewPoolRepository(pool *ConnectionPool) *PoolRepository {
	return &PoolRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreatePool inserts a new pool with its employee set.
func (r *PoolRepository) CreatePool(ctx context.Context, pool persistence.Pool) error {
	if pool.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO pools (id, name, address, capacity, price_per_day, available_days, description, image_url, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`

		_, err := r.helper.ExecTx(tx, query,
			pool.ID,
			pool.Name,
			pool.Address,
			pool.Capacity,
			pool.PricePerDay,
			encodeWeekdays(pool.AvailableDays),
			pool.Description,
			nullString(pool.ImageURL),
			pool.Status,
			formatInstant(pool.CreatedAt),
			formatInstant(pool.UpdatedAt),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}

		return r.replaceEmployees(tx, pool.ID, pool.EmployeeIDs)
	})
}

// UpdatePool rewrites an existing pool and its employee set.
func (r *PoolRepository) UpdatePool(ctx context.Context, pool persistence.Pool) error {
	if pool.ID == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE pools
			SET name = ?, address = ?, capacity = ?, price_per_day = ?, available_days = ?, description = ?, image_url = ?, status = ?, updated_at = ?
			WHERE id = ?
		`

		result, err := r.helper.ExecTx(tx, query,
			pool.Name,
			pool.Address,
			pool.Capacity,
			pool.PricePerDay,
			encodeWeekdays(pool.AvailableDays),
			pool.Description,
			nullString(pool.ImageURL),
			pool.Status,
			formatInstant(pool.UpdatedAt),
			pool.ID,
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

		if _, err := r.helper.ExecTx(tx, "DELETE FROM pool_employees WHERE pool_id = ?", pool.ID); err != nil {
			return r.mapper.MapError(err)
		}

		return r.replaceEmployees(tx, pool.ID, pool.EmployeeIDs)
	})
}

// GetPool retrieves a pool by ID together with its employee set.
func (r *PoolRepository) GetPool(ctx context.Context, id string) (persistence.Pool, error) {
	if id == "" {
		return persistence.Pool{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, name, address, capacity, price_per_day, available_days, description, image_url, status, created_at, updated_at
		FROM pools
		WHERE id = ?
	`

	pool, err := r.scanPool(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		return persistence.Pool{}, err
	}

	employees, err := r.loadEmployees(ctx, id)
	if err != nil {
		return persistence.Pool{}, err
	}
	pool.EmployeeIDs = employees

	return pool, nil
}

// ListPools returns a window of pools ordered by creation time.
func (r *PoolRepository) ListPools(ctx context.Context, window persistence.ListWindow) ([]persistence.Pool, error) {
	query := `
		SELECT id, name, address, capacity, price_per_day, available_days, description, image_url, status, created_at, updated_at
		FROM pools
		ORDER BY created_at ASC, id ASC
		LIMIT ? OFFSET ?
	`

	rows, err := r.helper.Query(ctx, query, window.Limit, window.Offset)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var pools []persistence.Pool
	for rows.Next() {
		pool, err := r.scanPool(rows)
		if err != nil {
			return nil, err
		}
		pools = append(pools, pool)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	for i := range pools {
		employees, err := r.loadEmployees(ctx, pools[i].ID)
		if err != nil {
			return nil, err
		}
		pools[i].EmployeeIDs = employees
	}

	return pools, nil
}

// CountPools returns the total number of pools.
func (r *PoolRepository) CountPools(ctx context.Context) (int, error) {
	var count int
	if err := r.helper.QueryRow(ctx, "SELECT COUNT(*) FROM pools").Scan(&count); err != nil {
		return 0, r.mapper.MapError(err)
	}
	return count, nil
}

// DeletePool removes a pool and its employee assignments. Bookings that
// reference the pool are left in place.
func (r *PoolRepository) DeletePool(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := r.helper.ExecTx(tx, "DELETE FROM pool_employees WHERE pool_id = ?", id); err != nil {
			return r.mapper.MapError(err)
		}

		result, err := r.helper.ExecTx(tx, "DELETE FROM pools WHERE id = ?", id)
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
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PoolRepository) scanPool(row rowScanner) (persistence.Pool, error) {
	var pool persistence.Pool
	var availableDays, createdAtStr, updatedAtStr string
	var imageURL sql.NullString

	err := row.Scan(
		&pool.ID,
		&pool.Name,
		&pool.Address,
		&pool.Capacity,
		&pool.PricePerDay,
		&availableDays,
		&pool.Description,
		&imageURL,
		&pool.Status,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Pool{}, persistence.ErrNotFound
		}
		return persistence.Pool{}, r.mapper.MapError(err)
	}

	pool.AvailableDays = decodeWeekdays(availableDays)
	if imageURL.Valid {
		pool.ImageURL = &imageURL.String
	}
	if pool.CreatedAt, err = parseInstant(createdAtStr); err != nil {
		return persistence.Pool{}, err
	}
	if pool.UpdatedAt, err = parseInstant(updatedAtStr); err != nil {
		return persistence.Pool{}, err
	}

	return pool, nil
}

func (r *PoolRepository) replaceEmployees(tx *sql.Tx, poolID string, employeeIDs []string) error {
	seen := make(map[string]struct{}, len(employeeIDs))
	for _, employeeID := range employeeIDs {
		if employeeID == "" {
			continue
		}
		if _, ok := seen[employeeID]; ok {
			continue
		}
		seen[employeeID] = struct{}{}
		if _, err := r.helper.ExecTx(tx,
			"INSERT INTO pool_employees (pool_id, user_id) VALUES (?, ?)",
			poolID, employeeID); err != nil {
			return r.mapper.MapError(err)
		}
	}
	return nil
}

func (r *PoolRepository) loadEmployees(ctx context.Context, poolID string) ([]string, error) {
	rows, err := r.helper.Query(ctx,
		"SELECT user_id FROM pool_employees WHERE pool_id = ? ORDER BY user_id ASC", poolID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var employees []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, r.mapper.MapError(err)
		}
		employees = append(employees, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return employees, nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}
