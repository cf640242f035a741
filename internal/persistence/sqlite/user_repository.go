package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/pool-booking/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const userColumns = "id, name, username, phone, password_hash, role, status, created_at, updated_at"

// CreateUser inserts a new user with their operated pool set.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO users (` + userColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`

		_, err := r.helper.ExecTx(tx, query,
			user.ID,
			user.Name,
			user.Username,
			user.Phone,
			user.PasswordHash,
			user.Role,
			user.Status,
			formatInstant(user.CreatedAt),
			formatInstant(user.UpdatedAt),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}

		return r.replacePools(tx, user.ID, user.PoolIDs)
	})
}

// UpdateUser rewrites an existing user and their operated pool set.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE users
			SET name = ?, username = ?, phone = ?, password_hash = ?, role = ?, status = ?, updated_at = ?
			WHERE id = ?
		`

		result, err := r.helper.ExecTx(tx, query,
			user.Name,
			user.Username,
			user.Phone,
			user.PasswordHash,
			user.Role,
			user.Status,
			formatInstant(user.UpdatedAt),
			user.ID,
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

		if _, err := r.helper.ExecTx(tx, "DELETE FROM user_pools WHERE user_id = ?", user.ID); err != nil {
			return r.mapper.MapError(err)
		}

		return r.replacePools(tx, user.ID, user.PoolIDs)
	})
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}

	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	user, err := r.scanUser(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		return persistence.User{}, err
	}

	return r.withPools(ctx, user)
}

// GetUserByUsername retrieves a user by their unique username.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (persistence.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE username = ?"
	user, err := r.scanUser(r.helper.QueryRow(ctx, query, username))
	if err != nil {
		return persistence.User{}, err
	}

	return r.withPools(ctx, user)
}

// ListUsers returns a window of users ordered by creation time.
func (r *UserRepository) ListUsers(ctx context.Context, window persistence.ListWindow) ([]persistence.User, error) {
	query := "SELECT " + userColumns + " FROM users ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?"

	rows, err := r.helper.Query(ctx, query, window.Limit, window.Offset)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	for i := range users {
		users[i], err = r.withPools(ctx, users[i])
		if err != nil {
			return nil, err
		}
	}

	return users, nil
}

// CountUsers returns the total number of users.
func (r *UserRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := r.helper.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, r.mapper.MapError(err)
	}
	return count, nil
}

// DeleteUser removes a user and their pool assignments.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := r.helper.ExecTx(tx, "DELETE FROM user_pools WHERE user_id = ?", id); err != nil {
			return r.mapper.MapError(err)
		}

		result, err := r.helper.ExecTx(tx, "DELETE FROM users WHERE id = ?", id)
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

func (r *UserRepository) scanUser(row rowScanner) (persistence.User, error) {
	var user persistence.User
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Username,
		&user.Phone,
		&user.PasswordHash,
		&user.Role,
		&user.Status,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.User{}, persistence.ErrNotFound
		}
		return persistence.User{}, r.mapper.MapError(err)
	}

	if user.CreatedAt, err = parseInstant(createdAtStr); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseInstant(updatedAtStr); err != nil {
		return persistence.User{}, err
	}

	return user, nil
}

func (r *UserRepository) withPools(ctx context.Context, user persistence.User) (persistence.User, error) {
	rows, err := r.helper.Query(ctx,
		"SELECT pool_id FROM user_pools WHERE user_id = ? ORDER BY pool_id ASC", user.ID)
	if err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var poolID string
		if err := rows.Scan(&poolID); err != nil {
			return persistence.User{}, r.mapper.MapError(err)
		}
		user.PoolIDs = append(user.PoolIDs, poolID)
	}
	if err := rows.Err(); err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}

	return user, nil
}

func (r *UserRepository) replacePools(tx *sql.Tx, userID string, poolIDs []string) error {
	seen := make(map[string]struct{}, len(poolIDs))
	for _, poolID := range poolIDs {
		if poolID == "" {
			continue
		}
		if _, ok := seen[poolID]; ok {
			continue
		}
		seen[poolID] = struct{}{}
		if _, err := r.helper.ExecTx(tx,
			"INSERT INTO user_pools (user_id, pool_id) VALUES (?, ?)",
			userID, poolID); err != nil {
			return r.mapper.MapError(err)
		}
	}
	return nil
}
