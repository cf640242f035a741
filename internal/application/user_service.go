package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/pool-booking/internal/pagination"
	"github.com/example/pool-booking/internal/persistence"
)

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	CreateUser(ctx context.Context, user User, passwordHash string) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (UserCredentials, error)
	UpdateUser(ctx context.Context, user User, passwordHash string) (User, error)
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context, offset, limit int) ([]User, error)
	CountUsers(ctx context.Context) (int, error)
}

// PasswordHasher hashes plaintext credentials before they reach persistence.
type PasswordHasher func(password string) (string, error)

// UserService orchestrates validation and persistence for user accounts.
type UserService struct {
	users       UserRepository
	pools       PoolCatalog
	hash        PasswordHasher
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, pools PoolCatalog, hash PasswordHasher, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, pools, hash, idGenerator, now, nil)
}

// NewUserServiceWithLogger constructs a user service with a specified logger.
func NewUserServiceWithLogger(users UserRepository, pools PoolCatalog, hash PasswordHasher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if hash == nil {
		hash = func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		}
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, pools: pools, hash: hash, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// CreateUser validates input and persists a new user account.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateUser",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user created")
	}()

	normalized := normalizeUserInput(params.Input)
	if normalized.Status == "" {
		normalized.Status = UserStatusInactive
	}

	vErr := validateUserInput(normalized, true)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if err = s.ensureUsernameFree(ctx, normalized.Username, ""); err != nil {
		return
	}
	if err = s.ensurePoolsExist(ctx, normalized.PoolIDs); err != nil {
		return
	}

	var hashed string
	hashed, err = s.hash(normalized.Password)
	if err != nil {
		return
	}

	createdAt := s.now()
	user = User{
		ID:        s.idGenerator(),
		Name:      normalized.Name,
		Username:  normalized.Username,
		Phone:     normalized.Phone,
		Role:      normalized.Role,
		PoolIDs:   sortStrings(uniqueStrings(normalized.PoolIDs)),
		Status:    normalized.Status,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}

	var persisted User
	persisted, err = s.users.CreateUser(ctx, user, hashed)
	if err != nil {
		err = mapUserRepoError(err)
		return
	}

	user = persisted
	return
}

// GetUser returns a single user account by identifier.
func (s *UserService) GetUser(ctx context.Context, principal Principal, userID string) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return User{}, mapUserRepoError(err)
	}
	return user, nil
}

// ListUsers returns one page of user accounts together with collection totals.
func (s *UserService) ListUsers(ctx context.Context, principal Principal, page pagination.Page) (result pagination.Paginated[User], err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ListUsers",
		"principal_id", principal.UserID,
		"page", page.Number,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list users", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(result.Items)).InfoContext(ctx, "users listed")
	}()

	var count int
	count, err = s.users.CountUsers(ctx)
	if err != nil {
		return
	}

	var users []User
	users, err = s.users.ListUsers(ctx, page.Offset(), page.Limit)
	if err != nil {
		return
	}

	result = pagination.NewPaginated(users, count, page)
	return
}

// UpdateUser validates input and updates an existing user account. An empty
// password keeps the stored credential.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateUser",
		"principal_id", params.Principal.UserID,
		"user_id", params.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user updated")
	}()

	var existing User
	existing, err = s.users.GetUser(ctx, params.UserID)
	if err != nil {
		err = mapUserRepoError(err)
		return
	}

	normalized := normalizeUserInput(params.Input)
	if normalized.Status == "" {
		normalized.Status = existing.Status
	}

	vErr := validateUserInput(normalized, false)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if normalized.Username != existing.Username {
		if err = s.ensureUsernameFree(ctx, normalized.Username, existing.ID); err != nil {
			return
		}
	}
	if err = s.ensurePoolsExist(ctx, normalized.PoolIDs); err != nil {
		return
	}

	hashed := ""
	if normalized.Password != "" {
		hashed, err = s.hash(normalized.Password)
		if err != nil {
			return
		}
	}

	updated := existing
	updated.Name = normalized.Name
	updated.Username = normalized.Username
	updated.Phone = normalized.Phone
	updated.Role = normalized.Role
	updated.PoolIDs = sortStrings(uniqueStrings(normalized.PoolIDs))
	updated.Status = normalized.Status
	updated.UpdatedAt = s.now()

	user, err = s.users.UpdateUser(ctx, updated, hashed)
	if err != nil {
		err = mapUserRepoError(err)
		return
	}

	return
}

// DeleteUser removes an existing user account.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID string) error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return fmt.Errorf("user repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteUser",
		"principal_id", principal.UserID,
		"user_id", userID,
	)

	if err := s.users.DeleteUser(ctx, userID); err != nil {
		err = mapUserRepoError(err)
		logger.ErrorContext(ctx, "failed to delete user", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "user deleted")
	return nil
}

// MissingUserIDs reports which of the given user ids are not registered. It
// satisfies the UserDirectory contract consumed by the pool service.
func (s *UserService) MissingUserIDs(ctx context.Context, ids []string) ([]string, error) {
	if s == nil || s.users == nil {
		return nil, nil
	}

	missing := make([]string, 0)
	for _, id := range uniqueStrings(ids) {
		_, err := s.users.GetUser(ctx, id)
		if err == nil {
			continue
		}
		if isNotFoundError(err) {
			missing = append(missing, id)
			continue
		}
		return nil, err
	}
	if len(missing) == 0 {
		return nil, nil
	}
	return missing, nil
}

func (s *UserService) ensureUsernameFree(ctx context.Context, username, selfID string) error {
	creds, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if isNotFoundError(err) {
			return nil
		}
		return err
	}
	if selfID != "" && creds.User.ID == selfID {
		return nil
	}
	return ErrUsernameTaken
}

func (s *UserService) ensurePoolsExist(ctx context.Context, ids []string) error {
	if s.pools == nil {
		return nil
	}
	unknown := make([]string, 0)
	for _, id := range uniqueStrings(ids) {
		_, err := s.pools.GetPool(ctx, id)
		if err == nil {
			continue
		}
		if isNotFoundError(err) {
			unknown = append(unknown, id)
			continue
		}
		return err
	}
	if len(unknown) == 0 {
		return nil
	}
	vErr := &ValidationError{}
	vErr.add("pools", fmt.Sprintf("unknown pool ids: %s", strings.Join(unknown, ", ")))
	return vErr
}

func normalizeUserInput(input UserInput) UserInput {
	return UserInput{
		Name:     strings.TrimSpace(input.Name),
		Username: strings.ToLower(strings.TrimSpace(input.Username)),
		Phone:    strings.TrimSpace(input.Phone),
		Password: input.Password,
		Role:     input.Role,
		PoolIDs:  input.PoolIDs,
		Status:   input.Status,
	}
}

func validateUserInput(input UserInput, passwordRequired bool) *ValidationError {
	vErr := &ValidationError{}

	if input.Name == "" {
		vErr.add("name", "name is required")
	}
	if input.Username == "" {
		vErr.add("username", "username is required")
	}
	if input.Phone == "" {
		vErr.add("phone", "phone is required")
	}
	if input.Password == "" {
		if passwordRequired {
			vErr.add("password", "password is required")
		}
	} else if len(input.Password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}
	if !ValidRole(input.Role) {
		vErr.add("role", "role must be ADMIN, MAINTAINER or USER")
	}
	if !ValidUserStatus(input.Status) {
		vErr.add("status", "status must be ACTIVE or INACTIVE")
	}

	return vErr
}

func mapUserRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrUsernameTaken
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("pools", "related records are missing")
		return vErr
	}
	return err
}
