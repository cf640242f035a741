package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/pool-booking/internal/availability"
	"github.com/example/pool-booking/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUsernameTaken):
		return "username_taken"
	case errors.Is(err, ErrEmployeeAssigned):
		return "employee_assigned"
	case errors.Is(err, ErrEmployeeNotAssigned):
		return "employee_not_assigned"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrAccountInactive):
		return "account_inactive"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, ErrSessionRevoked):
		return "session_revoked"
	case errors.Is(err, availability.ErrTimeConflict):
		return "time_conflict"
	case errors.Is(err, availability.ErrPoolInactive):
		return "pool_inactive"
	case errors.Is(err, availability.ErrDayNotAvailable):
		return "day_not_available"
	case errors.Is(err, availability.ErrPastDate):
		return "past_date"
	case errors.Is(err, availability.ErrInvalidInterval):
		return "invalid_interval"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}
