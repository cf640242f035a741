package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/pool-booking/internal/application"
	"github.com/example/pool-booking/internal/availability"
	"github.com/example/pool-booking/internal/pagination"
)

var (
	errBadRequestBody      = errors.New("invalid request body")
	errInvalidPoolID       = errors.New("invalid pool id")
	errInvalidBookingID    = errors.New("invalid booking id")
	errInvalidUserID       = errors.New("invalid user id")
	errInvalidMonthQuery   = errors.New("the month query parameter must be a number")
	errInvalidYearQuery    = errors.New("the year query parameter must be a number")
	errInvalidDateFormat   = errors.New("dates must use the YYYY-MM-DD format")
	errInvalidTimeFormat   = errors.New("times must use the RFC 3339 format")
	errMissingSessionToken = errors.New("a session token is required")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "you are not allowed to perform this operation",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "the requested resource was not found"})
	case errors.Is(err, application.ErrUsernameTaken):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "username is already taken"})
	case errors.Is(err, application.ErrEmployeeAssigned):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "employee is already assigned to this pool"})
	case errors.Is(err, application.ErrEmployeeNotAssigned):
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Message: "employee is not assigned to this pool"})
	case errors.Is(err, availability.ErrTimeConflict):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "the pool is already booked for this time slot"})
	case errors.Is(err, availability.ErrPoolInactive):
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Message: "the pool is not accepting bookings"})
	case errors.Is(err, availability.ErrDayNotAvailable):
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Message: "the pool is not available on this day of the week"})
	case errors.Is(err, availability.ErrPastDate):
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Message: "bookings cannot be created for past dates"})
	case errors.Is(err, availability.ErrInvalidInterval):
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Message: "start time must be before end time"})
	case errors.Is(err, application.ErrInvalidCredentials),
		errors.Is(err, application.ErrSessionExpired),
		errors.Is(err, application.ErrSessionRevoked):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_INVALID_CREDENTIALS",
			Message:   "invalid credentials",
		})
	case errors.Is(err, application.ErrAccountInactive):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_ACCOUNT_INACTIVE",
			Message:   "this account is inactive",
		})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
				Message: "validation failed",
				Errors:  vErr.FieldErrors,
			})
			return
		}

		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "internal server error"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

type dataResponse struct {
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}

type listResponse struct {
	Message string          `json:"message,omitempty"`
	Meta    pagination.Meta `json:"meta"`
	Items   any             `json:"items"`
}

// monthResponse carries an unpaginated listing together with its size.
type monthResponse struct {
	Count int `json:"count"`
	Items any `json:"items"`
}
