package application

import (
	"errors"
	"testing"

	"github.com/example/pool-booking/internal/availability"
)

func TestErrorKind(t *testing.T) {
	tests := map[string]struct {
		err      error
		expected string
	}{
		"nil":                 {err: nil, expected: ""},
		"unauthorized":        {err: ErrUnauthorized, expected: "unauthorized"},
		"not found":           {err: ErrNotFound, expected: "not_found"},
		"username taken":      {err: ErrUsernameTaken, expected: "username_taken"},
		"invalid credentials": {err: ErrInvalidCredentials, expected: "invalid_credentials"},
		"account inactive":    {err: ErrAccountInactive, expected: "account_inactive"},
		"session expired":     {err: ErrSessionExpired, expected: "session_expired"},
		"time conflict":       {err: availability.ErrTimeConflict, expected: "time_conflict"},
		"pool inactive":       {err: availability.ErrPoolInactive, expected: "pool_inactive"},
		"past date":           {err: availability.ErrPastDate, expected: "past_date"},
		"validation":          {err: &ValidationError{FieldErrors: map[string]string{"name": "required"}}, expected: "validation"},
		"wrapped sentinel":    {err: errors.Join(errors.New("context"), ErrNotFound), expected: "not_found"},
		"unexpected":          {err: errors.New("boom"), expected: "unexpected"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := ErrorKind(tc.err); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}
