package availability

import (
	"errors"
	"time"
)

// PoolStatus mirrors the lifecycle state of a pool as far as booking
// eligibility is concerned.
type PoolStatus string

const (
	// StatusActive marks a pool that accepts new bookings.
	StatusActive PoolStatus = "ACTIVE"
	// StatusInactive marks a pool that is temporarily closed.
	StatusInactive PoolStatus = "INACTIVE"
	// StatusMaintenance marks a pool undergoing maintenance work.
	StatusMaintenance PoolStatus = "MAINTENANCE"
)

var (
	// ErrPoolInactive is returned when the pool is not in the ACTIVE state.
	ErrPoolInactive = errors.New("availability: pool is not available for booking")
	// ErrDayNotAvailable is returned when the proposal date falls on a
	// weekday outside the pool's calendar.
	ErrDayNotAvailable = errors.New("availability: pool is not available on the selected day")
	// ErrPastDate is returned when the proposal date is before the current day.
	ErrPastDate = errors.New("availability: cannot create bookings for past dates")
	// ErrInvalidInterval is returned when the proposed interval is empty or inverted.
	ErrInvalidInterval = errors.New("availability: end time must be after start time")
	// ErrTimeConflict is returned when an existing booking overlaps the proposal.
	ErrTimeConflict = errors.New("availability: pool is already booked at the selected time")
)

// Pool is the projection of a pool record needed to judge a proposal.
type Pool struct {
	ID            string
	Status        PoolStatus
	AvailableDays []time.Weekday
}

// Booking is the projection of a persisted booking used by the overlap scan.
type Booking struct {
	ID     string
	PoolID string
	Date   time.Time
	Start  time.Time
	End    time.Time
}

// Proposal describes a booking that a caller wants to commit. BookingID is
// non-empty when an existing booking is being edited, in which case its prior
// record is excluded from the overlap scan.
type Proposal struct {
	BookingID string
	PoolID    string
	Date      time.Time
	Start     time.Time
	End       time.Time
}

// Check decides whether the proposal may be committed against the pool and
// the already-confirmed bookings. The first failing predicate is reported;
// the evaluation order is fixed: pool status, calendar fit, past date,
// interval validity, overlap scan.
//
// The caller resolves the pool record itself: a missing pool is a not-found
// condition at the service layer, not an availability verdict.
func Check(proposal Proposal, pool Pool, existing []Booking, today time.Time) error {
	if pool.Status != StatusActive {
		return ErrPoolInactive
	}

	if !dayAvailable(pool.AvailableDays, proposal.Date.Weekday()) {
		return ErrDayNotAvailable
	}

	if CivilDate(proposal.Date).Before(CivilDate(today)) {
		return ErrPastDate
	}

	if !proposal.Start.Before(proposal.End) {
		return ErrInvalidInterval
	}

	date := CivilDate(proposal.Date)
	for _, booking := range existing {
		if booking.ID != "" && booking.ID == proposal.BookingID {
			continue
		}
		if booking.PoolID != proposal.PoolID {
			continue
		}
		if !CivilDate(booking.Date).Equal(date) {
			continue
		}
		if Overlaps(proposal.Start, proposal.End, booking.Start, booking.End) {
			return ErrTimeConflict
		}
	}

	return nil
}

// Overlaps reports whether two half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Back-to-back intervals do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// CivilDate truncates an instant to its calendar day, discarding both the
// time of day and any sub-day offset information.
func CivilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dayAvailable(days []time.Weekday, day time.Weekday) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
