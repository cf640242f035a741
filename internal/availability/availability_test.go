package availability

import (
	"errors"
	"testing"
	"time"
)

var (
	monday = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	sunday = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	today  = time.Date(2026, time.February, 20, 15, 30, 0, 0, time.UTC)

	weekdaysOnly = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
)

func activePool() Pool {
	return Pool{ID: "pool-1", Status: StatusActive, AvailableDays: weekdaysOnly}
}

func at(date time.Time, hour, minute int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, time.UTC)
}

func TestCheck(t *testing.T) {
	t.Run("accepts a valid proposal", func(t *testing.T) {
		proposal := Proposal{PoolID: "pool-1", Date: monday, Start: at(monday, 10, 0), End: at(monday, 12, 0)}

		if err := Check(proposal, activePool(), nil, today); err != nil {
			t.Fatalf("expected proposal to be accepted, got %v", err)
		}
	})

	t.Run("rejects every proposal for a non-active pool", func(t *testing.T) {
		for _, status := range []PoolStatus{StatusInactive, StatusMaintenance} {
			pool := activePool()
			pool.Status = status
			proposal := Proposal{PoolID: pool.ID, Date: monday, Start: at(monday, 10, 0), End: at(monday, 12, 0)}

			if err := Check(proposal, pool, nil, today); !errors.Is(err, ErrPoolInactive) {
				t.Fatalf("status %s: expected ErrPoolInactive, got %v", status, err)
			}
		}
	})

	t.Run("rejects a date outside the availability calendar", func(t *testing.T) {
		proposal := Proposal{PoolID: "pool-1", Date: sunday, Start: at(sunday, 10, 0), End: at(sunday, 12, 0)}

		if err := Check(proposal, activePool(), nil, today); !errors.Is(err, ErrDayNotAvailable) {
			t.Fatalf("expected ErrDayNotAvailable, got %v", err)
		}
	})

	t.Run("rejects past dates at day granularity", func(t *testing.T) {
		yesterday := today.AddDate(0, 0, -1) // Thursday
		proposal := Proposal{PoolID: "pool-1", Date: yesterday, Start: at(yesterday, 10, 0), End: at(yesterday, 12, 0)}

		if err := Check(proposal, activePool(), nil, today); !errors.Is(err, ErrPastDate) {
			t.Fatalf("expected ErrPastDate, got %v", err)
		}
	})

	t.Run("accepts the current day regardless of time of day", func(t *testing.T) {
		// today is a Friday afternoon; a morning slot on the same day is
		// still acceptable because the check is day-granular.
		proposal := Proposal{PoolID: "pool-1", Date: today, Start: at(today, 8, 0), End: at(today, 9, 0)}

		if err := Check(proposal, activePool(), nil, today); err != nil {
			t.Fatalf("expected same-day proposal to be accepted, got %v", err)
		}
	})

	t.Run("rejects empty and inverted intervals", func(t *testing.T) {
		cases := map[string]Proposal{
			"equal bounds":    {PoolID: "pool-1", Date: monday, Start: at(monday, 10, 0), End: at(monday, 10, 0)},
			"inverted bounds": {PoolID: "pool-1", Date: monday, Start: at(monday, 12, 0), End: at(monday, 10, 0)},
		}

		for name, proposal := range cases {
			if err := Check(proposal, activePool(), nil, today); !errors.Is(err, ErrInvalidInterval) {
				t.Fatalf("%s: expected ErrInvalidInterval, got %v", name, err)
			}
		}
	})

	t.Run("rejects overlapping bookings on the same pool and date", func(t *testing.T) {
		existing := []Booking{{
			ID:     "booking-1",
			PoolID: "pool-1",
			Date:   monday,
			Start:  at(monday, 10, 0),
			End:    at(monday, 12, 0),
		}}
		proposal := Proposal{PoolID: "pool-1", Date: monday, Start: at(monday, 11, 0), End: at(monday, 13, 0)}

		if err := Check(proposal, activePool(), existing, today); !errors.Is(err, ErrTimeConflict) {
			t.Fatalf("expected ErrTimeConflict, got %v", err)
		}
	})

	t.Run("accepts a booking exactly adjacent to an existing one", func(t *testing.T) {
		existing := []Booking{{
			ID:     "booking-1",
			PoolID: "pool-1",
			Date:   monday,
			Start:  at(monday, 10, 0),
			End:    at(monday, 12, 0),
		}}
		proposal := Proposal{PoolID: "pool-1", Date: monday, Start: at(monday, 12, 0), End: at(monday, 13, 0)}

		if err := Check(proposal, activePool(), existing, today); err != nil {
			t.Fatalf("expected adjacent booking to be accepted, got %v", err)
		}
	})

	t.Run("ignores bookings on other pools or other dates", func(t *testing.T) {
		tuesday := monday.AddDate(0, 0, 1)
		existing := []Booking{
			{ID: "b1", PoolID: "pool-2", Date: monday, Start: at(monday, 10, 0), End: at(monday, 12, 0)},
			{ID: "b2", PoolID: "pool-1", Date: tuesday, Start: at(tuesday, 10, 0), End: at(tuesday, 12, 0)},
		}
		proposal := Proposal{PoolID: "pool-1", Date: monday, Start: at(monday, 10, 0), End: at(monday, 12, 0)}

		if err := Check(proposal, activePool(), existing, today); err != nil {
			t.Fatalf("expected proposal to be accepted, got %v", err)
		}
	})

	t.Run("excludes the edited booking from the overlap scan", func(t *testing.T) {
		existing := []Booking{{
			ID:     "booking-1",
			PoolID: "pool-1",
			Date:   monday,
			Start:  at(monday, 10, 0),
			End:    at(monday, 12, 0),
		}}
		proposal := Proposal{
			BookingID: "booking-1",
			PoolID:    "pool-1",
			Date:      monday,
			Start:     at(monday, 10, 30),
			End:       at(monday, 12, 30),
		}

		if err := Check(proposal, activePool(), existing, today); err != nil {
			t.Fatalf("expected edited booking to be accepted against itself, got %v", err)
		}
	})

	t.Run("accepted bookings remain pairwise disjoint", func(t *testing.T) {
		pool := activePool()
		existing := []Booking{}
		slots := []struct{ startHour, endHour int }{
			{10, 12},
			{12, 13},
		}

		for i, slot := range slots {
			proposal := Proposal{PoolID: pool.ID, Date: monday, Start: at(monday, slot.startHour, 0), End: at(monday, slot.endHour, 0)}
			if err := Check(proposal, pool, existing, today); err != nil {
				t.Fatalf("slot %d: expected acceptance, got %v", i, err)
			}
			existing = append(existing, Booking{
				ID:     "accepted",
				PoolID: pool.ID,
				Date:   monday,
				Start:  proposal.Start,
				End:    proposal.End,
			})
		}

		// Any proposal overlapping one of the accepted slots must now fail.
		overlapping := Proposal{PoolID: pool.ID, Date: monday, Start: at(monday, 11, 30), End: at(monday, 12, 30)}
		if err := Check(overlapping, pool, existing, today); !errors.Is(err, ErrTimeConflict) {
			t.Fatalf("expected ErrTimeConflict for overlapping proposal, got %v", err)
		}
	})
}

func TestOverlaps(t *testing.T) {
	base := at(monday, 10, 0)
	h := func(hours int) time.Time { return base.Add(time.Duration(hours) * time.Hour) }

	cases := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{"identical intervals", h(0), h(2), h(0), h(2), true},
		{"b starts inside a", h(0), h(2), h(1), h(3), true},
		{"b ends inside a", h(1), h(3), h(0), h(2), true},
		{"b encompasses a", h(1), h(2), h(0), h(3), true},
		{"a encompasses b", h(0), h(3), h(1), h(2), true},
		{"adjacent, a before b", h(0), h(2), h(2), h(4), false},
		{"adjacent, b before a", h(2), h(4), h(0), h(2), false},
		{"disjoint", h(0), h(1), h(3), h(4), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.want {
				t.Fatalf("Overlaps = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCivilDate(t *testing.T) {
	instant := time.Date(2026, time.March, 2, 23, 59, 59, 999, time.FixedZone("X", 3*60*60))
	got := CivilDate(instant)
	want := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	if !got.Equal(want) {
		t.Fatalf("CivilDate = %v, want %v", got, want)
	}
}
