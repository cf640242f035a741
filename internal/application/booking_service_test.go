package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/pool-booking/internal/availability"
	"github.com/example/pool-booking/internal/pagination"
	"github.com/example/pool-booking/internal/persistence"
)

type bookingRepoStub struct {
	mu       sync.Mutex
	store    []Booking
	getErr   error
	saveErr  error
	listErr  error
	countErr error

	deletedID string
	deleteErr error
}

func (r *bookingRepoStub) CreateBooking(ctx context.Context, booking Booking) (Booking, error) {
	if r.saveErr != nil {
		return Booking{}, r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store = append(r.store, booking)
	return booking, nil
}

func (r *bookingRepoStub) GetBooking(ctx context.Context, id string) (Booking, error) {
	if r.getErr != nil {
		return Booking{}, r.getErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, booking := range r.store {
		if booking.ID == id {
			return booking, nil
		}
	}
	return Booking{}, persistence.ErrNotFound
}

func (r *bookingRepoStub) UpdateBooking(ctx context.Context, booking Booking) (Booking, error) {
	if r.saveErr != nil {
		return Booking{}, r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.store {
		if existing.ID == booking.ID {
			r.store[i] = booking
			return booking, nil
		}
	}
	return Booking{}, persistence.ErrNotFound
}

func (r *bookingRepoStub) DeleteBooking(ctx context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deletedID = id
	return nil
}

func (r *bookingRepoStub) ListBookings(ctx context.Context, filter BookingRepositoryFilter, offset, limit int) ([]Booking, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Booking, 0, len(r.store))
	for _, booking := range r.store {
		if filter.PoolID != "" && booking.PoolID != filter.PoolID {
			continue
		}
		if filter.Date != nil && !booking.Date.Equal(*filter.Date) {
			continue
		}
		if filter.From != nil && booking.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && booking.Date.After(*filter.To) {
			continue
		}
		if filter.ExcludeID != "" && booking.ID == filter.ExcludeID {
			continue
		}
		out = append(out, booking)
	}
	return out, nil
}

func (r *bookingRepoStub) CountBookings(ctx context.Context, filter BookingRepositoryFilter) (int, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	list, err := r.ListBookings(ctx, filter, 0, 0)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

type poolCatalogStub struct {
	pool Pool
	err  error
}

func (c *poolCatalogStub) GetPool(ctx context.Context, id string) (Pool, error) {
	if c.err != nil {
		return Pool{}, c.err
	}
	if c.pool.ID == "" || c.pool.ID != id {
		return Pool{}, persistence.ErrNotFound
	}
	return c.pool, nil
}

type employeeDirectoryStub struct {
	user User
	err  error
}

func (d *employeeDirectoryStub) GetUser(ctx context.Context, id string) (User, error) {
	if d.err != nil {
		return User{}, d.err
	}
	if d.user.ID == "" || d.user.ID != id {
		return User{}, persistence.ErrNotFound
	}
	return d.user, nil
}

var (
	testDay   = time.Date(2025, time.June, 7, 0, 0, 0, 0, time.UTC) // Saturday
	testClock = time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC)
)

func activePool() Pool {
	return Pool{
		ID:            "pool-1",
		Name:          "Lagoa Azul",
		Address:       "Rua das Flores 10",
		Capacity:      20,
		AvailableDays: []time.Weekday{time.Saturday, time.Sunday},
		Status:        PoolStatusActive,
	}
}

func maintainer() User {
	return User{ID: "user-1", Name: "Ana", Phone: "+55 11 99999-0000", Role: RoleMaintainer, Status: UserStatusActive}
}

func bookingInput() BookingInput {
	return BookingInput{
		PoolID:      "pool-1",
		EmployeeID:  "user-1",
		ClientName:  "Carlos Silva",
		ClientPhone: "+55 11 98888-0000",
		Date:        testDay,
		StartTime:   testDay.Add(10 * time.Hour),
		EndTime:     testDay.Add(12 * time.Hour),
		TotalValue:  350,
		PaidValue:   100,
	}
}

func newBookingServiceForTest(repo *bookingRepoStub) *BookingService {
	seq := 0
	var mu sync.Mutex
	idGen := func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return string(rune('a'+seq-1)) + "-booking"
	}
	return NewBookingService(repo, &poolCatalogStub{pool: activePool()}, &employeeDirectoryStub{user: maintainer()}, idGen, func() time.Time { return testClock })
}

func TestBookingService_CreateBooking(t *testing.T) {
	t.Run("validates required attributes", func(t *testing.T) {
		svc := newBookingServiceForTest(&bookingRepoStub{})

		_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
			Principal: Principal{UserID: "admin-1", Role: RoleAdmin},
			Input:     BookingInput{},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"pool_id", "employee_id", "client_name", "client_phone", "date"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s validation error, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("rejects malformed client emails", func(t *testing.T) {
		svc := newBookingServiceForTest(&bookingRepoStub{})

		input := bookingInput()
		email := "not-an-email"
		input.ClientEmail = &email

		_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
			Principal: Principal{UserID: "admin-1", Role: RoleAdmin},
			Input:     input,
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["client_email"]; !ok {
			t.Fatalf("expected client_email validation error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("returns ErrNotFound for an unknown pool", func(t *testing.T) {
		svc := NewBookingService(&bookingRepoStub{}, &poolCatalogStub{}, &employeeDirectoryStub{user: maintainer()}, nil, func() time.Time { return testClock })

		_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
			Principal: Principal{UserID: "admin-1", Role: RoleAdmin},
			Input:     bookingInput(),
		})

		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("returns ErrNotFound for an unknown employee", func(t *testing.T) {
		svc := NewBookingService(&bookingRepoStub{}, &poolCatalogStub{pool: activePool()}, &employeeDirectoryStub{}, nil, func() time.Time { return testClock })

		_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
			Principal: Principal{UserID: "admin-1", Role: RoleAdmin},
			Input:     bookingInput(),
		})

		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("rejects inactive pools", func(t *testing.T) {
		pool := activePool()
		pool.Status = PoolStatusInactive
		svc := NewBookingService(&bookingRepoStub{}, &poolCatalogStub{pool: pool}, &employeeDirectoryStub{user: maintainer()}, nil, func() time.Time { return testClock })

		_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
			Principal: Principal{UserID: "admin-1", Role: RoleAdmin},
			Input:     bookingInput(),
		})

		if !errors.Is(err, availability.ErrPoolInactive) {
			t.Fatalf("expected ErrPoolInactive, got %v", err)
		}
	})

	t.Run("rejects days outside the weekly calendar", func(t *testing.T) {
		svc := newBookingServiceForTest(&bookingRepoStub{})

		input := bookingInput()
		monday := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
		input.Date = monday
		input.StartTime = monday.Add(10 * time.Hour)
		input.EndTime = monday.Add(12 * time.Hour)

		_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
			Principal: Principal{UserID: "admin-1", Role: RoleAdmin},
			Input:     input,
		})

		if !errors.Is(err, availability.ErrDayNotAvailable) {
			t.Fatalf("expected ErrDayNotAvailable, got %v", err)
		}
	})

	t.Run("rejects overlapping intervals on the same pool and date", func(t *testing.T) {
		repo := &bookingRepoStub{store: []Booking{{
			ID:        "booking-1",
			PoolID:    "pool-1",
			Date:      testDay,
			StartTime: testDay.Add(9 * time.Hour),
			EndTime:   testDay.Add(11 * time.Hour),
		}}}
		svc := newBookingServiceForTest(repo)

		_, err := svc.CreateBooking(context.Background(), CreateBookingParams{
			Principal: Principal{UserID: "admin-1", Role: RoleAdmin},
			Input:     bookingInput(),
		})

		if !errors.Is(err, availability.ErrTimeConflict) {
			t.Fatalf("expected ErrTimeConflict, got %v", err)
		}
	})

	t.Run("accepts back-to-back intervals", func(t *testing.T) {
		repo := &bookingRepoStub{store: []Booking{{
			ID:        "booking-1",
			PoolID:    "pool-1",
			Date:      testDay,
			StartTime: testDay.Add(8 * time.Hour),
			EndTime:   testDay.Add(10 * time.Hour),
		}}}
		svc := newBookingServiceForTest(repo)

		created, err := svc.CreateBooking(context.Background(), CreateBookingParams{
			Principal: Principal{UserID: "admin-1", Role: RoleAdmin},
			Input:     bookingInput(),
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if created.PaymentStatus != PaymentStatusPending {
			t.Fatalf("expected default PENDING payment status, got %q", created.PaymentStatus)
		}
	})

	t.Run("serializes concurrent overlapping requests per pool", func(t *testing.T) {
		repo := &bookingRepoStub{}
		svc := newBookingServiceForTest(repo)

		const attempts = 8
		var wg sync.WaitGroup
		errs := make([]error, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = svc.CreateBooking(context.Background(), CreateBookingParams{
					Principal: Principal{UserID: "admin-1", Role: RoleAdmin},
					Input:     bookingInput(),
				})
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			if !errors.Is(err, availability.ErrTimeConflict) {
				t.Fatalf("expected ErrTimeConflict for losers, got %v", err)
			}
		}
		if succeeded != 1 {
			t.Fatalf("expected exactly one booking to commit, got %d", succeeded)
		}
		if len(repo.store) != 1 {
			t.Fatalf("expected a single persisted booking, got %d", len(repo.store))
		}

		svc.mu.Lock()
		remaining := len(svc.poolLocks)
		svc.mu.Unlock()
		if remaining != 0 {
			t.Fatalf("expected pool locks to be released and evicted, %d remain", remaining)
		}
	})

	t.Run("releases pool locks once requests finish", func(t *testing.T) {
		repo := &bookingRepoStub{}
		svc := newBookingServiceForTest(repo)

		for i := 0; i < 3; i++ {
			input := bookingInput()
			input.StartTime = testDay.Add(time.Duration(13+2*i) * time.Hour)
			input.EndTime = input.StartTime.Add(time.Hour)
			if _, err := svc.CreateBooking(context.Background(), CreateBookingParams{
				Principal: Principal{UserID: "admin-1", Role: RoleAdmin},
				Input:     input,
			}); err != nil {
				t.Fatalf("expected success, got %v", err)
			}
		}

		svc.mu.Lock()
		remaining := len(svc.poolLocks)
		svc.mu.Unlock()
		if remaining != 0 {
			t.Fatalf("expected no retained pool locks, got %d", remaining)
		}
	})
}

func TestBookingService_UpdateBooking(t *testing.T) {
	stored := Booking{
		ID:            "booking-1",
		PoolID:        "pool-1",
		EmployeeID:    "user-1",
		ClientName:    "Carlos Silva",
		ClientPhone:   "+55 11 98888-0000",
		Date:          testDay,
		StartTime:     testDay.Add(10 * time.Hour),
		EndTime:       testDay.Add(12 * time.Hour),
		TotalValue:    350,
		PaymentStatus: PaymentStatusPending,
	}

	t.Run("propagates ErrNotFound when the booking is missing", func(t *testing.T) {
		svc := newBookingServiceForTest(&bookingRepoStub{})

		_, err := svc.UpdateBooking(context.Background(), UpdateBookingParams{
			Principal: Principal{UserID: "admin-1", Role: RoleAdmin},
			BookingID: "missing",
		})

		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("applies partial patches without re-checking availability", func(t *testing.T) {
		repo := &bookingRepoStub{store: []Booking{stored}}
		// No pool catalog: an availability re-check would fail loudly.
		svc := NewBookingService(repo, nil, nil, nil, func() time.Time { return testClock })

		name := "  Maria Souza  "
		paid := 350.0
		status := PaymentStatusPaid
		updated, err := svc.UpdateBooking(context.Background(), UpdateBookingParams{
			Principal: Principal{UserID: "admin-1", Role: RoleAdmin},
			BookingID: "booking-1",
			Patch: BookingPatch{
				ClientName:    &name,
				PaidValue:     &paid,
				PaymentStatus: &status,
			},
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		if updated.ClientName != "Maria Souza" {
			t.Fatalf("expected trimmed client name, got %q", updated.ClientName)
		}
		if updated.PaidValue != 350 || updated.PaymentStatus != PaymentStatusPaid {
			t.Fatalf("expected payment fields to change, got %+v", updated)
		}
		if !updated.StartTime.Equal(stored.StartTime) {
			t.Fatalf("expected untouched fields to keep stored values")
		}
	})

	t.Run("re-checks availability when times change", func(t *testing.T) {
		other := stored
		other.ID = "booking-2"
		other.StartTime = testDay.Add(14 * time.Hour)
		other.EndTime = testDay.Add(16 * time.Hour)

		repo := &bookingRepoStub{store: []Booking{stored, other}}
		svc := newBookingServiceForTest(repo)

		start := testDay.Add(15 * time.Hour)
		end := testDay.Add(17 * time.Hour)
		_, err := svc.UpdateBooking(context.Background(), UpdateBookingParams{
			Principal: Principal{UserID: "admin-1", Role: RoleAdmin},
			BookingID: "booking-1",
			Patch:     BookingPatch{StartTime: &start, EndTime: &end},
		})

		if !errors.Is(err, availability.ErrTimeConflict) {
			t.Fatalf("expected ErrTimeConflict, got %v", err)
		}
	})

	t.Run("excludes the booking itself from the conflict scan", func(t *testing.T) {
		repo := &bookingRepoStub{store: []Booking{stored}}
		svc := newBookingServiceForTest(repo)

		start := testDay.Add(11 * time.Hour)
		_, err := svc.UpdateBooking(context.Background(), UpdateBookingParams{
			Principal: Principal{UserID: "admin-1", Role: RoleAdmin},
			BookingID: "booking-1",
			Patch:     BookingPatch{StartTime: &start},
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
	})
}

func TestBookingService_FindByMonth(t *testing.T) {
	juneBooking := Booking{
		ID:         "booking-1",
		PoolID:     "pool-1",
		EmployeeID: "user-1",
		Date:       testDay,
		StartTime:  testDay.Add(10 * time.Hour),
		EndTime:    testDay.Add(12 * time.Hour),
	}
	julyBooking := juneBooking
	julyBooking.ID = "booking-2"
	julyBooking.Date = time.Date(2025, time.July, 5, 0, 0, 0, 0, time.UTC)

	t.Run("rejects out-of-range months", func(t *testing.T) {
		svc := newBookingServiceForTest(&bookingRepoStub{})

		_, err := svc.FindByMonth(context.Background(), Principal{UserID: "user-1"}, time.Month(13), 2025)

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("returns only bookings inside the month with projections", func(t *testing.T) {
		repo := &bookingRepoStub{store: []Booking{juneBooking, julyBooking}}
		svc := newBookingServiceForTest(repo)

		result, err := svc.FindByMonth(context.Background(), Principal{UserID: "user-1"}, time.June, 2025)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		if len(result) != 1 || result[0].Booking.ID != "booking-1" {
			t.Fatalf("expected only the June booking, got %+v", result)
		}
		if result[0].Pool == nil || result[0].Pool.Name != "Lagoa Azul" {
			t.Fatalf("expected pool projection, got %+v", result[0].Pool)
		}
		if result[0].Employee == nil || result[0].Employee.Name != "Ana" {
			t.Fatalf("expected employee projection, got %+v", result[0].Employee)
		}
	})

	t.Run("tolerates bookings whose pool was deleted", func(t *testing.T) {
		repo := &bookingRepoStub{store: []Booking{juneBooking}}
		svc := NewBookingService(repo, &poolCatalogStub{}, &employeeDirectoryStub{}, nil, func() time.Time { return testClock })

		result, err := svc.FindByMonth(context.Background(), Principal{UserID: "user-1"}, time.June, 2025)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(result) != 1 || result[0].Pool != nil || result[0].Employee != nil {
			t.Fatalf("expected nil projections for orphaned booking, got %+v", result)
		}
	})
}

func TestBookingService_ListBookings(t *testing.T) {
	repo := &bookingRepoStub{store: []Booking{{ID: "booking-1"}, {ID: "booking-2"}, {ID: "booking-3"}}}
	svc := newBookingServiceForTest(repo)

	result, err := svc.ListBookings(context.Background(), Principal{UserID: "user-1"}, pagination.NewPage(1, 2))
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if result.Meta.Count != 3 {
		t.Fatalf("expected count 3, got %d", result.Meta.Count)
	}
	if result.Meta.TotalPages != 2 {
		t.Fatalf("expected 2 total pages, got %d", result.Meta.TotalPages)
	}
}

func TestBookingService_DeleteBooking(t *testing.T) {
	t.Run("propagates ErrNotFound when the booking is missing", func(t *testing.T) {
		repo := &bookingRepoStub{deleteErr: persistence.ErrNotFound}
		svc := newBookingServiceForTest(repo)

		err := svc.DeleteBooking(context.Background(), Principal{UserID: "admin-1", Role: RoleAdmin}, "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("deletes existing bookings", func(t *testing.T) {
		repo := &bookingRepoStub{}
		svc := newBookingServiceForTest(repo)

		if err := svc.DeleteBooking(context.Background(), Principal{UserID: "admin-1", Role: RoleAdmin}, "booking-1"); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if repo.deletedID != "booking-1" {
			t.Fatalf("expected repository to receive booking ID, got %q", repo.deletedID)
		}
	})
}
