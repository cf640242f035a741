package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/pool-booking/internal/application"
	"github.com/example/pool-booking/internal/persistence"
	"github.com/example/pool-booking/internal/testfixtures"
)

func TestUserRepository(t *testing.T) {
	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	t.Run("round trips a user with pool assignments", func(t *testing.T) {
		fixture := testfixtures.NewUserFixture(
			testfixtures.WithUserRole(application.RoleMaintainer),
			testfixtures.WithUserPools("pool-a", "pool-b"),
		)

		if err := harness.Users.CreateUser(ctx, fixture.Persistence()); err != nil {
			t.Fatalf("CreateUser returned error: %v", err)
		}

		stored, err := harness.Users.GetUser(ctx, fixture.ID)
		if err != nil {
			t.Fatalf("GetUser returned error: %v", err)
		}
		if stored.Username != fixture.Username {
			t.Fatalf("username = %q, want %q", stored.Username, fixture.Username)
		}
		if stored.Role != string(application.RoleMaintainer) {
			t.Fatalf("role = %q, want MAINTAINER", stored.Role)
		}
		if len(stored.PoolIDs) != 2 || stored.PoolIDs[0] != "pool-a" || stored.PoolIDs[1] != "pool-b" {
			t.Fatalf("pool IDs = %v, want [pool-a pool-b]", stored.PoolIDs)
		}
		if !stored.CreatedAt.Equal(fixture.CreatedAt) {
			t.Fatalf("created at = %v, want %v", stored.CreatedAt, fixture.CreatedAt)
		}
	})

	t.Run("looks up users by username", func(t *testing.T) {
		fixture := testfixtures.NewUserFixture(testfixtures.WithUsername("lookup.me"))
		if err := harness.Users.CreateUser(ctx, fixture.Persistence()); err != nil {
			t.Fatalf("CreateUser returned error: %v", err)
		}

		stored, err := harness.Users.GetUserByUsername(ctx, "lookup.me")
		if err != nil {
			t.Fatalf("GetUserByUsername returned error: %v", err)
		}
		if stored.ID != fixture.ID {
			t.Fatalf("ID = %q, want %q", stored.ID, fixture.ID)
		}
		if stored.PasswordHash != fixture.PasswordHash {
			t.Fatalf("password hash = %q, want %q", stored.PasswordHash, fixture.PasswordHash)
		}

		if _, err := harness.Users.GetUserByUsername(ctx, "nobody"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("rejects duplicate usernames", func(t *testing.T) {
		first := testfixtures.NewUserFixture(testfixtures.WithUsername("taken.name"))
		if err := harness.Users.CreateUser(ctx, first.Persistence()); err != nil {
			t.Fatalf("CreateUser returned error: %v", err)
		}

		second := testfixtures.NewUserFixture(testfixtures.WithUsername("taken.name"))
		err := harness.Users.CreateUser(ctx, second.Persistence())
		if !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("update rewrites the pool assignment set", func(t *testing.T) {
		fixture := testfixtures.NewUserFixture(testfixtures.WithUserPools("pool-a"))
		if err := harness.Users.CreateUser(ctx, fixture.Persistence()); err != nil {
			t.Fatalf("CreateUser returned error: %v", err)
		}

		model := fixture.Persistence()
		model.Name = "Renamed"
		model.PoolIDs = []string{"pool-c"}
		if err := harness.Users.UpdateUser(ctx, model); err != nil {
			t.Fatalf("UpdateUser returned error: %v", err)
		}

		stored, err := harness.Users.GetUser(ctx, fixture.ID)
		if err != nil {
			t.Fatalf("GetUser returned error: %v", err)
		}
		if stored.Name != "Renamed" {
			t.Fatalf("name = %q, want Renamed", stored.Name)
		}
		if len(stored.PoolIDs) != 1 || stored.PoolIDs[0] != "pool-c" {
			t.Fatalf("pool IDs = %v, want [pool-c]", stored.PoolIDs)
		}
	})

	t.Run("update and delete of unknown users report not found", func(t *testing.T) {
		ghost := testfixtures.NewUserFixture(testfixtures.WithUserID("ghost-user"))
		model := ghost.Persistence()
		model.ID = "never-stored"

		if err := harness.Users.UpdateUser(ctx, model); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound from update, got %v", err)
		}
		if err := harness.Users.DeleteUser(ctx, "never-stored"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound from delete, got %v", err)
		}
	})

	t.Run("delete removes the user and their assignments", func(t *testing.T) {
		fixture := testfixtures.NewUserFixture(testfixtures.WithUserPools("pool-z"))
		if err := harness.Users.CreateUser(ctx, fixture.Persistence()); err != nil {
			t.Fatalf("CreateUser returned error: %v", err)
		}

		if err := harness.Users.DeleteUser(ctx, fixture.ID); err != nil {
			t.Fatalf("DeleteUser returned error: %v", err)
		}
		if _, err := harness.Users.GetUser(ctx, fixture.ID); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
	})
}

func TestUserRepositoryListWindow(t *testing.T) {
	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	base := testfixtures.ReferenceTime()
	fixtures := make([]testfixtures.UserFixture, 0, 5)
	for i := 0; i < 5; i++ {
		fixture := testfixtures.NewUserFixture(
			testfixtures.WithUserTimestamps(base.Add(time.Duration(i)*time.Hour), base.Add(time.Duration(i)*time.Hour)),
		)
		if err := harness.Users.CreateUser(ctx, fixture.Persistence()); err != nil {
			t.Fatalf("CreateUser returned error: %v", err)
		}
		fixtures = append(fixtures, fixture)
	}

	count, err := harness.Users.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers returned error: %v", err)
	}
	if count != 5 {
		t.Fatalf("count = %d, want 5", count)
	}

	window, err := harness.Users.ListUsers(ctx, persistence.ListWindow{Offset: 1, Limit: 2})
	if err != nil {
		t.Fatalf("ListUsers returned error: %v", err)
	}
	if len(window) != 2 {
		t.Fatalf("window size = %d, want 2", len(window))
	}
	if window[0].ID != fixtures[1].ID || window[1].ID != fixtures[2].ID {
		t.Fatalf("window IDs = %q/%q, want %q/%q", window[0].ID, window[1].ID, fixtures[1].ID, fixtures[2].ID)
	}
}

func TestPoolRepository(t *testing.T) {
	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	t.Run("round trips a pool with its employee set", func(t *testing.T) {
		fixture := testfixtures.NewPoolFixture(
			testfixtures.WithPoolEmployees("user-b", "user-a"),
			testfixtures.WithPoolAvailableDays(time.Sunday, time.Wednesday, time.Saturday),
		)

		if err := harness.Pools.CreatePool(ctx, fixture.Persistence()); err != nil {
			t.Fatalf("CreatePool returned error: %v", err)
		}

		stored, err := harness.Pools.GetPool(ctx, fixture.ID)
		if err != nil {
			t.Fatalf("GetPool returned error: %v", err)
		}
		if stored.Name != fixture.Name || stored.Capacity != fixture.Capacity {
			t.Fatalf("stored pool = %+v", stored)
		}
		if len(stored.AvailableDays) != 3 || stored.AvailableDays[1] != time.Wednesday {
			t.Fatalf("available days = %v", stored.AvailableDays)
		}
		if len(stored.EmployeeIDs) != 2 || stored.EmployeeIDs[0] != "user-a" {
			t.Fatalf("employee IDs = %v, want sorted [user-a user-b]", stored.EmployeeIDs)
		}
		if stored.ImageURL != nil {
			t.Fatalf("image URL = %v, want nil", stored.ImageURL)
		}
	})

	t.Run("rejects non positive capacities", func(t *testing.T) {
		fixture := testfixtures.NewPoolFixture(testfixtures.WithPoolCapacity(0))
		err := harness.Pools.CreatePool(ctx, fixture.Persistence())
		if !errors.Is(err, persistence.ErrConstraintViolation) {
			t.Fatalf("expected ErrConstraintViolation, got %v", err)
		}
	})

	t.Run("update rewrites the employee set", func(t *testing.T) {
		fixture := testfixtures.NewPoolFixture(testfixtures.WithPoolEmployees("user-a"))
		if err := harness.Pools.CreatePool(ctx, fixture.Persistence()); err != nil {
			t.Fatalf("CreatePool returned error: %v", err)
		}

		model := fixture.Persistence()
		model.Status = string(application.PoolStatusMaintenance)
		model.EmployeeIDs = []string{"user-c", "user-b"}
		if err := harness.Pools.UpdatePool(ctx, model); err != nil {
			t.Fatalf("UpdatePool returned error: %v", err)
		}

		stored, err := harness.Pools.GetPool(ctx, fixture.ID)
		if err != nil {
			t.Fatalf("GetPool returned error: %v", err)
		}
		if stored.Status != string(application.PoolStatusMaintenance) {
			t.Fatalf("status = %q, want MAINTENANCE", stored.Status)
		}
		if len(stored.EmployeeIDs) != 2 || stored.EmployeeIDs[0] != "user-b" {
			t.Fatalf("employee IDs = %v, want sorted [user-b user-c]", stored.EmployeeIDs)
		}
	})

	t.Run("missing pools report not found", func(t *testing.T) {
		if _, err := harness.Pools.GetPool(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if err := harness.Pools.DeletePool(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound from delete, got %v", err)
		}
	})

	t.Run("delete leaves bookings in place", func(t *testing.T) {
		pool := testfixtures.NewPoolFixture()
		if err := harness.Pools.CreatePool(ctx, pool.Persistence()); err != nil {
			t.Fatalf("CreatePool returned error: %v", err)
		}
		booking := testfixtures.NewBookingFixture(testfixtures.WithBookingPool(pool.ID))
		if err := harness.Bookings.CreateBooking(ctx, booking.Persistence()); err != nil {
			t.Fatalf("CreateBooking returned error: %v", err)
		}

		if err := harness.Pools.DeletePool(ctx, pool.ID); err != nil {
			t.Fatalf("DeletePool returned error: %v", err)
		}
		if _, err := harness.Bookings.GetBooking(ctx, booking.ID); err != nil {
			t.Fatalf("booking should survive pool deletion, got %v", err)
		}
	})
}

func TestBookingRepository(t *testing.T) {
	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	day := func(offset int) time.Time {
		return time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
	}
	slot := func(d time.Time, startHour, endHour int) testfixtures.BookingOption {
		return testfixtures.WithBookingSlot(d, d.Add(time.Duration(startHour)*time.Hour), d.Add(time.Duration(endHour)*time.Hour))
	}

	poolA := testfixtures.NewBookingFixture(testfixtures.WithBookingPool("filter-pool-a"), slot(day(0), 10, 12))
	poolA2 := testfixtures.NewBookingFixture(testfixtures.WithBookingPool("filter-pool-a"), slot(day(0), 14, 16))
	poolA3 := testfixtures.NewBookingFixture(testfixtures.WithBookingPool("filter-pool-a"), slot(day(10), 10, 12))
	poolB := testfixtures.NewBookingFixture(testfixtures.WithBookingPool("filter-pool-b"), slot(day(0), 10, 12))

	for _, fixture := range []testfixtures.BookingFixture{poolA, poolA2, poolA3, poolB} {
		if err := harness.Bookings.CreateBooking(ctx, fixture.Persistence()); err != nil {
			t.Fatalf("CreateBooking returned error: %v", err)
		}
	}

	t.Run("round trips optional fields", func(t *testing.T) {
		email := "client@example.com"
		notes := "bring towels"
		fixture := testfixtures.NewBookingFixture(
			testfixtures.WithBookingPayment(500, 250, application.PaymentStatusPartial),
		)
		model := fixture.Persistence()
		model.ClientEmail = &email
		model.Notes = &notes

		if err := harness.Bookings.CreateBooking(ctx, model); err != nil {
			t.Fatalf("CreateBooking returned error: %v", err)
		}

		stored, err := harness.Bookings.GetBooking(ctx, fixture.ID)
		if err != nil {
			t.Fatalf("GetBooking returned error: %v", err)
		}
		if stored.ClientEmail == nil || *stored.ClientEmail != email {
			t.Fatalf("client email = %v, want %q", stored.ClientEmail, email)
		}
		if stored.Notes == nil || *stored.Notes != notes {
			t.Fatalf("notes = %v, want %q", stored.Notes, notes)
		}
		if stored.PaymentStatus != string(application.PaymentStatusPartial) {
			t.Fatalf("payment status = %q, want PARTIAL", stored.PaymentStatus)
		}
		if !stored.Start.Equal(fixture.StartTime) || !stored.End.Equal(fixture.EndTime) {
			t.Fatalf("interval = %v-%v, want %v-%v", stored.Start, stored.End, fixture.StartTime, fixture.EndTime)
		}
	})

	t.Run("filters by pool and date", func(t *testing.T) {
		date := day(0)
		bookings, err := harness.Bookings.ListBookings(ctx, persistence.BookingFilter{
			PoolID: "filter-pool-a",
			Date:   &date,
		}, persistence.ListWindow{})
		if err != nil {
			t.Fatalf("ListBookings returned error: %v", err)
		}
		if len(bookings) != 2 {
			t.Fatalf("result size = %d, want 2", len(bookings))
		}
		if bookings[0].ID != poolA.ID || bookings[1].ID != poolA2.ID {
			t.Fatalf("result order = %q/%q, want start-time ordering", bookings[0].ID, bookings[1].ID)
		}
	})

	t.Run("excludes a booking from the conflict scan", func(t *testing.T) {
		date := day(0)
		bookings, err := harness.Bookings.ListBookings(ctx, persistence.BookingFilter{
			PoolID:    "filter-pool-a",
			Date:      &date,
			ExcludeID: poolA.ID,
		}, persistence.ListWindow{})
		if err != nil {
			t.Fatalf("ListBookings returned error: %v", err)
		}
		if len(bookings) != 1 || bookings[0].ID != poolA2.ID {
			t.Fatalf("result = %v, want only %q", bookings, poolA2.ID)
		}
	})

	t.Run("bounds results by date range", func(t *testing.T) {
		from := day(0)
		to := day(5)
		count, err := harness.Bookings.CountBookings(ctx, persistence.BookingFilter{
			PoolID: "filter-pool-a",
			From:   &from,
			To:     &to,
		})
		if err != nil {
			t.Fatalf("CountBookings returned error: %v", err)
		}
		if count != 2 {
			t.Fatalf("count = %d, want 2 inside the range", count)
		}
	})

	t.Run("rejects inverted intervals", func(t *testing.T) {
		d := day(20)
		fixture := testfixtures.NewBookingFixture(
			testfixtures.WithBookingSlot(d, d.Add(12*time.Hour), d.Add(10*time.Hour)),
		)
		err := harness.Bookings.CreateBooking(ctx, fixture.Persistence())
		if !errors.Is(err, persistence.ErrConstraintViolation) {
			t.Fatalf("expected ErrConstraintViolation, got %v", err)
		}
	})

	t.Run("update and delete of unknown bookings report not found", func(t *testing.T) {
		fixture := testfixtures.NewBookingFixture(testfixtures.WithBookingID("never-stored"))
		if err := harness.Bookings.UpdateBooking(ctx, fixture.Persistence()); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound from update, got %v", err)
		}
		if err := harness.Bookings.DeleteBooking(ctx, "never-stored"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound from delete, got %v", err)
		}
	})

	t.Run("update rewrites the reservation", func(t *testing.T) {
		model := poolB.Persistence()
		model.ClientName = "Updated Client"
		model.PaymentStatus = string(application.PaymentStatusPaid)
		model.PaidValue = model.TotalValue
		if err := harness.Bookings.UpdateBooking(ctx, model); err != nil {
			t.Fatalf("UpdateBooking returned error: %v", err)
		}

		stored, err := harness.Bookings.GetBooking(ctx, poolB.ID)
		if err != nil {
			t.Fatalf("GetBooking returned error: %v", err)
		}
		if stored.ClientName != "Updated Client" {
			t.Fatalf("client name = %q", stored.ClientName)
		}
		if stored.PaymentStatus != string(application.PaymentStatusPaid) {
			t.Fatalf("payment status = %q, want PAID", stored.PaymentStatus)
		}
	})
}

func TestSessionRepository(t *testing.T) {
	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	t.Run("round trips an issued session", func(t *testing.T) {
		fixture := testfixtures.NewSessionFixture()
		if _, err := harness.Sessions.CreateSession(ctx, fixture.Persistence()); err != nil {
			t.Fatalf("CreateSession returned error: %v", err)
		}

		stored, err := harness.Sessions.GetSession(ctx, fixture.Token)
		if err != nil {
			t.Fatalf("GetSession returned error: %v", err)
		}
		if stored.UserID != fixture.UserID {
			t.Fatalf("user ID = %q, want %q", stored.UserID, fixture.UserID)
		}
		if stored.RevokedAt != nil {
			t.Fatalf("revoked at = %v, want nil", stored.RevokedAt)
		}
		if !stored.ExpiresAt.Equal(fixture.ExpiresAt) {
			t.Fatalf("expires at = %v, want %v", stored.ExpiresAt, fixture.ExpiresAt)
		}
	})

	t.Run("revoke stamps the session and returns it", func(t *testing.T) {
		fixture := testfixtures.NewSessionFixture()
		if _, err := harness.Sessions.CreateSession(ctx, fixture.Persistence()); err != nil {
			t.Fatalf("CreateSession returned error: %v", err)
		}

		revokedAt := fixture.CreatedAt.Add(time.Hour)
		revoked, err := harness.Sessions.RevokeSession(ctx, fixture.Token, revokedAt)
		if err != nil {
			t.Fatalf("RevokeSession returned error: %v", err)
		}
		if revoked.RevokedAt == nil || !revoked.RevokedAt.Equal(revokedAt) {
			t.Fatalf("revoked at = %v, want %v", revoked.RevokedAt, revokedAt)
		}
	})

	t.Run("revoking an unknown token reports not found", func(t *testing.T) {
		_, err := harness.Sessions.RevokeSession(ctx, "unknown-token", time.Now().UTC())
		if !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("prunes only expired sessions", func(t *testing.T) {
		reference := testfixtures.ReferenceTime().Add(48 * time.Hour)
		expired := testfixtures.NewSessionFixture(testfixtures.WithSessionExpiry(reference.Add(-time.Minute)))
		live := testfixtures.NewSessionFixture(testfixtures.WithSessionExpiry(reference.Add(time.Hour)))

		for _, fixture := range []testfixtures.SessionFixture{expired, live} {
			if _, err := harness.Sessions.CreateSession(ctx, fixture.Persistence()); err != nil {
				t.Fatalf("CreateSession returned error: %v", err)
			}
		}

		if err := harness.Sessions.DeleteExpiredSessions(ctx, reference); err != nil {
			t.Fatalf("DeleteExpiredSessions returned error: %v", err)
		}

		if _, err := harness.Sessions.GetSession(ctx, expired.Token); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected expired session to be pruned, got %v", err)
		}
		if _, err := harness.Sessions.GetSession(ctx, live.Token); err != nil {
			t.Fatalf("live session should survive pruning, got %v", err)
		}
	})
}
