package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/pool-booking/internal/application"
	"github.com/example/pool-booking/internal/config"
	httptransport "github.com/example/pool-booking/internal/http"
	"github.com/example/pool-booking/internal/persistence"
	"github.com/example/pool-booking/internal/persistence/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	poolRepo := newPoolRepositoryAdapter(storage.Pools)
	bookingRepo := newBookingRepositoryAdapter(storage.Bookings)
	userRepo := newUserRepositoryAdapter(storage.Users)
	sessionRepo := newSessionRepositoryAdapter(storage.Sessions)

	userService := application.NewUserServiceWithLogger(userRepo, poolRepo, nil, idGenerator, now, logger)
	poolService := application.NewPoolServiceWithLogger(poolRepo, userService, idGenerator, now, logger)
	bookingService := application.NewBookingServiceWithLogger(bookingRepo, poolRepo, userRepo, idGenerator, now, logger)
	authService := application.NewAuthServiceWithLogger(userRepo, sessionRepo, nil, tokenGenerator, now, cfg.SessionTTL, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:       httptransport.NewAuthHandler(authService, logger),
		Pools:      httptransport.NewPoolHandler(poolService, logger),
		Bookings:   httptransport.NewBookingHandler(bookingService, logger),
		Users:      httptransport.NewUserHandler(userService, logger),
		Sessions:   authService,
		Logger:     logger,
		Middleware: []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("pool booking API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

type poolRepositoryAdapter struct {
	repo persistence.PoolRepository
}

func newPoolRepositoryAdapter(repo persistence.PoolRepository) *poolRepositoryAdapter {
	return &poolRepositoryAdapter{repo: repo}
}

func (a *poolRepositoryAdapter) CreatePool(ctx context.Context, pool application.Pool) (application.Pool, error) {
	if err := a.repo.CreatePool(ctx, toPersistencePool(pool)); err != nil {
		return application.Pool{}, err
	}
	stored, err := a.repo.GetPool(ctx, pool.ID)
	if err != nil {
		return application.Pool{}, err
	}
	return toApplicationPool(stored), nil
}

func (a *poolRepositoryAdapter) GetPool(ctx context.Context, id string) (application.Pool, error) {
	stored, err := a.repo.GetPool(ctx, id)
	if err != nil {
		return application.Pool{}, err
	}
	return toApplicationPool(stored), nil
}

func (a *poolRepositoryAdapter) UpdatePool(ctx context.Context, pool application.Pool) (application.Pool, error) {
	if err := a.repo.UpdatePool(ctx, toPersistencePool(pool)); err != nil {
		return application.Pool{}, err
	}
	stored, err := a.repo.GetPool(ctx, pool.ID)
	if err != nil {
		return application.Pool{}, err
	}
	return toApplicationPool(stored), nil
}

func (a *poolRepositoryAdapter) DeletePool(ctx context.Context, id string) error {
	return a.repo.DeletePool(ctx, id)
}

func (a *poolRepositoryAdapter) ListPools(ctx context.Context, offset, limit int) ([]application.Pool, error) {
	models, err := a.repo.ListPools(ctx, persistence.ListWindow{Offset: offset, Limit: limit})
	if err != nil {
		return nil, err
	}
	pools := make([]application.Pool, 0, len(models))
	for _, model := range models {
		pools = append(pools, toApplicationPool(model))
	}
	return pools, nil
}

func (a *poolRepositoryAdapter) CountPools(ctx context.Context) (int, error) {
	return a.repo.CountPools(ctx)
}

type bookingRepositoryAdapter struct {
	repo persistence.BookingRepository
}

func newBookingRepositoryAdapter(repo persistence.BookingRepository) *bookingRepositoryAdapter {
	return &bookingRepositoryAdapter{repo: repo}
}

func (a *bookingRepositoryAdapter) CreateBooking(ctx context.Context, booking application.Booking) (application.Booking, error) {
	if err := a.repo.CreateBooking(ctx, toPersistenceBooking(booking)); err != nil {
		return application.Booking{}, err
	}
	stored, err := a.repo.GetBooking(ctx, booking.ID)
	if err != nil {
		return application.Booking{}, err
	}
	return toApplicationBooking(stored), nil
}

func (a *bookingRepositoryAdapter) GetBooking(ctx context.Context, id string) (application.Booking, error) {
	stored, err := a.repo.GetBooking(ctx, id)
	if err != nil {
		return application.Booking{}, err
	}
	return toApplicationBooking(stored), nil
}

func (a *bookingRepositoryAdapter) UpdateBooking(ctx context.Context, booking application.Booking) (application.Booking, error) {
	if err := a.repo.UpdateBooking(ctx, toPersistenceBooking(booking)); err != nil {
		return application.Booking{}, err
	}
	stored, err := a.repo.GetBooking(ctx, booking.ID)
	if err != nil {
		return application.Booking{}, err
	}
	return toApplicationBooking(stored), nil
}

func (a *bookingRepositoryAdapter) DeleteBooking(ctx context.Context, id string) error {
	return a.repo.DeleteBooking(ctx, id)
}

func (a *bookingRepositoryAdapter) ListBookings(ctx context.Context, filter application.BookingRepositoryFilter, offset, limit int) ([]application.Booking, error) {
	models, err := a.repo.ListBookings(ctx, toPersistenceFilter(filter), persistence.ListWindow{Offset: offset, Limit: limit})
	if err != nil {
		return nil, err
	}
	bookings := make([]application.Booking, 0, len(models))
	for _, model := range models {
		bookings = append(bookings, toApplicationBooking(model))
	}
	return bookings, nil
}

func (a *bookingRepositoryAdapter) CountBookings(ctx context.Context, filter application.BookingRepositoryFilter) (int, error) {
	return a.repo.CountBookings(ctx, toPersistenceFilter(filter))
}

type userRepositoryAdapter struct {
	repo persistence.UserRepository
}

func newUserRepositoryAdapter(repo persistence.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(user, passwordHash)); err != nil {
		return application.User{}, err
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUserByUsername(ctx context.Context, username string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

// UpdateUser keeps the stored credential when passwordHash is empty.
func (a *userRepositoryAdapter) UpdateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	if passwordHash == "" {
		current, err := a.repo.GetUser(ctx, user.ID)
		if err != nil {
			return application.User{}, err
		}
		passwordHash = current.PasswordHash
	}
	if err := a.repo.UpdateUser(ctx, toPersistenceUser(user, passwordHash)); err != nil {
		return application.User{}, err
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) DeleteUser(ctx context.Context, id string) error {
	return a.repo.DeleteUser(ctx, id)
}

func (a *userRepositoryAdapter) ListUsers(ctx context.Context, offset, limit int) ([]application.User, error) {
	models, err := a.repo.ListUsers(ctx, persistence.ListWindow{Offset: offset, Limit: limit})
	if err != nil {
		return nil, err
	}
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users, nil
}

func (a *userRepositoryAdapter) CountUsers(ctx context.Context) (int, error) {
	return a.repo.CountUsers(ctx)
}

type sessionRepositoryAdapter struct {
	repo persistence.SessionRepository
}

func newSessionRepositoryAdapter(repo persistence.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return a.repo.DeleteExpiredSessions(ctx, reference)
}

func toApplicationPool(model persistence.Pool) application.Pool {
	return application.Pool{
		ID:            model.ID,
		Name:          model.Name,
		Address:       model.Address,
		Capacity:      model.Capacity,
		PricePerDay:   model.PricePerDay,
		AvailableDays: append([]time.Weekday(nil), model.AvailableDays...),
		Description:   model.Description,
		ImageURL:      cloneString(model.ImageURL),
		EmployeeIDs:   append([]string(nil), model.EmployeeIDs...),
		Status:        application.PoolStatus(model.Status),
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

func toPersistencePool(pool application.Pool) persistence.Pool {
	return persistence.Pool{
		ID:            pool.ID,
		Name:          pool.Name,
		Address:       pool.Address,
		Capacity:      pool.Capacity,
		PricePerDay:   pool.PricePerDay,
		AvailableDays: append([]time.Weekday(nil), pool.AvailableDays...),
		Description:   pool.Description,
		ImageURL:      cloneString(pool.ImageURL),
		EmployeeIDs:   append([]string(nil), pool.EmployeeIDs...),
		Status:        string(pool.Status),
		CreatedAt:     pool.CreatedAt,
		UpdatedAt:     pool.UpdatedAt,
	}
}

func toApplicationBooking(model persistence.Booking) application.Booking {
	return application.Booking{
		ID:            model.ID,
		PoolID:        model.PoolID,
		EmployeeID:    model.EmployeeID,
		ClientName:    model.ClientName,
		ClientPhone:   model.ClientPhone,
		ClientEmail:   cloneString(model.ClientEmail),
		Date:          model.Date,
		StartTime:     model.Start,
		EndTime:       model.End,
		TotalValue:    model.TotalValue,
		PaidValue:     model.PaidValue,
		PaymentStatus: application.PaymentStatus(model.PaymentStatus),
		Notes:         cloneString(model.Notes),
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

func toPersistenceBooking(booking application.Booking) persistence.Booking {
	return persistence.Booking{
		ID:            booking.ID,
		PoolID:        booking.PoolID,
		EmployeeID:    booking.EmployeeID,
		ClientName:    booking.ClientName,
		ClientPhone:   booking.ClientPhone,
		ClientEmail:   cloneString(booking.ClientEmail),
		Date:          booking.Date,
		Start:         booking.StartTime,
		End:           booking.EndTime,
		TotalValue:    booking.TotalValue,
		PaidValue:     booking.PaidValue,
		PaymentStatus: string(booking.PaymentStatus),
		Notes:         cloneString(booking.Notes),
		CreatedAt:     booking.CreatedAt,
		UpdatedAt:     booking.UpdatedAt,
	}
}

func toPersistenceFilter(filter application.BookingRepositoryFilter) persistence.BookingFilter {
	return persistence.BookingFilter{
		PoolID:    filter.PoolID,
		Date:      cloneTime(filter.Date),
		From:      cloneTime(filter.From),
		To:        cloneTime(filter.To),
		ExcludeID: filter.ExcludeID,
	}
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:        model.ID,
		Name:      model.Name,
		Username:  model.Username,
		Phone:     model.Phone,
		Role:      application.Role(model.Role),
		PoolIDs:   append([]string(nil), model.PoolIDs...),
		Status:    application.UserStatus(model.Status),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	return persistence.User{
		ID:           user.ID,
		Name:         user.Name,
		Username:     user.Username,
		Phone:        user.Phone,
		PasswordHash: passwordHash,
		Role:         string(user.Role),
		PoolIDs:      append([]string(nil), user.PoolIDs...),
		Status:       string(user.Status),
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:        model.ID,
		UserID:    model.UserID,
		Token:     model.Token,
		ExpiresAt: model.ExpiresAt,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
		RevokedAt: cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		RevokedAt: cloneTime(session.RevokedAt),
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
