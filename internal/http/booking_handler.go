package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/pool-booking/internal/application"
	"github.com/example/pool-booking/internal/pagination"
)

const bookingDateLayout = "2006-01-02"

type bookingService interface {
	CreateBooking(ctx context.Context, params application.CreateBookingParams) (application.Booking, error)
	GetBooking(ctx context.Context, principal application.Principal, bookingID string) (application.Booking, error)
	UpdateBooking(ctx context.Context, params application.UpdateBookingParams) (application.Booking, error)
	DeleteBooking(ctx context.Context, principal application.Principal, bookingID string) error
	ListBookings(ctx context.Context, principal application.Principal, page pagination.Page) (pagination.Paginated[application.Booking], error)
	FindByMonth(ctx context.Context, principal application.Principal, month time.Month, year int) ([]application.MonthBooking, error)
}

type BookingHandler struct {
	service   bookingService
	responder responder
	logger    *slog.Logger
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "pool_id", input.PoolID)

	booking, err := h.service.CreateBooking(r.Context(), application.CreateBookingParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "booking creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("booking_id", booking.ID).InfoContext(r.Context(), "booking created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, dataResponse{Message: "booking created", Data: toBookingDTO(booking)})
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := BookingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	booking, err := h.service.GetBooking(r.Context(), principal, bookingID)
	if err != nil {
		h.log(r.Context(), "Get", "booking_id", bookingID).ErrorContext(r.Context(), "booking fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, dataResponse{Data: toBookingDTO(booking)})
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	result, err := h.service.ListBookings(r.Context(), principal, pageFromQuery(r))
	if err != nil {
		logger.ErrorContext(r.Context(), "booking list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(result.Items)).InfoContext(r.Context(), "bookings listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listResponse{Meta: result.Meta, Items: toBookingDTOs(result.Items)})
}

func (h *BookingHandler) ByMonth(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	month, err := strconv.Atoi(query.Get("month"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMonthQuery)
		return
	}
	year, err := strconv.Atoi(query.Get("year"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidYearQuery)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ByMonth", "principal_id", principal.UserID, "month", month, "year", year)

	bookings, err := h.service.FindByMonth(r.Context(), principal, time.Month(month), year)
	if err != nil {
		logger.ErrorContext(r.Context(), "month listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(bookings)).InfoContext(r.Context(), "month bookings listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, monthResponse{Count: len(bookings), Items: toMonthBookingDTOs(bookings)})
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := BookingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req bookingPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "booking_id", bookingID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking patch", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "booking_id", bookingID)

	booking, err := h.service.UpdateBooking(r.Context(), application.UpdateBookingParams{
		Principal: principal,
		BookingID: bookingID,
		Patch:     patch,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "booking update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, dataResponse{Message: "booking updated", Data: toBookingDTO(booking)})
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := BookingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "booking_id", bookingID)

	if err := h.service.DeleteBooking(r.Context(), principal, bookingID); err != nil {
		logger.ErrorContext(r.Context(), "booking delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type bookingRequest struct {
	PoolID        string  `json:"poolId"`
	EmployeeID    string  `json:"employeeId"`
	ClientName    string  `json:"clientName"`
	ClientPhone   string  `json:"clientPhone"`
	ClientEmail   *string `json:"clientEmail"`
	Date          string  `json:"date"`
	StartTime     string  `json:"startTime"`
	EndTime       string  `json:"endTime"`
	TotalValue    float64 `json:"totalValue"`
	PaidValue     float64 `json:"paidValue"`
	PaymentStatus string  `json:"paymentStatus"`
	Notes         *string `json:"notes"`
}

func (b bookingRequest) toInput() (application.BookingInput, error) {
	date, err := parseBookingDate(b.Date)
	if err != nil {
		return application.BookingInput{}, err
	}
	start, err := parseBookingTime(b.StartTime)
	if err != nil {
		return application.BookingInput{}, err
	}
	end, err := parseBookingTime(b.EndTime)
	if err != nil {
		return application.BookingInput{}, err
	}
	return application.BookingInput{
		PoolID:        b.PoolID,
		EmployeeID:    b.EmployeeID,
		ClientName:    b.ClientName,
		ClientPhone:   b.ClientPhone,
		ClientEmail:   b.ClientEmail,
		Date:          date,
		StartTime:     start,
		EndTime:       end,
		TotalValue:    b.TotalValue,
		PaidValue:     b.PaidValue,
		PaymentStatus: application.PaymentStatus(strings.ToUpper(strings.TrimSpace(b.PaymentStatus))),
		Notes:         b.Notes,
	}, nil
}

type bookingPatchRequest struct {
	PoolID        *string  `json:"poolId"`
	EmployeeID    *string  `json:"employeeId"`
	ClientName    *string  `json:"clientName"`
	ClientPhone   *string  `json:"clientPhone"`
	ClientEmail   *string  `json:"clientEmail"`
	Date          *string  `json:"date"`
	StartTime     *string  `json:"startTime"`
	EndTime       *string  `json:"endTime"`
	TotalValue    *float64 `json:"totalValue"`
	PaidValue     *float64 `json:"paidValue"`
	PaymentStatus *string  `json:"paymentStatus"`
	Notes         *string  `json:"notes"`
}

func (b bookingPatchRequest) toPatch() (application.BookingPatch, error) {
	patch := application.BookingPatch{
		PoolID:      b.PoolID,
		EmployeeID:  b.EmployeeID,
		ClientName:  b.ClientName,
		ClientPhone: b.ClientPhone,
		ClientEmail: b.ClientEmail,
		TotalValue:  b.TotalValue,
		PaidValue:   b.PaidValue,
		Notes:       b.Notes,
	}
	if b.Date != nil {
		date, err := parseBookingDate(*b.Date)
		if err != nil {
			return application.BookingPatch{}, err
		}
		patch.Date = &date
	}
	if b.StartTime != nil {
		start, err := parseBookingTime(*b.StartTime)
		if err != nil {
			return application.BookingPatch{}, err
		}
		patch.StartTime = &start
	}
	if b.EndTime != nil {
		end, err := parseBookingTime(*b.EndTime)
		if err != nil {
			return application.BookingPatch{}, err
		}
		patch.EndTime = &end
	}
	if b.PaymentStatus != nil {
		status := application.PaymentStatus(strings.ToUpper(strings.TrimSpace(*b.PaymentStatus)))
		patch.PaymentStatus = &status
	}
	return patch, nil
}

func parseBookingDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	date, err := time.Parse(bookingDateLayout, raw)
	if err != nil {
		return time.Time{}, errInvalidDateFormat
	}
	return date.UTC(), nil
}

func parseBookingTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errInvalidTimeFormat
	}
	return parsed.UTC(), nil
}

type bookingDTO struct {
	ID            string  `json:"id"`
	PoolID        string  `json:"poolId"`
	EmployeeID    string  `json:"employeeId"`
	ClientName    string  `json:"clientName"`
	ClientPhone   string  `json:"clientPhone"`
	ClientEmail   *string `json:"clientEmail,omitempty"`
	Date          string  `json:"date"`
	StartTime     string  `json:"startTime"`
	EndTime       string  `json:"endTime"`
	TotalValue    float64 `json:"totalValue"`
	PaidValue     float64 `json:"paidValue"`
	PaymentStatus string  `json:"paymentStatus"`
	Notes         *string `json:"notes,omitempty"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
}

func toBookingDTO(booking application.Booking) bookingDTO {
	return bookingDTO{
		ID:            booking.ID,
		PoolID:        booking.PoolID,
		EmployeeID:    booking.EmployeeID,
		ClientName:    booking.ClientName,
		ClientPhone:   booking.ClientPhone,
		ClientEmail:   booking.ClientEmail,
		Date:          booking.Date.UTC().Format(bookingDateLayout),
		StartTime:     booking.StartTime.UTC().Format(time.RFC3339Nano),
		EndTime:       booking.EndTime.UTC().Format(time.RFC3339Nano),
		TotalValue:    booking.TotalValue,
		PaidValue:     booking.PaidValue,
		PaymentStatus: string(booking.PaymentStatus),
		Notes:         booking.Notes,
		CreatedAt:     booking.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:     booking.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toBookingDTOs(bookings []application.Booking) []bookingDTO {
	out := make([]bookingDTO, 0, len(bookings))
	for _, booking := range bookings {
		out = append(out, toBookingDTO(booking))
	}
	return out
}

type poolSummaryDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Capacity    int     `json:"capacity"`
	PricePerDay float64 `json:"pricePerDay"`
	Status      string  `json:"status"`
}

type employeeSummaryDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type monthBookingDTO struct {
	bookingDTO
	Pool     *poolSummaryDTO     `json:"pool"`
	Employee *employeeSummaryDTO `json:"employee"`
}

func toMonthBookingDTOs(bookings []application.MonthBooking) []monthBookingDTO {
	out := make([]monthBookingDTO, 0, len(bookings))
	for _, entry := range bookings {
		dto := monthBookingDTO{bookingDTO: toBookingDTO(entry.Booking)}
		if entry.Pool != nil {
			dto.Pool = &poolSummaryDTO{
				ID:          entry.Pool.ID,
				Name:        entry.Pool.Name,
				Address:     entry.Pool.Address,
				Capacity:    entry.Pool.Capacity,
				PricePerDay: entry.Pool.PricePerDay,
				Status:      string(entry.Pool.Status),
			}
		}
		if entry.Employee != nil {
			dto.Employee = &employeeSummaryDTO{
				ID:    entry.Employee.ID,
				Name:  entry.Employee.Name,
				Phone: entry.Employee.Phone,
			}
		}
		out = append(out, dto)
	}
	return out
}
