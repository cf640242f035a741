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

type poolService interface {
	CreatePool(ctx context.Context, params application.CreatePoolParams) (application.Pool, error)
	GetPool(ctx context.Context, principal application.Principal, poolID string) (application.Pool, error)
	UpdatePool(ctx context.Context, params application.UpdatePoolParams) (application.Pool, error)
	DeletePool(ctx context.Context, principal application.Principal, poolID string) error
	ListPools(ctx context.Context, principal application.Principal, page pagination.Page) (pagination.Paginated[application.Pool], error)
	AssignEmployee(ctx context.Context, principal application.Principal, poolID, employeeID string) (application.Pool, error)
	RemoveEmployee(ctx context.Context, principal application.Principal, poolID, employeeID string) (application.Pool, error)
	SetStatus(ctx context.Context, principal application.Principal, poolID string, status application.PoolStatus) (application.Pool, error)
}

type PoolHandler struct {
	service   poolService
	responder responder
	logger    *slog.Logger
}

func NewPoolHandler(service poolService, logger *slog.Logger) *PoolHandler {
	base := defaultLogger(logger)
	return &PoolHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *PoolHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "PoolHandler", operation, attrs...)
}

func (h *PoolHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req poolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode pool request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	pool, err := h.service.CreatePool(r.Context(), application.CreatePoolParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "pool creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("pool_id", pool.ID).InfoContext(r.Context(), "pool created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, dataResponse{Message: "pool created", Data: toPoolDTO(pool)})
}

func (h *PoolHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	poolID, ok := PoolIDFromContext(r.Context())
	if !ok || strings.TrimSpace(poolID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPoolID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	pool, err := h.service.GetPool(r.Context(), principal, poolID)
	if err != nil {
		h.log(r.Context(), "Get", "pool_id", poolID).ErrorContext(r.Context(), "pool fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, dataResponse{Data: toPoolDTO(pool)})
}

func (h *PoolHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	result, err := h.service.ListPools(r.Context(), principal, pageFromQuery(r))
	if err != nil {
		logger.ErrorContext(r.Context(), "pool list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(result.Items)).InfoContext(r.Context(), "pools listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listResponse{Meta: result.Meta, Items: toPoolDTOs(result.Items)})
}

func (h *PoolHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	poolID, ok := PoolIDFromContext(r.Context())
	if !ok || strings.TrimSpace(poolID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPoolID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req poolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "pool_id", poolID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode pool update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "pool_id", poolID)

	pool, err := h.service.UpdatePool(r.Context(), application.UpdatePoolParams{
		Principal: principal,
		PoolID:    poolID,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "pool update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "pool updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, dataResponse{Message: "pool updated", Data: toPoolDTO(pool)})
}

func (h *PoolHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	poolID, ok := PoolIDFromContext(r.Context())
	if !ok || strings.TrimSpace(poolID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPoolID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "pool_id", poolID)

	if err := h.service.DeletePool(r.Context(), principal, poolID); err != nil {
		logger.ErrorContext(r.Context(), "pool delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "pool deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *PoolHandler) AssignEmployee(w http.ResponseWriter, r *http.Request) {
	h.changeEmployee(w, r, "AssignEmployee")
}

func (h *PoolHandler) RemoveEmployee(w http.ResponseWriter, r *http.Request) {
	h.changeEmployee(w, r, "RemoveEmployee")
}

func (h *PoolHandler) changeEmployee(w http.ResponseWriter, r *http.Request, operation string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	poolID, ok := PoolIDFromContext(r.Context())
	if !ok || strings.TrimSpace(poolID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPoolID)
		return
	}
	employeeID, ok := EmployeeIDFromContext(r.Context())
	if !ok || strings.TrimSpace(employeeID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), operation, "principal_id", principal.UserID, "pool_id", poolID, "employee_id", employeeID)

	var pool application.Pool
	var err error
	if operation == "AssignEmployee" {
		pool, err = h.service.AssignEmployee(r.Context(), principal, poolID, employeeID)
	} else {
		pool, err = h.service.RemoveEmployee(r.Context(), principal, poolID, employeeID)
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "employee roster change failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "employee roster changed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, dataResponse{Data: toPoolDTO(pool)})
}

func (h *PoolHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	poolID, ok := PoolIDFromContext(r.Context())
	if !ok || strings.TrimSpace(poolID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPoolID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "UpdateStatus", "pool_id", poolID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode status request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "UpdateStatus", "principal_id", principal.UserID, "pool_id", poolID, "status", req.Status)

	pool, err := h.service.SetStatus(r.Context(), principal, poolID, application.PoolStatus(strings.ToUpper(strings.TrimSpace(req.Status))))
	if err != nil {
		logger.ErrorContext(r.Context(), "pool status update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "pool status updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, dataResponse{Message: "pool status updated", Data: toPoolDTO(pool)})
}

func pageFromQuery(r *http.Request) pagination.Page {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))
	return pagination.NewPage(page, limit)
}

type poolRequest struct {
	Name          string   `json:"name"`
	Address       string   `json:"address"`
	Capacity      int      `json:"capacity"`
	PricePerDay   float64  `json:"pricePerDay"`
	AvailableDays []int    `json:"availableDays"`
	Description   string   `json:"description"`
	ImageURL      *string  `json:"imageUrl"`
	Employees     []string `json:"employees"`
	Status        string   `json:"status"`
}

func (p poolRequest) toInput() application.PoolInput {
	days := make([]time.Weekday, 0, len(p.AvailableDays))
	for _, day := range p.AvailableDays {
		days = append(days, time.Weekday(day))
	}
	return application.PoolInput{
		Name:          p.Name,
		Address:       p.Address,
		Capacity:      p.Capacity,
		PricePerDay:   p.PricePerDay,
		AvailableDays: days,
		Description:   p.Description,
		ImageURL:      p.ImageURL,
		EmployeeIDs:   p.Employees,
		Status:        application.PoolStatus(strings.ToUpper(strings.TrimSpace(p.Status))),
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

type poolDTO struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Address       string   `json:"address"`
	Capacity      int      `json:"capacity"`
	PricePerDay   float64  `json:"pricePerDay"`
	AvailableDays []int    `json:"availableDays"`
	Description   string   `json:"description,omitempty"`
	ImageURL      *string  `json:"imageUrl,omitempty"`
	Employees     []string `json:"employees"`
	Status        string   `json:"status"`
	CreatedAt     string   `json:"createdAt"`
	UpdatedAt     string   `json:"updatedAt"`
}

func toPoolDTO(pool application.Pool) poolDTO {
	days := make([]int, 0, len(pool.AvailableDays))
	for _, day := range pool.AvailableDays {
		days = append(days, int(day))
	}
	employees := pool.EmployeeIDs
	if employees == nil {
		employees = []string{}
	}
	return poolDTO{
		ID:            pool.ID,
		Name:          pool.Name,
		Address:       pool.Address,
		Capacity:      pool.Capacity,
		PricePerDay:   pool.PricePerDay,
		AvailableDays: days,
		Description:   pool.Description,
		ImageURL:      pool.ImageURL,
		Employees:     employees,
		Status:        string(pool.Status),
		CreatedAt:     pool.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:     pool.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toPoolDTOs(pools []application.Pool) []poolDTO {
	out := make([]poolDTO, 0, len(pools))
	for _, pool := range pools {
		out = append(out, toPoolDTO(pool))
	}
	return out
}
