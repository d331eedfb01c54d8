package handler

import (
	"net/http"

	"meal-kart/internal/model"
	"meal-kart/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

type assignDriverRequest struct {
	DriverID uuid.UUID `json:"driverId"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	order, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// List handles GET /api/orders?userId=&driverId=&status=&name=&page=&pageSize=.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidQuery(w, r, "userId", h.logger)
	if !ok {
		return
	}
	driverID, ok := uuidQuery(w, r, "driverId", h.logger)
	if !ok {
		return
	}
	page, pageSize, ok := pageQuery(w, r, h.logger)
	if !ok {
		return
	}

	q := r.URL.Query()
	list, err := h.service.List(r.Context(), model.OrderFilter{
		UserID:   userID,
		DriverID: driverID,
		Status:   q.Get("status"),
		Name:     q.Get("name"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(w, r, "id", h.logger)
	if !ok {
		return
	}

	order, err := h.service.GetByID(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(w, r, "id", h.logger)
	if !ok {
		return
	}
	var patch model.OrderPatch
	if !decodeJSON(w, r, &patch, h.logger) {
		return
	}
	order, err := h.service.Update(r.Context(), orderID, patch)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(w, r, "id", h.logger)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), orderID); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateStatus handles PATCH /api/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(w, r, "id", h.logger)
	if !ok {
		return
	}
	var upd model.StatusUpdate
	if !decodeJSON(w, r, &upd, h.logger) {
		return
	}
	order, err := h.service.UpdateStatus(r.Context(), orderID, upd)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// AssignDriver handles PATCH /api/orders/{id}/assign-driver.
func (h *OrderHandler) AssignDriver(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(w, r, "id", h.logger)
	if !ok {
		return
	}
	var req assignDriverRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	if req.DriverID == uuid.Nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "driverId is required", h.logger)
		return
	}
	order, err := h.service.AssignDriver(r.Context(), orderID, req.DriverID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// Cancel handles POST /api/orders/{id}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(w, r, "id", h.logger)
	if !ok {
		return
	}
	var req cancelRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	order, err := h.service.Cancel(r.Context(), orderID, req.Reason)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// FromPlan handles POST /api/orders/from-plan/{planId}.
func (h *OrderHandler) FromPlan(w http.ResponseWriter, r *http.Request) {
	planID, ok := uuidParam(w, r, "planId", h.logger)
	if !ok {
		return
	}
	var req model.FromPlanRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	order, err := h.service.FromPlan(r.Context(), planID, req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// FromPlansByType handles POST /api/orders-from-plans.
func (h *OrderHandler) FromPlansByType(w http.ResponseWriter, r *http.Request) {
	var req model.FromPlansRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	result, err := h.service.FromPlansByType(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
