package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"meal-kart/internal/model"
	"meal-kart/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestHandler handles plan change and cancellation requests.
type RequestHandler struct {
	service service.PlanRequestService
	logger  zerolog.Logger
}

// NewRequestHandler creates a new plan request handler.
func NewRequestHandler(service service.PlanRequestService, logger zerolog.Logger) *RequestHandler {
	return &RequestHandler{
		service: service,
		logger:  logger.With().Str("handler", "plan_request").Logger(),
	}
}

func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.PlanRequestInput
	if !decodeJSON(w, r, &in, h.logger) {
		return
	}
	req, err := h.service.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// List handles GET /api/requests?userId=&page=&pageSize=.
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidQuery(w, r, "userId", h.logger)
	if !ok {
		return
	}
	page, pageSize, ok := pageQuery(w, r, h.logger)
	if !ok {
		return
	}
	list, err := h.service.List(r.Context(), model.PlanRequestFilter{UserID: userID, Page: page, PageSize: pageSize})
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id", h.logger)
	if !ok {
		return
	}
	req, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// Accept handles POST /api/requests/{id}/accept.
func (h *RequestHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.Accept)
}

// Deny handles POST /api/requests/{id}/deny.
func (h *RequestHandler) Deny(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.Deny)
}

// Refund handles POST /api/requests/{id}/refund.
func (h *RequestHandler) Refund(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.Refund)
}

type reviewFunc func(ctx context.Context, id uuid.UUID, review model.ReviewInput) (*model.PlanRequest, error)

// review runs an admin decision. The body with admin notes is optional.
func (h *RequestHandler) review(w http.ResponseWriter, r *http.Request, fn reviewFunc) {
	id, ok := uuidParam(w, r, "id", h.logger)
	if !ok {
		return
	}
	var in model.ReviewInput
	if r.Body != nil {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
			return
		}
		if len(body) > 0 {
			if err := json.Unmarshal(body, &in); err != nil {
				writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
				return
			}
		}
	}

	req, err := fn(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
