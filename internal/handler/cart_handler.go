package handler

import (
	"net/http"

	"meal-kart/internal/model"
	"meal-kart/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CartHandler handles carts and cart items.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

type createCartRequest struct {
	UserID uuid.UUID `json:"userId"`
}

// Create handles POST /api/carts.
func (h *CartHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCartRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	cart, err := h.service.Create(r.Context(), req.UserID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, cart)
}

// GetByUser handles GET /api/carts/{userId}.
func (h *CartHandler) GetByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "userId", h.logger)
	if !ok {
		return
	}
	cart, err := h.service.GetByUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// ListItems handles GET /api/cart-items?cartId=.
func (h *CartHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	cartID, ok := uuidQuery(w, r, "cartId", h.logger)
	if !ok {
		return
	}
	items, err := h.service.ListItems(r.Context(), cartID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// GetItem handles GET /api/cart-items/{id}.
func (h *CartHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id", h.logger)
	if !ok {
		return
	}
	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var in model.CartItemInput
	if !decodeJSON(w, r, &in, h.logger) {
		return
	}
	item, err := h.service.AddItem(r.Context(), in)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// UpdateItem handles PATCH /api/cart-items/{id}. A removed item answers 204.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id", h.logger)
	if !ok {
		return
	}
	var patch model.CartItemPatch
	if !decodeJSON(w, r, &patch, h.logger) {
		return
	}
	item, err := h.service.UpdateItem(r.Context(), id, patch)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if item == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *CartHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id", h.logger)
	if !ok {
		return
	}
	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
