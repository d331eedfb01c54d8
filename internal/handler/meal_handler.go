package handler

import (
	"net/http"
	"strconv"

	"meal-kart/internal/model"
	"meal-kart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// MealHandler handles catalogue meal requests.
type MealHandler struct {
	service service.CatalogService
	logger  zerolog.Logger
}

// NewMealHandler creates a new meal handler.
func NewMealHandler(service service.CatalogService, logger zerolog.Logger) *MealHandler {
	return &MealHandler{
		service: service,
		logger:  logger.With().Str("handler", "meal").Logger(),
	}
}

// List handles GET /api/meals?available=&category=&q=.
func (h *MealHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.MealFilter{Category: q.Get("category"), Query: q.Get("q")}
	if raw := q.Get("available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, model.ErrCodeInvalidField, "invalid available parameter", h.logger)
			return
		}
		filter.Available = &available
	}

	meals, err := h.service.ListMeals(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if meals == nil {
		meals = []model.Meal{}
	}
	writeJSON(w, http.StatusOK, meals)
}

func (h *MealHandler) Get(w http.ResponseWriter, r *http.Request) {
	meal, err := h.service.GetMeal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, meal)
}

func (h *MealHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.MealInput
	if !decodeJSON(w, r, &in, h.logger) {
		return
	}
	meal, err := h.service.CreateMeal(r.Context(), in)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, meal)
}

func (h *MealHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in model.MealInput
	if !decodeJSON(w, r, &in, h.logger) {
		return
	}
	meal, err := h.service.UpdateMeal(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, meal)
}

func (h *MealHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteMeal(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
