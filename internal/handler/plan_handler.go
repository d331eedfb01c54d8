package handler

import (
	"net/http"

	"meal-kart/internal/model"
	"meal-kart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// PlanHandler handles plan and weekly schedule requests.
type PlanHandler struct {
	plans    service.PlanService
	schedule service.ScheduleService
	orders   service.OrderService
	logger   zerolog.Logger
}

// NewPlanHandler creates a new plan handler.
func NewPlanHandler(plans service.PlanService, schedule service.ScheduleService, orders service.OrderService, logger zerolog.Logger) *PlanHandler {
	return &PlanHandler{
		plans:    plans,
		schedule: schedule,
		orders:   orders,
		logger:   logger.With().Str("handler", "plan").Logger(),
	}
}

func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.PlanInput
	if !decodeJSON(w, r, &in, h.logger) {
		return
	}
	plan, err := h.plans.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

// List handles GET /api/plans?userId=&status=.
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidQuery(w, r, "userId", h.logger)
	if !ok {
		return
	}
	plans, err := h.plans.List(r.Context(), model.PlanFilter{UserID: userID, Status: r.URL.Query().Get("status")})
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if plans == nil {
		plans = []model.Plan{}
	}
	writeJSON(w, http.StatusOK, plans)
}

func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id", h.logger)
	if !ok {
		return
	}
	plan, err := h.plans.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (h *PlanHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id", h.logger)
	if !ok {
		return
	}
	var patch model.PlanPatch
	if !decodeJSON(w, r, &patch, h.logger) {
		return
	}
	plan, err := h.plans.Update(r.Context(), id, patch)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (h *PlanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id", h.logger)
	if !ok {
		return
	}
	if err := h.plans.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpsertSchedule handles POST /api/schedule.
func (h *PlanHandler) UpsertSchedule(w http.ResponseWriter, r *http.Request) {
	var in model.ScheduleInput
	if !decodeJSON(w, r, &in, h.logger) {
		return
	}
	day, err := h.schedule.Upsert(r.Context(), in)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (h *PlanHandler) ListSchedule(w http.ResponseWriter, r *http.Request) {
	days, err := h.schedule.List(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if days == nil {
		days = []model.ScheduleDay{}
	}
	writeJSON(w, http.StatusOK, days)
}

func (h *PlanHandler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := h.schedule.Delete(r.Context(), chi.URLParam(r, "day")); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PopulateWeek handles POST /api/schedule/populate-week, running the weekly
// generation on demand.
func (h *PlanHandler) PopulateWeek(w http.ResponseWriter, r *http.Request) {
	result, err := h.orders.PopulateWeek(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
