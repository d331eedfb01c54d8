package handler

import (
	"net/http"

	"meal-kart/internal/model"
	"meal-kart/internal/service"

	"github.com/rs/zerolog"
)

// UserHandler handles user account requests.
type UserHandler struct {
	service service.UserService
	logger  zerolog.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(service service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger.With().Str("handler", "user").Logger(),
	}
}

type userList struct {
	Users []model.User `json:"users"`
	Count int          `json:"count"`
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.UserInput
	if !decodeJSON(w, r, &in, h.logger) {
		return
	}
	user, err := h.service.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// List handles GET /api/users?q=&page=&pageSize=.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize, ok := pageQuery(w, r, h.logger)
	if !ok {
		return
	}
	users, total, err := h.service.List(r.Context(), r.URL.Query().Get("q"), page, pageSize)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, userList{Users: users, Count: total})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id", h.logger)
	if !ok {
		return
	}
	user, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id", h.logger)
	if !ok {
		return
	}
	var in model.UserInput
	if !decodeJSON(w, r, &in, h.logger) {
		return
	}
	user, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
