package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"meal-kart/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds request bodies, webhook payloads included.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Error().Str("error", message).Str("code", code).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeServiceError maps a service error onto the response. Domain errors
// keep their code and message; anything else is reported as a 500 without
// details.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var de *model.DomainError
	if !errors.As(err, &de) {
		logger.Error().Err(err).Msg("unhandled service error")
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			Error:   model.ErrCodeInternalError,
			Message: "internal server error",
		})
		return
	}
	writeError(w, statusFor(de.Kind), de.Code, de.Message, logger)
}

func statusFor(kind model.ErrorKind) int {
	switch kind {
	case model.KindValidation:
		return http.StatusBadRequest
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindPrecondition:
		return http.StatusPreconditionFailed
	case model.KindConflict:
		return http.StatusConflict
	case model.KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads the request body into v, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}, logger zerolog.Logger) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		var de *model.DomainError
		if errors.As(err, &de) {
			writeServiceError(w, de, logger)
			return false
		}
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", logger)
		return false
	}
	return true
}

// uuidParam parses a UUID path parameter, answering 400 when malformed.
func uuidParam(w http.ResponseWriter, r *http.Request, name string, logger zerolog.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidField, "invalid "+name+" format", logger)
		return uuid.Nil, false
	}
	return id, true
}

// uuidQuery parses an optional UUID query parameter.
func uuidQuery(w http.ResponseWriter, r *http.Request, name string, logger zerolog.Logger) (*uuid.UUID, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidField, "invalid "+name+" parameter", logger)
		return nil, false
	}
	return &id, true
}

// intQuery parses an optional integer query parameter.
func intQuery(w http.ResponseWriter, r *http.Request, name string, def int, logger zerolog.Logger) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidField, "invalid "+name+" parameter", logger)
		return 0, false
	}
	return v, true
}

// pageQuery reads page and pageSize; the services clamp them.
func pageQuery(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (page, pageSize int, ok bool) {
	if page, ok = intQuery(w, r, "page", 1, logger); !ok {
		return 0, 0, false
	}
	if pageSize, ok = intQuery(w, r, "pageSize", 20, logger); !ok {
		return 0, 0, false
	}
	return page, pageSize, true
}
