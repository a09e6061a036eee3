package handler

import (
	"net/http"

	"stockapi/internal/model"
	"stockapi/internal/service"

	"github.com/rs/zerolog"
)

// UserHandler handles user-related HTTP requests.
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

// List handles GET /v1/users requests.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, http.StatusUnprocessableEntity, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// GetByID handles GET /v1/users/{id} requests.
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeServiceError(w, r, model.ErrUserNotFound, http.StatusUnprocessableEntity, h.logger)
		return
	}

	user, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, http.StatusUnprocessableEntity, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Create handles POST /v1/users requests.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err, http.StatusUnprocessableEntity, h.logger)
		return
	}

	user, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err, http.StatusUnprocessableEntity, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, model.UserEnvelope{Message: "User created successfully", User: user})
}

// Update handles PUT /v1/users/{id} requests.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeServiceError(w, r, model.ErrUserNotFound, http.StatusUnprocessableEntity, h.logger)
		return
	}

	var req model.UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err, http.StatusUnprocessableEntity, h.logger)
		return
	}

	user, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		writeServiceError(w, r, err, http.StatusUnprocessableEntity, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.UserEnvelope{Message: "User updated successfully", User: user})
}

// Delete handles DELETE /v1/users/{id} requests.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeServiceError(w, r, model.ErrUserNotFound, http.StatusUnprocessableEntity, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, http.StatusUnprocessableEntity, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
