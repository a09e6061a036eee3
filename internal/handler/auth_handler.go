package handler

import (
	"net/http"

	"stockapi/internal/auth"
	"stockapi/internal/middleware"
	"stockapi/internal/model"

	"github.com/rs/zerolog"
)

// WelcomeMessage is the body of GET /v1/welcome.
const WelcomeMessage = "Stock Management App"

// AuthHandler handles registration, login and session HTTP requests.
type AuthHandler struct {
	service auth.Service
	logger  zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(service auth.Service, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("handler", "auth").Logger(),
	}
}

// Welcome handles GET /v1/welcome requests.
func (h *AuthHandler) Welcome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(WelcomeMessage))
}

// Register handles POST /v1/register requests.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err, http.StatusUnprocessableEntity, h.logger)
		return
	}

	if _, err := h.service.Register(r.Context(), &req); err != nil {
		writeServiceError(w, r, err, http.StatusUnprocessableEntity, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, model.MessageResponse{Message: "User registered successfully"})
}

// Login handles POST /v1/login requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err, http.StatusUnprocessableEntity, h.logger)
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err, http.StatusUnprocessableEntity, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Logout handles POST /v1/logout requests.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, model.ErrUnauthenticated, http.StatusUnprocessableEntity, h.logger)
		return
	}

	if err := h.service.Logout(r.Context(), claims); err != nil {
		writeServiceError(w, r, err, http.StatusUnprocessableEntity, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /v1/user requests and returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, model.ErrUnauthenticated, http.StatusUnprocessableEntity, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
