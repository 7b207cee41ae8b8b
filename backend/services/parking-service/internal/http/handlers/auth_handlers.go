package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"parkgate/backend/services/parking-service/internal/auth"
	"parkgate/backend/services/parking-service/internal/models"
)

// AuthHandlers serves signup and login.
type AuthHandlers struct {
	service *auth.Service
	logger  *zap.Logger
}

func NewAuthHandlers(service *auth.Service, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{service: service, logger: logger}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.service.Signup(r.Context(), req.Email, req.Password, models.RoleUser)
	if err != nil {
		if errors.Is(err, auth.ErrEmailInUse) {
			writeError(w, http.StatusConflict, "EMAIL_IN_USE", "email already registered")
			return
		}
		h.logger.Error("signup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "signup failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	token, user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "login failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":   token,
		"user_id": user.ID,
		"role":    user.Role,
	})
}
