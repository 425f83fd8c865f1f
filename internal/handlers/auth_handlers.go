package handlers

import (
	"net/http"

	"taskFlow/internal/handlers/dto"
	"taskFlow/internal/logger"
	"taskFlow/internal/service"

	"go.uber.org/zap"
)

type AuthHandler struct {
	AuthService AuthService
}

func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{AuthService: authService}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var request dto.RegisterRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	request.Normalize()

	if fields := validateStruct(&request); len(fields) > 0 {
		respondValidation(w, r, fields, "register")
		return
	}

	result, err := h.AuthService.Register(r.Context(), service.RegisterInput{
		Name:     request.Name,
		Email:    request.Email,
		Password: request.Password,
	})
	if err != nil {
		handleError(w, r, err, "register")
		return
	}

	logger.Info("HTTP_OUT: Пользователь зарегистрирован",
		zap.String("user_id", result.User.ID.String()),
		zap.Int("http_status", http.StatusCreated))

	respondAuth(w, http.StatusCreated, "User registered successfully", result)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var request dto.LoginRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	if fields := validateStruct(&request); len(fields) > 0 {
		respondValidation(w, r, fields, "login")
		return
	}

	result, err := h.AuthService.Login(r.Context(), request.Email, request.Password)
	if err != nil {
		handleError(w, r, err, "login")
		return
	}

	respondAuth(w, http.StatusOK, "Login successful", result)
}

func (h *AuthHandler) ExternalLogin(w http.ResponseWriter, r *http.Request) {
	var request dto.ExternalLoginRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	if fields := validateStruct(&request); len(fields) > 0 {
		respondValidation(w, r, fields, "external_login")
		return
	}

	result, err := h.AuthService.LoginWithExternal(r.Context(), request.IDToken)
	if err != nil {
		handleError(w, r, err, "external_login")
		return
	}

	respondAuth(w, http.StatusOK, "Login successful", result)
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}
	responseSuccess(w, http.StatusOK, toPayload("user", u))
}

func respondAuth(w http.ResponseWriter, code int, message string, result *service.AuthResult) {
	responseSuccess(w, code,
		toPayload("message", message),
		toPayload("token", result.Token),
		toPayload("expiresAt", result.ExpiresAt),
		toPayload("user", result.User))
}
