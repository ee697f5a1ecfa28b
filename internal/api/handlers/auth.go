package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dom/task-manager/internal/api/middleware"
	"github.com/dom/task-manager/internal/domain"
	"github.com/dom/task-manager/internal/httpx"
	"github.com/dom/task-manager/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string            `json:"token"`
	User  domain.PublicUser `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.authService.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, AuthResponse{
		Token: result.Token,
		User:  result.User.Public(),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.authService.Login(r.Context(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, AuthResponse{
		Token: result.Token,
		User:  result.User.Public(),
	})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	authUser, ok := middleware.GetUser(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Access token required")
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), authUser.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, user.Public())
}
