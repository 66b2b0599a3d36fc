package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/username/subwatch/backend/src/database"
	"github.com/username/subwatch/backend/src/logger"
	"github.com/username/subwatch/backend/src/model"
	"github.com/username/subwatch/backend/src/security"
	"github.com/username/subwatch/backend/src/security/validation"
	"github.com/username/subwatch/backend/src/utils"
)

type UserHandler struct {
	authService *security.AuthService
}

func NewUserHandler(authService *security.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	UserID      int64  `json:"user_id"`
}

func (h *UserHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Username = validation.SanitizeUsername(req.Username)
	if req.Username == "" || len(req.Password) < 8 || !strings.Contains(req.Email, "@") {
		utils.SendJSONError(w, "username, valid email and a password of at least 8 characters are required", http.StatusBadRequest)
		return
	}

	user := &model.User{Username: req.Username, Email: strings.TrimSpace(req.Email)}
	if err := user.HashPassword(req.Password); err != nil {
		logger.L.Error("Failed to hash password", "error", err)
		utils.SendJSONError(w, "registration failed", http.StatusInternalServerError)
		return
	}

	if err := user.CreateUser(database.DB); err != nil {
		logger.L.Error("Failed to create user", "username", req.Username, "error", err)
		utils.SendJSONError(w, "username or email already taken", http.StatusConflict)
		return
	}

	logger.L.Info("User registered", "userID", user.ID, "username", user.Username)
	utils.SendJSON(w, user, http.StatusCreated)
}

func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := model.GetUserByUsername(database.DB, req.Username)
	if err != nil {
		if !errors.Is(err, model.ErrUserNotFound) {
			logger.L.Error("Failed to load user for login", "username", req.Username, "error", err)
		}
		utils.SendJSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	if err := user.CheckPassword(req.Password); err != nil {
		utils.SendJSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := h.authService.GenerateToken(user.ID)
	if err != nil {
		logger.L.Error("Failed to generate token", "userID", user.ID, "error", err)
		utils.SendJSONError(w, "login failed", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, tokenResponse{AccessToken: token, UserID: user.ID}, http.StatusOK)
}
