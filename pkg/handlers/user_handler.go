package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/trainhub/register-engine/pkg/middleware"
	"github.com/trainhub/register-engine/pkg/models"
	"github.com/trainhub/register-engine/pkg/services"
)

// UserListResponse for GET /api/users
type UserListResponse struct {
	Users []*models.User `json:"users"`
	Total int            `json:"total"`
}

// UserHandler handles back-office user HTTP requests.
type UserHandler struct {
	userService services.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userService services.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers the user handler's routes on the given mux.
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, auth *middleware.Auth) {
	mux.HandleFunc("GET /api/users", auth.RequireUser(h.List))
	mux.HandleFunc("POST /api/users", auth.RequireUser(h.Create))
	mux.HandleFunc("GET /api/users/{uid}", auth.RequireUser(h.Get))
	mux.HandleFunc("PUT /api/users/{uid}", auth.RequireUser(h.Update))
	mux.HandleFunc("DELETE /api/users/{uid}", auth.RequireUser(h.Delete))
}

// List handles GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		WriteServiceError(w, h.logger, err, "list_users_failed")
		return
	}

	response := UserListResponse{
		Users: users,
		Total: len(users),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.UserInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	user, err := h.userService.Create(r.Context(), input)
	if err != nil {
		h.logger.Error("Failed to create user",
			zap.String("email", input.Email),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "create_user_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: user}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/users/{uid}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	user, err := h.userService.Get(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get user",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "get_user_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: user}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/users/{uid}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	var input services.UserInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	user, err := h.userService.Update(r.Context(), userID, input)
	if err != nil {
		h.logger.Error("Failed to update user",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "update_user_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: user}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/users/{uid}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.userService.Delete(r.Context(), userID); err != nil {
		h.logger.Error("Failed to delete user",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "delete_user_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]string{"status": "deleted"}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
