package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/trainhub/register-engine/pkg/middleware"
	"github.com/trainhub/register-engine/pkg/models"
	"github.com/trainhub/register-engine/pkg/services"
)

// ActivityListResponse for the activity feed endpoints. Total is the full
// count across all pages, not the length of the current page.
type ActivityListResponse struct {
	Activities []*models.ActivitySummary `json:"activities"`
	Total      int                       `json:"total"`
}

// ActivityHandler serves the activity feed: global, per provider, and per
// acting user.
type ActivityHandler struct {
	activityService services.ActivityService
	logger          *zap.Logger
}

// NewActivityHandler creates a new activity handler.
func NewActivityHandler(activityService services.ActivityService, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		logger:          logger,
	}
}

// RegisterRoutes registers the activity handler's routes on the given mux.
func (h *ActivityHandler) RegisterRoutes(mux *http.ServeMux, auth *middleware.Auth) {
	mux.HandleFunc("GET /api/activity", auth.RequireUser(h.List))
	mux.HandleFunc("GET /api/providers/{pid}/activity", auth.RequireUser(h.ListForProvider))
	mux.HandleFunc("GET /api/users/{uid}/activity", auth.RequireUser(h.ListForUser))
}

// List handles GET /api/activity
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParsePagination(r)

	activities, total, err := h.activityService.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list activity", zap.Error(err))
		WriteServiceError(w, h.logger, err, "list_activity_failed")
		return
	}

	response := ActivityListResponse{
		Activities: activities,
		Total:      total,
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListForProvider handles GET /api/providers/{pid}/activity
func (h *ActivityHandler) ListForProvider(w http.ResponseWriter, r *http.Request) {
	providerID, ok := ParseProviderID(w, r, h.logger)
	if !ok {
		return
	}
	limit, offset := ParsePagination(r)

	activities, total, err := h.activityService.ListForProvider(r.Context(), providerID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list provider activity",
			zap.String("provider_id", providerID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "list_provider_activity_failed")
		return
	}

	response := ActivityListResponse{
		Activities: activities,
		Total:      total,
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListForUser handles GET /api/users/{uid}/activity
func (h *ActivityHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}
	limit, offset := ParsePagination(r)

	activities, total, err := h.activityService.ListForUser(r.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list user activity",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "list_user_activity_failed")
		return
	}

	response := ActivityListResponse{
		Activities: activities,
		Total:      total,
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
