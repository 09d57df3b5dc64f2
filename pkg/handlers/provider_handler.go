package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/trainhub/register-engine/pkg/middleware"
	"github.com/trainhub/register-engine/pkg/models"
	"github.com/trainhub/register-engine/pkg/services"
)

// ProviderListResponse for GET /api/providers
type ProviderListResponse struct {
	Providers []*models.Provider `json:"providers"`
	Total     int                `json:"total"`
}

// ProviderHandler handles provider HTTP requests, including the archive
// lifecycle and academic-year onboarding.
type ProviderHandler struct {
	providerService services.ProviderService
	logger          *zap.Logger
}

// NewProviderHandler creates a new provider handler.
func NewProviderHandler(providerService services.ProviderService, logger *zap.Logger) *ProviderHandler {
	return &ProviderHandler{
		providerService: providerService,
		logger:          logger,
	}
}

// RegisterRoutes registers the provider handler's routes on the given mux.
func (h *ProviderHandler) RegisterRoutes(mux *http.ServeMux, auth *middleware.Auth) {
	mux.HandleFunc("GET /api/providers", auth.RequireUserOrClient(h.List))
	mux.HandleFunc("POST /api/providers", auth.RequireUser(h.Create))
	mux.HandleFunc("GET /api/providers/{pid}", auth.RequireUserOrClient(h.Get))
	mux.HandleFunc("PUT /api/providers/{pid}", auth.RequireUser(h.Update))
	mux.HandleFunc("DELETE /api/providers/{pid}", auth.RequireUser(h.Delete))
	mux.HandleFunc("POST /api/providers/{pid}/archive", auth.RequireUser(h.Archive))
	mux.HandleFunc("POST /api/providers/{pid}/unarchive", auth.RequireUser(h.Unarchive))
	mux.HandleFunc("PUT /api/providers/{pid}/academic-years/{yid}", auth.RequireUser(h.AddAcademicYear))
	mux.HandleFunc("DELETE /api/providers/{pid}/academic-years/{yid}", auth.RequireUser(h.RemoveAcademicYear))
}

// List handles GET /api/providers
func (h *ProviderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParsePagination(r)

	providers, err := h.providerService.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list providers", zap.Error(err))
		WriteServiceError(w, h.logger, err, "list_providers_failed")
		return
	}

	response := ProviderListResponse{
		Providers: providers,
		Total:     len(providers),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/providers
func (h *ProviderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.ProviderInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	provider, err := h.providerService.Create(r.Context(), input)
	if err != nil {
		h.logger.Error("Failed to create provider",
			zap.String("operating_name", input.OperatingName),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "create_provider_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: provider}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/providers/{pid}
func (h *ProviderHandler) Get(w http.ResponseWriter, r *http.Request) {
	providerID, ok := ParseProviderID(w, r, h.logger)
	if !ok {
		return
	}

	provider, err := h.providerService.Get(r.Context(), providerID)
	if err != nil {
		h.logger.Error("Failed to get provider",
			zap.String("provider_id", providerID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "get_provider_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: provider}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/providers/{pid}
func (h *ProviderHandler) Update(w http.ResponseWriter, r *http.Request) {
	providerID, ok := ParseProviderID(w, r, h.logger)
	if !ok {
		return
	}

	var input services.ProviderInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	provider, err := h.providerService.Update(r.Context(), providerID, input)
	if err != nil {
		h.logger.Error("Failed to update provider",
			zap.String("provider_id", providerID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "update_provider_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: provider}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/providers/{pid}
func (h *ProviderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	providerID, ok := ParseProviderID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.providerService.Delete(r.Context(), providerID); err != nil {
		h.logger.Error("Failed to delete provider",
			zap.String("provider_id", providerID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "delete_provider_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]string{"status": "deleted"}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Archive handles POST /api/providers/{pid}/archive
func (h *ProviderHandler) Archive(w http.ResponseWriter, r *http.Request) {
	providerID, ok := ParseProviderID(w, r, h.logger)
	if !ok {
		return
	}

	provider, err := h.providerService.Archive(r.Context(), providerID)
	if err != nil {
		h.logger.Error("Failed to archive provider",
			zap.String("provider_id", providerID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "archive_provider_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: provider}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Unarchive handles POST /api/providers/{pid}/unarchive
func (h *ProviderHandler) Unarchive(w http.ResponseWriter, r *http.Request) {
	providerID, ok := ParseProviderID(w, r, h.logger)
	if !ok {
		return
	}

	provider, err := h.providerService.Unarchive(r.Context(), providerID)
	if err != nil {
		h.logger.Error("Failed to unarchive provider",
			zap.String("provider_id", providerID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "unarchive_provider_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: provider}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// AddAcademicYear handles PUT /api/providers/{pid}/academic-years/{yid}
func (h *ProviderHandler) AddAcademicYear(w http.ResponseWriter, r *http.Request) {
	providerID, ok := ParseProviderID(w, r, h.logger)
	if !ok {
		return
	}
	yearID, ok := ParseAcademicYearID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.providerService.AddAcademicYear(r.Context(), providerID, yearID); err != nil {
		h.logger.Error("Failed to add provider academic year",
			zap.String("provider_id", providerID.String()),
			zap.String("academic_year_id", yearID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "add_academic_year_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// RemoveAcademicYear handles DELETE /api/providers/{pid}/academic-years/{yid}
func (h *ProviderHandler) RemoveAcademicYear(w http.ResponseWriter, r *http.Request) {
	providerID, ok := ParseProviderID(w, r, h.logger)
	if !ok {
		return
	}
	yearID, ok := ParseAcademicYearID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.providerService.RemoveAcademicYear(r.Context(), providerID, yearID); err != nil {
		h.logger.Error("Failed to remove provider academic year",
			zap.String("provider_id", providerID.String()),
			zap.String("academic_year_id", yearID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "remove_academic_year_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
