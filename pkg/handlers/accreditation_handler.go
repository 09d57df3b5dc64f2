package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/trainhub/register-engine/pkg/middleware"
	"github.com/trainhub/register-engine/pkg/models"
	"github.com/trainhub/register-engine/pkg/services"
)

// AccreditationListResponse for GET /api/providers/{pid}/accreditations
type AccreditationListResponse struct {
	Accreditations []*models.ProviderAccreditation `json:"accreditations"`
	Total          int                             `json:"total"`
}

// AccreditationHandler handles provider accreditation HTTP requests.
type AccreditationHandler struct {
	accreditationService services.AccreditationService
	logger               *zap.Logger
}

// NewAccreditationHandler creates a new accreditation handler.
func NewAccreditationHandler(accreditationService services.AccreditationService, logger *zap.Logger) *AccreditationHandler {
	return &AccreditationHandler{
		accreditationService: accreditationService,
		logger:               logger,
	}
}

// RegisterRoutes registers the accreditation handler's routes on the given mux.
func (h *AccreditationHandler) RegisterRoutes(mux *http.ServeMux, auth *middleware.Auth) {
	mux.HandleFunc("GET /api/providers/{pid}/accreditations", auth.RequireUserOrClient(h.List))
	mux.HandleFunc("POST /api/providers/{pid}/accreditations", auth.RequireUser(h.Create))
	mux.HandleFunc("GET /api/accreditations/{aid}", auth.RequireUserOrClient(h.Get))
	mux.HandleFunc("PUT /api/accreditations/{aid}", auth.RequireUser(h.Update))
	mux.HandleFunc("DELETE /api/accreditations/{aid}", auth.RequireUser(h.Delete))
}

// List handles GET /api/providers/{pid}/accreditations
func (h *AccreditationHandler) List(w http.ResponseWriter, r *http.Request) {
	providerID, ok := ParseProviderID(w, r, h.logger)
	if !ok {
		return
	}

	accreditations, err := h.accreditationService.ListByProvider(r.Context(), providerID)
	if err != nil {
		h.logger.Error("Failed to list accreditations",
			zap.String("provider_id", providerID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "list_accreditations_failed")
		return
	}

	response := AccreditationListResponse{
		Accreditations: accreditations,
		Total:          len(accreditations),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/providers/{pid}/accreditations
func (h *AccreditationHandler) Create(w http.ResponseWriter, r *http.Request) {
	providerID, ok := ParseProviderID(w, r, h.logger)
	if !ok {
		return
	}

	var input services.AccreditationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	accreditation, err := h.accreditationService.Create(r.Context(), providerID, input)
	if err != nil {
		h.logger.Error("Failed to create accreditation",
			zap.String("provider_id", providerID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "create_accreditation_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: accreditation}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/accreditations/{aid}
func (h *AccreditationHandler) Get(w http.ResponseWriter, r *http.Request) {
	accreditationID, ok := ParseAccreditationID(w, r, h.logger)
	if !ok {
		return
	}

	accreditation, err := h.accreditationService.Get(r.Context(), accreditationID)
	if err != nil {
		h.logger.Error("Failed to get accreditation",
			zap.String("accreditation_id", accreditationID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "get_accreditation_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: accreditation}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/accreditations/{aid}
func (h *AccreditationHandler) Update(w http.ResponseWriter, r *http.Request) {
	accreditationID, ok := ParseAccreditationID(w, r, h.logger)
	if !ok {
		return
	}

	var input services.AccreditationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	accreditation, err := h.accreditationService.Update(r.Context(), accreditationID, input)
	if err != nil {
		h.logger.Error("Failed to update accreditation",
			zap.String("accreditation_id", accreditationID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "update_accreditation_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: accreditation}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/accreditations/{aid}
func (h *AccreditationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	accreditationID, ok := ParseAccreditationID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.accreditationService.Delete(r.Context(), accreditationID); err != nil {
		h.logger.Error("Failed to delete accreditation",
			zap.String("accreditation_id", accreditationID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "delete_accreditation_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]string{"status": "deleted"}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
