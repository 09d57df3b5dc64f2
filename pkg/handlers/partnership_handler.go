package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trainhub/register-engine/pkg/middleware"
	"github.com/trainhub/register-engine/pkg/models"
	"github.com/trainhub/register-engine/pkg/services"
)

// CreatePartnershipRequest for POST /api/partnerships
type CreatePartnershipRequest struct {
	TrainingProviderID   uuid.UUID `json:"training_provider_id"`
	AccreditedProviderID uuid.UUID `json:"accredited_provider_id"`
}

// PartnershipListResponse for GET /api/providers/{pid}/partnerships
type PartnershipListResponse struct {
	Partnerships []*models.ProviderPartnership `json:"partnerships"`
	Total        int                           `json:"total"`
}

// PartnershipHandler handles partnership HTTP requests, including the
// academic-year and accreditation links hanging off each partnership.
type PartnershipHandler struct {
	partnershipService services.PartnershipService
	logger             *zap.Logger
}

// NewPartnershipHandler creates a new partnership handler.
func NewPartnershipHandler(partnershipService services.PartnershipService, logger *zap.Logger) *PartnershipHandler {
	return &PartnershipHandler{
		partnershipService: partnershipService,
		logger:             logger,
	}
}

// RegisterRoutes registers the partnership handler's routes on the given mux.
func (h *PartnershipHandler) RegisterRoutes(mux *http.ServeMux, auth *middleware.Auth) {
	mux.HandleFunc("POST /api/partnerships", auth.RequireUser(h.Create))
	mux.HandleFunc("GET /api/partnerships/{paid}", auth.RequireUserOrClient(h.Get))
	mux.HandleFunc("DELETE /api/partnerships/{paid}", auth.RequireUser(h.Delete))
	mux.HandleFunc("GET /api/providers/{pid}/partnerships", auth.RequireUserOrClient(h.ListByProvider))
	mux.HandleFunc("PUT /api/partnerships/{paid}/academic-years/{yid}", auth.RequireUser(h.AddAcademicYear))
	mux.HandleFunc("DELETE /api/partnerships/{paid}/academic-years/{yid}", auth.RequireUser(h.RemoveAcademicYear))
	mux.HandleFunc("PUT /api/partnerships/{paid}/accreditations/{aid}", auth.RequireUser(h.AddAccreditation))
	mux.HandleFunc("DELETE /api/partnerships/{paid}/accreditations/{aid}", auth.RequireUser(h.RemoveAccreditation))
}

// Create handles POST /api/partnerships
func (h *PartnershipHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePartnershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	partnership, err := h.partnershipService.Create(r.Context(), req.TrainingProviderID, req.AccreditedProviderID)
	if err != nil {
		h.logger.Error("Failed to create partnership",
			zap.String("training_provider_id", req.TrainingProviderID.String()),
			zap.String("accredited_provider_id", req.AccreditedProviderID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "create_partnership_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: partnership}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/partnerships/{paid}
func (h *PartnershipHandler) Get(w http.ResponseWriter, r *http.Request) {
	partnershipID, ok := ParsePartnershipID(w, r, h.logger)
	if !ok {
		return
	}

	partnership, err := h.partnershipService.Get(r.Context(), partnershipID)
	if err != nil {
		h.logger.Error("Failed to get partnership",
			zap.String("partnership_id", partnershipID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "get_partnership_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: partnership}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/partnerships/{paid}
func (h *PartnershipHandler) Delete(w http.ResponseWriter, r *http.Request) {
	partnershipID, ok := ParsePartnershipID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.partnershipService.Delete(r.Context(), partnershipID); err != nil {
		h.logger.Error("Failed to delete partnership",
			zap.String("partnership_id", partnershipID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "delete_partnership_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]string{"status": "deleted"}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListByProvider handles GET /api/providers/{pid}/partnerships
func (h *PartnershipHandler) ListByProvider(w http.ResponseWriter, r *http.Request) {
	providerID, ok := ParseProviderID(w, r, h.logger)
	if !ok {
		return
	}

	partnerships, err := h.partnershipService.ListByProvider(r.Context(), providerID)
	if err != nil {
		h.logger.Error("Failed to list partnerships",
			zap.String("provider_id", providerID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "list_partnerships_failed")
		return
	}

	response := PartnershipListResponse{
		Partnerships: partnerships,
		Total:        len(partnerships),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// AddAcademicYear handles PUT /api/partnerships/{paid}/academic-years/{yid}
func (h *PartnershipHandler) AddAcademicYear(w http.ResponseWriter, r *http.Request) {
	partnershipID, ok := ParsePartnershipID(w, r, h.logger)
	if !ok {
		return
	}
	yearID, ok := ParseAcademicYearID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.partnershipService.AddAcademicYear(r.Context(), partnershipID, yearID); err != nil {
		h.logger.Error("Failed to add partnership academic year",
			zap.String("partnership_id", partnershipID.String()),
			zap.String("academic_year_id", yearID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "add_partnership_year_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// RemoveAcademicYear handles DELETE /api/partnerships/{paid}/academic-years/{yid}
func (h *PartnershipHandler) RemoveAcademicYear(w http.ResponseWriter, r *http.Request) {
	partnershipID, ok := ParsePartnershipID(w, r, h.logger)
	if !ok {
		return
	}
	yearID, ok := ParseAcademicYearID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.partnershipService.RemoveAcademicYear(r.Context(), partnershipID, yearID); err != nil {
		h.logger.Error("Failed to remove partnership academic year",
			zap.String("partnership_id", partnershipID.String()),
			zap.String("academic_year_id", yearID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "remove_partnership_year_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// AddAccreditation handles PUT /api/partnerships/{paid}/accreditations/{aid}
func (h *PartnershipHandler) AddAccreditation(w http.ResponseWriter, r *http.Request) {
	partnershipID, ok := ParsePartnershipID(w, r, h.logger)
	if !ok {
		return
	}
	accreditationID, ok := ParseAccreditationID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.partnershipService.AddAccreditation(r.Context(), partnershipID, accreditationID); err != nil {
		h.logger.Error("Failed to add partnership accreditation",
			zap.String("partnership_id", partnershipID.String()),
			zap.String("accreditation_id", accreditationID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "add_partnership_accreditation_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// RemoveAccreditation handles DELETE /api/partnerships/{paid}/accreditations/{aid}
func (h *PartnershipHandler) RemoveAccreditation(w http.ResponseWriter, r *http.Request) {
	partnershipID, ok := ParsePartnershipID(w, r, h.logger)
	if !ok {
		return
	}
	accreditationID, ok := ParseAccreditationID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.partnershipService.RemoveAccreditation(r.Context(), partnershipID, accreditationID); err != nil {
		h.logger.Error("Failed to remove partnership accreditation",
			zap.String("partnership_id", partnershipID.String()),
			zap.String("accreditation_id", accreditationID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "remove_partnership_accreditation_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
