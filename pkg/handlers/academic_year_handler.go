package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/trainhub/register-engine/pkg/middleware"
	"github.com/trainhub/register-engine/pkg/models"
	"github.com/trainhub/register-engine/pkg/services"
)

// AcademicYearListResponse for GET /api/academic-years
type AcademicYearListResponse struct {
	AcademicYears []*models.AcademicYear `json:"academic_years"`
	Total         int                    `json:"total"`
}

// AcademicYearHandler handles academic year HTTP requests.
type AcademicYearHandler struct {
	yearService services.AcademicYearService
	logger      *zap.Logger
}

// NewAcademicYearHandler creates a new academic year handler.
func NewAcademicYearHandler(yearService services.AcademicYearService, logger *zap.Logger) *AcademicYearHandler {
	return &AcademicYearHandler{
		yearService: yearService,
		logger:      logger,
	}
}

// RegisterRoutes registers the academic year handler's routes on the given mux.
func (h *AcademicYearHandler) RegisterRoutes(mux *http.ServeMux, auth *middleware.Auth) {
	mux.HandleFunc("GET /api/academic-years", auth.RequireUserOrClient(h.List))
	mux.HandleFunc("POST /api/academic-years", auth.RequireUser(h.Create))
	mux.HandleFunc("GET /api/academic-years/{yid}", auth.RequireUserOrClient(h.Get))
	mux.HandleFunc("PUT /api/academic-years/{yid}", auth.RequireUser(h.Update))
}

// List handles GET /api/academic-years
func (h *AcademicYearHandler) List(w http.ResponseWriter, r *http.Request) {
	years, err := h.yearService.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list academic years", zap.Error(err))
		WriteServiceError(w, h.logger, err, "list_academic_years_failed")
		return
	}

	response := AcademicYearListResponse{
		AcademicYears: years,
		Total:         len(years),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/academic-years
func (h *AcademicYearHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.AcademicYearInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	year, err := h.yearService.Create(r.Context(), input)
	if err != nil {
		h.logger.Error("Failed to create academic year",
			zap.String("name", input.Name),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "create_academic_year_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: year}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/academic-years/{yid}
func (h *AcademicYearHandler) Get(w http.ResponseWriter, r *http.Request) {
	yearID, ok := ParseAcademicYearID(w, r, h.logger)
	if !ok {
		return
	}

	year, err := h.yearService.Get(r.Context(), yearID)
	if err != nil {
		h.logger.Error("Failed to get academic year",
			zap.String("academic_year_id", yearID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "get_academic_year_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: year}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/academic-years/{yid}
func (h *AcademicYearHandler) Update(w http.ResponseWriter, r *http.Request) {
	yearID, ok := ParseAcademicYearID(w, r, h.logger)
	if !ok {
		return
	}

	var input services.AcademicYearInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	year, err := h.yearService.Update(r.Context(), yearID, input)
	if err != nil {
		h.logger.Error("Failed to update academic year",
			zap.String("academic_year_id", yearID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "update_academic_year_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: year}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
