package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/trainhub/register-engine/pkg/middleware"
	"github.com/trainhub/register-engine/pkg/models"
	"github.com/trainhub/register-engine/pkg/services"
)

// AddressListResponse for GET /api/providers/{pid}/addresses
type AddressListResponse struct {
	Addresses []*models.ProviderAddress `json:"addresses"`
	Total     int                       `json:"total"`
}

// AddressHandler handles provider address HTTP requests.
type AddressHandler struct {
	addressService services.AddressService
	logger         *zap.Logger
}

// NewAddressHandler creates a new address handler.
func NewAddressHandler(addressService services.AddressService, logger *zap.Logger) *AddressHandler {
	return &AddressHandler{
		addressService: addressService,
		logger:         logger,
	}
}

// RegisterRoutes registers the address handler's routes on the given mux.
func (h *AddressHandler) RegisterRoutes(mux *http.ServeMux, auth *middleware.Auth) {
	mux.HandleFunc("GET /api/providers/{pid}/addresses", auth.RequireUserOrClient(h.List))
	mux.HandleFunc("POST /api/providers/{pid}/addresses", auth.RequireUser(h.Create))
	mux.HandleFunc("PUT /api/addresses/{adid}", auth.RequireUser(h.Update))
	mux.HandleFunc("DELETE /api/addresses/{adid}", auth.RequireUser(h.Delete))
}

// List handles GET /api/providers/{pid}/addresses
func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	providerID, ok := ParseProviderID(w, r, h.logger)
	if !ok {
		return
	}

	addresses, err := h.addressService.ListByProvider(r.Context(), providerID)
	if err != nil {
		h.logger.Error("Failed to list addresses",
			zap.String("provider_id", providerID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "list_addresses_failed")
		return
	}

	response := AddressListResponse{
		Addresses: addresses,
		Total:     len(addresses),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/providers/{pid}/addresses
func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	providerID, ok := ParseProviderID(w, r, h.logger)
	if !ok {
		return
	}

	var input services.AddressInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	address, err := h.addressService.Create(r.Context(), providerID, input)
	if err != nil {
		h.logger.Error("Failed to create address",
			zap.String("provider_id", providerID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "create_address_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: address}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/addresses/{adid}
func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request) {
	addressID, ok := ParseAddressID(w, r, h.logger)
	if !ok {
		return
	}

	var input services.AddressInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	address, err := h.addressService.Update(r.Context(), addressID, input)
	if err != nil {
		h.logger.Error("Failed to update address",
			zap.String("address_id", addressID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "update_address_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: address}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/addresses/{adid}
func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	addressID, ok := ParseAddressID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.addressService.Delete(r.Context(), addressID); err != nil {
		h.logger.Error("Failed to delete address",
			zap.String("address_id", addressID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "delete_address_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]string{"status": "deleted"}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
