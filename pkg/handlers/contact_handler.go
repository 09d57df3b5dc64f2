package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/trainhub/register-engine/pkg/middleware"
	"github.com/trainhub/register-engine/pkg/models"
	"github.com/trainhub/register-engine/pkg/services"
)

// ContactListResponse for GET /api/providers/{pid}/contacts
type ContactListResponse struct {
	Contacts []*models.ProviderContact `json:"contacts"`
	Total    int                       `json:"total"`
}

// ContactHandler handles provider contact HTTP requests.
type ContactHandler struct {
	contactService services.ContactService
	logger         *zap.Logger
}

// NewContactHandler creates a new contact handler.
func NewContactHandler(contactService services.ContactService, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
		logger:         logger,
	}
}

// RegisterRoutes registers the contact handler's routes on the given mux.
func (h *ContactHandler) RegisterRoutes(mux *http.ServeMux, auth *middleware.Auth) {
	mux.HandleFunc("GET /api/providers/{pid}/contacts", auth.RequireUserOrClient(h.List))
	mux.HandleFunc("POST /api/providers/{pid}/contacts", auth.RequireUser(h.Create))
	mux.HandleFunc("PUT /api/contacts/{cid}", auth.RequireUser(h.Update))
	mux.HandleFunc("DELETE /api/contacts/{cid}", auth.RequireUser(h.Delete))
}

// List handles GET /api/providers/{pid}/contacts
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	providerID, ok := ParseProviderID(w, r, h.logger)
	if !ok {
		return
	}

	contacts, err := h.contactService.ListByProvider(r.Context(), providerID)
	if err != nil {
		h.logger.Error("Failed to list contacts",
			zap.String("provider_id", providerID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "list_contacts_failed")
		return
	}

	response := ContactListResponse{
		Contacts: contacts,
		Total:    len(contacts),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/providers/{pid}/contacts
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	providerID, ok := ParseProviderID(w, r, h.logger)
	if !ok {
		return
	}

	var input services.ContactInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	contact, err := h.contactService.Create(r.Context(), providerID, input)
	if err != nil {
		h.logger.Error("Failed to create contact",
			zap.String("provider_id", providerID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "create_contact_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: contact}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/contacts/{cid}
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	contactID, ok := ParseContactID(w, r, h.logger)
	if !ok {
		return
	}

	var input services.ContactInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	contact, err := h.contactService.Update(r.Context(), contactID, input)
	if err != nil {
		h.logger.Error("Failed to update contact",
			zap.String("contact_id", contactID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "update_contact_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: contact}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/contacts/{cid}
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	contactID, ok := ParseContactID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.contactService.Delete(r.Context(), contactID); err != nil {
		h.logger.Error("Failed to delete contact",
			zap.String("contact_id", contactID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "delete_contact_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]string{"status": "deleted"}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
