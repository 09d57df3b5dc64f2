package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/trainhub/register-engine/pkg/middleware"
	"github.com/trainhub/register-engine/pkg/models"
	"github.com/trainhub/register-engine/pkg/services"
)

// IssueTokenRequest for POST /api/tokens
type IssueTokenRequest struct {
	Description string     `json:"description"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// IssueTokenResponse carries the one-time plaintext. It is shown exactly once;
// only the hash is stored.
type IssueTokenResponse struct {
	Token     *models.APIClientToken `json:"token"`
	Plaintext string                 `json:"plaintext"`
}

// TokenListResponse for GET /api/tokens
type TokenListResponse struct {
	Tokens []*models.APIClientToken `json:"tokens"`
	Total  int                      `json:"total"`
}

// APITokenHandler handles API client token HTTP requests.
type APITokenHandler struct {
	tokenService services.APITokenService
	logger       *zap.Logger
}

// NewAPITokenHandler creates a new API token handler.
func NewAPITokenHandler(tokenService services.APITokenService, logger *zap.Logger) *APITokenHandler {
	return &APITokenHandler{
		tokenService: tokenService,
		logger:       logger,
	}
}

// RegisterRoutes registers the API token handler's routes on the given mux.
func (h *APITokenHandler) RegisterRoutes(mux *http.ServeMux, auth *middleware.Auth) {
	mux.HandleFunc("GET /api/tokens", auth.RequireUser(h.List))
	mux.HandleFunc("POST /api/tokens", auth.RequireUser(h.Issue))
	mux.HandleFunc("DELETE /api/tokens/{tid}", auth.RequireUser(h.Revoke))
}

// List handles GET /api/tokens
func (h *APITokenHandler) List(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.tokenService.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list API tokens", zap.Error(err))
		WriteServiceError(w, h.logger, err, "list_tokens_failed")
		return
	}

	response := TokenListResponse{
		Tokens: tokens,
		Total:  len(tokens),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Issue handles POST /api/tokens
func (h *APITokenHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req IssueTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	issued, err := h.tokenService.Issue(r.Context(), req.Description, req.ExpiresAt)
	if err != nil {
		h.logger.Error("Failed to issue API token",
			zap.String("description", req.Description),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "issue_token_failed")
		return
	}

	response := IssueTokenResponse{
		Token:     issued.Token,
		Plaintext: issued.Plaintext,
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Revoke handles DELETE /api/tokens/{tid}
func (h *APITokenHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := ParseTokenID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.tokenService.Revoke(r.Context(), tokenID); err != nil {
		h.logger.Error("Failed to revoke API token",
			zap.String("token_id", tokenID.String()),
			zap.Error(err))
		WriteServiceError(w, h.logger, err, "revoke_token_failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]string{"status": "revoked"}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
