package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParseProviderID extracts and validates the provider ID from the request path.
// Returns the parsed UUID and true on success, or uuid.Nil and false on error
// (after writing an error response).
// Expects path parameter: pid
func ParseProviderID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "pid", "invalid_provider_id", "Invalid provider ID format", logger)
}

// ParseAccreditationID extracts and validates the accreditation ID from the
// request path. Expects path parameter: aid
func ParseAccreditationID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "aid", "invalid_accreditation_id", "Invalid accreditation ID format", logger)
}

// ParseAddressID extracts and validates the address ID from the request path.
// Expects path parameter: adid
func ParseAddressID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "adid", "invalid_address_id", "Invalid address ID format", logger)
}

// ParseContactID extracts and validates the contact ID from the request path.
// Expects path parameter: cid
func ParseContactID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "cid", "invalid_contact_id", "Invalid contact ID format", logger)
}

// ParsePartnershipID extracts and validates the partnership ID from the
// request path. Expects path parameter: paid
func ParsePartnershipID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "paid", "invalid_partnership_id", "Invalid partnership ID format", logger)
}

// ParseAcademicYearID extracts and validates the academic year ID from the
// request path. Expects path parameter: yid
func ParseAcademicYearID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "yid", "invalid_academic_year_id", "Invalid academic year ID format", logger)
}

// ParseUserID extracts and validates the user ID from the request path.
// Expects path parameter: uid
func ParseUserID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "uid", "invalid_user_id", "Invalid user ID format", logger)
}

// ParseTokenID extracts and validates the API token ID from the request path.
// Expects path parameter: tid
func ParseTokenID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "tid", "invalid_token_id", "Invalid token ID format", logger)
}

// parseUUID is the internal helper that does the actual parsing work.
func parseUUID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (uuid.UUID, bool) {
	idStr := r.PathValue(pathParam)
	id, err := uuid.Parse(idStr)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, errorCode, errorMessage); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}

// ParsePagination reads limit and offset query parameters, falling back to
// defaults when absent or malformed.
func ParsePagination(r *http.Request) (limit, offset int) {
	limit = 50
	offset = 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
