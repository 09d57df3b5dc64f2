package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trainhub/register-engine/pkg/apperrors"
	"github.com/trainhub/register-engine/pkg/database"
	"github.com/trainhub/register-engine/pkg/middleware"
	"github.com/trainhub/register-engine/pkg/models"
	"github.com/trainhub/register-engine/pkg/services"
	"github.com/trainhub/register-engine/pkg/testhelpers"
)

// stubProviderService returns canned values so handler tests cover routing,
// auth wiring, decoding, and error mapping without a real service.
type stubProviderService struct {
	provider  *models.Provider
	providers []*models.Provider
	err       error

	lastInput services.ProviderInput
}

func (s *stubProviderService) Create(_ context.Context, input services.ProviderInput) (*models.Provider, error) {
	s.lastInput = input
	return s.provider, s.err
}

func (s *stubProviderService) Update(_ context.Context, _ uuid.UUID, input services.ProviderInput) (*models.Provider, error) {
	s.lastInput = input
	return s.provider, s.err
}

func (s *stubProviderService) Get(context.Context, uuid.UUID) (*models.Provider, error) {
	return s.provider, s.err
}

func (s *stubProviderService) List(context.Context, int, int) ([]*models.Provider, error) {
	return s.providers, s.err
}

func (s *stubProviderService) Archive(context.Context, uuid.UUID) (*models.Provider, error) {
	return s.provider, s.err
}

func (s *stubProviderService) Unarchive(context.Context, uuid.UUID) (*models.Provider, error) {
	return s.provider, s.err
}

func (s *stubProviderService) Delete(context.Context, uuid.UUID) error { return s.err }

func (s *stubProviderService) AddAcademicYear(context.Context, uuid.UUID, uuid.UUID) error {
	return s.err
}

func (s *stubProviderService) RemoveAcademicYear(context.Context, uuid.UUID, uuid.UUID) error {
	return s.err
}

func (s *stubProviderService) SetAccreditationFlag(context.Context, database.Querier, uuid.UUID, bool) (bool, error) {
	return false, s.err
}

func newProviderTestServer(svc services.ProviderService) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.NewAuth(testhelpers.TestTokenSecret, nil, zap.NewNop())
	NewProviderHandler(svc, zap.NewNop()).RegisterRoutes(mux, auth)
	return mux
}

func doAuthed(mux *http.ServeMux, method, path string, body []byte) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, path, bytes.NewReader(body))
	r.Header.Set("Authorization", testhelpers.GenerateTestJWTWithBearer(uuid.New()))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func TestProviderHandlerGet(t *testing.T) {
	p := &models.Provider{ID: uuid.New(), OperatingName: "Coastal University", Type: models.ProviderTypeHEI}

	t.Run("returns the provider in the response envelope", func(t *testing.T) {
		mux := newProviderTestServer(&stubProviderService{provider: p})
		w := doAuthed(mux, http.MethodGet, "/api/providers/"+p.ID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success bool             `json:"success"`
			Data    *models.Provider `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, p.ID, resp.Data.ID)
		assert.Equal(t, "Coastal University", resp.Data.OperatingName)
	})

	t.Run("rejects an unauthenticated request", func(t *testing.T) {
		mux := newProviderTestServer(&stubProviderService{provider: p})
		r := httptest.NewRequest(http.MethodGet, "/api/providers/"+p.ID.String(), nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects a malformed provider id", func(t *testing.T) {
		mux := newProviderTestServer(&stubProviderService{provider: p})
		w := doAuthed(mux, http.MethodGet, "/api/providers/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("maps not found to 404", func(t *testing.T) {
		mux := newProviderTestServer(&stubProviderService{err: apperrors.ErrNotFound})
		w := doAuthed(mux, http.MethodGet, "/api/providers/"+uuid.New().String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "not_found")
	})
}

func TestProviderHandlerCreate(t *testing.T) {
	t.Run("creates and returns 201", func(t *testing.T) {
		p := &models.Provider{ID: uuid.New(), OperatingName: "Coastal University", Type: models.ProviderTypeHEI}
		svc := &stubProviderService{provider: p}
		mux := newProviderTestServer(svc)

		body := []byte(`{"operating_name":"Coastal University","type":"hei"}`)
		w := doAuthed(mux, http.MethodPost, "/api/providers", body)
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "Coastal University", svc.lastInput.OperatingName)
		assert.Equal(t, models.ProviderTypeHEI, svc.lastInput.Type)
	})

	t.Run("rejects a body that is not JSON", func(t *testing.T) {
		mux := newProviderTestServer(&stubProviderService{})
		w := doAuthed(mux, http.MethodPost, "/api/providers", []byte("{not json"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid_request")
	})

	t.Run("maps validation failures to 400", func(t *testing.T) {
		svc := &stubProviderService{err: fmt.Errorf("%w: operating name is required", apperrors.ErrValidation)}
		mux := newProviderTestServer(svc)
		w := doAuthed(mux, http.MethodPost, "/api/providers", []byte(`{"type":"hei"}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "validation_error")
	})
}

func TestProviderHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"conflict", apperrors.ErrConflict, http.StatusConflict, "conflict"},
		{"archived provider", apperrors.ErrProviderArchived, http.StatusUnprocessableEntity, "invalid_operation"},
		{"invalid provider", apperrors.ErrInvalidProvider, http.StatusUnprocessableEntity, "invalid_operation"},
		{"unexpected failure", assert.AnError, http.StatusInternalServerError, "update_provider_failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mux := newProviderTestServer(&stubProviderService{err: tc.err})
			body := []byte(`{"operating_name":"Coastal","type":"hei"}`)
			w := doAuthed(mux, http.MethodPut, "/api/providers/"+uuid.New().String(), body)
			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tc.wantCode)
		})
	}
}

func TestProviderHandlerLifecycleRoutes(t *testing.T) {
	p := &models.Provider{ID: uuid.New(), OperatingName: "Coastal University", Type: models.ProviderTypeHEI}
	mux := newProviderTestServer(&stubProviderService{provider: p, providers: []*models.Provider{p}})

	t.Run("list wraps providers with a total", func(t *testing.T) {
		w := doAuthed(mux, http.MethodGet, "/api/providers?limit=10&offset=0", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data ProviderListResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Data.Total)
		require.Len(t, resp.Data.Providers, 1)
	})

	t.Run("archive and unarchive round-trip", func(t *testing.T) {
		w := doAuthed(mux, http.MethodPost, "/api/providers/"+p.ID.String()+"/archive", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		w = doAuthed(mux, http.MethodPost, "/api/providers/"+p.ID.String()+"/unarchive", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("delete reports its status", func(t *testing.T) {
		w := doAuthed(mux, http.MethodDelete, "/api/providers/"+p.ID.String(), nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"deleted"`)
	})

	t.Run("academic year onboarding routes", func(t *testing.T) {
		path := "/api/providers/" + p.ID.String() + "/academic-years/" + uuid.New().String()
		w := doAuthed(mux, http.MethodPut, path, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		w = doAuthed(mux, http.MethodDelete, path, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
