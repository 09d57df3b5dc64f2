package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trainhub/register-engine/pkg/apperrors"
	"github.com/trainhub/register-engine/pkg/models"
	"github.com/trainhub/register-engine/pkg/testhelpers"
)

type stubClientAuthenticator struct {
	valid string
}

func (s *stubClientAuthenticator) Authenticate(_ context.Context, plaintext string) (*models.APIClientToken, error) {
	if plaintext == s.valid {
		return &models.APIClientToken{ID: uuid.New(), Description: "test client"}, nil
	}
	return nil, apperrors.ErrNotFound
}

// echoActor writes the actor id from the request context, or "none".
func echoActor(w http.ResponseWriter, r *http.Request) {
	if id, ok := models.ActorFrom(r.Context()); ok {
		_, _ = w.Write([]byte(id.String()))
		return
	}
	_, _ = w.Write([]byte("none"))
}

func TestRequireUser(t *testing.T) {
	auth := NewAuth(testhelpers.TestTokenSecret, nil, zap.NewNop())
	handler := auth.RequireUser(echoActor)

	t.Run("a valid token puts the actor on the context", func(t *testing.T) {
		userID := uuid.New()
		r := httptest.NewRequest(http.MethodGet, "/api/providers", nil)
		r.Header.Set("Authorization", testhelpers.GenerateTestJWTWithBearer(userID))
		w := httptest.NewRecorder()

		handler(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, userID.String(), w.Body.String())
	})

	t.Run("a missing header is unauthorized", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/providers", nil)
		w := httptest.NewRecorder()

		handler(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "unauthorized")
	})

	t.Run("a token signed with the wrong secret is rejected", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Subject:   uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/api/providers", nil)
		r.Header.Set("Authorization", "Bearer "+signed)
		w := httptest.NewRecorder()

		handler(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("an expired token is rejected", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Subject:   uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testhelpers.TestTokenSecret))
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/api/providers", nil)
		r.Header.Set("Authorization", "Bearer "+signed)
		w := httptest.NewRecorder()

		handler(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("a subject that is not a user id is rejected", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Subject:   "not-a-uuid",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testhelpers.TestTokenSecret))
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/api/providers", nil)
		r.Header.Set("Authorization", "Bearer "+signed)
		w := httptest.NewRecorder()

		handler(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("an api client token is not enough", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/providers", nil)
		r.Header.Set("X-Api-Token", "client-token")
		w := httptest.NewRecorder()

		handler(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireUserOrClient(t *testing.T) {
	clients := &stubClientAuthenticator{valid: "good-client-token"}
	auth := NewAuth(testhelpers.TestTokenSecret, clients, zap.NewNop())
	handler := auth.RequireUserOrClient(echoActor)

	t.Run("a user token carries its actor through", func(t *testing.T) {
		userID := uuid.New()
		r := httptest.NewRequest(http.MethodGet, "/api/providers", nil)
		r.Header.Set("Authorization", testhelpers.GenerateTestJWTWithBearer(userID))
		w := httptest.NewRecorder()

		handler(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, userID.String(), w.Body.String())
	})

	t.Run("a client token is accepted without an actor", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/providers", nil)
		r.Header.Set("X-Api-Token", "good-client-token")
		w := httptest.NewRecorder()

		handler(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "none", w.Body.String())
	})

	t.Run("a bad client token is unauthorized", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/providers", nil)
		r.Header.Set("X-Api-Token", "revoked-token")
		w := httptest.NewRecorder()

		handler(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("no credentials at all is unauthorized", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/providers", nil)
		w := httptest.NewRecorder()

		handler(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
