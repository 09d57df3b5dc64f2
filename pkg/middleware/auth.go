package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trainhub/register-engine/pkg/models"
)

// ClientAuthenticator resolves a presented API client token. Implemented by
// the API token service.
type ClientAuthenticator interface {
	Authenticate(ctx context.Context, plaintext string) (*models.APIClientToken, error)
}

// Auth authenticates incoming requests. Back-office users present an HS256
// bearer JWT whose subject is their user id; machine clients present an API
// token in the X-Api-Token header.
type Auth struct {
	secret  []byte
	clients ClientAuthenticator
	logger  *zap.Logger
}

// NewAuth creates auth middleware. clients may be nil when API token access
// is disabled.
func NewAuth(secret string, clients ClientAuthenticator, logger *zap.Logger) *Auth {
	return &Auth{
		secret:  []byte(secret),
		clients: clients,
		logger:  logger.Named("auth"),
	}
}

// RequireUser rejects requests without a valid user JWT. On success the
// acting user's id is placed on the request context, so every write the
// handler triggers is attributed to them.
func (a *Auth) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := a.userFromRequest(r)
		if !ok {
			writeUnauthorized(w)
			return
		}
		next(w, r.WithContext(models.WithActor(r.Context(), userID)))
	}
}

// RequireUserOrClient accepts either a user JWT or an API client token.
// Client requests carry no actor, so their writes are recorded as
// system-initiated.
func (a *Auth) RequireUserOrClient(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if userID, ok := a.userFromRequest(r); ok {
			next(w, r.WithContext(models.WithActor(r.Context(), userID)))
			return
		}

		if token := r.Header.Get("X-Api-Token"); token != "" && a.clients != nil {
			if _, err := a.clients.Authenticate(r.Context(), token); err == nil {
				next(w, r)
				return
			}
			a.logger.Debug("Rejected API client token", zap.String("path", r.URL.Path))
		}

		writeUnauthorized(w)
	}
}

func (a *Auth) userFromRequest(r *http.Request) (uuid.UUID, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return uuid.Nil, false
	}
	raw := strings.TrimPrefix(header, "Bearer ")

	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		a.logger.Debug("Rejected bearer token", zap.Error(err))
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		a.logger.Debug("Bearer token subject is not a user id", zap.String("sub", claims.Subject))
		return uuid.Nil, false
	}
	return userID, true
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","message":"Authentication required"}`))
}
