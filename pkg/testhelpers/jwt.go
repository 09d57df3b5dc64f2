package testhelpers

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TestTokenSecret signs test JWTs. Middleware under test must be constructed
// with the same secret.
const TestTokenSecret = "test-token-secret"

// GenerateTestJWT creates a signed HS256 token for the given user, valid for
// an hour. The subject claim carries the user id, matching what the auth
// middleware expects.
func GenerateTestJWT(userID uuid.UUID) string {
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(TestTokenSecret))
	if err != nil {
		panic(err)
	}
	return signed
}

// GenerateTestJWTWithBearer returns the token with "Bearer " prefix for the
// Authorization header.
func GenerateTestJWTWithBearer(userID uuid.UUID) string {
	return "Bearer " + GenerateTestJWT(userID)
}
