package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wareflow/wareflow-backend/pkg/auth"
	"github.com/wareflow/wareflow-backend/pkg/config"
	"github.com/wareflow/wareflow-backend/pkg/errors"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims auth.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func testClaims(expiresIn time.Duration) auth.Claims {
	return auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "wareflow",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: "user-1",
		Email:  "user@example.com",
		Role:   "manager",
	}
}

func TestValidateToken(t *testing.T) {
	verifier := auth.NewVerifier(&config.JWTConfig{Secret: testSecret, Issuer: "wareflow"})

	tokenString := signToken(t, testSecret, testClaims(time.Hour))

	claims, err := verifier.ValidateToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "manager", claims.Role)
}

func TestValidateToken_Expired(t *testing.T) {
	verifier := auth.NewVerifier(&config.JWTConfig{Secret: testSecret, Issuer: "wareflow"})

	tokenString := signToken(t, testSecret, testClaims(-time.Hour))

	_, err := verifier.ValidateToken(tokenString)
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "TOKEN_EXPIRED", appErr.Code)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	verifier := auth.NewVerifier(&config.JWTConfig{Secret: testSecret, Issuer: "wareflow"})

	tokenString := signToken(t, "other-secret", testClaims(time.Hour))

	_, err := verifier.ValidateToken(tokenString)
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "TOKEN_INVALID", appErr.Code)
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	verifier := auth.NewVerifier(&config.JWTConfig{Secret: testSecret, Issuer: "wareflow"})

	claims := testClaims(time.Hour)
	claims.Issuer = "someone-else"
	tokenString := signToken(t, testSecret, claims)

	_, err := verifier.ValidateToken(tokenString)
	require.Error(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	verifier := auth.NewVerifier(&config.JWTConfig{Secret: testSecret})

	_, err := verifier.ValidateToken("not-a-token")
	require.Error(t, err)
}
