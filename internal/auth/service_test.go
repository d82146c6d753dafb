package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-with-enough-length-for-hs256"

func TestService_IssueAndValidate(t *testing.T) {
	svc := NewService(DefaultConfig(testSecret))
	customerID := uuid.New()

	token, err := svc.IssueAccessToken(customerID, "kari@example.com")
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, customerID, claims.CustomerID)
	assert.Equal(t, "kari@example.com", claims.Email)
}

func TestService_RejectsWrongSecret(t *testing.T) {
	token, err := NewService(DefaultConfig("another-secret-entirely-different")).IssueAccessToken(uuid.New(), "")
	require.NoError(t, err)

	_, err = NewService(DefaultConfig(testSecret)).ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestService_RejectsExpired(t *testing.T) {
	cfg := DefaultConfig(testSecret)
	cfg.AccessTokenExpiry = -time.Minute
	svc := NewService(cfg)

	token, err := svc.IssueAccessToken(uuid.New(), "")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestService_RejectsRefreshToken(t *testing.T) {
	svc := NewService(DefaultConfig(testSecret))

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		CustomerID: uuid.New(),
		TokenType:  "refresh",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestService_RejectsGarbage(t *testing.T) {
	_, err := NewService(DefaultConfig(testSecret)).ValidateAccessToken("not-a-token")
	assert.Error(t, err)
}
