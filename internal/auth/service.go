package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is the issuer the customer service stamps on access tokens
const Issuer = "fjord-bank"

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidTokenType = errors.New("invalid token type")
)

// Config holds authentication configuration
type Config struct {
	JWTSecret         []byte        // Secret shared with the customer service
	AccessTokenExpiry time.Duration // Lifetime of tokens minted by IssueAccessToken
}

// DefaultConfig returns sensible defaults
func DefaultConfig(jwtSecret string) Config {
	return Config{
		JWTSecret:         []byte(jwtSecret),
		AccessTokenExpiry: 15 * time.Minute,
	}
}

// Claims represents the JWT payload
type Claims struct {
	jwt.RegisteredClaims
	CustomerID uuid.UUID `json:"customer_id"`
	Email      string    `json:"email"`
	TokenType  string    `json:"token_type"` // "access" or "refresh"
}

// Service validates bearer tokens issued by the customer service
type Service struct {
	config Config
}

// NewService creates a new auth service
func NewService(config Config) *Service {
	return &Service{config: config}
}

// ValidateAccessToken parses a token and checks that it is an access token
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != "access" {
		return nil, ErrInvalidTokenType
	}
	return claims, nil
}

// ValidateToken parses and validates a JWT token
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.config.JWTSecret, nil
	}, jwt.WithIssuer(Issuer))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// IssueAccessToken signs an access token for a customer.
// Used by operational tooling and tests; customers get their tokens from the
// customer service.
func (s *Service) IssueAccessToken(customerID uuid.UUID, email string) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   customerID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.AccessTokenExpiry)),
			Issuer:    Issuer,
		},
		CustomerID: customerID,
		Email:      email,
		TokenType:  "access",
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.config.JWTSecret)
}
