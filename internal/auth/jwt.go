// Package auth issues and verifies session tokens and wraps the identity
// providers: local bcrypt credentials and Firebase federated sign-in.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
)

// ErrInvalidToken is returned for session tokens that fail verification.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims are the session token claims. The subject is the user id.
type Claims struct {
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"name,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	jwt.RegisteredClaims
}

// Identity converts the claims back into the identity they were issued for.
func (c *Claims) Identity() domain.Identity {
	return domain.Identity{
		UserID:      c.Subject,
		Email:       c.Email,
		DisplayName: c.DisplayName,
		PhoneNumber: c.PhoneNumber,
	}
}

// JWTManager signs and validates HS256 session tokens.
type JWTManager struct {
	secretKey     []byte
	tokenDuration time.Duration
	issuer        string
	now           func() time.Time
}

// NewJWTManager creates a manager with the given secret and token lifetime.
func NewJWTManager(secretKey string, tokenDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
		issuer:        "railway-commuter",
		now:           time.Now,
	}
}

// Generate signs a session token for id.
func (m *JWTManager) Generate(id domain.Identity) (string, error) {
	now := m.now()
	claims := &Claims{
		Email:       id.Email,
		DisplayName: id.DisplayName,
		PhoneNumber: id.PhoneNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("auth.JWTManager.Generate: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a session token.
func (m *JWTManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
