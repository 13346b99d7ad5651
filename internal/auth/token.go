package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/simplecrypto/server/internal/models"
)

// Claims identifies the authenticated account behind a session token
type Claims struct {
	ID    uuid.UUID
	Email string
	Name  string
}

// TokenManager issues and verifies HMAC-signed session tokens
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a TokenManager. The secret must be non-empty.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}, nil
}

// Issue signs a session token for the account.
func (m *TokenManager) Issue(account *models.Account) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   account.ID.String(),
		"email": account.Email,
		"name":  account.Name,
		"iat":   now.Unix(),
		"exp":   now.Add(m.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and extracts its claims.
func (m *TokenManager) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("invalid subject claim: %w", err)
	}

	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)

	return &Claims{ID: id, Email: email, Name: name}, nil
}
