package auth

import (
	"fmt"
	"time"

	"github.com/Dan9191/weather-service/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the authenticated user id alongside the registered claims
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"id"`
}

// TokenManager issues and verifies signed bearer tokens.
// Tokens are self-contained: possession of a token with a valid signature
// and an unexpired timestamp is the whole proof of identity. There is no
// server-side session table and no revocation before expiry.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a token manager with the given signing secret and token lifetime
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Issue signs a new token for the given user id
func (m *TokenManager) Issue(userID int64) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verify parses and validates a token and returns the embedded user id.
// Malformed, mis-signed and expired tokens all fail with models.ErrInvalidToken.
func (m *TokenManager) Verify(tokenString string) (int64, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, models.ErrInvalidToken
	}

	return claims.UserID, nil
}
