package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/guardpost/fieldsync/internal/errs"
	"github.com/guardpost/fieldsync/internal/models"
)

// Claims carries the user identity inside access and refresh tokens.
type Claims struct {
	UserID      uint   `json:"user_id"`
	PhoneNumber string `json:"phone_number"`
	Refresh     bool   `json:"refresh,omitempty"`
	jwt.RegisteredClaims
}

// JWTManager issues and validates HS256 signed tokens.
type JWTManager struct {
	secretKey  []byte
	tokenTTL   time.Duration
	refreshTTL time.Duration
}

// NewJWTManager creates a JWT manager.
func NewJWTManager(secret string, tokenTTL, refreshTTL time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:  []byte(secret),
		tokenTTL:   tokenTTL,
		refreshTTL: refreshTTL,
	}
}

// GenerateToken issues a short-lived access token for a user.
func (m *JWTManager) GenerateToken(user *models.User) (string, error) {
	return m.sign(user, m.tokenTTL, false)
}

// GenerateRefreshToken issues a refresh token with longer expiration.
func (m *JWTManager) GenerateRefreshToken(user *models.User) (string, error) {
	return m.sign(user, m.refreshTTL, true)
}

func (m *JWTManager) sign(user *models.User, ttl time.Duration, refresh bool) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:      user.ID,
		PhoneNumber: user.PhoneNumber,
		Refresh:     refresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "fieldsync-api",
			Subject:   models.FormatEntityID(user.ID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a token and returns its claims.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	})
	if err != nil {
		return nil, errs.Unauthorized("invalid or expired token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errs.Unauthorized("invalid token")
	}
	return claims, nil
}

// ExtractToken pulls the token out of an Authorization header.
// Expected format: "Bearer <token>".
func ExtractToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("authorization header is empty")
	}
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return "", errors.New("invalid authorization header format")
	}
	return authHeader[7:], nil
}
