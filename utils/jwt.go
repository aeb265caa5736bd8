package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"flowcrm/config"

	"github.com/golang-jwt/jwt/v5"
)

// Token lifetimes.
const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims carries the identity and tenant of the caller. Everything
// downstream scopes by TenantID.
type Claims struct {
	UserID   uint `json:"user_id"`
	TenantID uint `json:"tenant_id"`
	jwt.RegisteredClaims
}

func signToken(userID, tenantID uint, ttl time.Duration, secret string) (string, error) {
	claims := &Claims{
		UserID:   userID,
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// GenerateTokenPair returns a short-lived access token and a long-lived
// refresh token, signed with separate secrets.
func GenerateTokenPair(userID, tenantID uint) (string, string, error) {
	access, err := signToken(userID, tenantID, AccessTokenTTL, config.AppConfig.JWTSecret)
	if err != nil {
		return "", "", err
	}
	refresh, err := signToken(userID, tenantID, RefreshTokenTTL, config.AppConfig.JWTRefreshSecret)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func parseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// ParseAccessToken validates an access token and returns its claims.
func ParseAccessToken(tokenString string) (*Claims, error) {
	return parseToken(tokenString, config.AppConfig.JWTSecret)
}

// ParseRefreshToken validates a refresh token and returns its claims.
func ParseRefreshToken(tokenString string) (*Claims, error) {
	return parseToken(tokenString, config.AppConfig.JWTRefreshSecret)
}

// GenerateRandomToken returns a hex token for invitations and password
// resets, plus its SHA-256 hash for at-rest storage.
func GenerateRandomToken() (token string, hashed string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(buf)
	return token, HashToken(token), nil
}

// HashToken hashes a plaintext token for comparison against stored hashes.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
