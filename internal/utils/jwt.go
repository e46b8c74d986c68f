package utils

import (
	"errors"
	"time"

	"loyalty/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "loyalty-admin"

// GenerateAdminToken signs an HS256 access token for an operator.
func GenerateAdminToken(secret, adminRef string, permissions []string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("JWT secret not configured")
	}
	now := time.Now()
	claims := models.AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   adminRef,
		},
		AdminRef:    adminRef,
		Role:        "admin",
		Permissions: permissions,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseAdminToken validates tokenStr and returns its claims.
func ParseAdminToken(secret, tokenStr string) (*models.AdminClaims, error) {
	if secret == "" {
		return nil, errors.New("JWT secret not configured")
	}

	token, err := jwt.ParseWithClaims(tokenStr, &models.AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*models.AdminClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.AdminRef == "" {
		return nil, errors.New("token carries no admin identity")
	}
	return claims, nil
}
