// Package security provides JWT and credential utilities for the operator
// endpoints.
package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// GenerateOperatorToken creates a signed token for the ops dashboard.
func GenerateOperatorToken(jwtSecret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"role": "operator",
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// ValidateJWT validates a JWT token and returns the claims
func ValidateJWT(tokenString, jwtSecret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
