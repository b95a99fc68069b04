package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"duet-api/core/errors"
)

// TokenClaims is the payload carried by access tokens issued by the auth
// collaborator. This core only consumes tokens; it never issues them.
type TokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
	jwt.RegisteredClaims
}

// ValidateToken parses and verifies an HS256 access token and returns its
// claims.
func ValidateToken(tokenString string, secret string) (*TokenClaims, *errors.AppError) {
	claims := &TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if err == jwt.ErrTokenExpired {
			return nil, errors.NewAppError(errors.ErrTokenExpired, "Token expired", err)
		}
		return nil, errors.NewAppError(errors.ErrInvalidTokenFormat, "Invalid token", err)
	}
	if !token.Valid {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "Invalid token", nil)
	}

	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, errors.NewAppError(errors.ErrTokenExpired, "Token expired", nil)
	}

	return claims, nil
}
