// Package security provides JWT token utilities
package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// TokenClaims is the payload carried by both access and refresh tokens.
type TokenClaims struct {
	UserID string
	Email  string
	Role   string
}

// SignToken creates a signed HS256 token for the given claims and lifetime.
func SignToken(claims TokenClaims, secret string, expiration time.Duration) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": claims.UserID,
		"email":  claims.Email,
		"role":   claims.Role,
		"iat":    now.Unix(),
		"exp":    now.Add(expiration).Unix(),
	})

	return token.SignedString([]byte(secret))
}

// VerifyToken validates a signed token and extracts its claims.
func VerifyToken(tokenString, secret string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	userID, _ := claims["userId"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	if userID == "" {
		return nil, errors.New("token missing subject")
	}

	return &TokenClaims{UserID: userID, Email: email, Role: role}, nil
}
