// Package auth issues and verifies bearer tokens and guards gin routes with them.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gravadigital/residencia-api/internal/domain/user"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims carries the caller identity inside a token
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// Caller converts the claims into the identity used by policies
func (c *Claims) Caller() (user.Caller, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return user.Caller{}, fmt.Errorf("%w: bad user id", ErrInvalidToken)
	}
	role := user.Role(c.Role)
	if !role.Valid() {
		return user.Caller{}, fmt.Errorf("%w: bad role", ErrInvalidToken)
	}
	return user.Caller{UserID: id, Role: role}, nil
}

// GenerateToken signs an HS256 token for the user valid for ttl
func GenerateToken(userID uuid.UUID, role user.Role, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID.String(),
		Role:   string(role),
	})

	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// ParseToken verifies signature and expiry and returns the claims
func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
