package jwt

import (
	"errors"
	"time"

	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/env"
	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 72 * time.Hour

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrMissingSecret = errors.New("JWT_SECRET is not configured")
)

// Claims is the token payload issued at login.
type Claims struct {
	UserID uint   `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func secret() ([]byte, error) {
	s := env.GetEnv("JWT_SECRET", "")
	if s == "" {
		return nil, ErrMissingSecret
	}
	return []byte(s), nil
}

// GenerateToken signs a token for the given user.
func GenerateToken(userID uint, role string) (string, error) {
	key, err := secret()
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(defaultTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// ParseToken validates a token string and returns its claims.
func ParseToken(tokenString string) (*Claims, error) {
	key, err := secret()
	if err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
