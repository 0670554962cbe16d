// Package middleware - JWT token validator для Auth middleware.
package middleware

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Ошибки валидации токена.
var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrMissingClaims = errors.New("token is missing required claims")
)

// JWTClaims - claims, которые сервис ожидает в админском токене.
type JWTClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// NewJWTTokenValidator создаёт TokenValidator на основе HMAC-подписанных
// JWT (HS256). Subject токена трактуется как user ID.
func NewJWTTokenValidator(secret string) func(token string) (*AuthClaims, error) {
	key := []byte(secret)

	return func(tokenString string) (*AuthClaims, error) {
		token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("%w: unexpected signing method %v", ErrInvalidToken, t.Header["alg"])
			}
			return key, nil
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}

		claims, ok := token.Claims.(*JWTClaims)
		if !ok || !token.Valid {
			return nil, ErrInvalidToken
		}
		if claims.Subject == "" {
			return nil, ErrMissingClaims
		}

		exp := time.Now().Add(time.Hour)
		if claims.ExpiresAt != nil {
			exp = claims.ExpiresAt.Time
		}

		return &AuthClaims{
			UserID: claims.Subject,
			Role:   claims.Role,
			Exp:    exp,
		}, nil
	}
}

// IssueJWT подписывает токен с заданным subject и ролью.
// Используется утилитами и тестами; сервис сам токены не раздаёт.
func IssueJWT(secret, subject, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
