package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"intel-server/internal/shared/config"
)

// Claims identify a service client: a chat bot, a sync cron, or an operator
// with a hand-issued token. There are no human accounts.
type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// GenerateServiceToken issues a signed token for a named service client using
// the configured secret and expiration.
func GenerateServiceToken(name string) (string, error) {
	cfg := config.GlobalConfig.Auth
	now := time.Now()

	claims := Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TokenExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   fmt.Sprintf("service_%s", name),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ValidateToken parses and verifies a service token.
func ValidateToken(tokenString string) (*Claims, error) {
	cfg := config.GlobalConfig.Auth

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
