// Package jwt mints the access token returned on successful login. It is the
// identity contract the rest of the marketplace consumes.
package jwt

import (
	"fmt"
	"time"

	"skillswap/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

func NewToken(user models.User, secret string, ttl time.Duration) (string, error) {
	const op = "jwt.NewToken"

	claims := jwt.MapClaims{
		"sub":            user.ID,
		"name":           user.Name,
		"email":          user.Email,
		"email_verified": user.EmailVerified,
		"iat":            time.Now().Unix(),
		"exp":            time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// ParseToken validates the signature and expiry and returns the user id.
func ParseToken(tokenStr, secret string) (int64, error) {
	const op = "jwt.ParseToken"

	claims := jwt.MapClaims{}

	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%s: unexpected signing method", op)
		}
		return []byte(secret), nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if !parsed.Valid {
		return 0, fmt.Errorf("%s: invalid token", op)
	}

	sub, ok := claims["sub"].(float64)
	if !ok {
		return 0, fmt.Errorf("%s: missing sub claim", op)
	}

	return int64(sub), nil
}
