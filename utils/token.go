package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session tokens let the mini-app front end call the API with a bearer
// header instead of resending initData on every request. The secret comes
// from the caller (config), never from ambient environment state.

// GenerateSessionToken issues a short-lived HS256 token bound to a Telegram
// user id.
func GenerateSessionToken(secret string, telegramID int64, username string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is not set")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"tid":      telegramID,
		"username": username,
		"exp":      now.Add(ttl).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateSessionToken checks signature and registered claims and returns
// the Telegram user id the token was issued for.
func ValidateSessionToken(secret, tokenString string) (int64, error) {
	if secret == "" {
		return 0, errors.New("jwt secret is not set")
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid claims")
	}
	raw, ok := claims["tid"]
	if !ok {
		return 0, errors.New("token has no user binding")
	}
	switch v := raw.(type) {
	case float64:
		return int64(v), nil
	case int64:
		return v, nil
	default:
		return 0, errors.New("token has no user binding")
	}
}
