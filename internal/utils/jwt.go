package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidSession = errors.New("invalid session token")

// SessionClaims identify a browser session. They carry no user data: the
// logged-in user lives in the session storage.
type SessionClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

func GenerateSessionJWT(secret []byte, sid string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		SID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseSessionJWT returns the session id of a valid, unexpired token.
func ParseSessionJWT(secret []byte, tokenString string) (string, error) {
	var claims SessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.SID == "" {
		return "", ErrInvalidSession
	}
	return claims.SID, nil
}
