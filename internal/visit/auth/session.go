// Package auth issues and validates JWT session tokens and exposes the
// resulting session as an explicit context value rather than an ambient
// global flag.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the authenticated caller's context, carried explicitly
// through the request instead of a stored global token.
type Session struct {
	UserID    string
	ExpiresAt time.Time
}

// ErrSessionExpired distinguishes an expired token from an invalid
// one, so callers can surface expiry as an event instead of a silent
// forced redirect.
var ErrSessionExpired = errors.New("session expired")

// GenerateToken signs a 24h HS256 session token for the given user.
func GenerateToken(userID string, secret string) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour * 24).Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken checks the token signature and returns the session it
// represents.
func ValidateToken(tokenString, secret string) (*Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	session := &Session{}
	if sub, err := claims.GetSubject(); err == nil {
		session.UserID = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		session.ExpiresAt = exp.Time
	}
	return session, nil
}
