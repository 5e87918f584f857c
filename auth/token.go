package auth

import (
	"chat-sync/errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is what the client reads from the bearer token it was handed.
// The signature is never verified here: the client does not hold the key.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

func parse(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrTokenMalformed, err)
	}
	return claims, nil
}

// IsExpired reports whether the token's exp is before now.
// A token without exp is treated as expired.
func IsExpired(token string, now time.Time) (bool, error) {
	claims, err := parse(token)
	if err != nil {
		return true, err
	}
	if claims.ExpiresAt == nil {
		return true, nil
	}
	return claims.ExpiresAt.Before(now), nil
}

// Subject returns the user id carried by the token, user_id first then sub.
func Subject(token string) (string, error) {
	claims, err := parse(token)
	if err != nil {
		return "", err
	}
	if claims.UserID != "" {
		return claims.UserID, nil
	}
	return claims.Subject, nil
}
