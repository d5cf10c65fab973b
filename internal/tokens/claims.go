package tokens

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is what the client can learn from an access token without the
// signing key.
type Claims struct {
	UserID    string
	ExpiresAt time.Time
	TokenType string
}

type simpleJWTClaims struct {
	UserID    any    `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Inspect decodes the access token payload without verifying its signature.
// The result is informational only; the backend remains the authority on
// whether a token is still accepted.
func Inspect(access string) (*Claims, error) {
	var c simpleJWTClaims
	if _, _, err := jwt.NewParser().ParseUnverified(access, &c); err != nil {
		return nil, fmt.Errorf("token parse error: %w", err)
	}

	out := &Claims{TokenType: c.TokenType}
	if c.UserID != nil {
		out.UserID = fmt.Sprint(c.UserID)
	} else {
		out.UserID = c.Subject
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out, nil
}

// Expired reports whether the token's exp claim is in the past relative to now.
// A token without exp never expires.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}
