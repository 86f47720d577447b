// Package auth inspects platform access tokens and persists token pairs per
// session.
//
// Tokens are decoded without signature verification: the backend verifies
// them on every call, and this package only needs the role and expiry to
// decide whether to let an operator into the admin tools.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminRole is the role claim required for every admin surface.
const AdminRole = "admin"

var (
	ErrNoToken        = errors.New("not logged in")
	ErrMalformedToken = errors.New("malformed access token")
	ErrNotAdmin       = errors.New("account is not an administrator")
	ErrTokenExpired   = errors.New("access token expired")
)

// Claims is the subset of the access token payload the admin tools read.
type Claims struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

type tokenClaims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

var parser = jwt.NewParser()

// ParseClaims decodes the payload of token without verifying its signature.
func ParseClaims(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	var tc tokenClaims
	if _, _, err := parser.ParseUnverified(token, &tc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	c := &Claims{
		UserID: tc.UserID,
		Email:  tc.Email,
		Role:   tc.Role,
	}
	if tc.ExpiresAt != nil {
		c.ExpiresAt = tc.ExpiresAt.Time
	}
	return c, nil
}

// Expired reports whether the token is past its exp claim. Tokens without
// exp never expire.
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(c.ExpiresAt)
}

func (c *Claims) IsAdmin() bool {
	return c.Role == AdminRole
}

// Subject names the operator in logs and the audit trail.
func (c *Claims) Subject() string {
	if c.Email != "" {
		return c.Email
	}
	if c.UserID != 0 {
		return fmt.Sprintf("user:%d", c.UserID)
	}
	return "unknown"
}

// CheckAdmin returns the claims of token if it belongs to an administrator
// and has not expired. When the role is wrong ErrNotAdmin wins over expiry.
func CheckAdmin(token string, now time.Time) (*Claims, error) {
	c, err := ParseClaims(token)
	if err != nil {
		return nil, err
	}
	if !c.IsAdmin() {
		return c, ErrNotAdmin
	}
	if c.Expired(now) {
		return c, ErrTokenExpired
	}
	return c, nil
}
