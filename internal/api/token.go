package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired reports a stored token whose exp claim is in the past.
var ErrTokenExpired = errors.New("token expired")

// Claims is the subset of the access token payload the console reads.
type Claims struct {
	UserType string `json:"user_type"`
	LeadID   int64  `json:"lead_id,omitempty"`
	EmpID    int64  `json:"emp_id,omitempty"`
	Email    string `json:"email,omitempty"`
	IsAdmin  bool   `json:"is_admin,omitempty"`
	jwt.RegisteredClaims
}

// ParseToken decodes an access token without verifying its signature; the
// server remains the only authority. Tokens without a user_type or with an
// exp before now are rejected.
func ParseToken(raw string, now time.Time) (*Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if claims.UserType == "" {
		return nil, errors.New("parse token: missing user_type")
	}
	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(now) {
		return nil, ErrTokenExpired
	}
	return &claims, nil
}
