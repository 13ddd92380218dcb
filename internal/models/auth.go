package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionRequest selects a known identity. There are no credentials: login
// is a choice among directory accounts, not authentication.
type SessionRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// SessionResponse returns the issued token and user info.
type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresIn int64     `json:"expires_in"`
	User      User      `json:"user"`
	IssuedAt  time.Time `json:"issued_at"`
}

// Identity is the subset of a staff account shown on the login screen.
type Identity struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Role      UserRole `json:"role"`
	AvatarURL string   `json:"avatar_url"`
}

// JWTClaims represents the JWT payload for session tokens.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Name   string   `json:"name"`
	jwt.RegisteredClaims
}

// Actor converts claims into the capability-bearing actor identity.
func (c *JWTClaims) Actor() *Actor {
	if c == nil {
		return nil
	}
	return &Actor{ID: c.UserID, Role: c.Role}
}
