package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims is the bearer token payload. The subject is the caller identity.
type JWTClaims struct {
	Identity string `json:"identity"`
	jwt.RegisteredClaims
}

// IssueTokenRequest asks for a development bearer token.
type IssueTokenRequest struct {
	Identity string        `json:"identity" validate:"required"`
	TTL      time.Duration `json:"ttl"`
}

// IssuedToken is a signed bearer token with its expiry.
type IssuedToken struct {
	Token     string    `json:"token"`
	Identity  string    `json:"identity"`
	ExpiresAt time.Time `json:"expiresAt"`
}
