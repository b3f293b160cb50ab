package auth

import "github.com/golang-jwt/jwt/v5"

// SessionPayload captures the data available when minting an admin session token.
type SessionPayload struct {
	Email     string
	Name      string
	SessionID string
}

// SessionClaims is the typed JWT carried in the session cookie or bearer header.
// RegisteredClaims.ID holds the session id checked against Redis.
type SessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}
