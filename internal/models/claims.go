package models

import "time"

// AccessClaims is the decoded payload of a verified access token.
type AccessClaims struct {
	Subject   string
	Role      string
	Email     string
	Issuer    string
	ExpiresAt time.Time
}

// RefreshClaims is the decoded payload of a verified refresh token.
type RefreshClaims struct {
	Subject   string
	Type      string
	Issuer    string
	ID        string
	ExpiresAt time.Time
}

// Identity is what the authorization gate attaches to a request.
type Identity struct {
	ID    string `json:"id"`
	Role  string `json:"role"`
	Email string `json:"email"`
}
