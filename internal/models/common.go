package models

import "time"

//nolint:gosec //file not handles sensitive data
const (
	MwAPIKeyHeader     = "X-API-Key"
	MwAuthHeader       = "Authorization"
	MwBearerScheme     = "Bearer"
	MwClientIDKey      = "client_id"
	RoleGuardian       = "guardian"
	RefreshTokenType   = "refresh"
	AccessTokenType    = "access"
	DefaultAccountRole = RoleGuardian
)

// ClientMetadata is stored next to a refresh token for audit only.
type ClientMetadata struct {
	UserAgent string `json:"user_agent"`
	IPAddress string `json:"ip_address"`
}

// TokenPair is what login and refresh hand back to the transport layer.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	RefreshExp   time.Time `json:"refresh_expires_at"`
}
