package models

import "time"

// RefreshTokenRecord is one issued refresh credential. Only the hash of the
// token is persisted. Revoked moves false -> true and never back.
// ReplacedBy is set only when the record was rotated into a successor.
type RefreshTokenRecord struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	FamilyID   string     `json:"family_id"`
	TokenHash  string     `json:"-"`
	Revoked    bool       `json:"revoked"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	ReplacedBy string     `json:"replaced_by,omitempty"`
	UserAgent  string     `json:"user_agent"`
	IPAddress  string     `json:"ip_address"`
}

func (r *RefreshTokenRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

func (r *RefreshTokenRecord) Active(now time.Time) bool {
	return !r.Revoked && !r.Expired(now)
}

// Rotated reports whether the record was spent by a rotation, as opposed to
// logout, expiry or a family revocation.
func (r *RefreshTokenRecord) Rotated() bool {
	return r.Revoked && r.ReplacedBy != ""
}
