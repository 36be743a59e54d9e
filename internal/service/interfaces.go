package service

import (
	"context"
	"time"
)

// ReuseEvent describes a refresh token presented after it was rotated away.
type ReuseEvent struct {
	UserID    string    `json:"user_id"`
	FamilyID  string    `json:"family_id"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	At        time.Time `json:"at"`
}

type ReuseNotifier interface {
	NotifyTokenReuse(ctx context.Context, event ReuseEvent)
}
