package models

import (
	"time"
)

// RefreshToken as stored: only the sha256 hash of the secret, never the plaintext
type RefreshToken struct {
	ID               int64
	UserID           int64
	TokenHash        string
	CreatedAt        time.Time
	ExpiresAt        time.Time
	RevokedAt        *time.Time // nil if token still active
	CreatedIP        *string
	CreatedUserAgent *string
}

// Usable reports whether the token may still be rotated
func (t *RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && t.ExpiresAt.After(now)
}
