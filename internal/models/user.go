package models

import (
	"time"
)

const (
	UserStatusGuest = "guest"
	UserStatusUser  = "user"
)

const (
	AuthProviderGuest  = "guest"
	AuthProviderGoogle = "google"
)

type User struct {
	ID           int64
	CreatedAt    time.Time
	LastLoginAt  *time.Time
	Status       string
	AuthProvider *string
	GoogleSub    *string // nil until an external identity is bound
	Email        *string
	DeviceID     *string
}

func (u *User) IsGuest() bool {
	return u.Status == UserStatusGuest
}

// Verified claims returned by the external identity provider
type GoogleClaims struct {
	Subject       string
	Email         string
	EmailVerified bool
}
