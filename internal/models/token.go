package models

import (
	"time"
)

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
	TTL       time.Duration
}

// Token pair issued by TokenManager on login or refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}

// Client metadata stored with refresh tokens for audit only
type ClientMeta struct {
	IP        string
	UserAgent string
}
