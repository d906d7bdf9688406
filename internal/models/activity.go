package models

import (
	"time"
)

const (
	ActivityKindCheckin = "checkin"
	ActivityKindRun     = "run"
)

const (
	ActivityStatusVerified = "verified"
	ActivityStatusAwarded  = "awarded"
	ActivityStatusRejected = "rejected"
)

type Activity struct {
	ID        int64
	UserID    int64
	Kind      string
	Status    string
	StartedAt *time.Time
	EndedAt   *time.Time
	CreatedAt time.Time
}
