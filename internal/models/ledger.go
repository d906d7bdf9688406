package models

import (
	"time"
)

const (
	LedgerSourceCheckin = "checkin"
	LedgerSourceRun     = "run"
)

// LedgerEntry is an immutable economic fact
// Balance is always derived as sum of deltas, never stored
type LedgerEntry struct {
	ID             int64
	UserID         int64
	Delta          int64
	Source         string
	RefID          *int64  // what caused the award, e.g. activity id
	IdempotencyKey *string // caller supplied dedup key
	CreatedAt      time.Time
}
