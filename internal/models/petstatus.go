package models

const (
	PetStatusWeak   = "weak"
	PetStatusNormal = "normal"
	PetStatusStrong = "strong"
)

// Chicken condition derived from recent activity, read only
type PetStatus struct {
	Status      string
	WeeklyCount int
	Streak      int
	Multiplier  float64
}
