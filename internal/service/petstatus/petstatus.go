package petstatus

import (
	"context"
	"time"

	"github.com/TingC12/Chicken-fitness-app/internal/models"
	"github.com/TingC12/Chicken-fitness-app/internal/repository"
)

const (
	// Days without activity before the chicken turns weak
	weakAfterDays = 4

	// Valid activities this week needed for strong
	strongWeeklyCount = 3
)

// Read-only aggregation over activity history, no write access
type PetStatusService struct {
	storage repository.Storage

	now func() time.Time
}

func NewService(storage repository.Storage) *PetStatusService {
	return &PetStatusService{
		storage: storage,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Status derives the chicken condition from activity history:
// no activity ever -> normal, stale for weakAfterDays days -> weak,
// otherwise strong iff the weekly count reached strongWeeklyCount
func (s *PetStatusService) Status(ctx context.Context, userID int64) (models.PetStatus, error) {
	now := s.now()

	last, err := s.storage.Activity().LastActivityAt(ctx, userID)
	if err != nil {
		return models.PetStatus{}, err
	}

	weekStart, weekEnd := weekRange(now)
	weekly, err := s.storage.Activity().CountInRange(ctx, userID, weekStart, weekEnd)
	if err != nil {
		return models.PetStatus{}, err
	}

	times, err := s.storage.Activity().ActivityTimes(ctx, userID)
	if err != nil {
		return models.PetStatus{}, err
	}

	status := statusFor(last, weekly, now)

	return models.PetStatus{
		Status:      status,
		WeeklyCount: weekly,
		Streak:      calcStreak(activityDays(times), now),
		Multiplier:  multiplier(status),
	}, nil
}

// weekRange is [Monday 00:00, next Monday 00:00) in UTC
func weekRange(now time.Time) (time.Time, time.Time) {
	today := dateOf(now)
	sinceMonday := (int(today.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	monday := today.AddDate(0, 0, -sinceMonday)
	return monday, monday.AddDate(0, 0, 7)
}

func statusFor(last *time.Time, weeklyCount int, now time.Time) string {
	if last == nil {
		return models.PetStatusNormal
	}

	daysSince := int(dateOf(now).Sub(dateOf(*last)).Hours() / 24)
	if daysSince >= weakAfterDays {
		return models.PetStatusWeak
	}

	if weeklyCount >= strongWeeklyCount {
		return models.PetStatusStrong
	}

	return models.PetStatusNormal
}

// calcStreak counts consecutive days with activity ending today
func calcStreak(days map[time.Time]bool, now time.Time) int {
	streak := 0
	for cur := dateOf(now); days[cur]; cur = cur.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}

// EXP multiplier applied by award flows depending on the chicken condition
func multiplier(status string) float64 {
	switch status {
	case models.PetStatusWeak:
		return 0.5
	case models.PetStatusStrong:
		return 1.5
	default:
		return 1.0
	}
}

func activityDays(times []time.Time) map[time.Time]bool {
	days := make(map[time.Time]bool, len(times))
	for _, t := range times {
		days[dateOf(t)] = true
	}
	return days
}

// dateOf truncates an instant to its UTC day
func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
