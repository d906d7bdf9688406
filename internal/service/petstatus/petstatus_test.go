package petstatus

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TingC12/Chicken-fitness-app/internal/models"
	"github.com/TingC12/Chicken-fitness-app/internal/repository"
	"github.com/TingC12/Chicken-fitness-app/internal/repository/postgres"
	"github.com/TingC12/Chicken-fitness-app/internal/testutil"
)

func date(value string) time.Time {
	dt, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return dt
}

func Test_weekRange(t *testing.T) {
	tests := []struct {
		name  string
		now   string
		start string
		end   string
	}{
		{"monday", "2024-06-03T10:00:00Z", "2024-06-03T00:00:00Z", "2024-06-10T00:00:00Z"},
		{"midweek", "2024-06-05T23:59:59Z", "2024-06-03T00:00:00Z", "2024-06-10T00:00:00Z"},
		{"sunday", "2024-06-09T00:00:01Z", "2024-06-03T00:00:00Z", "2024-06-10T00:00:00Z"},
		{"next monday", "2024-06-10T00:00:00Z", "2024-06-10T00:00:00Z", "2024-06-17T00:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := weekRange(date(tt.now))

			assert.Equal(t, date(tt.start), start)
			assert.Equal(t, date(tt.end), end)
		})
	}
}

func Test_statusFor(t *testing.T) {
	now := date("2024-06-05T12:00:00Z")

	tests := []struct {
		name     string
		last     *time.Time
		weekly   int
		expected string
	}{
		{"no activity ever", nil, 0, models.PetStatusNormal},
		{"active today few this week", ptrTime(date("2024-06-05T07:00:00Z")), 1, models.PetStatusNormal},
		{"active today many this week", ptrTime(date("2024-06-05T07:00:00Z")), 3, models.PetStatusStrong},
		{"three days ago", ptrTime(date("2024-06-02T23:00:00Z")), 0, models.PetStatusNormal},
		{"four days ago", ptrTime(date("2024-06-01T23:00:00Z")), 0, models.PetStatusWeak},
		{"stale beats weekly count", ptrTime(date("2024-05-01T07:00:00Z")), 5, models.PetStatusWeak},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, statusFor(tt.last, tt.weekly, now))
		})
	}
}

func Test_calcStreak(t *testing.T) {
	now := date("2024-06-05T12:00:00Z")

	t.Run("no activity", func(t *testing.T) {
		assert.Zero(t, calcStreak(activityDays(nil), now))
	})

	t.Run("today only", func(t *testing.T) {
		days := activityDays([]time.Time{date("2024-06-05T07:00:00Z")})
		assert.Equal(t, 1, calcStreak(days, now))
	})

	t.Run("three consecutive days", func(t *testing.T) {
		days := activityDays([]time.Time{
			date("2024-06-05T07:00:00Z"),
			date("2024-06-04T22:00:00Z"),
			date("2024-06-03T06:00:00Z"),
		})
		assert.Equal(t, 3, calcStreak(days, now))
	})

	t.Run("gap breaks the streak", func(t *testing.T) {
		days := activityDays([]time.Time{
			date("2024-06-05T07:00:00Z"),
			date("2024-06-03T06:00:00Z"),
		})
		assert.Equal(t, 1, calcStreak(days, now))
	})

	t.Run("streak must end today", func(t *testing.T) {
		days := activityDays([]time.Time{
			date("2024-06-04T07:00:00Z"),
			date("2024-06-03T06:00:00Z"),
		})
		assert.Zero(t, calcStreak(days, now), "yesterday's streak does not count today")
	})

	t.Run("multiple activities one day count once", func(t *testing.T) {
		days := activityDays([]time.Time{
			date("2024-06-05T07:00:00Z"),
			date("2024-06-05T19:00:00Z"),
		})
		assert.Equal(t, 1, calcStreak(days, now))
	})
}

func Test_multiplier(t *testing.T) {
	assert.Equal(t, 0.5, multiplier(models.PetStatusWeak))
	assert.Equal(t, 1.0, multiplier(models.PetStatusNormal))
	assert.Equal(t, 1.5, multiplier(models.PetStatusStrong))
}

func TestPetStatusService(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	createGuest := func(t *testing.T, storage repository.Storage) models.User {
		t.Helper()
		provider := models.AuthProviderGuest
		deviceID := uuid.NewString()
		user, err := storage.User().CreateUser(t.Context(), repository.CreateUserParams{
			Status:       models.UserStatusGuest,
			AuthProvider: &provider,
			DeviceID:     &deviceID,
		})
		require.NoError(t, err, "failed to create test user")
		return user
	}

	createCheckin := func(t *testing.T, storage repository.Storage, userID int64, startedAt time.Time) {
		t.Helper()
		endedAt := startedAt.Add(30 * time.Minute)
		_, err := storage.Activity().Create(t.Context(), repository.CreateActivityParams{
			UserID:    userID,
			Kind:      models.ActivityKindCheckin,
			Status:    models.ActivityStatusAwarded,
			StartedAt: &startedAt,
			EndedAt:   &endedAt,
		})
		require.NoError(t, err, "failed to create test activity")
	}

	inTx := func(t *testing.T, now time.Time, fn func(s *PetStatusService, storage repository.Storage)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			s := NewService(storage)
			s.now = func() time.Time { return now }
			fn(s, storage)
		})
	}

	// Wednesday noon
	now := date("2024-06-05T12:00:00Z")

	t.Run("fresh user is normal", func(t *testing.T) {
		inTx(t, now, func(s *PetStatusService, storage repository.Storage) {
			user := createGuest(t, storage)

			got, err := s.Status(t.Context(), user.ID)

			require.NoError(t, err)
			assert.Equal(t, models.PetStatusNormal, got.Status)
			assert.Zero(t, got.WeeklyCount)
			assert.Zero(t, got.Streak)
			assert.Equal(t, 1.0, got.Multiplier)
		})
	})

	t.Run("three this week is strong", func(t *testing.T) {
		inTx(t, now, func(s *PetStatusService, storage repository.Storage) {
			user := createGuest(t, storage)
			createCheckin(t, storage, user.ID, date("2024-06-03T07:00:00Z"))
			createCheckin(t, storage, user.ID, date("2024-06-04T07:00:00Z"))
			createCheckin(t, storage, user.ID, date("2024-06-05T07:00:00Z"))

			got, err := s.Status(t.Context(), user.ID)

			require.NoError(t, err)
			assert.Equal(t, models.PetStatusStrong, got.Status)
			assert.Equal(t, 3, got.WeeklyCount)
			assert.Equal(t, 3, got.Streak)
			assert.Equal(t, 1.5, got.Multiplier)
		})
	})

	t.Run("stale activity is weak", func(t *testing.T) {
		inTx(t, now, func(s *PetStatusService, storage repository.Storage) {
			user := createGuest(t, storage)
			createCheckin(t, storage, user.ID, date("2024-05-20T07:00:00Z"))

			got, err := s.Status(t.Context(), user.ID)

			require.NoError(t, err)
			assert.Equal(t, models.PetStatusWeak, got.Status)
			assert.Zero(t, got.WeeklyCount, "old activity is outside this week")
			assert.Zero(t, got.Streak)
			assert.Equal(t, 0.5, got.Multiplier)
		})
	})

	t.Run("last week activity does not count weekly", func(t *testing.T) {
		inTx(t, now, func(s *PetStatusService, storage repository.Storage) {
			user := createGuest(t, storage)
			createCheckin(t, storage, user.ID, date("2024-06-02T07:00:00Z")) // Sunday before
			createCheckin(t, storage, user.ID, date("2024-06-04T07:00:00Z"))

			got, err := s.Status(t.Context(), user.ID)

			require.NoError(t, err)
			assert.Equal(t, 1, got.WeeklyCount, "only this week's activity counts")
			assert.Equal(t, models.PetStatusNormal, got.Status)
		})
	})
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
