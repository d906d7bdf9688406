package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TingC12/Chicken-fitness-app/internal/models"
	"github.com/TingC12/Chicken-fitness-app/internal/repository"
	"github.com/TingC12/Chicken-fitness-app/internal/repository/postgres"
	"github.com/TingC12/Chicken-fitness-app/internal/testutil"
)

func ptr[T any](v T) *T {
	return &v
}

func TestLedgerService(t *testing.T) {
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

	inTx := func(t *testing.T, fn func(s *LedgerService, storage repository.Storage)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			fn(NewService(storage), storage)
		})
	}

	t.Run("record and retry", func(t *testing.T) {
		inTx(t, func(s *LedgerService, storage repository.Storage) {
			user := createGuest(t, storage)

			delta, err := s.Record(t.Context(), user.ID, 10, models.LedgerSourceCheckin, nil, ptr("key-1"))
			require.NoError(t, err)
			assert.Equal(t, int64(10), delta)

			// Retried with another figure: the stored delta is the answer
			delta, err = s.Record(t.Context(), user.ID, 25, models.LedgerSourceCheckin, nil, ptr("key-1"))
			require.NoError(t, err)
			assert.Equal(t, int64(10), delta, "retry must return the stored delta")

			balance, err := s.Balance(t.Context(), user.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(10), balance)
		})
	})

	t.Run("balance sums all entries", func(t *testing.T) {
		inTx(t, func(s *LedgerService, storage repository.Storage) {
			user := createGuest(t, storage)

			_, err := s.Record(t.Context(), user.ID, 10, models.LedgerSourceCheckin, nil, nil)
			require.NoError(t, err)
			_, err = s.Record(t.Context(), user.ID, -3, models.LedgerSourceCheckin, nil, nil)
			require.NoError(t, err)

			balance, err := s.Balance(t.Context(), user.ID)

			require.NoError(t, err)
			assert.Equal(t, int64(7), balance)
		})
	})

	t.Run("history newest first", func(t *testing.T) {
		inTx(t, func(s *LedgerService, storage repository.Storage) {
			user := createGuest(t, storage)

			for _, delta := range []int64{1, 2, 3} {
				_, err := s.Record(t.Context(), user.ID, delta, models.LedgerSourceCheckin, nil, nil)
				require.NoError(t, err)
			}

			entries, err := s.History(t.Context(), user.ID, 2)

			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.Equal(t, int64(3), entries[0].Delta)
			assert.Equal(t, int64(2), entries[1].Delta)
		})
	})
}
