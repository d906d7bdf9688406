package postgres

import (
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TingC12/Chicken-fitness-app/internal/apperrors"
	"github.com/TingC12/Chicken-fitness-app/internal/models"
	"github.com/TingC12/Chicken-fitness-app/internal/repository"
	"github.com/TingC12/Chicken-fitness-app/internal/testutil"
)

func mustParseTime(value string) time.Time {
	dt, err := time.Parse("2006-01-02 15:04:05Z07:00", value)
	if err != nil {
		panic(err)
	}
	return dt
}

func mustCreateToken(t *testing.T, db DBTX, user models.User, hash string, expiresAt time.Time) models.RefreshToken {
	t.Helper()

	r := RefreshTokenRepo{DB: db}
	token, err := r.Create(t.Context(), repository.CreateTokenParams{
		UserID:    user.ID,
		TokenHash: hash,
		CreatedAt: mustParseTime("2024-01-01 19:00:01Z"),
		ExpiresAt: expiresAt,
	})
	require.NoError(t, err, "failed to create refresh token")
	return token
}

func Test_RefreshTokenRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	farFuture := mustParseTime("2200-01-01 03:00:02Z")

	t.Run("create token ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := mustCreateGuest(t, tx, "rt-device-1")
			r := RefreshTokenRepo{DB: tx}

			got, err := r.Create(t.Context(), repository.CreateTokenParams{
				UserID:           user.ID,
				TokenHash:        "hash-create",
				CreatedAt:        mustParseTime("2024-01-01 19:00:01Z"),
				ExpiresAt:        farFuture,
				CreatedIP:        ptr("192.0.2.1"),
				CreatedUserAgent: ptr("test-agent"),
			})

			require.NoError(t, err)
			require.Equal(t, user.ID, got.UserID)
			require.Equal(t, "hash-create", got.TokenHash)
			require.WithinDuration(t, farFuture, got.ExpiresAt, time.Microsecond)
			require.Nil(t, got.RevokedAt, "fresh token must not be revoked")
			require.Equal(t, "192.0.2.1", *got.CreatedIP)
			require.Equal(t, "test-agent", *got.CreatedUserAgent)
		})
	})

	t.Run("get token by hash", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := mustCreateGuest(t, tx, "rt-device-2")
			created := mustCreateToken(t, tx, user, "hash-get", farFuture)
			r := RefreshTokenRepo{DB: tx}

			got, err := r.Get(t.Context(), "hash-get")

			require.NoError(t, err)
			require.Equal(t, created.ID, got.ID)
			require.Equal(t, user.ID, got.UserID)
		})
	})

	t.Run("get unknown hash", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := RefreshTokenRepo{DB: tx}

			_, err := r.Get(t.Context(), "hash-unknown")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidCredential)
		})
	})

	t.Run("revoke active ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := mustCreateGuest(t, tx, "rt-device-3")
			mustCreateToken(t, tx, user, "hash-revoke", farFuture)
			r := RefreshTokenRepo{DB: tx}
			now := time.Now().UTC().Truncate(time.Microsecond)

			got, err := r.RevokeActive(t.Context(), "hash-revoke", now)

			require.NoError(t, err)
			require.NotNil(t, got.RevokedAt, "token must be revoked")
			require.WithinDuration(t, now, *got.RevokedAt, time.Microsecond)
		})
	})

	t.Run("revoke active twice", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := mustCreateGuest(t, tx, "rt-device-4")
			mustCreateToken(t, tx, user, "hash-twice", farFuture)
			r := RefreshTokenRepo{DB: tx}

			_, err := r.RevokeActive(t.Context(), "hash-twice", time.Now().UTC())
			require.NoError(t, err, "first revoke should succeed")

			_, err = r.RevokeActive(t.Context(), "hash-twice", time.Now().UTC())

			require.Error(t, err, "second revoke must lose")
			assert.ErrorIs(t, err, apperrors.ErrInvalidCredential)
		})
	})

	t.Run("revoke active unknown hash", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := RefreshTokenRepo{DB: tx}

			_, err := r.RevokeActive(t.Context(), "hash-never-seen", time.Now().UTC())

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidCredential)
		})
	})

	t.Run("revoke active expired token", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := mustCreateGuest(t, tx, "rt-device-5")
			mustCreateToken(t, tx, user, "hash-expired", mustParseTime("2024-01-02 19:00:01Z"))
			r := RefreshTokenRepo{DB: tx}

			_, err := r.RevokeActive(t.Context(), "hash-expired", time.Now().UTC())

			require.Error(t, err, "expired token must be indistinguishable from unknown")
			assert.ErrorIs(t, err, apperrors.ErrInvalidCredential)
		})
	})

	t.Run("revoke by id is idempotent", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := mustCreateGuest(t, tx, "rt-device-6")
			created := mustCreateToken(t, tx, user, "hash-idem", farFuture)
			r := RefreshTokenRepo{DB: tx}

			first := time.Now().UTC().Truncate(time.Microsecond)
			err := r.Revoke(t.Context(), created.ID, first)
			require.NoError(t, err)

			err = r.Revoke(t.Context(), created.ID, first.Add(time.Hour))
			require.NoError(t, err, "repeated revoke should not fail")

			got, err := r.Get(t.Context(), "hash-idem")
			require.NoError(t, err)
			require.NotNil(t, got.RevokedAt)
			assert.WithinDuration(t, first, *got.RevokedAt, time.Microsecond, "first revoked_at must be kept")
		})
	})

	t.Run("concurrent revoke has exactly one winner", func(t *testing.T) {
		// Runs on the pool, not in a test transaction: the race is only real
		// across connections
		user := mustCreateGuest(t, pg.Pool, "rt-device-race")
		mustCreateToken(t, pg.Pool, user, "hash-race", farFuture)
		r := RefreshTokenRepo{DB: pg.Pool}

		const workers = 10
		errs := make([]error, workers)
		var wg sync.WaitGroup

		for i := range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = r.RevokeActive(t.Context(), "hash-race", time.Now().UTC())
			}()
		}
		wg.Wait()

		winners := 0
		for _, err := range errs {
			if err == nil {
				winners++
				continue
			}
			assert.ErrorIs(t, err, apperrors.ErrInvalidCredential, "losers must get the invalid credential error")
		}
		require.Equal(t, 1, winners, "exactly one concurrent revoke must win")
	})
}
