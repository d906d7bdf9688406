package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/TingC12/Chicken-fitness-app/internal/apperrors"
	"github.com/TingC12/Chicken-fitness-app/internal/models"
	"github.com/TingC12/Chicken-fitness-app/internal/repository"
)

type RefreshTokenRepo struct {
	DB DBTX
}

const createToken = `-- name: CreateRefreshToken
INSERT INTO refresh_tokens (user_id, token_hash, created_at, expires_at, created_ip, created_user_agent)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, user_id, token_hash, created_at, expires_at, revoked_at, created_ip, created_user_agent
`

func (r *RefreshTokenRepo) Create(ctx context.Context, arg repository.CreateTokenParams) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, createToken, arg.UserID, arg.TokenHash, arg.CreatedAt, arg.ExpiresAt, arg.CreatedIP, arg.CreatedUserAgent)
	token, err := pgx.CollectOneRow(rows, rowToRefreshToken)
	if err != nil {
		return token, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

// Revoke iff the row is still usable: the WHERE clause is the whole rotation
// exclusivity guarantee, so never split it into a read followed by a write.
// Unknown hash, revoked and expired all collapse into ErrInvalidCredential.
const revokeActiveToken = `-- name: RevokeActiveToken
UPDATE refresh_tokens
SET revoked_at = $2
WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > $2
RETURNING id, user_id, token_hash, created_at, expires_at, revoked_at, created_ip, created_user_agent
`

func (r *RefreshTokenRepo) RevokeActive(ctx context.Context, tokenHash string, now time.Time) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, revokeActiveToken, tokenHash, now)
	token, err := pgx.CollectOneRow(rows, rowToRefreshToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, apperrors.ErrInvalidCredential
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

const revokeToken = `-- name: RevokeToken
UPDATE refresh_tokens
SET revoked_at = COALESCE(revoked_at, $2)
WHERE id = $1
`

// Revoke is idempotent: an already revoked token keeps its first revoked_at
func (r *RefreshTokenRepo) Revoke(ctx context.Context, id int64, now time.Time) error {
	tag, err := r.DB.Exec(ctx, revokeToken, id, now)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrInvalidCredential
	}
	return nil
}

const getToken = `-- name: GetRefreshToken
SELECT id, user_id, token_hash, created_at, expires_at, revoked_at, created_ip, created_user_agent
FROM refresh_tokens
WHERE token_hash = $1
`

func (r *RefreshTokenRepo) Get(ctx context.Context, tokenHash string) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, getToken, tokenHash)
	token, err := pgx.CollectOneRow(rows, rowToRefreshToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, apperrors.ErrInvalidCredential
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

func rowToRefreshToken(row pgx.CollectableRow) (models.RefreshToken, error) {
	var t models.RefreshToken
	err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.CreatedAt, &t.ExpiresAt, &t.RevokedAt, &t.CreatedIP, &t.CreatedUserAgent)
	return t, err
}
