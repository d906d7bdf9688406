package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/TingC12/Chicken-fitness-app/internal/apperrors"
	"github.com/TingC12/Chicken-fitness-app/internal/models"
	"github.com/TingC12/Chicken-fitness-app/internal/repository"
)

type UserRepo struct {
	DB DBTX
}

const createUser = `-- name: CreateUser
INSERT INTO users (status, auth_provider, google_sub, email, device_id, last_login_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at, last_login_at, status, auth_provider, google_sub, email, device_id
`

func (r *UserRepo) CreateUser(ctx context.Context, arg repository.CreateUserParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser, arg.Status, arg.AuthProvider, arg.GoogleSub, arg.Email, arg.DeviceID, arg.LastLoginAt)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return user, repository.ErrGoogleSubBound
		}
		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT id, created_at, last_login_at, status, auth_provider, google_sub, email, device_id
FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, id)
	return collectUser(rows, apperrors.ErrUserNotFound)
}

const getUserByGoogleSub = `-- name: GetUserByGoogleSub
SELECT id, created_at, last_login_at, status, auth_provider, google_sub, email, device_id
FROM users
WHERE google_sub = $1
`

func (r *UserRepo) GetUserByGoogleSub(ctx context.Context, sub string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByGoogleSub, sub)
	return collectUser(rows, apperrors.ErrUserNotFound)
}

const getUserByEmail = `-- name: GetUserByEmail
SELECT id, created_at, last_login_at, status, auth_provider, google_sub, email, device_id
FROM users
WHERE email = $1
ORDER BY id
LIMIT 1
`

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByEmail, email)
	return collectUser(rows, apperrors.ErrUserNotFound)
}

const getGuestByDeviceID = `-- name: GetGuestByDeviceID
SELECT id, created_at, last_login_at, status, auth_provider, google_sub, email, device_id
FROM users
WHERE device_id = $1 AND status = 'guest' AND google_sub IS NULL
ORDER BY id
LIMIT 1
`

func (r *UserRepo) GetGuestByDeviceID(ctx context.Context, deviceID string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getGuestByDeviceID, deviceID)
	return collectUser(rows, apperrors.ErrGuestNotFound)
}

const bindGoogle = `-- name: BindGoogle
UPDATE users
SET google_sub = $2, email = $3, status = 'user', auth_provider = 'google', last_login_at = $4
WHERE id = $1
RETURNING id, created_at, last_login_at, status, auth_provider, google_sub, email, device_id
`

func (r *UserRepo) BindGoogle(ctx context.Context, userID int64, arg repository.BindGoogleParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, bindGoogle, userID, arg.GoogleSub, arg.Email, arg.LastLoginAt)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return user, repository.ErrGoogleSubBound
		}
		return user, fmt.Errorf("db error: %w", err)
	}
}

const touchGoogleLogin = `-- name: TouchGoogleLogin
UPDATE users
SET last_login_at = $2, email = COALESCE(email, $3), status = 'user', auth_provider = 'google'
WHERE id = $1
RETURNING id, created_at, last_login_at, status, auth_provider, google_sub, email, device_id
`

func (r *UserRepo) TouchGoogleLogin(ctx context.Context, userID int64, email string, now time.Time) (models.User, error) {
	rows, _ := r.DB.Query(ctx, touchGoogleLogin, userID, now, email)
	return collectUser(rows, apperrors.ErrUserNotFound)
}

func collectUser(rows pgx.Rows, notFound error) (models.User, error) {
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, notFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.CreatedAt, &u.LastLoginAt, &u.Status, &u.AuthProvider, &u.GoogleSub, &u.Email, &u.DeviceID)
	return u, err
}
