package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/TingC12/Chicken-fitness-app/internal/models"
	"github.com/TingC12/Chicken-fitness-app/internal/repository"
)

type ActivityRepo struct {
	DB DBTX
}

// Valid activity: verified or awarded check-ins, awarded runs.
// Rejected rows never feed status or streak.
const validActivityPredicate = `
  ((kind = 'checkin' AND status IN ('verified', 'awarded'))
    OR (kind = 'run' AND status = 'awarded'))
`

const createActivity = `-- name: CreateActivity
INSERT INTO activities (user_id, kind, status, started_at, ended_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, user_id, kind, status, started_at, ended_at, created_at
`

func (r *ActivityRepo) Create(ctx context.Context, arg repository.CreateActivityParams) (models.Activity, error) {
	rows, _ := r.DB.Query(ctx, createActivity, arg.UserID, arg.Kind, arg.Status, arg.StartedAt, arg.EndedAt)
	activity, err := pgx.CollectOneRow(rows, rowToActivity)
	if err != nil {
		return activity, fmt.Errorf("db error: %w", err)
	}
	return activity, nil
}

const getActivity = `-- name: GetActivity
SELECT id, user_id, kind, status, started_at, ended_at, created_at
FROM activities
WHERE id = $1
`

func (r *ActivityRepo) Get(ctx context.Context, id int64) (models.Activity, error) {
	rows, _ := r.DB.Query(ctx, getActivity, id)
	activity, err := pgx.CollectOneRow(rows, rowToActivity)
	if err != nil {
		return activity, fmt.Errorf("db error: %w", err)
	}
	return activity, nil
}

// Check-ins count by when they ended, runs by when they were recorded
const lastActivityAt = `-- name: LastActivityAt
SELECT max(CASE WHEN kind = 'checkin' THEN ended_at ELSE created_at END)
FROM activities
WHERE user_id = $1
  AND (kind <> 'checkin' OR ended_at IS NOT NULL)
  AND` + validActivityPredicate

func (r *ActivityRepo) LastActivityAt(ctx context.Context, userID int64) (*time.Time, error) {
	rows, _ := r.DB.Query(ctx, lastActivityAt, userID)
	last, err := pgx.CollectOneRow(rows, pgx.RowTo[*time.Time])
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return last, nil
}

const countInRange = `-- name: CountActivitiesInRange
SELECT count(*)
FROM activities
WHERE user_id = $1
  AND (CASE WHEN kind = 'checkin' THEN started_at ELSE created_at END) >= $2
  AND (CASE WHEN kind = 'checkin' THEN started_at ELSE created_at END) < $3
  AND` + validActivityPredicate

func (r *ActivityRepo) CountInRange(ctx context.Context, userID int64, from time.Time, to time.Time) (int, error) {
	rows, _ := r.DB.Query(ctx, countInRange, userID, from, to)
	count, err := pgx.CollectOneRow(rows, pgx.RowTo[int])
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

const activityTimes = `-- name: ActivityTimes
SELECT CASE WHEN kind = 'checkin' THEN started_at ELSE created_at END
FROM activities
WHERE user_id = $1
  AND (kind <> 'checkin' OR started_at IS NOT NULL)
  AND` + validActivityPredicate

func (r *ActivityRepo) ActivityTimes(ctx context.Context, userID int64) ([]time.Time, error) {
	rows, _ := r.DB.Query(ctx, activityTimes, userID)
	times, err := pgx.CollectRows(rows, pgx.RowTo[time.Time])
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return times, nil
}

func rowToActivity(row pgx.CollectableRow) (models.Activity, error) {
	var a models.Activity
	err := row.Scan(&a.ID, &a.UserID, &a.Kind, &a.Status, &a.StartedAt, &a.EndedAt, &a.CreatedAt)
	return a, err
}
