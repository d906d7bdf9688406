package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/TingC12/Chicken-fitness-app/internal/models"
	"github.com/TingC12/Chicken-fitness-app/internal/repository"
)

type LedgerRepo struct {
	DB DBTX
}

const createEntry = `-- name: CreateLedgerEntry
INSERT INTO coins_ledger (user_id, delta, source, ref_id, idempotency_key)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT DO NOTHING
RETURNING id, user_id, delta, source, ref_id, idempotency_key, created_at
`

// Record inserts the entry unless a row with the same dedup key exists.
// On a dedup hit the stored row is returned as is: a retried award must see
// the original delta, not zero and not a recomputed value.
func (r *LedgerRepo) Record(ctx context.Context, arg repository.CreateEntryParams) (models.LedgerEntry, error) {
	entry, found, err := r.FindExisting(ctx, arg)
	if err != nil {
		return entry, err
	}
	if found {
		return entry, nil
	}

	rows, _ := r.DB.Query(ctx, createEntry, arg.UserID, arg.Delta, arg.Source, arg.RefID, arg.IdempotencyKey)
	entry, err = pgx.CollectOneRow(rows, rowToLedgerEntry)

	switch {
	case err == nil:
		return entry, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Lost an insert race: the unique index kept ours out, so the
		// winner's row is the answer. Re-read once, never re-insert.
		entry, found, err = r.FindExisting(ctx, arg)
		if err != nil {
			return entry, err
		}
		if !found {
			return entry, errors.New("programming error, conflicting ledger row vanished")
		}
		return entry, nil
	default:
		return entry, fmt.Errorf("db error: %w", err)
	}
}

const getEntryByKey = `-- name: GetLedgerEntryByIdempotencyKey
SELECT id, user_id, delta, source, ref_id, idempotency_key, created_at
FROM coins_ledger
WHERE user_id = $1 AND idempotency_key = $2
`

const getEntryByRef = `-- name: GetLedgerEntryByRef
SELECT id, user_id, delta, source, ref_id, idempotency_key, created_at
FROM coins_ledger
WHERE user_id = $1 AND source = $2 AND ref_id = $3
`

// Dedup lookup: idempotency key first, then (source, ref_id).
// Entries with neither key never match, every such call is distinct.
func (r *LedgerRepo) FindExisting(ctx context.Context, arg repository.CreateEntryParams) (models.LedgerEntry, bool, error) {
	var entry models.LedgerEntry
	var err error

	switch {
	case arg.IdempotencyKey != nil:
		rows, _ := r.DB.Query(ctx, getEntryByKey, arg.UserID, *arg.IdempotencyKey)
		entry, err = pgx.CollectOneRow(rows, rowToLedgerEntry)
	case arg.RefID != nil:
		rows, _ := r.DB.Query(ctx, getEntryByRef, arg.UserID, arg.Source, *arg.RefID)
		entry, err = pgx.CollectOneRow(rows, rowToLedgerEntry)
	default:
		return entry, false, nil
	}

	switch {
	case err == nil:
		return entry, true, nil
	case errors.Is(err, pgx.ErrNoRows):
		return entry, false, nil
	default:
		return entry, false, fmt.Errorf("db error: %w", err)
	}
}

const getBalance = `-- name: GetBalance
SELECT COALESCE(SUM(delta), 0)::bigint
FROM coins_ledger
WHERE user_id = $1
`

func (r *LedgerRepo) Balance(ctx context.Context, userID int64) (int64, error) {
	rows, _ := r.DB.Query(ctx, getBalance, userID)
	balance, err := pgx.CollectOneRow(rows, pgx.RowTo[int64])
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return balance, nil
}

const listEntries = `-- name: ListLedgerEntries
SELECT id, user_id, delta, source, ref_id, idempotency_key, created_at
FROM coins_ledger
WHERE user_id = $1
ORDER BY id DESC
LIMIT $2
`

func (r *LedgerRepo) ListEntries(ctx context.Context, userID int64, limit int) ([]models.LedgerEntry, error) {
	rows, _ := r.DB.Query(ctx, listEntries, userID, limit)
	entries, err := pgx.CollectRows(rows, rowToLedgerEntry)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return entries, nil
}

func rowToLedgerEntry(row pgx.CollectableRow) (models.LedgerEntry, error) {
	var e models.LedgerEntry
	err := row.Scan(&e.ID, &e.UserID, &e.Delta, &e.Source, &e.RefID, &e.IdempotencyKey, &e.CreatedAt)
	return e, err
}
