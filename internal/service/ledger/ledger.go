package ledger

import (
	"context"
	"fmt"

	"github.com/TingC12/Chicken-fitness-app/internal/models"
	"github.com/TingC12/Chicken-fitness-app/internal/repository"
)

// Idempotent coins ledger writer
// Callers performing awardable actions must supply an idempotency key or a
// ref id, otherwise every call creates a distinct entry
type LedgerService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *LedgerService {
	return &LedgerService{storage: storage}
}

// Record writes a delta exactly once per dedup key and returns the effective
// delta: the stored one on a retry, the requested one otherwise. A retried
// award must never observe zero or a recomputed value.
func (s *LedgerService) Record(ctx context.Context, userID int64, delta int64, source string, refID *int64, idempotencyKey *string) (int64, error) {
	entry, err := s.storage.Ledger().Record(ctx, repository.CreateEntryParams{
		UserID:         userID,
		Delta:          delta,
		Source:         source,
		RefID:          refID,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return 0, fmt.Errorf("error while recording ledger entry. Err: %w", err)
	}

	return entry.Delta, nil
}

// Balance is always the sum of deltas over the user's entries
func (s *LedgerService) Balance(ctx context.Context, userID int64) (int64, error) {
	return s.storage.Ledger().Balance(ctx, userID)
}

func (s *LedgerService) History(ctx context.Context, userID int64, limit int) ([]models.LedgerEntry, error) {
	return s.storage.Ledger().ListEntries(ctx, userID, limit)
}
