package activity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TingC12/Chicken-fitness-app/internal/models"
	"github.com/TingC12/Chicken-fitness-app/internal/repository"
)

// Coins awarded per verified check-in
const checkinReward = 10

// Lost an award race to a concurrent request with the same idempotency key.
// Used to roll back the loser's activity row, never surfaces to callers.
var errDuplicateAward = errors.New("award already recorded")

type CheckinParams struct {
	StartedAt      time.Time
	EndedAt        *time.Time
	IdempotencyKey *string
}

type CheckinResult struct {
	Activity     models.Activity
	CoinsAwarded int64
	Balance      int64
}

type ActivityService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *ActivityService {
	return &ActivityService{storage: storage}
}

// RecordCheckin stores a verified check-in and awards coins for it in one
// transaction. Retries with the same idempotency key get the original award
// back: same coins figure, one activity, one ledger row.
func (s *ActivityService) RecordCheckin(ctx context.Context, userID int64, arg CheckinParams) (CheckinResult, error) {
	// Fast path for a retried request: serve the stored award
	if arg.IdempotencyKey != nil {
		res, found, err := s.findAwarded(ctx, userID, arg.IdempotencyKey)
		if err != nil {
			return res, err
		}
		if found {
			return res, nil
		}
	}

	var res CheckinResult
	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		act, err := st.Activity().Create(ctx, repository.CreateActivityParams{
			UserID:    userID,
			Kind:      models.ActivityKindCheckin,
			Status:    models.ActivityStatusVerified,
			StartedAt: &arg.StartedAt,
			EndedAt:   arg.EndedAt,
		})
		if err != nil {
			return err
		}

		entry, err := st.Ledger().Record(ctx, repository.CreateEntryParams{
			UserID:         userID,
			Delta:          checkinReward,
			Source:         models.LedgerSourceCheckin,
			RefID:          &act.ID,
			IdempotencyKey: arg.IdempotencyKey,
		})
		if err != nil {
			return err
		}

		// The returned entry references someone else's activity: a concurrent
		// request with the same key won the insert. Roll our row back and
		// serve the winner's award instead.
		if entry.RefID == nil || *entry.RefID != act.ID {
			return errDuplicateAward
		}

		balance, err := st.Ledger().Balance(ctx, userID)
		if err != nil {
			return err
		}

		res = CheckinResult{Activity: act, CoinsAwarded: entry.Delta, Balance: balance}
		return nil
	})

	if errors.Is(err, errDuplicateAward) {
		res, found, err := s.findAwarded(ctx, userID, arg.IdempotencyKey)
		if err != nil {
			return res, err
		}
		if !found {
			return res, errors.New("programming error, winning award entry vanished")
		}
		return res, nil
	}

	return res, err
}

// findAwarded resolves a check-in award previously recorded under the key
func (s *ActivityService) findAwarded(ctx context.Context, userID int64, key *string) (CheckinResult, bool, error) {
	entry, found, err := s.storage.Ledger().FindExisting(ctx, repository.CreateEntryParams{
		UserID:         userID,
		Source:         models.LedgerSourceCheckin,
		IdempotencyKey: key,
	})
	if err != nil || !found {
		return CheckinResult{}, found, err
	}

	if entry.RefID == nil {
		return CheckinResult{}, false, errors.New("programming error, checkin award without activity ref")
	}

	act, err := s.storage.Activity().Get(ctx, *entry.RefID)
	if err != nil {
		return CheckinResult{}, false, fmt.Errorf("error while loading awarded activity. Err: %w", err)
	}

	balance, err := s.storage.Ledger().Balance(ctx, userID)
	if err != nil {
		return CheckinResult{}, false, err
	}

	return CheckinResult{Activity: act, CoinsAwarded: entry.Delta, Balance: balance}, true, nil
}
