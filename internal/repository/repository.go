package repository

import (
	"context"
	"errors"
	"time"

	"github.com/TingC12/Chicken-fitness-app/internal/models"
)

// Duplicate google_sub from a concurrent bind of the same identity
// Callers should re-read by sub and treat the bind as already applied
var ErrGoogleSubBound = errors.New("google subject already bound to an account")

type CreateUserParams struct {
	Status       string
	AuthProvider *string
	GoogleSub    *string
	Email        *string
	DeviceID     *string
	LastLoginAt  *time.Time
}

type BindGoogleParams struct {
	GoogleSub   string
	Email       string
	LastLoginAt time.Time
}

// User repository interface
type UserRepo interface {
	// Create user
	// Must return ErrGoogleSubBound if the google_sub is already taken
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by id, external subject id, email or guest device id
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, id int64) (models.User, error)
	GetUserByGoogleSub(ctx context.Context, sub string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// Find a guest-status user with this device id and no external identity
	// If not found must return apperrors.ErrGuestNotFound
	GetGuestByDeviceID(ctx context.Context, deviceID string) (models.User, error)

	// Attach external identity to the user in place (guest -> user)
	// Must return ErrGoogleSubBound if the google_sub is already taken
	BindGoogle(ctx context.Context, userID int64, arg BindGoogleParams) (models.User, error)

	// Update login timestamp on an already bound user, backfill email if unset
	// and force status=user, provider=google
	TouchGoogleLogin(ctx context.Context, userID int64, email string, now time.Time) (models.User, error)
}

type CreateTokenParams struct {
	UserID           int64
	TokenHash        string
	CreatedAt        time.Time
	ExpiresAt        time.Time
	CreatedIP        *string
	CreatedUserAgent *string
}

// RefreshToken repository interface
// Only hashes cross this boundary, never plaintext secrets
type RefreshTokenRepo interface {
	Create(ctx context.Context, arg CreateTokenParams) (models.RefreshToken, error)

	// Revoke the token with this hash iff it is still usable at 'now'
	// (not revoked, not expired). The conditional update is what makes
	// rotation exclusive: of two racing calls exactly one wins.
	// Must return apperrors.ErrInvalidCredential for unknown, revoked
	// and expired alike.
	RevokeActive(ctx context.Context, tokenHash string, now time.Time) (models.RefreshToken, error)

	// Idempotent revoke by id: keeps the first revoked_at
	Revoke(ctx context.Context, id int64, now time.Time) error

	// Get token row by hash regardless of state
	// If not found must return apperrors.ErrInvalidCredential
	Get(ctx context.Context, tokenHash string) (models.RefreshToken, error)
}

type CreateEntryParams struct {
	UserID         int64
	Delta          int64
	Source         string
	RefID          *int64
	IdempotencyKey *string
}

// Ledger repository interface
type LedgerRepo interface {
	// Record an entry exactly once per dedup key.
	// Lookup order: (user, idempotency_key) if set, else (user, source, ref_id)
	// if ref_id is set. On a dedup hit the STORED row is returned unchanged so
	// retried callers see the original delta, never zero. Without either key
	// every call is a distinct entry.
	Record(ctx context.Context, arg CreateEntryParams) (models.LedgerEntry, error)

	// Dedup lookup only, no write: the stored entry matching arg's dedup key
	FindExisting(ctx context.Context, arg CreateEntryParams) (entry models.LedgerEntry, found bool, err error)

	// Balance is derived: sum of deltas, zero for unknown users
	Balance(ctx context.Context, userID int64) (int64, error)

	// Entries for the user, newest first
	ListEntries(ctx context.Context, userID int64, limit int) ([]models.LedgerEntry, error)
}

type CreateActivityParams struct {
	UserID    int64
	Kind      string
	Status    string
	StartedAt *time.Time
	EndedAt   *time.Time
}

// Activity repository interface, read side feeds the pet status aggregation
type ActivityRepo interface {
	Create(ctx context.Context, arg CreateActivityParams) (models.Activity, error)

	// Get activity by id
	Get(ctx context.Context, id int64) (models.Activity, error)

	// Latest instant of valid activity (checkin ended_at, run created_at)
	// nil if the user has no activity at all
	LastActivityAt(ctx context.Context, userID int64) (*time.Time, error)

	// Count valid activities started within [from, to)
	CountInRange(ctx context.Context, userID int64, from time.Time, to time.Time) (int, error)

	// Instants of all valid activities (checkin started_at, run created_at)
	ActivityTimes(ctx context.Context, userID int64) ([]time.Time, error)
}

type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
	Ledger() LedgerRepo
	Activity() ActivityRepo

	// Run fn within a database transaction
	// The storage passed to fn operates on the transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}
