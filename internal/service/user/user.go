package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/TingC12/Chicken-fitness-app/internal/apperrors"
	"github.com/TingC12/Chicken-fitness-app/internal/models"
	"github.com/TingC12/Chicken-fitness-app/internal/repository"
)

type UserService struct {
	storage repository.Storage

	now func() time.Time
}

func NewService(storage repository.Storage) *UserService {
	return &UserService{
		storage: storage,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// BindGoogle attaches a verified Google identity to an account.
// Resolution order: existing account with this subject id, then guest upgrade
// by device id, then brand new account. Safe under concurrent duplicates: the
// unique constraint on google_sub is the backstop and a lost race is resolved
// by re-reading the winner, never by creating a second account.
func (s *UserService) BindGoogle(ctx context.Context, claims models.GoogleClaims, deviceID string) (models.User, error) {
	if claims.Subject == "" || claims.Email == "" || !claims.EmailVerified {
		return models.User{}, apperrors.ErrUnverifiedIdentity
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	now := s.now()

	var user models.User
	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		var err error
		user, err = s.bind(ctx, st, claims.Subject, email, deviceID, now)
		return err
	})

	if errors.Is(err, repository.ErrGoogleSubBound) {
		// Concurrent duplicate bound the subject first, the bind is applied
		user, readErr := s.storage.User().GetUserByGoogleSub(ctx, claims.Subject)
		if readErr != nil {
			return user, err
		}
		return user, nil
	}

	return user, err
}

func (s *UserService) bind(ctx context.Context, st repository.Storage, sub string, email string, deviceID string, now time.Time) (models.User, error) {
	// Already bound: refresh login metadata and return as is
	user, err := st.User().GetUserByGoogleSub(ctx, sub)
	switch {
	case err == nil:
		return st.User().TouchGoogleLogin(ctx, user.ID, email, now)
	case !errors.Is(err, apperrors.ErrUserNotFound):
		return user, err
	}

	// Guest upgrade: attach the identity to the device's guest account in place
	if deviceID != "" {
		guest, err := st.User().GetGuestByDeviceID(ctx, deviceID)
		switch {
		case err == nil:
			owner, err := st.User().GetUserByEmail(ctx, email)
			switch {
			case err == nil && owner.ID != guest.ID && !sameSub(owner.GoogleSub, sub):
				// Another account owns this email under a different identity,
				// upgrading would silently merge two people
				return models.User{}, apperrors.ErrIdentityConflict
			case err != nil && !errors.Is(err, apperrors.ErrUserNotFound):
				return models.User{}, err
			}

			return st.User().BindGoogle(ctx, guest.ID, repository.BindGoogleParams{
				GoogleSub:   sub,
				Email:       email,
				LastLoginAt: now,
			})
		case !errors.Is(err, apperrors.ErrGuestNotFound):
			return guest, err
		}
	}

	// No account to upgrade, create a fresh one
	provider := models.AuthProviderGoogle
	arg := repository.CreateUserParams{
		Status:       models.UserStatusUser,
		AuthProvider: &provider,
		GoogleSub:    &sub,
		Email:        &email,
		LastLoginAt:  &now,
	}
	if deviceID != "" {
		arg.DeviceID = &deviceID
	}

	return st.User().CreateUser(ctx, arg)
}

// GetOrCreateGuest returns the guest account for the device, creating it on
// first sight. Guests have no external identity until BindGoogle upgrades them.
func (s *UserService) GetOrCreateGuest(ctx context.Context, deviceID string) (models.User, error) {
	user, err := s.storage.User().GetGuestByDeviceID(ctx, deviceID)
	switch {
	case err == nil:
		return user, nil
	case !errors.Is(err, apperrors.ErrGuestNotFound):
		return user, err
	}

	provider := models.AuthProviderGuest
	now := s.now()

	return s.storage.User().CreateUser(ctx, repository.CreateUserParams{
		Status:       models.UserStatusGuest,
		AuthProvider: &provider,
		DeviceID:     &deviceID,
		LastLoginAt:  &now,
	})
}

func (s *UserService) GetUser(ctx context.Context, id int64) (models.User, error) {
	return s.storage.User().GetUserByID(ctx, id)
}

func sameSub(bound *string, sub string) bool {
	return bound != nil && *bound == sub
}
