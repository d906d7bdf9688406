package handlers

import (
	"context"
	"net/http"

	"github.com/TingC12/Chicken-fitness-app/internal/handlers/middleware"
	"github.com/TingC12/Chicken-fitness-app/internal/logger"
	"github.com/TingC12/Chicken-fitness-app/internal/models"
	"github.com/TingC12/Chicken-fitness-app/internal/service/activity"
	"github.com/TingC12/Chicken-fitness-app/internal/service/auth"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	ledgerService ledgerService,
	activityService activityService,
	petService petStatusService,
	logger logger.Logger,
) http.Handler {
	authMiddleware := middleware.AuthMiddleware(authService)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}

	mux := http.NewServeMux()

	mux.Handle("POST /auth/google", handleGoogleLogin(authService, logger))
	mux.Handle("POST /auth/guest", handleGuestLogin(authService, logger))
	mux.Handle("POST /refresh", handleRefresh(authService, logger))
	mux.Handle("POST /logout", handleLogout(authService, logger))

	mux.Handle("GET /me", withAuth(handleMe()))
	mux.Handle("GET /wallet", withAuth(handleWallet(ledgerService, logger)))
	mux.Handle("GET /pet/status", withAuth(handlePetStatus(petService, logger)))
	mux.Handle("POST /checkins", withAuth(handleCreateCheckin(activityService, logger)))

	return chain(mux,
		middleware.LoggerMiddleware(logger),
	)
}

type authService interface {
	// Verify the Google assertion and bind the identity to an account
	// Has to return apperrors.ErrUnverifiedIdentity or apperrors.ErrIdentityConflict
	LoginGoogle(ctx context.Context, idToken string, deviceID string, meta models.ClientMeta) (auth.Session, error)

	// Login the device's guest account, creating it on first sight
	LoginGuest(ctx context.Context, deviceID string, meta models.ClientMeta) (auth.Session, error)

	// Rotate the presented refresh token
	// Has to return apperrors.ErrInvalidCredential for unknown, rotated and
	// expired tokens alike, apperrors.ErrUserNotFound for orphaned ones
	Refresh(ctx context.Context, refresh string, meta models.ClientMeta) (auth.Session, error)

	// Revoke the presented refresh token, idempotent
	Logout(ctx context.Context, refresh string) error

	// Resolve the request's access token to a user
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

type ledgerService interface {
	Balance(ctx context.Context, userID int64) (int64, error)
	History(ctx context.Context, userID int64, limit int) ([]models.LedgerEntry, error)
}

type activityService interface {
	RecordCheckin(ctx context.Context, userID int64, arg activity.CheckinParams) (activity.CheckinResult, error)
}

type petStatusService interface {
	Status(ctx context.Context, userID int64) (models.PetStatus, error)
}
