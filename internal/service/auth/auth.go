package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/TingC12/Chicken-fitness-app/internal/apperrors"
	"github.com/TingC12/Chicken-fitness-app/internal/models"
	"github.com/TingC12/Chicken-fitness-app/internal/service/auth/tokenmanager"
)

const accessAuthScheme = "Bearer"

// External identity provider, treated as a trusted black box returning claims
type CredentialVerifier interface {
	Verify(ctx context.Context, idToken string) (models.GoogleClaims, error)
}

// Identity binder: guest-upgrade-or-create-or-update on verified claims
type identityService interface {
	BindGoogle(ctx context.Context, claims models.GoogleClaims, deviceID string) (models.User, error)
	GetOrCreateGuest(ctx context.Context, deviceID string) (models.User, error)
	GetUser(ctx context.Context, id int64) (models.User, error)
}

// Session issued to the client on login or refresh
type Session struct {
	User   models.User
	Tokens models.TokenPair
}

// Auth service: composes the credential verifier, the identity binder and the
// token manager to answer login and refresh requests
type AuthService struct {
	verifier CredentialVerifier
	users    identityService
	tokens   *tokenmanager.TokenManager
}

func NewService(verifier CredentialVerifier, tokens *tokenmanager.TokenManager, users identityService) (*AuthService, error) {
	if verifier == nil || tokens == nil || users == nil {
		return nil, errors.New("verifier, token manager and user service must not be nil")
	}

	return &AuthService{
		verifier: verifier,
		users:    users,
		tokens:   tokens,
	}, nil
}

// LoginGoogle verifies the assertion, binds the identity and issues a session.
// Any verification failure surfaces as ErrUnverifiedIdentity without detail.
func (s *AuthService) LoginGoogle(ctx context.Context, idToken string, deviceID string, meta models.ClientMeta) (Session, error) {
	claims, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", apperrors.ErrUnverifiedIdentity, err)
	}

	user, err := s.users.BindGoogle(ctx, claims, deviceID)
	if err != nil {
		return Session{}, err
	}

	pair, err := s.tokens.GeneratePair(ctx, user, meta)
	if err != nil {
		return Session{}, fmt.Errorf("error while issuing tokens. Err: %w", err)
	}

	return Session{User: user, Tokens: pair}, nil
}

// LoginGuest issues a session for the device's guest account
func (s *AuthService) LoginGuest(ctx context.Context, deviceID string, meta models.ClientMeta) (Session, error) {
	user, err := s.users.GetOrCreateGuest(ctx, deviceID)
	if err != nil {
		return Session{}, err
	}

	pair, err := s.tokens.GeneratePair(ctx, user, meta)
	if err != nil {
		return Session{}, fmt.Errorf("error while issuing tokens. Err: %w", err)
	}

	return Session{User: user, Tokens: pair}, nil
}

// Refresh rotates the presented refresh token for a new session
func (s *AuthService) Refresh(ctx context.Context, refresh string, meta models.ClientMeta) (Session, error) {
	pair, user, err := s.tokens.Rotate(ctx, refresh, meta)
	if err != nil {
		return Session{}, err
	}

	return Session{User: user, Tokens: pair}, nil
}

// Logout revokes the presented refresh token, idempotent
func (s *AuthService) Logout(ctx context.Context, refresh string) error {
	return s.tokens.Revoke(ctx, refresh)
}

// Auth resolves the request's bearer access token to a user
func (s *AuthService) Auth(ctx context.Context, r *http.Request) (models.User, error) {
	header := r.Header.Get("Authorization")

	token, found := strings.CutPrefix(header, accessAuthScheme+" ")
	if !found || token == "" {
		return models.User{}, apperrors.ErrInvalidCredential
	}

	claims, err := s.tokens.ParseAccess(ctx, token)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", apperrors.ErrInvalidCredential, err)
	}

	return s.users.GetUser(ctx, claims.UserID)
}
