package tokenmanager

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/TingC12/Chicken-fitness-app/internal/models"
	"github.com/TingC12/Chicken-fitness-app/internal/repository"
)

const (
	defaultSigningMethod   = "HS256"
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 30 * 24 * time.Hour

	refreshSecretBytesLen = 32
	maxUserAgentLen       = 255
)

type AccessTokenClaims struct {
	jwt.RegisteredClaims
	UserID  int64 `json:"uid"`
	IsGuest bool  `json:"guest"`
}

// Token manager with sensible defaults
type Config struct {
	// Secret key to sign access token
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Clock, must return UTC instants
	// Defaults to time.Now().UTC, override in tests to pin expiry boundaries
	Now func() time.Time
}

type TokenManager struct {
	// Secret key to sign access token
	key string

	// JWT MAC (Message Authentication Code) algorithm
	alg jwt.SigningMethod

	// Access and refresh token lifetimes
	accessTTL  time.Duration
	refreshTTL time.Duration

	// Storage to persist refresh token hashes
	storage repository.Storage

	now func() time.Time
}

func New(cfg Config, storage repository.Storage) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if storage == nil {
		return nil, errors.New("storage must not be nil")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}

	return &TokenManager{
		key:        cfg.SecretKey,
		alg:        jwt.GetSigningMethod(cfg.Alg),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		storage:    storage,
		now:        cfg.Now,
	}, nil
}

// IssueAccess signs a stateless short lived token for the user.
// There is no revocation for this token class, compromise is bounded by TTL.
func (m *TokenManager) IssueAccess(user models.User) (models.IssuedToken, error) {
	now := m.now().Truncate(time.Second)
	expiresAt := now.Add(m.accessTTL)

	accessToken := jwt.NewWithClaims(
		m.alg,
		AccessTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			UserID:  user.ID,
			IsGuest: user.IsGuest(),
		},
	)
	access, err := accessToken.SignedString([]byte(m.key))
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	return models.IssuedToken{Value: access, ExpiresAt: expiresAt, TTL: m.accessTTL}, nil
}

// GeneratePair issues an access token and a fresh refresh token.
// The refresh plaintext exists only in the returned pair, storage sees the hash.
func (m *TokenManager) GeneratePair(ctx context.Context, user models.User, meta models.ClientMeta) (models.TokenPair, error) {
	return m.generatePair(ctx, m.storage, user, meta)
}

// Rotate exchanges a presented refresh plaintext for a new token pair.
// The revoke of the old row and the insert of the replacement happen in one
// transaction, rotation is exclusive per presented value: of two concurrent
// calls one gets the pair, the other gets apperrors.ErrInvalidCredential.
func (m *TokenManager) Rotate(ctx context.Context, presented string, meta models.ClientMeta) (models.TokenPair, models.User, error) {
	var pair models.TokenPair
	var user models.User

	err := m.storage.InTx(ctx, func(s repository.Storage) error {
		old, err := s.Refresh().RevokeActive(ctx, hashRefresh(presented), m.now())
		if err != nil {
			return err
		}

		// Owner vanished between steps means the token is orphaned
		user, err = s.User().GetUserByID(ctx, old.UserID)
		if err != nil {
			return err
		}

		pair, err = m.generatePair(ctx, s, user, meta)
		return err
	})
	if err != nil {
		return models.TokenPair{}, models.User{}, err
	}

	return pair, user, nil
}

// Revoke invalidates the presented refresh token explicitly, idempotent
func (m *TokenManager) Revoke(ctx context.Context, presented string) error {
	token, err := m.storage.Refresh().Get(ctx, hashRefresh(presented))
	if err != nil {
		return err
	}

	return m.storage.Refresh().Revoke(ctx, token.ID, m.now())
}

func (m *TokenManager) generatePair(ctx context.Context, s repository.Storage, user models.User, meta models.ClientMeta) (models.TokenPair, error) {
	var pair models.TokenPair
	now := m.now().Truncate(time.Second)
	refreshExpiresAt := now.Add(m.refreshTTL)

	access, err := m.IssueAccess(user)
	if err != nil {
		return pair, err
	}

	// Generate random refresh secret, persist only the hash
	b := make([]byte, refreshSecretBytesLen)
	_, err = rand.Read(b)
	if err != nil {
		return pair, fmt.Errorf("error while generating refresh token. Err: %w", err)
	}
	refresh := hex.EncodeToString(b)

	_, err = s.Refresh().Create(ctx, repository.CreateTokenParams{
		UserID:           user.ID,
		TokenHash:        hashRefresh(refresh),
		CreatedAt:        now,
		ExpiresAt:        refreshExpiresAt,
		CreatedIP:        nilIfEmpty(meta.IP),
		CreatedUserAgent: nilIfEmpty(truncate(meta.UserAgent, maxUserAgentLen)),
	})
	if err != nil {
		return pair, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return models.TokenPair{
		Access:  access,
		Refresh: models.IssuedToken{Value: refresh, ExpiresAt: refreshExpiresAt, TTL: m.refreshTTL},
	}, nil
}

// Parse and validate access token
func (m *TokenManager) ParseAccess(ctx context.Context, access string) (AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}

	_, err := jwt.ParseWithClaims(
		access,
		claims,
		func(t *jwt.Token) (any, error) {
			return []byte(m.key), nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return AccessTokenClaims{}, fmt.Errorf("error while parsing or validating token. Err: %w", err)
	}

	return *claims, nil
}

// Refresh token hash must be deterministic, it is the rotation lookup key
func hashRefresh(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
