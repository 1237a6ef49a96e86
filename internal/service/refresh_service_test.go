package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magazinehq/magazine-api/internal/models"
	appErrors "github.com/magazinehq/magazine-api/pkg/errors"
)

type fakeTokenRepo struct {
	byToken map[string]*models.RefreshToken
	deletes int
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{byToken: map[string]*models.RefreshToken{}}
}

func (f *fakeTokenRepo) Create(_ context.Context, token *models.RefreshToken) error {
	for value, existing := range f.byToken {
		if existing.UserID == token.UserID {
			delete(f.byToken, value)
		}
	}
	if token.ID == "" {
		token.ID = "rt-" + token.UserID
	}
	f.byToken[token.Token] = token
	return nil
}

func (f *fakeTokenRepo) FindByToken(_ context.Context, value string) (*models.RefreshToken, error) {
	if token, ok := f.byToken[value]; ok {
		return token, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeTokenRepo) DeleteIfExpired(_ context.Context, value string, now time.Time) (bool, error) {
	token, ok := f.byToken[value]
	if !ok || token.ExpiresAt.After(now) {
		return false, nil
	}
	delete(f.byToken, value)
	f.deletes++
	return true, nil
}

func (f *fakeTokenRepo) DeleteByUserID(_ context.Context, userID string) (int, error) {
	count := 0
	for value, token := range f.byToken {
		if token.UserID == userID {
			delete(f.byToken, value)
			count++
		}
	}
	return count, nil
}

func TestCreateGeneratesUniqueOpaqueTokens(t *testing.T) {
	repo := newFakeTokenRepo()
	svc := NewRefreshTokenService(repo, newFakeUserRepo(), time.Hour, nil)

	first, err := svc.Create(context.Background(), "user-a")
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), "user-b")
	require.NoError(t, err)

	assert.NotEmpty(t, first.Token)
	assert.NotEqual(t, first.Token, second.Token)
	assert.True(t, first.ExpiresAt.After(time.Now()))
}

func TestCreateReplacesPriorSessionOfUser(t *testing.T) {
	repo := newFakeTokenRepo()
	svc := NewRefreshTokenService(repo, newFakeUserRepo(), time.Hour, nil)

	first, err := svc.Create(context.Background(), "user-a")
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "user-a")
	require.NoError(t, err)

	assert.Len(t, repo.byToken, 1)
	_, err = svc.FindByToken(context.Background(), first.Token)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrRefreshTokenNotFound))
}

func TestVerifyExpirationKeepsValidToken(t *testing.T) {
	repo := newFakeTokenRepo()
	svc := NewRefreshTokenService(repo, newFakeUserRepo(), time.Hour, nil)

	token, err := svc.Create(context.Background(), "user-a")
	require.NoError(t, err)

	require.NoError(t, svc.VerifyExpiration(context.Background(), token))
	assert.Zero(t, repo.deletes)
}

func TestVerifyExpirationDeletesAndNamesToken(t *testing.T) {
	repo := newFakeTokenRepo()
	svc := NewRefreshTokenService(repo, newFakeUserRepo(), time.Hour, nil)

	expired := &models.RefreshToken{
		UserID:    "user-a",
		Token:     "stale-token",
		ExpiresAt: time.Now().UTC().Add(-time.Second),
	}
	require.NoError(t, repo.Create(context.Background(), expired))

	err := svc.VerifyExpiration(context.Background(), expired)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrRefreshTokenExpired))
	assert.Contains(t, appErrors.FromError(err).Message, "stale-token")
	assert.Equal(t, 1, repo.deletes)

	// Losing a race to another delete still reports expiry.
	err = svc.VerifyExpiration(context.Background(), expired)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrRefreshTokenExpired))
	assert.Equal(t, 1, repo.deletes)
}

func TestDeleteByUsernameResolvesEmailToo(t *testing.T) {
	user := activeUser(t, "margaret", "pw123456")
	users := newFakeUserRepo(user)
	repo := newFakeTokenRepo()
	svc := NewRefreshTokenService(repo, users, time.Hour, nil)

	_, err := svc.Create(context.Background(), user.ID)
	require.NoError(t, err)

	count, err := svc.DeleteByUsername(context.Background(), "margaret@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Empty(t, repo.byToken)
}

func TestDeleteByUsernameUnknownUser(t *testing.T) {
	svc := NewRefreshTokenService(newFakeTokenRepo(), newFakeUserRepo(), time.Hour, nil)

	_, err := svc.DeleteByUsername(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
