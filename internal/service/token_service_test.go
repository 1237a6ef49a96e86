package service

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magazinehq/magazine-api/internal/models"
	appErrors "github.com/magazinehq/magazine-api/pkg/errors"
)

const testSecret = "dGVzdC1zZWNyZXQtdGVzdC1zZWNyZXQtdGVzdC1zZWNyZXQ=" // base64("test-secret-test-secret-test-secret")

func newTokenService(t *testing.T, expiry time.Duration) *TokenService {
	t.Helper()
	svc, err := NewTokenService(testSecret, expiry)
	require.NoError(t, err)
	return svc
}

func TestNewTokenServiceRejectsBadSecret(t *testing.T) {
	_, err := NewTokenService("not base64!!!", time.Minute)
	require.Error(t, err)

	_, err = NewTokenService("", time.Minute)
	require.Error(t, err)
}

func TestIssueAndExtractUsername(t *testing.T) {
	svc := newTokenService(t, time.Minute)

	token, err := svc.Issue("margaret")
	require.NoError(t, err)

	username, err := svc.ExtractUsername(token)
	require.NoError(t, err)
	assert.Equal(t, "margaret", username)
	assert.NoError(t, svc.Validate(token))
}

func TestExtractUsernameExpiredToken(t *testing.T) {
	svc := newTokenService(t, -time.Minute)

	token, err := svc.Issue("margaret")
	require.NoError(t, err)

	_, err = svc.ExtractUsername(token)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrExpiredAccessToken))
}

func TestExtractUsernameMalformedToken(t *testing.T) {
	svc := newTokenService(t, time.Minute)

	_, err := svc.ExtractUsername("this is not a jwt")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidAccessToken))
}

func TestExtractUsernameTamperedSignature(t *testing.T) {
	svc := newTokenService(t, time.Minute)
	other := newTokenServiceWithSecret(t, "b3RoZXItc2VjcmV0LW90aGVyLXNlY3JldC1vdGhlciE=")

	token, err := other.Issue("margaret")
	require.NoError(t, err)

	_, err = svc.ExtractUsername(token)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidAccessToken))
}

func TestExtractUsernameEmptyToken(t *testing.T) {
	svc := newTokenService(t, time.Minute)

	_, err := svc.ExtractUsername("")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrEmptyTokenClaims))
}

func TestExtractUsernameEmptySubject(t *testing.T) {
	svc := newTokenService(t, time.Minute)

	key, err := base64.StdEncoding.DecodeString(testSecret)
	require.NoError(t, err)

	now := time.Now().UTC()
	claims := &models.AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)

	_, err = svc.ExtractUsername(token)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrEmptyTokenClaims))
}

func TestValidateRejectsWrongAlgorithm(t *testing.T) {
	svc := newTokenService(t, time.Minute)

	// An unsigned token carries alg=none and must not pass.
	claims := jwt.RegisteredClaims{Subject: "margaret", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	err = svc.Validate(token)
	require.Error(t, err)
}

func newTokenServiceWithSecret(t *testing.T, secret string) *TokenService {
	t.Helper()
	svc, err := NewTokenService(secret, time.Minute)
	require.NoError(t, err)
	return svc
}
