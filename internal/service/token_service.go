package service

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/magazinehq/magazine-api/internal/models"
	appErrors "github.com/magazinehq/magazine-api/pkg/errors"
)

// TokenService issues and validates the stateless HS256 access tokens. The
// token carries only subject=username plus issued-at and expiry; roles are
// resolved from the store on each request. There is no revocation for
// access tokens, the short TTL is the only mitigation.
type TokenService struct {
	key    []byte
	expiry time.Duration
}

// NewTokenService decodes the base64 signing secret and returns the issuer.
func NewTokenService(secret string, expiry time.Duration) (*TokenService, error) {
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("decode access token secret: %w", err)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("access token secret is empty")
	}
	return &TokenService{key: key, expiry: expiry}, nil
}

// Issue creates a signed access token for the given username.
func (s *TokenService) Issue(username string) (string, error) {
	now := time.Now().UTC()
	claims := &models.AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// ExtractUsername verifies the token and returns its subject. Every failure
// maps to a distinct client-facing 400-class error.
func (s *TokenService) ExtractUsername(tokenString string) (string, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Validate re-verifies signature and expiry without returning the subject.
func (s *TokenService) Validate(tokenString string) error {
	_, err := s.parse(tokenString)
	return err
}

func (s *TokenService) parse(tokenString string) (*models.AccessTokenClaims, error) {
	if tokenString == "" {
		return nil, appErrors.Clone(appErrors.ErrEmptyTokenClaims, "access token is empty")
	}

	claims := &models.AccessTokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, appErrors.Wrap(err, appErrors.ErrExpiredAccessToken.Code, appErrors.ErrExpiredAccessToken.Status, appErrors.ErrExpiredAccessToken.Message)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, appErrors.Wrap(err, appErrors.ErrInvalidAccessToken.Code, appErrors.ErrInvalidAccessToken.Status, appErrors.ErrInvalidAccessToken.Message)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, appErrors.Wrap(err, appErrors.ErrInvalidAccessToken.Code, appErrors.ErrInvalidAccessToken.Status, appErrors.ErrInvalidAccessToken.Message)
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrUnsupportedAccessToken.Code, appErrors.ErrUnsupportedAccessToken.Status, appErrors.ErrUnsupportedAccessToken.Message)
		}
	}

	if !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrInvalidAccessToken, "")
	}
	if claims.Subject == "" {
		return nil, appErrors.Clone(appErrors.ErrEmptyTokenClaims, "")
	}

	return claims, nil
}
