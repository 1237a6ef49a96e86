package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/magazinehq/magazine-api/internal/models"
	appErrors "github.com/magazinehq/magazine-api/pkg/errors"
)

type guardUserResolver interface {
	FindByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*models.User, error)
}

// Guard performs resource-level ownership checks. Identities are compared
// by id, never by pointer, so the check holds across separate loads of the
// same row.
type Guard struct {
	users guardUserResolver
}

// NewGuard constructs the ownership guard.
func NewGuard(users guardUserResolver) *Guard {
	return &Guard{users: users}
}

// CheckOwnership resolves the acting principal by username-or-email and
// verifies it owns the given resource owner identity. It returns the
// resolved principal on success.
func (g *Guard) CheckOwnership(ctx context.Context, principalName string, owner *models.User) (*models.User, error) {
	if principalName == "" {
		return nil, appErrors.Clone(appErrors.ErrAccessDenied, "")
	}

	principal, err := g.users.FindByUsernameOrEmail(ctx, principalName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve principal")
	}

	if owner == nil || principal.ID != owner.ID {
		return nil, appErrors.Clone(appErrors.ErrAccessDenied, "")
	}

	return principal, nil
}
