package service

import (
	"context"
	"database/sql"
	"errors"
	"io"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/magazinehq/magazine-api/internal/models"
	appErrors "github.com/magazinehq/magazine-api/pkg/errors"
	"github.com/magazinehq/magazine-api/pkg/storage"
)

type authorUserRepository interface {
	List(ctx context.Context) ([]models.User, error)
	ListByRole(ctx context.Context, roleName string) ([]models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	AddRole(ctx context.Context, userID, roleName string) error
}

// UpdateProfileRequest carries the self-service profile mutation.
type UpdateProfileRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Description string `json:"description"`
}

// AuthorService handles account listing, profile management and role
// promotion workflows.
type AuthorService struct {
	users     authorUserRepository
	guard     *Guard
	sessions  refreshSessionStore
	storage   *storage.LocalStorage
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthorService creates an instance of AuthorService.
func NewAuthorService(users authorUserRepository, guard *Guard, sessions refreshSessionStore, store *storage.LocalStorage, validate *validator.Validate, logger *zap.Logger) *AuthorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthorService{users: users, guard: guard, sessions: sessions, storage: store, validator: validate, logger: logger}
}

// ListUsers returns every account, for the admin panel.
func (s *AuthorService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, nil
}

// ListAuthors returns active accounts holding ROLE_AUTHOR.
func (s *AuthorService) ListAuthors(ctx context.Context) ([]models.User, error) {
	users, err := s.users.ListByRole(ctx, models.RoleAuthor)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list authors")
	}
	return users, nil
}

// GetByUsername returns the public author profile.
func (s *AuthorService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "author not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load author")
	}
	return user, nil
}

// UpdateProfile mutates the caller's own profile. The ownership guard
// rejects updates to anyone else's account.
func (s *AuthorService) UpdateProfile(ctx context.Context, principal string, username string, req UpdateProfileRequest, image io.Reader, imageName string) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if _, err := s.guard.CheckOwnership(ctx, principal, user); err != nil {
		return nil, err
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Description = req.Description

	if image != nil {
		stored, err := s.storage.SaveStream(imageName, image)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store profile image")
		}
		user.ProfileImage = stored
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	return user, nil
}

// MakeAuthor grants ROLE_AUTHOR to the user. Route-level RBAC restricts
// this to admins.
func (s *AuthorService) MakeAuthor(ctx context.Context, username string) (*models.User, error) {
	return s.grantRole(ctx, username, models.RoleAuthor)
}

// MakeEditor grants ROLE_EDITOR to the user.
func (s *AuthorService) MakeEditor(ctx context.Context, username string) (*models.User, error) {
	return s.grantRole(ctx, username, models.RoleEditor)
}

// Deactivate disables the caller's own account and revokes its sessions.
func (s *AuthorService) Deactivate(ctx context.Context, principal string, username string) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if _, err := s.guard.CheckOwnership(ctx, principal, user); err != nil {
		return nil, err
	}

	user.Active = false
	if err := s.users.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate user")
	}

	if _, err := s.sessions.DeleteByUsername(ctx, user.Username); err != nil {
		s.logger.Warn("failed to revoke sessions of deactivated user", zap.Error(err))
	}
	return user, nil
}

// Delete removes the account entirely, sessions first. Admin only at the
// route level.
func (s *AuthorService) Delete(ctx context.Context, username string) error {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if _, err := s.sessions.DeleteByUsername(ctx, user.Username); err != nil {
		s.logger.Warn("failed to revoke sessions of deleted user", zap.Error(err))
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	s.logger.Info("user deleted", zap.String("username", username))
	return nil
}

func (s *AuthorService) grantRole(ctx context.Context, username, roleName string) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if user.HasRole(roleName) {
		return user, nil
	}

	if err := s.users.AddRole(ctx, user.ID, roleName); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to grant role")
	}
	user.Roles = append(user.Roles, roleName)
	return user, nil
}
