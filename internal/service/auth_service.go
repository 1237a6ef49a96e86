package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/magazinehq/magazine-api/internal/models"
	appErrors "github.com/magazinehq/magazine-api/pkg/errors"
)

type authUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, user *models.User, roleNames []string) error
}

type authRoleRepository interface {
	FindByName(ctx context.Context, name string) (*models.Role, error)
	Create(ctx context.Context, role *models.Role) error
}

type accessTokenIssuer interface {
	Issue(username string) (string, error)
}

type refreshSessionStore interface {
	Create(ctx context.Context, userID string) (*models.RefreshToken, error)
	FindByToken(ctx context.Context, value string) (*models.RefreshToken, error)
	VerifyExpiration(ctx context.Context, token *models.RefreshToken) error
	DeleteByUsername(ctx context.Context, usernameOrEmail string) (int, error)
}

// AuthService orchestrates registration, login, token refresh and logout.
type AuthService struct {
	users     authUserRepository
	roles     authRoleRepository
	issuer    accessTokenIssuer
	sessions  refreshSessionStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, roles authRoleRepository, issuer accessTokenIssuer, sessions refreshSessionStore, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{users: users, roles: roles, issuer: issuer, sessions: sessions, validator: validate, logger: logger}
}

// Register creates a new account. The very first registration bootstraps
// the role table and receives all four roles; everyone after that gets
// ROLE_USER only.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid register payload")
	}

	taken, err := s.users.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check username")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrDuplicateUsername, "")
	}

	taken, err = s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrDuplicateEmail, "")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count users")
	}

	roleNames := []string{models.RoleUser}
	if total == 0 {
		if err := s.bootstrapRoles(ctx); err != nil {
			return nil, err
		}
		roleNames = models.AllRoles
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: string(hash),
		Active:       true,
	}

	if err := s.users.Create(ctx, user, roleNames); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.logger.Info("user registered", zap.String("username", user.Username), zap.Strings("roles", roleNames))
	return &models.RegisterResponse{Username: user.Username}, nil
}

// Login verifies credentials and issues the access/refresh token pair. All
// failure modes share one generic message so callers cannot probe which
// part was wrong.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, *models.RefreshToken, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.users.FindByUsernameOrEmail(ctx, req.UsernameOrEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrAuthenticationFailed, "")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if !user.Active {
		return nil, nil, appErrors.Clone(appErrors.ErrAuthenticationFailed, "")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrAuthenticationFailed, "")
	}

	accessToken, err := s.issuer.Issue(user.Username)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	refreshToken, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	return &models.LoginResponse{
		UserID:      user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Image:       user.ProfileImage,
		Roles:       user.Roles,
		AccessToken: accessToken,
	}, refreshToken, nil
}

// Refresh exchanges a persisted refresh token for a new access token. An
// absent cookie yields a soft response rather than an error, which existing
// clients depend on. The refresh row itself is left untouched.
func (s *AuthService) Refresh(ctx context.Context, cookieValue string) (*models.RefreshResponse, error) {
	if cookieValue == "" {
		return &models.RefreshResponse{Message: "refresh token is empty"}, nil
	}

	token, err := s.sessions.FindByToken(ctx, cookieValue)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.VerifyExpiration(ctx, token); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrRefreshTokenNotFound, "refresh token owner no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	accessToken, err := s.issuer.Issue(user.Username)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	return &models.RefreshResponse{
		UserID:      user.ID,
		Username:    user.Username,
		Image:       user.ProfileImage,
		AccessToken: accessToken,
	}, nil
}

// Logout revokes every refresh token of the principal. An unauthenticated
// call is a no-op; the handler clears the cookie either way.
func (s *AuthService) Logout(ctx context.Context, principal string) error {
	if principal == "" {
		return nil
	}

	count, err := s.sessions.DeleteByUsername(ctx, principal)
	if err != nil {
		return err
	}
	s.logger.Info("user signed out", zap.String("username", principal), zap.Int("revoked_sessions", count))
	return nil
}

func (s *AuthService) bootstrapRoles(ctx context.Context) error {
	for _, name := range models.AllRoles {
		if _, err := s.roles.FindByName(ctx, name); err == nil {
			continue
		} else if !errors.Is(err, sql.ErrNoRows) {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up role")
		}
		if err := s.roles.Create(ctx, &models.Role{Name: name}); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bootstrap role")
		}
	}
	return nil
}
