package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/magazinehq/magazine-api/internal/models"
	appErrors "github.com/magazinehq/magazine-api/pkg/errors"
)

type fakeUserRepo struct {
	users   map[string]*models.User // keyed by username
	created []*models.User
	roles   map[string][]string // roles granted at Create, keyed by username
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[string]*models.User{}, roles: map[string][]string{}}
	for _, u := range users {
		repo.users[u.Username] = u
	}
	return repo
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) FindByUsername(_ context.Context, username string) (*models.User, error) {
	if u, ok := f.users[username]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) FindByUsernameOrEmail(_ context.Context, usernameOrEmail string) (*models.User, error) {
	if u, ok := f.users[usernameOrEmail]; ok {
		return u, nil
	}
	for _, u := range f.users {
		if u.Email == usernameOrEmail {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	_, ok := f.users[username]
	return ok, nil
}

func (f *fakeUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range f.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) Count(context.Context) (int, error) {
	return len(f.users), nil
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User, roleNames []string) error {
	user.ID = "user-" + user.Username
	user.Roles = roleNames
	f.users[user.Username] = user
	f.created = append(f.created, user)
	f.roles[user.Username] = roleNames
	return nil
}

type fakeRoleRepo struct {
	roles map[string]*models.Role
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{roles: map[string]*models.Role{}}
}

func (f *fakeRoleRepo) FindByName(_ context.Context, name string) (*models.Role, error) {
	if r, ok := f.roles[name]; ok {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRoleRepo) Create(_ context.Context, role *models.Role) error {
	role.ID = "role-" + role.Name
	f.roles[role.Name] = role
	return nil
}

type fakeIssuer struct {
	issued []string
	err    error
}

func (f *fakeIssuer) Issue(username string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.issued = append(f.issued, username)
	return "access-for-" + username, nil
}

type fakeSessions struct {
	byToken map[string]*models.RefreshToken
	revoked map[string]int
	users   *fakeUserRepo
}

func newFakeSessions(users *fakeUserRepo) *fakeSessions {
	return &fakeSessions{byToken: map[string]*models.RefreshToken{}, revoked: map[string]int{}, users: users}
}

func (f *fakeSessions) Create(_ context.Context, userID string) (*models.RefreshToken, error) {
	// Mirrors the one-session-per-user behaviour of the real store.
	for value, token := range f.byToken {
		if token.UserID == userID {
			delete(f.byToken, value)
		}
	}
	token := &models.RefreshToken{
		ID:        "rt-" + userID,
		UserID:    userID,
		Token:     "refresh-for-" + userID,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	f.byToken[token.Token] = token
	return token, nil
}

func (f *fakeSessions) FindByToken(_ context.Context, value string) (*models.RefreshToken, error) {
	if token, ok := f.byToken[value]; ok {
		return token, nil
	}
	return nil, appErrors.Clone(appErrors.ErrRefreshTokenNotFound, "")
}

func (f *fakeSessions) VerifyExpiration(_ context.Context, token *models.RefreshToken) error {
	if token.ExpiresAt.After(time.Now()) {
		return nil
	}
	delete(f.byToken, token.Token)
	return appErrors.Clone(appErrors.ErrRefreshTokenExpired, "")
}

func (f *fakeSessions) DeleteByUsername(ctx context.Context, usernameOrEmail string) (int, error) {
	user, err := f.users.FindByUsernameOrEmail(ctx, usernameOrEmail)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	count := 0
	for value, token := range f.byToken {
		if token.UserID == user.ID {
			delete(f.byToken, value)
			count++
		}
	}
	f.revoked[user.Username] += count
	return count, nil
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func activeUser(t *testing.T, username, password string) *models.User {
	t.Helper()
	return &models.User{
		ID:           "user-" + username,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hashPassword(t, password),
		Active:       true,
		Roles:        []string{models.RoleUser},
	}
}

func newAuthService(users *fakeUserRepo, roles *fakeRoleRepo, issuer *fakeIssuer, sessions *fakeSessions) *AuthService {
	return NewAuthService(users, roles, issuer, sessions, nil, nil)
}

func TestRegisterFirstUserGetsEveryRole(t *testing.T) {
	users := newFakeUserRepo()
	roles := newFakeRoleRepo()
	svc := newAuthService(users, roles, &fakeIssuer{}, newFakeSessions(users))

	res, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "founder",
		Email:    "founder@example.com",
		Password: "s3cretpass",
	})
	require.NoError(t, err)
	assert.Equal(t, "founder", res.Username)
	assert.ElementsMatch(t, models.AllRoles, users.roles["founder"])
	assert.Len(t, roles.roles, len(models.AllRoles))

	// Second registration is a plain user.
	_, err = svc.Register(context.Background(), models.RegisterRequest{
		Username: "reader",
		Email:    "reader@example.com",
		Password: "s3cretpass",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleUser}, users.roles["reader"])
}

func TestRegisterDuplicateUsernameAndEmail(t *testing.T) {
	users := newFakeUserRepo(activeUser(t, "margaret", "pw123456"))
	svc := newAuthService(users, newFakeRoleRepo(), &fakeIssuer{}, newFakeSessions(users))

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Username: "margaret",
		Email:    "fresh@example.com",
		Password: "s3cretpass",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicateUsername))

	_, err = svc.Register(context.Background(), models.RegisterRequest{
		Username: "fresh",
		Email:    "margaret@example.com",
		Password: "s3cretpass",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicateEmail))
}

func TestLoginIssuesTokensForUsernameOrEmail(t *testing.T) {
	users := newFakeUserRepo(activeUser(t, "margaret", "pw123456"))
	issuer := &fakeIssuer{}
	svc := newAuthService(users, newFakeRoleRepo(), issuer, newFakeSessions(users))

	res, refresh, err := svc.Login(context.Background(), models.LoginRequest{
		UsernameOrEmail: "margaret@example.com",
		Password:        "pw123456",
	})
	require.NoError(t, err)
	assert.Equal(t, "margaret", res.Username)
	assert.Equal(t, "access-for-margaret", res.AccessToken)
	require.NotNil(t, refresh)
	assert.Equal(t, "user-margaret", refresh.UserID)

	// The token subject is the username even when login used the email.
	assert.Equal(t, []string{"margaret"}, issuer.issued)
}

func TestLoginFailuresShareOneGenericError(t *testing.T) {
	inactive := activeUser(t, "dormant", "pw123456")
	inactive.Active = false
	users := newFakeUserRepo(activeUser(t, "margaret", "pw123456"), inactive)
	svc := newAuthService(users, newFakeRoleRepo(), &fakeIssuer{}, newFakeSessions(users))

	cases := map[string]models.LoginRequest{
		"unknown user":   {UsernameOrEmail: "nobody", Password: "pw123456"},
		"wrong password": {UsernameOrEmail: "margaret", Password: "wrong-pw"},
		"inactive user":  {UsernameOrEmail: "dormant", Password: "pw123456"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := svc.Login(context.Background(), req)
			require.Error(t, err)
			assert.True(t, appErrors.Is(err, appErrors.ErrAuthenticationFailed))
			assert.Equal(t, appErrors.ErrAuthenticationFailed.Message, appErrors.FromError(err).Message)
		})
	}
}

func TestLoginReplacesPriorSession(t *testing.T) {
	users := newFakeUserRepo(activeUser(t, "margaret", "pw123456"))
	sessions := newFakeSessions(users)
	svc := newAuthService(users, newFakeRoleRepo(), &fakeIssuer{}, sessions)

	_, first, err := svc.Login(context.Background(), models.LoginRequest{UsernameOrEmail: "margaret", Password: "pw123456"})
	require.NoError(t, err)
	_, second, err := svc.Login(context.Background(), models.LoginRequest{UsernameOrEmail: "margaret", Password: "pw123456"})
	require.NoError(t, err)

	assert.Len(t, sessions.byToken, 1)
	assert.Equal(t, first.UserID, second.UserID)
}

func TestRefreshWithEmptyCookieIsSoft(t *testing.T) {
	users := newFakeUserRepo()
	svc := newAuthService(users, newFakeRoleRepo(), &fakeIssuer{}, newFakeSessions(users))

	res, err := svc.Refresh(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Message)
	assert.Empty(t, res.AccessToken)
}

func TestRefreshUnknownToken(t *testing.T) {
	users := newFakeUserRepo()
	svc := newAuthService(users, newFakeRoleRepo(), &fakeIssuer{}, newFakeSessions(users))

	_, err := svc.Refresh(context.Background(), "never-issued")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrRefreshTokenNotFound))
}

func TestRefreshIssuesNewAccessTokenWithoutRotation(t *testing.T) {
	users := newFakeUserRepo(activeUser(t, "margaret", "pw123456"))
	sessions := newFakeSessions(users)
	svc := newAuthService(users, newFakeRoleRepo(), &fakeIssuer{}, sessions)

	_, refresh, err := svc.Login(context.Background(), models.LoginRequest{UsernameOrEmail: "margaret", Password: "pw123456"})
	require.NoError(t, err)

	res, err := svc.Refresh(context.Background(), refresh.Token)
	require.NoError(t, err)
	assert.Equal(t, "access-for-margaret", res.AccessToken)
	assert.Empty(t, res.Message)

	// Same refresh value keeps working until expiry or logout.
	res, err = svc.Refresh(context.Background(), refresh.Token)
	require.NoError(t, err)
	assert.Equal(t, "access-for-margaret", res.AccessToken)
}

func TestRefreshExpiredTokenThenGone(t *testing.T) {
	users := newFakeUserRepo(activeUser(t, "margaret", "pw123456"))
	sessions := newFakeSessions(users)
	svc := newAuthService(users, newFakeRoleRepo(), &fakeIssuer{}, sessions)

	expired := &models.RefreshToken{
		ID:        "rt-old",
		UserID:    "user-margaret",
		Token:     "stale-token",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	sessions.byToken[expired.Token] = expired

	_, err := svc.Refresh(context.Background(), expired.Token)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrRefreshTokenExpired))

	// The expired row was removed, so a retry no longer finds it.
	_, err = svc.Refresh(context.Background(), expired.Token)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrRefreshTokenNotFound))
}

func TestLogoutRevokesSessions(t *testing.T) {
	users := newFakeUserRepo(activeUser(t, "margaret", "pw123456"))
	sessions := newFakeSessions(users)
	svc := newAuthService(users, newFakeRoleRepo(), &fakeIssuer{}, sessions)

	_, refresh, err := svc.Login(context.Background(), models.LoginRequest{UsernameOrEmail: "margaret", Password: "pw123456"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), "margaret"))
	assert.Equal(t, 1, sessions.revoked["margaret"])

	_, err = svc.Refresh(context.Background(), refresh.Token)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrRefreshTokenNotFound))
}

func TestLogoutWithoutPrincipalIsNoop(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeSessions(users)
	svc := newAuthService(users, newFakeRoleRepo(), &fakeIssuer{}, sessions)

	require.NoError(t, svc.Logout(context.Background(), ""))
	assert.Empty(t, sessions.revoked)
}
