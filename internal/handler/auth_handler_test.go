package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/magazinehq/magazine-api/internal/middleware"
	"github.com/magazinehq/magazine-api/internal/models"
	"github.com/magazinehq/magazine-api/internal/service"
	"github.com/magazinehq/magazine-api/pkg/config"
	appErrors "github.com/magazinehq/magazine-api/pkg/errors"
)

type authUsersMock struct {
	user *models.User
}

func (m *authUsersMock) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.user != nil && m.user.ID == id {
		return m.user, nil
	}
	return nil, sql.ErrNoRows
}

func (m *authUsersMock) FindByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*models.User, error) {
	if m.user != nil && (m.user.Username == usernameOrEmail || m.user.Email == usernameOrEmail) {
		return m.user, nil
	}
	return nil, sql.ErrNoRows
}

func (m *authUsersMock) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return m.user != nil && m.user.Username == username, nil
}

func (m *authUsersMock) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return m.user != nil && m.user.Email == email, nil
}

func (m *authUsersMock) Count(ctx context.Context) (int, error) {
	if m.user == nil {
		return 0, nil
	}
	return 1, nil
}

func (m *authUsersMock) Create(ctx context.Context, user *models.User, roleNames []string) error {
	user.ID = "user-" + user.Username
	user.Roles = roleNames
	m.user = user
	return nil
}

type authRolesMock struct {
	created []string
}

func (m *authRolesMock) FindByName(ctx context.Context, name string) (*models.Role, error) {
	return nil, sql.ErrNoRows
}

func (m *authRolesMock) Create(ctx context.Context, role *models.Role) error {
	m.created = append(m.created, role.Name)
	return nil
}

type issuerMock struct{}

func (issuerMock) Issue(username string) (string, error) {
	return "access-for-" + username, nil
}

type sessionsMock struct {
	revoked []string
}

func (m *sessionsMock) Create(ctx context.Context, userID string) (*models.RefreshToken, error) {
	return &models.RefreshToken{ID: "rt1", UserID: userID, Token: "refresh-for-" + userID, ExpiresAt: time.Now().Add(24 * time.Hour)}, nil
}

func (m *sessionsMock) FindByToken(ctx context.Context, value string) (*models.RefreshToken, error) {
	return nil, appErrors.Clone(appErrors.ErrRefreshTokenNotFound, "")
}

func (m *sessionsMock) VerifyExpiration(ctx context.Context, token *models.RefreshToken) error {
	return nil
}

func (m *sessionsMock) DeleteByUsername(ctx context.Context, usernameOrEmail string) (int, error) {
	m.revoked = append(m.revoked, usernameOrEmail)
	return 1, nil
}

func cookieConfig() config.JWTConfig {
	return config.JWTConfig{
		RefreshCookieName: "magazine-refresh",
		RefreshCookiePath: "/api/auth/refresh-token",
		RefreshCookieAge:  24 * time.Hour,
	}
}

func newAuthHandlerForTest(users *authUsersMock, sessions *sessionsMock) *AuthHandler {
	svc := service.NewAuthService(users, &authRolesMock{}, issuerMock{}, sessions, nil, nil)
	return NewAuthHandler(svc, cookieConfig())
}

func activeAccount(t *testing.T) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-margaret",
		Username:     "margaret",
		Email:        "margaret@example.com",
		PasswordHash: string(hash),
		Active:       true,
		Roles:        []string{models.RoleUser},
	}
}

func jsonRequest(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest(method, target, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func findCookie(t *testing.T, res *http.Response, name string) *http.Cookie {
	t.Helper()
	for _, cookie := range res.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func TestAuthHandlerLoginSetsScopedRefreshCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	users := &authUsersMock{user: activeAccount(t)}
	handler := newAuthHandlerForTest(users, &sessionsMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/api/auth/login", models.LoginRequest{UsernameOrEmail: "margaret", Password: "s3cret-pass"})

	handler.Login(c)
	require.Equal(t, http.StatusOK, w.Code)

	cookie := findCookie(t, w.Result(), "magazine-refresh")
	assert.Equal(t, "refresh-for-user-margaret", cookie.Value)
	assert.Equal(t, "/api/auth/refresh-token", cookie.Path)
	assert.True(t, cookie.Secure)
	assert.False(t, cookie.HttpOnly)
	assert.Equal(t, int((24 * time.Hour).Seconds()), cookie.MaxAge)

	var envelope struct {
		Data models.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "access-for-margaret", envelope.Data.AccessToken)
	assert.Equal(t, "margaret", envelope.Data.Username)
}

func TestAuthHandlerLoginBadCredentialsSetsNoCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	users := &authUsersMock{user: activeAccount(t)}
	handler := newAuthHandlerForTest(users, &sessionsMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/api/auth/login", models.LoginRequest{UsernameOrEmail: "margaret", Password: "wrong"})

	handler.Login(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestAuthHandlerRefreshWithoutCookieIsSoft(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandlerForTest(&authUsersMock{}, &sessionsMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodPost, "/api/auth/refresh-token", nil)
	require.NoError(t, err)
	c.Request = req

	handler.Refresh(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.RefreshResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "refresh token is empty", envelope.Data.Message)
	assert.Empty(t, envelope.Data.AccessToken)
}

func TestAuthHandlerRefreshUnknownToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandlerForTest(&authUsersMock{}, &sessionsMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodPost, "/api/auth/refresh-token", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: "magazine-refresh", Value: "unknown"})
	c.Request = req

	handler.Refresh(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthHandlerLogoutRevokesSessionsAndClearsCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sessions := &sessionsMock{}
	handler := newAuthHandlerForTest(&authUsersMock{user: activeAccount(t)}, sessions)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	require.NoError(t, err)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.User{ID: "user-margaret", Username: "margaret"})

	handler.Logout(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"margaret"}, sessions.revoked)

	cookie := findCookie(t, w.Result(), "magazine-refresh")
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestAuthHandlerLogoutAnonymousIsNoOp(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sessions := &sessionsMock{}
	handler := newAuthHandlerForTest(&authUsersMock{}, sessions)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	require.NoError(t, err)
	c.Request = req

	handler.Logout(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sessions.revoked)
}

func TestAuthHandlerRegisterFirstAccountGetsAllRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	users := &authUsersMock{}
	handler := newAuthHandlerForTest(users, &sessionsMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/api/auth/register", models.RegisterRequest{
		Username: "margaret",
		Email:    "margaret@example.com",
		Password: "s3cret-pass",
	})

	handler.Register(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, users.user)
	assert.ElementsMatch(t, models.AllRoles, users.user.Roles)
}
