package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/magazinehq/magazine-api/internal/models"
	"github.com/magazinehq/magazine-api/internal/service"
	"github.com/magazinehq/magazine-api/pkg/config"
	appErrors "github.com/magazinehq/magazine-api/pkg/errors"
	"github.com/magazinehq/magazine-api/pkg/response"
)

// AuthHandler wires the authentication endpoints to the auth service and
// owns the refresh cookie contract.
type AuthHandler struct {
	service *service.AuthService
	cookies config.JWTConfig
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc *service.AuthService, cookies config.JWTConfig) *AuthHandler {
	return &AuthHandler{service: svc, cookies: cookies}
}

// Register godoc
// @Summary Register a new account
// @Description Create a user; the first ever registration gets every role
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Register payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid register payload"))
		return
	}

	res, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate by username or email and password; sets the refresh cookie
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	res, refresh, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setRefreshCookie(c, refresh.Token)
	response.JSON(c, http.StatusOK, res, nil)
}

// Refresh godoc
// @Summary Refresh access token
// @Description Exchange the refresh cookie for a new access token
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /auth/refresh-token [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	// A missing cookie is a soft condition, not an error.
	cookieValue, err := c.Cookie(h.cookies.RefreshCookieName)
	if err != nil {
		cookieValue = ""
	}

	res, err := h.service.Refresh(c.Request.Context(), cookieValue)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Logout godoc
// @Summary Sign out
// @Description Revoke the caller's refresh tokens and clear the cookie
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	principal := ""
	if user, ok := currentUser(c); ok {
		principal = user.Username
	}

	if err := h.service.Logout(c.Request.Context(), principal); err != nil {
		response.Error(c, err)
		return
	}

	h.clearRefreshCookie(c)
	response.JSON(c, http.StatusOK, gin.H{"message": "signed out"}, nil)
}

// The refresh cookie is scoped to the refresh endpoint path and marked
// Secure. It stays readable by the browser client, which mirrors it into
// its session store.
func (h *AuthHandler) setRefreshCookie(c *gin.Context, value string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookies.RefreshCookieName, value, int(h.cookies.RefreshCookieAge.Seconds()), h.cookies.RefreshCookiePath, "", true, false)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookies.RefreshCookieName, "", -1, h.cookies.RefreshCookiePath, "", true, false)
}
