package middleware

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/magazinehq/magazine-api/internal/models"
	appErrors "github.com/magazinehq/magazine-api/pkg/errors"
	"github.com/magazinehq/magazine-api/pkg/response"
)

// ContextUserKey is the gin context key storing the authenticated user.
const ContextUserKey = "currentUser"

type tokenValidator interface {
	ExtractUsername(token string) (string, error)
}

type principalResolver interface {
	FindByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*models.User, error)
}

// JWT protects routes by requiring a valid access token. The token only
// carries the subject, so the full principal (with its role set) is loaded
// from the store and attached to the request context explicitly.
func JWT(tokens tokenValidator, users principalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, err := usernameFromHeader(c, tokens)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		user, err := users.FindByUsernameOrEmail(c.Request.Context(), username)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "unknown principal"))
			} else {
				response.Error(c, err)
			}
			c.Abort()
			return
		}
		if !user.Active {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "account is inactive"))
			c.Abort()
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// OptionalJWT attaches the principal when a valid token is present but
// never blocks the request. Logout uses this so unauthenticated calls
// still succeed.
func OptionalJWT(tokens tokenValidator, users principalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, err := usernameFromHeader(c, tokens)
		if err != nil {
			c.Next()
			return
		}

		user, err := users.FindByUsernameOrEmail(c.Request.Context(), username)
		if err != nil || !user.Active {
			c.Next()
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated principal from the context.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

func usernameFromHeader(c *gin.Context, tokens tokenValidator) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}

	return tokens.ExtractUsername(parts[1])
}
