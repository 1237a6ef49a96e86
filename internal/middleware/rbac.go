package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/magazinehq/magazine-api/pkg/errors"
	"github.com/magazinehq/magazine-api/pkg/response"
)

// RequireRoles enforces flat role membership for routes: the principal must
// hold at least one of the named roles exactly. There is no hierarchy, an
// admin without ROLE_EDITOR is not an editor.
func RequireRoles(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		allowedSet[name] = struct{}{}
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		for _, role := range user.Roles {
			if _, ok := allowedSet[role]; ok {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrAccessDenied)
		c.Abort()
	}
}
