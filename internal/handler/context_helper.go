package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/magazinehq/magazine-api/internal/middleware"
	"github.com/magazinehq/magazine-api/internal/models"
)

func currentUser(c *gin.Context) (*models.User, bool) {
	return middleware.CurrentUser(c)
}

// principalName returns the authenticated username, or empty when the
// request carries no valid token.
func principalName(c *gin.Context) string {
	if user, ok := currentUser(c); ok {
		return user.Username
	}
	return ""
}

// isEditor reports whether the caller holds editor or admin rights, which
// unlocks moderation on content they do not own.
func isEditor(c *gin.Context) bool {
	user, ok := currentUser(c)
	if !ok {
		return false
	}
	return user.HasRole(models.RoleEditor) || user.HasRole(models.RoleAdmin)
}
