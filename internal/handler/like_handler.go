package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/magazinehq/magazine-api/internal/service"
	"github.com/magazinehq/magazine-api/pkg/response"
)

// LikeHandler wires the like-toggle endpoints.
type LikeHandler struct {
	service *service.LikeService
}

// NewLikeHandler creates a new handler.
func NewLikeHandler(svc *service.LikeService) *LikeHandler {
	return &LikeHandler{service: svc}
}

// TogglePost godoc
// @Summary Like or unlike a post
// @Tags Likes
// @Produce json
// @Param postId path string true "Post ID"
// @Success 200 {object} response.Envelope
// @Router /likes/post/{postId} [post]
func (h *LikeHandler) TogglePost(c *gin.Context) {
	liked, err := h.service.TogglePostLike(c.Request.Context(), principalName(c), c.Param("postId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"liked": liked}, nil)
}

// ToggleComment godoc
// @Summary Like or unlike a comment
// @Tags Likes
// @Produce json
// @Param commentId path string true "Comment ID"
// @Success 200 {object} response.Envelope
// @Router /likes/comment/{commentId} [post]
func (h *LikeHandler) ToggleComment(c *gin.Context) {
	liked, err := h.service.ToggleCommentLike(c.Request.Context(), principalName(c), c.Param("commentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"liked": liked}, nil)
}

// PostLikers godoc
// @Summary List usernames that liked a post
// @Tags Likes
// @Produce json
// @Param postId path string true "Post ID"
// @Success 200 {object} response.Envelope
// @Router /likes/post/{postId} [get]
func (h *LikeHandler) PostLikers(c *gin.Context) {
	names, err := h.service.PostLikers(c.Request.Context(), c.Param("postId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, names, nil)
}

// CommentLikers godoc
// @Summary List usernames that liked a comment
// @Tags Likes
// @Produce json
// @Param commentId path string true "Comment ID"
// @Success 200 {object} response.Envelope
// @Router /likes/comment/{commentId} [get]
func (h *LikeHandler) CommentLikers(c *gin.Context) {
	names, err := h.service.CommentLikers(c.Request.Context(), c.Param("commentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, names, nil)
}
