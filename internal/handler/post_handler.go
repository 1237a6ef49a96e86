package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/magazinehq/magazine-api/internal/service"
	"github.com/magazinehq/magazine-api/pkg/response"
)

// PostHandler wires the article endpoints.
type PostHandler struct {
	service      *service.PostService
	allowedMIMEs []string
}

// NewPostHandler creates a new handler.
func NewPostHandler(svc *service.PostService, allowedMIMEs []string) *PostHandler {
	return &PostHandler{service: svc, allowedMIMEs: allowedMIMEs}
}

// List godoc
// @Summary List published posts
// @Tags Posts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /posts [get]
func (h *PostHandler) List(c *gin.Context) {
	posts, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, posts, nil)
}

// ListRecent godoc
// @Summary List the newest published posts
// @Tags Posts
// @Produce json
// @Param size query int false "Number of posts"
// @Success 200 {object} response.Envelope
// @Router /posts/recent [get]
func (h *PostHandler) ListRecent(c *gin.Context) {
	posts, err := h.service.ListRecent(c.Request.Context(), queryInt(c, "size"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, posts, nil)
}

// ListRandom godoc
// @Summary List random published posts
// @Tags Posts
// @Produce json
// @Param size query int false "Number of posts"
// @Success 200 {object} response.Envelope
// @Router /posts/random [get]
func (h *PostHandler) ListRandom(c *gin.Context) {
	posts, err := h.service.ListRandom(c.Request.Context(), queryInt(c, "size"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, posts, nil)
}

// ListByCategory godoc
// @Summary List published posts in a category
// @Tags Posts
// @Produce json
// @Param category path string true "Category name"
// @Success 200 {object} response.Envelope
// @Router /posts/category/{category} [get]
func (h *PostHandler) ListByCategory(c *gin.Context) {
	posts, err := h.service.ListByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, posts, nil)
}

// CountByCategory godoc
// @Summary Count published posts in a category
// @Tags Posts
// @Produce json
// @Param category path string true "Category name"
// @Success 200 {object} response.Envelope
// @Router /posts/category/{category}/count [get]
func (h *PostHandler) CountByCategory(c *gin.Context) {
	total, err := h.service.CountByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"count": total}, nil)
}

// ListByAuthor godoc
// @Summary List published posts by an author
// @Tags Posts
// @Produce json
// @Param username path string true "Author username"
// @Success 200 {object} response.Envelope
// @Router /posts/author/{username} [get]
func (h *PostHandler) ListByAuthor(c *gin.Context) {
	posts, err := h.service.ListByAuthor(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, posts, nil)
}

// ListDeactivated godoc
// @Summary List unpublished posts
// @Tags Posts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /posts/deactivated [get]
func (h *PostHandler) ListDeactivated(c *gin.Context) {
	posts, err := h.service.ListDeactivated(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, posts, nil)
}

// Get godoc
// @Summary Get a single post
// @Tags Posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /posts/{id} [get]
func (h *PostHandler) Get(c *gin.Context) {
	post, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, post, nil)
}

// Create godoc
// @Summary Publish a new post
// @Tags Posts
// @Accept mpfd
// @Produce json
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /posts [post]
func (h *PostHandler) Create(c *gin.Context) {
	req := service.CreatePostRequest{
		Title:      c.PostForm("title"),
		Content:    c.PostForm("content"),
		CategoryID: c.PostForm("categoryId"),
	}

	image, imageName, err := formImage(c, "image", h.allowedMIMEs)
	if err != nil {
		response.Error(c, err)
		return
	}
	if image != nil {
		defer image.Close() //nolint:errcheck
	}

	post, err := h.service.Create(c.Request.Context(), principalName(c), req, readerOrNil(image), imageName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, post)
}

// CreateForAuthor godoc
// @Summary Publish a post on behalf of an author
// @Tags Posts
// @Accept mpfd
// @Produce json
// @Param username path string true "Author username"
// @Success 201 {object} response.Envelope
// @Router /posts/editor/{username} [post]
func (h *PostHandler) CreateForAuthor(c *gin.Context) {
	req := service.CreatePostRequest{
		Title:      c.PostForm("title"),
		Content:    c.PostForm("content"),
		CategoryID: c.PostForm("categoryId"),
	}

	image, imageName, err := formImage(c, "image", h.allowedMIMEs)
	if err != nil {
		response.Error(c, err)
		return
	}
	if image != nil {
		defer image.Close() //nolint:errcheck
	}

	post, err := h.service.CreateForAuthor(c.Request.Context(), principalName(c), c.Param("username"), req, readerOrNil(image), imageName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, post)
}

// Update godoc
// @Summary Edit a post
// @Tags Posts
// @Accept mpfd
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /posts/{id} [put]
func (h *PostHandler) Update(c *gin.Context) {
	req := service.UpdatePostRequest{
		Title:      c.PostForm("title"),
		Content:    c.PostForm("content"),
		CategoryID: c.PostForm("categoryId"),
	}

	image, imageName, err := formImage(c, "image", h.allowedMIMEs)
	if err != nil {
		response.Error(c, err)
		return
	}
	if image != nil {
		defer image.Close() //nolint:errcheck
	}

	post, err := h.service.Update(c.Request.Context(), principalName(c), isEditor(c), c.Param("id"), req, readerOrNil(image), imageName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, post, nil)
}

// Deactivate godoc
// @Summary Unpublish a post
// @Tags Posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /posts/{id}/deactivate [post]
func (h *PostHandler) Deactivate(c *gin.Context) {
	if err := h.service.Deactivate(c.Request.Context(), principalName(c), isEditor(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "post deactivated"}, nil)
}

// Activate godoc
// @Summary Republish a post
// @Tags Posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} response.Envelope
// @Router /posts/{id}/activate [post]
func (h *PostHandler) Activate(c *gin.Context) {
	if err := h.service.Activate(c.Request.Context(), principalName(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "post activated"}, nil)
}

func queryInt(c *gin.Context, name string) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return value
}
