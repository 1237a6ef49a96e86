package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/magazinehq/magazine-api/internal/service"
	appErrors "github.com/magazinehq/magazine-api/pkg/errors"
	"github.com/magazinehq/magazine-api/pkg/response"
)

// AuthorHandler wires the account and author-profile endpoints.
type AuthorHandler struct {
	service      *service.AuthorService
	allowedMIMEs []string
}

// NewAuthorHandler creates a new handler.
func NewAuthorHandler(svc *service.AuthorService, allowedMIMEs []string) *AuthorHandler {
	return &AuthorHandler{service: svc, allowedMIMEs: allowedMIMEs}
}

// ListUsers godoc
// @Summary List all accounts
// @Tags Authors
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /authors/users [get]
func (h *AuthorHandler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, nil)
}

// ListAuthors godoc
// @Summary List authors
// @Tags Authors
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /authors [get]
func (h *AuthorHandler) ListAuthors(c *gin.Context) {
	authors, err := h.service.ListAuthors(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, authors, nil)
}

// GetByUsername godoc
// @Summary Get an author profile
// @Tags Authors
// @Produce json
// @Param username path string true "Author username"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /authors/{username} [get]
func (h *AuthorHandler) GetByUsername(c *gin.Context) {
	author, err := h.service.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, author, nil)
}

// UpdateProfile godoc
// @Summary Update own profile
// @Tags Authors
// @Accept mpfd
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /authors/{username} [put]
func (h *AuthorHandler) UpdateProfile(c *gin.Context) {
	req := service.UpdateProfileRequest{
		FirstName:   c.PostForm("firstName"),
		LastName:    c.PostForm("lastName"),
		Description: c.PostForm("description"),
	}

	image, imageName, err := formImage(c, "profileImage", h.allowedMIMEs)
	if err != nil {
		response.Error(c, err)
		return
	}
	if image != nil {
		defer image.Close() //nolint:errcheck
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), principalName(c), c.Param("username"), req, readerOrNil(image), imageName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// MakeAuthor godoc
// @Summary Grant the author role
// @Tags Authors
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} response.Envelope
// @Router /authors/{username}/make-author [post]
func (h *AuthorHandler) MakeAuthor(c *gin.Context) {
	user, err := h.service.MakeAuthor(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// MakeEditor godoc
// @Summary Grant the editor role
// @Tags Authors
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} response.Envelope
// @Router /authors/{username}/make-editor [post]
func (h *AuthorHandler) MakeEditor(c *gin.Context) {
	user, err := h.service.MakeEditor(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Deactivate godoc
// @Summary Deactivate own account
// @Tags Authors
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /authors/{username}/deactivate [post]
func (h *AuthorHandler) Deactivate(c *gin.Context) {
	user, err := h.service.Deactivate(c.Request.Context(), principalName(c), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Delete godoc
// @Summary Delete an account
// @Tags Authors
// @Produce json
// @Param username path string true "Username"
// @Success 204
// @Router /authors/{username} [delete]
func (h *AuthorHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("username")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// formImage extracts an optional uploaded file from the multipart form. A
// missing file is not an error. When an allowlist is configured, the
// declared content type must match one of its entries.
func formImage(c *gin.Context, field string, allowedMIMEs []string) (multipart.File, string, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile || err == http.ErrNotMultipart {
			return nil, "", nil
		}
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "invalid image upload")
	}
	if len(allowedMIMEs) > 0 {
		contentType := header.Header.Get("Content-Type")
		allowed := false
		for _, mime := range allowedMIMEs {
			if strings.EqualFold(mime, contentType) {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported image type")
		}
	}
	file, err := header.Open()
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read image upload")
	}
	return file, header.Filename, nil
}

// readerOrNil avoids passing a typed-nil interface to the services.
func readerOrNil(file multipart.File) io.Reader {
	if file == nil {
		return nil
	}
	return file
}
