package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/magazinehq/magazine-api/internal/service"
	"github.com/magazinehq/magazine-api/pkg/response"
)

// ExportHandler serves the admin post-archive downloads.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// PostsCSV godoc
// @Summary Download the post archive as CSV
// @Tags Exports
// @Produce text/csv
// @Param all query bool false "Include deactivated posts"
// @Success 200
// @Router /exports/posts.csv [get]
func (h *ExportHandler) PostsCSV(c *gin.Context) {
	result, err := h.service.PostsCSV(c.Request.Context(), c.Query("all") == "true")
	if err != nil {
		response.Error(c, err)
		return
	}
	h.send(c, result)
}

// PostsPDF godoc
// @Summary Download the post archive as PDF
// @Tags Exports
// @Produce application/pdf
// @Param all query bool false "Include deactivated posts"
// @Success 200
// @Router /exports/posts.pdf [get]
func (h *ExportHandler) PostsPDF(c *gin.Context) {
	result, err := h.service.PostsPDF(c.Request.Context(), c.Query("all") == "true")
	if err != nil {
		response.Error(c, err)
		return
	}
	h.send(c, result)
}

func (h *ExportHandler) send(c *gin.Context, result *service.ExportResult) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(200, result.ContentType, result.Content)
}
