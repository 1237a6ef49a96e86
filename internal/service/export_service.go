package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/magazinehq/magazine-api/internal/models"
	appErrors "github.com/magazinehq/magazine-api/pkg/errors"
	"github.com/magazinehq/magazine-api/pkg/export"
	"github.com/magazinehq/magazine-api/pkg/storage"
)

type exportPostLister interface {
	ListActive(ctx context.Context) ([]models.Post, error)
	ListDeactivated(ctx context.Context) ([]models.Post, error)
}

// ExportResult describes a rendered archive document.
type ExportResult struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
	Content     []byte `json:"-"`
}

// ExportService renders the post archive as CSV or PDF for the admin
// panel and keeps a copy under the exports directory.
type ExportService struct {
	posts   exportPostLister
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	storage *storage.LocalStorage
	logger  *zap.Logger
}

// NewExportService creates an instance of ExportService.
func NewExportService(posts exportPostLister, csv *export.CSVExporter, pdf *export.PDFExporter, store *storage.LocalStorage, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{posts: posts, csv: csv, pdf: pdf, storage: store, logger: logger}
}

// PostsCSV renders the full post archive as CSV.
func (s *ExportService) PostsCSV(ctx context.Context, includeDeactivated bool) (*ExportResult, error) {
	table, err := s.postsTable(ctx, includeDeactivated)
	if err != nil {
		return nil, err
	}

	content, err := s.csv.Render(*table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
	}
	return s.persist("csv", "text/csv", content)
}

// PostsPDF renders the full post archive as a landscape PDF.
func (s *ExportService) PostsPDF(ctx context.Context, includeDeactivated bool) (*ExportResult, error) {
	table, err := s.postsTable(ctx, includeDeactivated)
	if err != nil {
		return nil, err
	}

	content, err := s.pdf.Render(*table, "Post Archive")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
	}
	return s.persist("pdf", "application/pdf", content)
}

func (s *ExportService) postsTable(ctx context.Context, includeDeactivated bool) (*export.Table, error) {
	posts, err := s.posts.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list posts for export")
	}
	if includeDeactivated {
		inactive, err := s.posts.ListDeactivated(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list deactivated posts for export")
		}
		posts = append(posts, inactive...)
	}

	table := &export.Table{
		Headers: []string{"ID", "Title", "Author", "Category", "Active", "Created At"},
		Rows:    make([][]string, 0, len(posts)),
	}
	for _, post := range posts {
		table.Rows = append(table.Rows, []string{
			post.ID,
			post.Title,
			post.AuthorUsername,
			post.CategoryName,
			strconv.FormatBool(post.Active),
			post.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return table, nil
}

func (s *ExportService) persist(ext, contentType string, content []byte) (*ExportResult, error) {
	filename := fmt.Sprintf("posts-%s.%s", time.Now().UTC().Format("20060102-150405"), ext)
	if _, err := s.storage.Save(filename, content); err != nil {
		s.logger.Warn("failed to keep export copy", zap.String("filename", filename), zap.Error(err))
	}
	return &ExportResult{
		Filename:    filename,
		ContentType: contentType,
		Size:        len(content),
		Content:     content,
	}, nil
}
