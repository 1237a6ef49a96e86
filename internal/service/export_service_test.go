package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magazinehq/magazine-api/pkg/export"
	"github.com/magazinehq/magazine-api/pkg/storage"
)

func newExportServiceForTest(t *testing.T, posts *fakePostRepo) *ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewExportService(posts, export.NewCSVExporter(), export.NewPDFExporter(), store, nil)
}

func TestPostsCSVContainsArchiveRows(t *testing.T) {
	active := testPost("p1", "user-margaret", "margaret")
	inactive := testPost("p2", "user-margaret", "margaret")
	inactive.Active = false
	posts := newFakePostRepo(active, inactive)
	svc := newExportServiceForTest(t, posts)

	result, err := svc.PostsCSV(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"))

	body := string(result.Content)
	assert.Contains(t, body, "ID,Title,Author,Category,Active,Created At")
	assert.Contains(t, body, "p1")
	assert.NotContains(t, body, "p2")

	result, err = svc.PostsCSV(context.Background(), true)
	require.NoError(t, err)
	assert.Contains(t, string(result.Content), "p2")
}

func TestPostsPDFRenders(t *testing.T) {
	posts := newFakePostRepo(testPost("p1", "user-margaret", "margaret"))
	svc := newExportServiceForTest(t, posts)

	result, err := svc.PostsPDF(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".pdf"))
	assert.Greater(t, result.Size, 0)
	assert.Equal(t, "%PDF", string(result.Content[:4]))
}
