package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magazinehq/magazine-api/internal/models"
	appErrors "github.com/magazinehq/magazine-api/pkg/errors"
)

type fakeCategoryStore struct {
	categories map[string]*models.Category
	deleted    []string
}

func newFakeCategoryStore(categories ...*models.Category) *fakeCategoryStore {
	store := &fakeCategoryStore{categories: map[string]*models.Category{}}
	for _, c := range categories {
		store.categories[c.ID] = c
	}
	return store
}

func (f *fakeCategoryStore) Create(_ context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = "cat-" + category.Name
	}
	f.categories[category.ID] = category
	return nil
}

func (f *fakeCategoryStore) FindByID(_ context.Context, id string) (*models.Category, error) {
	if c, ok := f.categories[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCategoryStore) ExistsByName(_ context.Context, name string) (bool, error) {
	for _, c := range f.categories {
		if c.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCategoryStore) List(context.Context) ([]models.Category, error) {
	var out []models.Category
	for _, c := range f.categories {
		if c.Active {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCategoryStore) Update(_ context.Context, category *models.Category) error {
	f.categories[category.ID] = category
	return nil
}

func (f *fakeCategoryStore) Delete(_ context.Context, id string) error {
	delete(f.categories, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakePostCounter struct {
	counts map[string]int
}

func (f *fakePostCounter) CountByCategoryID(_ context.Context, categoryID string) (int, error) {
	return f.counts[categoryID], nil
}

func TestCreateCategoryRejectsDuplicate(t *testing.T) {
	store := newFakeCategoryStore(&models.Category{ID: "cat-1", Name: "culture", Active: true})
	svc := NewCategoryService(store, &fakePostCounter{}, nil, nil)

	_, err := svc.Create(context.Background(), CategoryRequest{Name: "culture"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	created, err := svc.Create(context.Background(), CategoryRequest{Name: "politics"})
	require.NoError(t, err)
	assert.True(t, created.Active)
}

func TestDeleteCategoryBlockedWhileReferenced(t *testing.T) {
	store := newFakeCategoryStore(&models.Category{ID: "cat-1", Name: "culture", Active: true})
	counter := &fakePostCounter{counts: map[string]int{"cat-1": 2}}
	svc := NewCategoryService(store, counter, nil, nil)

	err := svc.Delete(context.Background(), "cat-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Empty(t, store.deleted)

	counter.counts["cat-1"] = 0
	require.NoError(t, svc.Delete(context.Background(), "cat-1"))
	assert.Equal(t, []string{"cat-1"}, store.deleted)
}

func TestDeleteUnknownCategory(t *testing.T) {
	svc := NewCategoryService(newFakeCategoryStore(), &fakePostCounter{}, nil, nil)

	err := svc.Delete(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
