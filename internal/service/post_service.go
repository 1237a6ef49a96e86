package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/magazinehq/magazine-api/internal/models"
	"github.com/magazinehq/magazine-api/internal/repository"
	appErrors "github.com/magazinehq/magazine-api/pkg/errors"
	"github.com/magazinehq/magazine-api/pkg/storage"
)

const (
	cacheKeyActivePosts = "posts:active"
	cachePatternPosts   = "posts:*"
)

type postRepository interface {
	Create(ctx context.Context, post *models.Post) error
	FindByID(ctx context.Context, id string) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	SetActive(ctx context.Context, id string, active bool) error
	ListActive(ctx context.Context) ([]models.Post, error)
	ListDeactivated(ctx context.Context) ([]models.Post, error)
	ListRecent(ctx context.Context, n int) ([]models.Post, error)
	ListRandom(ctx context.Context, n int) ([]models.Post, error)
	ListByCategoryName(ctx context.Context, categoryName string) ([]models.Post, error)
	ListByAuthorUsername(ctx context.Context, username string) ([]models.Post, error)
	CountByCategoryName(ctx context.Context, categoryName string) (int, error)
}

type postCategoryResolver interface {
	FindByID(ctx context.Context, id string) (*models.Category, error)
}

type postUserResolver interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*models.User, error)
}

type postCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CreatePostRequest carries a new article submission.
type CreatePostRequest struct {
	Title      string `json:"title" validate:"required"`
	Content    string `json:"content" validate:"required"`
	CategoryID string `json:"categoryId" validate:"required"`
}

// UpdatePostRequest carries article edits.
type UpdatePostRequest struct {
	Title      string `json:"title" validate:"required"`
	Content    string `json:"content" validate:"required"`
	CategoryID string `json:"categoryId" validate:"required"`
}

// PostService implements the article workflows: authoring, editing,
// publication state and the cached public listings.
type PostService struct {
	posts     postRepository
	users     postUserResolver
	categs    postCategoryResolver
	cache     postCache
	guard     *Guard
	storage   *storage.LocalStorage
	metrics   *MetricsService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPostService creates an instance of PostService.
func NewPostService(posts postRepository, users postUserResolver, categs postCategoryResolver, cache postCache, guard *Guard, store *storage.LocalStorage, metrics *MetricsService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *PostService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &PostService{
		posts:     posts,
		users:     users,
		categs:    categs,
		cache:     cache,
		guard:     guard,
		storage:   store,
		metrics:   metrics,
		cacheTTL:  cacheTTL,
		validator: validate,
		logger:    logger,
	}
}

// Create files a new article authored by the calling principal. The post
// goes live immediately.
func (s *PostService) Create(ctx context.Context, principal string, req CreatePostRequest, image io.Reader, imageName string) (*models.Post, error) {
	return s.create(ctx, principal, "", req, image, imageName)
}

// CreateForAuthor files an article on behalf of the named author. The
// editor desk uses this to publish submissions received out of band.
func (s *PostService) CreateForAuthor(ctx context.Context, principal, authorUsername string, req CreatePostRequest, image io.Reader, imageName string) (*models.Post, error) {
	return s.create(ctx, principal, authorUsername, req, image, imageName)
}

func (s *PostService) create(ctx context.Context, principal, authorUsername string, req CreatePostRequest, image io.Reader, imageName string) (*models.Post, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title, content and categoryId are required")
	}

	if authorUsername == "" {
		authorUsername = principal
	}
	author, err := s.users.FindByUsernameOrEmail(ctx, authorUsername)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "author not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load author")
	}

	category, err := s.categs.FindByID(ctx, req.CategoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}

	post := &models.Post{
		Title:      req.Title,
		Content:    req.Content,
		Active:     true,
		AuthorID:   author.ID,
		CategoryID: category.ID,
	}

	if image != nil {
		stored, err := s.storage.SaveStream(imageName, image)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store post image")
		}
		post.Image = stored
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create post")
	}
	post.AuthorUsername = author.Username
	post.CategoryName = category.Name

	s.invalidateListings(ctx)
	s.logger.Info("post created", zap.String("postID", post.ID), zap.String("author", author.Username))
	return post, nil
}

// Get returns a single post by identifier.
func (s *PostService) Get(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}
	return post, nil
}

// ListActive returns all published posts, served from Redis when warm.
func (s *PostService) ListActive(ctx context.Context) ([]models.Post, error) {
	return s.listCached(ctx, cacheKeyActivePosts, func(ctx context.Context) ([]models.Post, error) {
		return s.posts.ListActive(ctx)
	})
}

// ListRecent returns the n newest published posts.
func (s *PostService) ListRecent(ctx context.Context, n int) ([]models.Post, error) {
	if n <= 0 {
		n = 4
	}
	return s.posts.ListRecent(ctx, n)
}

// ListRandom returns n random published posts for the discovery rail.
func (s *PostService) ListRandom(ctx context.Context, n int) ([]models.Post, error) {
	if n <= 0 {
		n = 3
	}
	return s.posts.ListRandom(ctx, n)
}

// ListByCategory returns published posts filed under the named category.
func (s *PostService) ListByCategory(ctx context.Context, categoryName string) ([]models.Post, error) {
	posts, err := s.posts.ListByCategoryName(ctx, categoryName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list posts by category")
	}
	return posts, nil
}

// ListByAuthor returns published posts written by the named author.
func (s *PostService) ListByAuthor(ctx context.Context, username string) ([]models.Post, error) {
	posts, err := s.posts.ListByAuthorUsername(ctx, username)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list posts by author")
	}
	return posts, nil
}

// ListDeactivated returns the unpublished backlog for the editor desk.
func (s *PostService) ListDeactivated(ctx context.Context) ([]models.Post, error) {
	posts, err := s.posts.ListDeactivated(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list deactivated posts")
	}
	return posts, nil
}

// CountByCategory counts published posts in the named category.
func (s *PostService) CountByCategory(ctx context.Context, categoryName string) (int, error) {
	total, err := s.posts.CountByCategoryName(ctx, categoryName)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count posts")
	}
	return total, nil
}

// Update edits an article. Authors may only edit their own posts; the
// editor and admin routes bypass the ownership check via asEditor.
func (s *PostService) Update(ctx context.Context, principal string, asEditor bool, id string, req UpdatePostRequest, image io.Reader, imageName string) (*models.Post, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title, content and categoryId are required")
	}

	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}

	if !asEditor {
		if err := s.checkPostOwnership(ctx, principal, post); err != nil {
			return nil, err
		}
	}

	category, err := s.categs.FindByID(ctx, req.CategoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}

	post.Title = req.Title
	post.Content = req.Content
	post.CategoryID = category.ID
	post.CategoryName = category.Name

	if image != nil {
		stored, err := s.storage.SaveStream(imageName, image)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store post image")
		}
		post.Image = stored
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update post")
	}

	s.invalidateListings(ctx)
	return post, nil
}

// Deactivate unpublishes a post. Authors may only pull their own work.
func (s *PostService) Deactivate(ctx context.Context, principal string, asEditor bool, id string) error {
	return s.setActive(ctx, principal, asEditor, id, false)
}

// Activate republishes a post from the editor desk.
func (s *PostService) Activate(ctx context.Context, principal string, id string) error {
	return s.setActive(ctx, principal, true, id, true)
}

func (s *PostService) setActive(ctx context.Context, principal string, asEditor bool, id string, active bool) error {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}

	if !asEditor {
		if err := s.checkPostOwnership(ctx, principal, post); err != nil {
			return err
		}
	}

	if err := s.posts.SetActive(ctx, id, active); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to change post state")
	}

	s.invalidateListings(ctx)
	s.logger.Info("post publication state changed", zap.String("postID", id), zap.Bool("active", active))
	return nil
}

func (s *PostService) checkPostOwnership(ctx context.Context, principal string, post *models.Post) error {
	owner, err := s.users.FindByID(ctx, post.AuthorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrAccessDenied
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post author")
	}
	_, err = s.guard.CheckOwnership(ctx, principal, owner)
	return err
}

func (s *PostService) listCached(ctx context.Context, key string, load func(context.Context) ([]models.Post, error)) ([]models.Post, error) {
	var cached []models.Post
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(true)
		}
		return cached, nil
	}
	if !appErrors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("post cache read failed", zap.String("key", key), zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(false)
	}

	start := time.Now()
	posts, err := load(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list posts")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery(key, time.Since(start))
	}

	if err := s.cache.Set(ctx, key, posts, s.cacheTTL); err != nil {
		s.logger.Warn("post cache write failed", zap.String("key", key), zap.Error(err))
	}
	return posts, nil
}

func (s *PostService) invalidateListings(ctx context.Context) {
	if err := s.cache.DeleteByPattern(ctx, cachePatternPosts); err != nil {
		s.logger.Warn("post cache invalidation failed", zap.Error(err))
	}
}

var _ postCache = (*repository.CacheRepository)(nil)
