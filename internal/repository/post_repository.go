package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/magazinehq/magazine-api/internal/models"
)

const postColumns = `p.id, p.title, p.content, p.image, p.active, p.author_id, u.username AS author_username, p.category_id, c.name AS category_name, p.created_at, p.updated_at`

const postJoins = `FROM posts p
	JOIN users u ON u.id = p.author_id
	JOIN categories c ON c.id = p.category_id`

// PostRepository provides database access for articles.
type PostRepository struct {
	db *sqlx.DB
}

// NewPostRepository creates a new instance of PostRepository.
func NewPostRepository(db *sqlx.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a new post.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now

	const query = `INSERT INTO posts (id, title, content, image, active, author_id, category_id, created_at, updated_at)
		VALUES (:id, :title, :content, :image, :active, :author_id, :category_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, post); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// FindByID returns a post with author and category names resolved.
func (r *PostRepository) FindByID(ctx context.Context, id string) (*models.Post, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE p.id = $1 LIMIT 1`, postColumns, postJoins)
	var post models.Post
	if err := r.db.GetContext(ctx, &post, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	return &post, nil
}

// Update persists mutable post fields.
func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	post.UpdatedAt = time.Now().UTC()
	const query = `UPDATE posts SET title = :title, content = :content, image = :image, category_id = :category_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, post); err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// SetActive toggles publication state.
func (r *PostRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE posts SET active = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("set post active: %w", err)
	}
	return nil
}

// ListActive returns all published posts, newest first.
func (r *PostRepository) ListActive(ctx context.Context) ([]models.Post, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE p.active = TRUE ORDER BY p.created_at DESC`, postColumns, postJoins)
	return r.list(ctx, query)
}

// ListDeactivated returns unpublished posts for the editor desk.
func (r *PostRepository) ListDeactivated(ctx context.Context) ([]models.Post, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE p.active = FALSE ORDER BY p.updated_at DESC`, postColumns, postJoins)
	return r.list(ctx, query)
}

// ListRecent returns the newest n published posts.
func (r *PostRepository) ListRecent(ctx context.Context, n int) ([]models.Post, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE p.active = TRUE ORDER BY p.created_at DESC LIMIT $1`, postColumns, postJoins)
	return r.list(ctx, query, n)
}

// ListRandom returns n random published posts.
func (r *PostRepository) ListRandom(ctx context.Context, n int) ([]models.Post, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE p.active = TRUE ORDER BY RANDOM() LIMIT $1`, postColumns, postJoins)
	return r.list(ctx, query, n)
}

// ListByCategoryName returns published posts filed under the named category.
func (r *PostRepository) ListByCategoryName(ctx context.Context, categoryName string) ([]models.Post, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE p.active = TRUE AND c.name = $1 ORDER BY p.created_at DESC`, postColumns, postJoins)
	return r.list(ctx, query, categoryName)
}

// ListByAuthorUsername returns published posts written by the given author.
func (r *PostRepository) ListByAuthorUsername(ctx context.Context, username string) ([]models.Post, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE p.active = TRUE AND u.username = $1 ORDER BY p.created_at DESC`, postColumns, postJoins)
	return r.list(ctx, query, username)
}

// CountByCategoryName counts published posts in the named category.
func (r *PostRepository) CountByCategoryName(ctx context.Context, categoryName string) (int, error) {
	const query = `SELECT COUNT(*) FROM posts p JOIN categories c ON c.id = p.category_id WHERE p.active = TRUE AND c.name = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, categoryName); err != nil {
		return 0, fmt.Errorf("count posts by category: %w", err)
	}
	return total, nil
}

// CountByCategoryID counts all posts referencing the category, used to
// block category deletion while posts still point at it.
func (r *PostRepository) CountByCategoryID(ctx context.Context, categoryID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM posts WHERE category_id = $1`, categoryID); err != nil {
		return 0, fmt.Errorf("count posts by category id: %w", err)
	}
	return total, nil
}

func (r *PostRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Post, error) {
	var posts []models.Post
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}
